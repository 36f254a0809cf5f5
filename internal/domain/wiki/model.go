package wiki

import (
	"strings"
	"time"
)

// Match types reported by search results.
const (
	MatchTitle   = "title"
	MatchContent = "content"
)

// Entry represents a community wiki entry within the domain layer.
type Entry struct {
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	AuthorID  string    `json:"author_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	EditCount int       `json:"edit_count"`
}

// Key returns the normalized key the entry is stored under.
func (e Entry) Key() string {
	return NormalizeKey(e.Title)
}

// SearchResult represents a wiki entry returned by search operations.
type SearchResult struct {
	Title     string `json:"title"`
	Snippet   string `json:"snippet"`
	MatchType string `json:"match_type"`
}

// ListItem is the summary shape returned when listing a community's entries.
type ListItem struct {
	Title     string    `json:"title"`
	Snippet   string    `json:"snippet"`
	CreatedAt time.Time `json:"created_at"`
	EditCount int       `json:"edit_count"`
}

// Community holds the entries and aliases of one community. Order records
// insertion order of entry keys and drives search scans.
type Community struct {
	Entries map[string]Entry
	Order   []string
	Aliases map[string]string
}

// NewCommunity returns an empty community.
func NewCommunity() *Community {
	return &Community{
		Entries: make(map[string]Entry),
		Aliases: make(map[string]string),
	}
}

// Document is the complete persisted wiki state keyed by community identifier.
type Document struct {
	Communities map[string]*Community
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{Communities: make(map[string]*Community)}
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() *Document {
	clone := NewDocument()
	if d == nil {
		return clone
	}

	for id, community := range d.Communities {
		copied := NewCommunity()
		for key, entry := range community.Entries {
			copied.Entries[key] = entry
		}
		copied.Order = append([]string(nil), community.Order...)
		for alias, target := range community.Aliases {
			copied.Aliases[alias] = target
		}
		clone.Communities[id] = copied
	}

	return clone
}

// NormalizeKey lowercases a title after trimming surrounding whitespace.
func NormalizeKey(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}

func snippet(content string, max int) string {
	runes := []rune(content)
	if len(runes) <= max {
		return content
	}
	return string(runes[:max]) + "..."
}
