package wiki

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tidwall/gjson"

	domainwiki "lorekeeper/app/internal/domain/wiki"
)

// Timestamp layouts accepted when decoding documents. Files written by the
// original bot carry naive ISO-8601 timestamps, read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

type documentEntry struct {
	Title     string `json:"title"`
	Content   string `json:"content"`
	AuthorID  string `json:"author_id"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
	EditCount int    `json:"edit_count"`
}

// MarshalDocument encodes doc in the wiki document layout
// {"entries": {community: {key: entry}}, "aliases": {community: {alias: target}}}.
// Entry keys are written in insertion order so a decode restores scan order.
func MarshalDocument(doc *domainwiki.Document) ([]byte, error) {
	if doc == nil {
		return nil, eris.New("document is nil")
	}

	ids := make([]string, 0, len(doc.Communities))
	for id := range doc.Communities {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var buf bytes.Buffer
	buf.WriteString(`{"entries":{`)
	for i, id := range ids {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeKey(&buf, id); err != nil {
			return nil, err
		}
		buf.WriteByte('{')

		community := doc.Communities[id]
		written := 0
		for _, key := range community.Order {
			entry, ok := community.Entries[key]
			if !ok {
				continue
			}
			if written > 0 {
				buf.WriteByte(',')
			}
			if err := writeKey(&buf, key); err != nil {
				return nil, err
			}
			raw, err := json.Marshal(documentEntry{
				Title:     entry.Title,
				Content:   entry.Content,
				AuthorID:  entry.AuthorID,
				CreatedAt: entry.CreatedAt.Format(time.RFC3339Nano),
				UpdatedAt: entry.UpdatedAt.Format(time.RFC3339Nano),
				EditCount: entry.EditCount,
			})
			if err != nil {
				return nil, eris.Wrapf(err, "encoding entry %s", key)
			}
			buf.Write(raw)
			written++
		}
		buf.WriteByte('}')
	}

	buf.WriteString(`},"aliases":{`)
	for i, id := range ids {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeKey(&buf, id); err != nil {
			return nil, err
		}
		aliases := doc.Communities[id].Aliases
		if aliases == nil {
			aliases = map[string]string{}
		}
		raw, err := json.Marshal(aliases)
		if err != nil {
			return nil, eris.Wrapf(err, "encoding aliases for %s", id)
		}
		buf.Write(raw)
	}
	buf.WriteString(`}}`)

	var indented bytes.Buffer
	if err := json.Indent(&indented, buf.Bytes(), "", "  "); err != nil {
		return nil, eris.Wrap(err, "indenting wiki document")
	}
	indented.WriteByte('\n')

	return indented.Bytes(), nil
}

// UnmarshalDocument decodes a wiki document, keeping the key order of each
// community's entries as insertion order.
func UnmarshalDocument(data []byte) (*domainwiki.Document, error) {
	doc := domainwiki.NewDocument()
	if len(bytes.TrimSpace(data)) == 0 {
		return doc, nil
	}

	if !gjson.ValidBytes(data) {
		return nil, eris.New("wiki document is not valid JSON")
	}

	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, eris.New("wiki document must be a JSON object")
	}

	var decodeErr error
	root.Get("entries").ForEach(func(communityID, entries gjson.Result) bool {
		community := ensureCommunity(doc, communityID.String())
		entries.ForEach(func(key, value gjson.Result) bool {
			entry, err := decodeEntry(value)
			if err != nil {
				decodeErr = eris.Wrapf(err, "decoding entry %s/%s", communityID.String(), key.String())
				return false
			}
			normalized := key.String()
			if _, exists := community.Entries[normalized]; !exists {
				community.Order = append(community.Order, normalized)
			}
			community.Entries[normalized] = entry
			return true
		})
		return decodeErr == nil
	})
	if decodeErr != nil {
		return nil, decodeErr
	}

	root.Get("aliases").ForEach(func(communityID, aliases gjson.Result) bool {
		community := ensureCommunity(doc, communityID.String())
		aliases.ForEach(func(alias, target gjson.Result) bool {
			community.Aliases[alias.String()] = target.String()
			return true
		})
		return true
	})

	return doc, nil
}

func decodeEntry(value gjson.Result) (domainwiki.Entry, error) {
	if !value.IsObject() {
		return domainwiki.Entry{}, eris.New("entry must be a JSON object")
	}

	createdAt, err := parseTimestamp(value.Get("created_at").String())
	if err != nil {
		return domainwiki.Entry{}, eris.Wrap(err, "parsing created_at")
	}
	updatedAt, err := parseTimestamp(value.Get("updated_at").String())
	if err != nil {
		return domainwiki.Entry{}, eris.Wrap(err, "parsing updated_at")
	}

	// author_id may be a JSON number in documents written by the original bot;
	// String returns the raw number text in that case.
	return domainwiki.Entry{
		Title:     value.Get("title").String(),
		Content:   value.Get("content").String(),
		AuthorID:  value.Get("author_id").String(),
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
		EditCount: int(value.Get("edit_count").Int()),
	}, nil
}

func parseTimestamp(raw string) (time.Time, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return time.Time{}, nil
	}

	var lastErr error
	for _, layout := range timestampLayouts {
		parsed, err := time.ParseInLocation(layout, trimmed, time.UTC)
		if err == nil {
			return parsed, nil
		}
		lastErr = err
	}
	return time.Time{}, eris.Wrapf(lastErr, "unrecognised timestamp %q", trimmed)
}

func writeKey(buf *bytes.Buffer, key string) error {
	raw, err := json.Marshal(key)
	if err != nil {
		return eris.Wrapf(err, "encoding key %q", key)
	}
	buf.Write(raw)
	buf.WriteByte(':')
	return nil
}
