package templates

import "time"

// EntryEmbedData contains the values rendered in an entry preview card.
type EntryEmbedData struct {
	Community string
	Title     string
	Content   string
	AuthorID  string
	CreatedAt time.Time
	UpdatedAt time.Time
	EditCount int
}
