package lore

import (
	"context"

	"lorekeeper/app/internal/domain/extract"
)

// Page is a reference-site page flattened to plain text lines.
type Page struct {
	URL  string
	Text string
}

// Fetcher retrieves reference pages for lore lookups.
type Fetcher interface {
	// Fetch resolves subject to a page address according to kind and retrieves it.
	Fetch(ctx context.Context, subject string, kind extract.Kind) (*Page, error)
	// FetchPage retrieves a page by its literal slug.
	FetchPage(ctx context.Context, slug string) (*Page, error)
}
