// Package templates holds the templ components served by the HTTP layer.
package templates

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"
)

const embedTimeLayout = "2006-01-02 15:04 UTC"

// EntryEmbed renders a self-contained HTML card previewing a wiki entry.
func EntryEmbed(data EntryEmbedData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		var b strings.Builder
		b.WriteString(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"><title>`)
		b.WriteString(templ.EscapeString(data.Title))
		b.WriteString(`</title></head><body>`)
		fmt.Fprintf(&b, `<article class="wiki-embed" data-community="%s">`, templ.EscapeString(data.Community))
		fmt.Fprintf(&b, `<h1>📖 %s</h1>`, templ.EscapeString(data.Title))

		b.WriteString(`<div class="wiki-embed__content">`)
		for _, paragraph := range strings.Split(data.Content, "\n") {
			if strings.TrimSpace(paragraph) == "" {
				continue
			}
			fmt.Fprintf(&b, `<p>%s</p>`, templ.EscapeString(paragraph))
		}
		b.WriteString(`</div><footer>`)

		if data.AuthorID != "" {
			fmt.Fprintf(&b, `<span class="wiki-embed__author">Author: %s</span>`, templ.EscapeString(data.AuthorID))
		}
		fmt.Fprintf(&b, `<span class="wiki-embed__created">Created: %s</span>`, data.CreatedAt.UTC().Format(embedTimeLayout))
		if data.EditCount > 0 {
			fmt.Fprintf(&b, `<span class="wiki-embed__edited">Edited %d times, last %s</span>`, data.EditCount, data.UpdatedAt.UTC().Format(embedTimeLayout))
		}
		b.WriteString(`</footer></article></body></html>`)

		_, err := io.WriteString(w, b.String())
		return err
	})
}
