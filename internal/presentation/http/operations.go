package http

import (
	stdhttp "net/http"

	"github.com/danielgtaylor/huma/v2"
)

func operation(summary, tag string, modifiers ...func(op *huma.Operation)) func(op *huma.Operation) {
	return func(op *huma.Operation) {
		op.Summary = summary
		if tag != "" {
			op.Tags = []string{tag}
		}
		for _, modify := range modifiers {
			modify(op)
		}
	}
}

func withStatus(status int) func(op *huma.Operation) {
	return func(op *huma.Operation) {
		op.DefaultStatus = status
	}
}

// htmlResponses documents the embed route as returning text/html.
func htmlResponses(op *huma.Operation) {
	if op.Responses == nil {
		op.Responses = map[string]*huma.Response{}
	}
	op.Responses["200"] = &huma.Response{
		Description: stdhttp.StatusText(stdhttp.StatusOK),
		Content: map[string]*huma.MediaType{
			htmlContentType: {
				Schema: &huma.Schema{Type: "string"},
			},
		},
	}
}
