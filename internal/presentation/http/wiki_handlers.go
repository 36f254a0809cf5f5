package http

import (
	"context"
	stdhttp "net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/sirupsen/logrus"

	"lorekeeper/app/internal/domain/wiki"
	"lorekeeper/app/internal/presentation/http/templates"
)

type guildInput struct {
	Guild string `path:"guild" doc:"Community identifier"`
}

type entryInput struct {
	Guild string `path:"guild" doc:"Community identifier"`
	Title string `path:"title" doc:"Entry title or alias"`
}

type createEntryInput struct {
	Guild string `path:"guild" doc:"Community identifier"`
	Body  struct {
		Title    string `json:"title,omitempty" doc:"Display title"`
		Content  string `json:"content,omitempty"`
		AuthorID string `json:"author_id,omitempty"`
	}
}

type editEntryInput struct {
	Guild string `path:"guild" doc:"Community identifier"`
	Title string `path:"title" doc:"Entry title"`
	Body  struct {
		Content  string `json:"content,omitempty"`
		AuthorID string `json:"author_id,omitempty"`
	}
}

type searchInput struct {
	Guild string `path:"guild" doc:"Community identifier"`
	Query string `query:"q" doc:"Case-insensitive substring"`
	Limit int    `query:"limit" minimum:"0" doc:"Maximum results, 10 when omitted"`
}

type listInput struct {
	Guild string `path:"guild" doc:"Community identifier"`
	Limit int    `query:"limit" minimum:"0" doc:"Maximum entries, 15 when omitted"`
}

type aliasInput struct {
	Guild string `path:"guild" doc:"Community identifier"`
	Body  struct {
		Alias  string `json:"alias,omitempty"`
		Target string `json:"target,omitempty" doc:"Title of the existing entry"`
	}
}

type entryOutput struct {
	Body *wiki.Entry
}

type searchOutput struct {
	Body struct {
		Results []wiki.SearchResult `json:"results"`
	}
}

type listOutput struct {
	Body struct {
		Entries []wiki.ListItem `json:"entries"`
	}
}

type aliasOutput struct {
	Body struct {
		Alias  string `json:"alias"`
		Target string `json:"target"`
	}
}

func (s *Server) registerWikiRoutes() {
	huma.Get(s.api, "/guilds/{guild}/wiki/{title}", s.getEntryHandler, operation("Get a wiki entry", "wiki"))
	huma.Post(s.api, "/guilds/{guild}/wiki", s.createEntryHandler, operation("Create a wiki entry", "wiki", withStatus(stdhttp.StatusCreated)))
	huma.Put(s.api, "/guilds/{guild}/wiki/{title}", s.editEntryHandler, operation("Edit a wiki entry", "wiki"))
	huma.Delete(s.api, "/guilds/{guild}/wiki/{title}", s.deleteEntryHandler, operation("Delete a wiki entry", "wiki", withStatus(stdhttp.StatusNoContent)))
	huma.Get(s.api, "/guilds/{guild}/wiki", s.searchHandler, operation("Search wiki entries", "wiki"))
	huma.Get(s.api, "/guilds/{guild}/wiki-list", s.listHandler, operation("List wiki entries, newest first", "wiki"))
	huma.Post(s.api, "/guilds/{guild}/aliases", s.aliasHandler, operation("Create an alias for an entry", "wiki", withStatus(stdhttp.StatusCreated)))
	huma.Get(s.api, "/guilds/{guild}/wiki/{title}/embed", s.embedHandler, operation("Render an HTML preview card", "wiki", htmlResponses))
}

func (s *Server) getEntryHandler(ctx context.Context, input *entryInput) (*entryOutput, error) {
	entry, err := s.wiki.GetEntry(ctx, input.Guild, input.Title)
	if err != nil {
		return nil, s.handleError(ctx, err, "getting wiki entry", logrus.Fields{"community": input.Guild, "title": input.Title})
	}
	return &entryOutput{Body: entry}, nil
}

func (s *Server) createEntryHandler(ctx context.Context, input *createEntryInput) (*entryOutput, error) {
	entry, err := s.wiki.AddEntry(ctx, input.Guild, input.Body.Title, input.Body.Content, input.Body.AuthorID)
	if err != nil {
		return nil, s.handleError(ctx, err, "creating wiki entry", logrus.Fields{"community": input.Guild, "title": input.Body.Title})
	}
	return &entryOutput{Body: entry}, nil
}

func (s *Server) editEntryHandler(ctx context.Context, input *editEntryInput) (*entryOutput, error) {
	entry, err := s.wiki.EditEntry(ctx, input.Guild, input.Title, input.Body.Content, input.Body.AuthorID)
	if err != nil {
		return nil, s.handleError(ctx, err, "editing wiki entry", logrus.Fields{"community": input.Guild, "title": input.Title})
	}
	return &entryOutput{Body: entry}, nil
}

func (s *Server) deleteEntryHandler(ctx context.Context, input *entryInput) (*struct{}, error) {
	if err := s.wiki.DeleteEntry(ctx, input.Guild, input.Title); err != nil {
		return nil, s.handleError(ctx, err, "deleting wiki entry", logrus.Fields{"community": input.Guild, "title": input.Title})
	}
	return &struct{}{}, nil
}

func (s *Server) searchHandler(ctx context.Context, input *searchInput) (*searchOutput, error) {
	results, err := s.wiki.Search(ctx, input.Guild, input.Query, input.Limit)
	if err != nil {
		return nil, s.handleError(ctx, err, "searching wiki", logrus.Fields{"community": input.Guild, "query": input.Query})
	}

	out := &searchOutput{}
	out.Body.Results = results
	return out, nil
}

func (s *Server) listHandler(ctx context.Context, input *listInput) (*listOutput, error) {
	items, err := s.wiki.List(ctx, input.Guild, input.Limit)
	if err != nil {
		return nil, s.handleError(ctx, err, "listing wiki", logrus.Fields{"community": input.Guild})
	}

	out := &listOutput{}
	out.Body.Entries = items
	return out, nil
}

func (s *Server) aliasHandler(ctx context.Context, input *aliasInput) (*aliasOutput, error) {
	if err := s.wiki.AddAlias(ctx, input.Guild, input.Body.Alias, input.Body.Target); err != nil {
		return nil, s.handleError(ctx, err, "adding wiki alias", logrus.Fields{"community": input.Guild, "alias": input.Body.Alias})
	}

	out := &aliasOutput{}
	out.Body.Alias = wiki.NormalizeKey(input.Body.Alias)
	out.Body.Target = wiki.NormalizeKey(input.Body.Target)
	return out, nil
}

func (s *Server) embedHandler(ctx context.Context, input *entryInput) (*htmlResponse, error) {
	entry, err := s.wiki.GetEntry(ctx, input.Guild, input.Title)
	if err != nil {
		return nil, s.handleError(ctx, err, "getting wiki entry for embed", logrus.Fields{"community": input.Guild, "title": input.Title})
	}

	body, err := renderComponent(ctx, templates.EntryEmbed(templates.EntryEmbedData{
		Community: input.Guild,
		Title:     entry.Title,
		Content:   entry.Content,
		AuthorID:  entry.AuthorID,
		CreatedAt: entry.CreatedAt,
		UpdatedAt: entry.UpdatedAt,
		EditCount: entry.EditCount,
	}))
	if err != nil {
		s.recordError(ctx, err, "rendering wiki embed", logrus.Fields{"community": input.Guild, "title": input.Title})
		return nil, huma.Error500InternalServerError(errorFallbackMessage)
	}

	return newHTMLResponse(stdhttp.StatusOK, body), nil
}
