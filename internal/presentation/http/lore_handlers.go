package http

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
	"github.com/sirupsen/logrus"

	"lorekeeper/app/internal/domain/extract"
)

type loreNameInput struct {
	Name string `path:"name" doc:"Subject to look up on the reference wiki"`
}

type loreTermInput struct {
	Term string `path:"term" doc:"Page to look up on the reference wiki"`
}

type characterOutput struct {
	Body *extract.Character
}

type pathwayOutput struct {
	Body *extract.Pathway
}

type generalOutput struct {
	Body *extract.General
}

type factOutput struct {
	Body struct {
		Fact string `json:"fact"`
	}
}

func (s *Server) registerLoreRoutes() {
	huma.Get(s.api, "/lore/characters/{name}", s.characterHandler, operation("Look up a character", "lore"))
	huma.Get(s.api, "/lore/pathways/{name}", s.pathwayHandler, operation("Look up a pathway", "lore"))
	huma.Get(s.api, "/lore/search/{term}", s.generalHandler, operation("Look up any page", "lore"))
	huma.Get(s.api, "/lore/fact", s.factHandler, operation("Get a random lore fact", "lore"))
}

func (s *Server) characterHandler(ctx context.Context, input *loreNameInput) (*characterOutput, error) {
	record, err := s.wiki.LookupCharacter(ctx, input.Name)
	if err != nil {
		return nil, s.handleError(ctx, err, "looking up character", logrus.Fields{"name": input.Name})
	}
	return &characterOutput{Body: record}, nil
}

func (s *Server) pathwayHandler(ctx context.Context, input *loreNameInput) (*pathwayOutput, error) {
	record, err := s.wiki.LookupPathway(ctx, input.Name)
	if err != nil {
		return nil, s.handleError(ctx, err, "looking up pathway", logrus.Fields{"name": input.Name})
	}
	return &pathwayOutput{Body: record}, nil
}

func (s *Server) generalHandler(ctx context.Context, input *loreTermInput) (*generalOutput, error) {
	record, err := s.wiki.LookupGeneral(ctx, input.Term)
	if err != nil {
		return nil, s.handleError(ctx, err, "looking up page", logrus.Fields{"term": input.Term})
	}
	return &generalOutput{Body: record}, nil
}

func (s *Server) factHandler(ctx context.Context, _ *struct{}) (*factOutput, error) {
	fact, err := s.wiki.RandomFact(ctx)
	if err != nil {
		return nil, s.handleError(ctx, err, "picking random fact", nil)
	}

	out := &factOutput{}
	out.Body.Fact = fact
	return out, nil
}
