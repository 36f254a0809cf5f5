package http

import (
	"context"
	stdhttp "net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/sirupsen/logrus"
)

type welcomeChannelInput struct {
	Guild string `path:"guild" doc:"Community identifier"`
	Body  struct {
		ChannelID string `json:"channel_id,omitempty"`
	}
}

type welcomeChannelOutput struct {
	Body struct {
		CommunityID      string `json:"community_id"`
		WelcomeChannelID string `json:"welcome_channel_id"`
	}
}

func (s *Server) registerGuildRoutes() {
	path := "/guilds/{guild}/settings/welcome-channel"
	huma.Get(s.api, path, s.getWelcomeChannelHandler, operation("Get the welcome channel", "settings"))
	huma.Put(s.api, path, s.setWelcomeChannelHandler, operation("Set the welcome channel", "settings"))
	huma.Delete(s.api, path, s.removeWelcomeChannelHandler, operation("Remove the welcome channel", "settings", withStatus(stdhttp.StatusNoContent)))
}

func (s *Server) getWelcomeChannelHandler(ctx context.Context, input *guildInput) (*welcomeChannelOutput, error) {
	guild := strings.TrimSpace(input.Guild)
	settings, err := s.guilds.Get(ctx, guild)
	if err != nil {
		s.recordError(ctx, err, "loading guild settings", logrus.Fields{"community": guild})
		return nil, huma.Error500InternalServerError(errorFallbackMessage)
	}
	if settings == nil || settings.WelcomeChannelID == "" {
		return nil, huma.Error404NotFound("no welcome channel configured")
	}

	out := &welcomeChannelOutput{}
	out.Body.CommunityID = settings.CommunityID
	out.Body.WelcomeChannelID = settings.WelcomeChannelID
	return out, nil
}

func (s *Server) setWelcomeChannelHandler(ctx context.Context, input *welcomeChannelInput) (*welcomeChannelOutput, error) {
	guild := strings.TrimSpace(input.Guild)
	channel := strings.TrimSpace(input.Body.ChannelID)
	if channel == "" {
		return nil, huma.Error400BadRequest("channel_id is required")
	}

	if err := s.guilds.SetWelcomeChannel(ctx, guild, channel); err != nil {
		s.recordError(ctx, err, "saving welcome channel", logrus.Fields{"community": guild})
		return nil, huma.Error500InternalServerError(errorFallbackMessage)
	}

	out := &welcomeChannelOutput{}
	out.Body.CommunityID = guild
	out.Body.WelcomeChannelID = channel
	return out, nil
}

func (s *Server) removeWelcomeChannelHandler(ctx context.Context, input *guildInput) (*struct{}, error) {
	guild := strings.TrimSpace(input.Guild)
	removed, err := s.guilds.RemoveWelcomeChannel(ctx, guild)
	if err != nil {
		s.recordError(ctx, err, "removing welcome channel", logrus.Fields{"community": guild})
		return nil, huma.Error500InternalServerError(errorFallbackMessage)
	}
	if !removed {
		return nil, huma.Error404NotFound("no welcome channel configured")
	}
	return &struct{}{}, nil
}
