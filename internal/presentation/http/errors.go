package http

import (
	"context"
	stdhttp "net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/getsentry/sentry-go"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"lorekeeper/app/internal/domain/wiki"
)

const errorFallbackMessage = "We couldn't process your request right now."

// statusForError maps domain errors onto HTTP status codes and client messages.
func statusForError(err error) (int, string) {
	switch {
	case err == nil:
		return stdhttp.StatusInternalServerError, errorFallbackMessage
	case eris.Is(err, wiki.ErrInvalid):
		return stdhttp.StatusBadRequest, err.Error()
	case eris.Is(err, wiki.ErrNotFound):
		return stdhttp.StatusNotFound, err.Error()
	case eris.Is(err, wiki.ErrAlreadyExists), eris.Is(err, wiki.ErrAliasConflict):
		return stdhttp.StatusConflict, err.Error()
	case eris.Is(err, wiki.ErrPersistence):
		return stdhttp.StatusServiceUnavailable, "the wiki could not be saved; the change is held in memory"
	default:
		return stdhttp.StatusInternalServerError, errorFallbackMessage
	}
}

// handleError logs unexpected failures and converts err into a Huma status error.
func (s *Server) handleError(ctx context.Context, err error, message string, fields logrus.Fields) error {
	status, clientMessage := statusForError(err)
	if status >= stdhttp.StatusInternalServerError {
		s.recordError(ctx, err, message, fields)
	}
	return huma.NewError(status, clientMessage)
}

func (s *Server) recordError(ctx context.Context, err error, message string, fields logrus.Fields) {
	if err == nil {
		return
	}

	if s.logger != nil {
		entry := s.logger.WithField("error", err.Error())
		if fields != nil {
			entry = entry.WithFields(fields)
		}
		if requestID := RequestIDFromContext(ctx); requestID != "" {
			entry = entry.WithField("request_id", requestID)
		}
		entry.Error(message)
	}

	if hub := sentry.GetHubFromContext(ctx); hub != nil {
		hub.CaptureException(err)
		return
	}
	if s.sentry != nil {
		s.sentry.CaptureException(err)
	}
}
