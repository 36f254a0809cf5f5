package wiki

import (
	"context"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"lorekeeper/app/internal/domain/extract"
	"lorekeeper/app/internal/domain/lore"
)

const (
	defaultSearchLimit = 10
	defaultListLimit   = 15
)

// FactPages are the reference pages a random fact is drawn from.
var FactPages = []string{
	"Lord_of_Mysteries_Wiki",
	"Klein_Moretti",
	"Pathways",
	"Sealed_Artifacts",
	"Gods",
	"Angels",
	"Beyonder",
	"History_of_the_World",
}

// Service defines the operations the command layer invokes.
type Service interface {
	AddEntry(ctx context.Context, communityID, title, content, authorID string) (*Entry, error)
	GetEntry(ctx context.Context, communityID, title string) (*Entry, error)
	EditEntry(ctx context.Context, communityID, title, content, authorID string) (*Entry, error)
	DeleteEntry(ctx context.Context, communityID, title string) error
	Search(ctx context.Context, communityID, query string, limit int) ([]SearchResult, error)
	List(ctx context.Context, communityID string, limit int) ([]ListItem, error)
	AddAlias(ctx context.Context, communityID, alias, targetTitle string) error

	LookupCharacter(ctx context.Context, name string) (*extract.Character, error)
	LookupPathway(ctx context.Context, name string) (*extract.Pathway, error)
	LookupGeneral(ctx context.Context, term string) (*extract.General, error)
	RandomFact(ctx context.Context) (string, error)
}

// ServiceOptions configures the wiki service.
type ServiceOptions struct {
	Store     *Store
	Fetcher   lore.Fetcher
	Logger    *logrus.Logger
	SentryHub *sentry.Hub
	// StrictPersistence surfaces commit failures to callers instead of only
	// logging them.
	StrictPersistence bool
	// Random drives fact selection. A time-seeded source is used when nil.
	Random *rand.Rand
}

type service struct {
	store     *Store
	fetcher   lore.Fetcher
	logger    *logrus.Logger
	sentryHub *sentry.Hub
	strict    bool

	rngMu sync.Mutex
	rng   *rand.Rand
}

var _ Service = (*service)(nil)

// NewService wires the wiki service with its dependencies.
func NewService(opts ServiceOptions) (Service, error) {
	if opts.Store == nil {
		return nil, eris.New("wiki store is required")
	}
	if opts.Fetcher == nil {
		return nil, eris.New("lore fetcher is required")
	}

	rng := opts.Random
	if rng == nil {
		seed := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(seed, seed>>1))
	}

	return &service{
		store:     opts.Store,
		fetcher:   opts.Fetcher,
		logger:    opts.Logger,
		sentryHub: opts.SentryHub,
		strict:    opts.StrictPersistence,
		rng:       rng,
	}, nil
}

func (s *service) AddEntry(ctx context.Context, communityID, title, content, authorID string) (*Entry, error) {
	community, trimmedTitle, err := requireScope(communityID, title)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(content) == "" {
		return nil, eris.Wrap(ErrInvalid, "content is required")
	}

	if existing := s.store.Get(community, trimmedTitle); existing != nil {
		return nil, eris.Wrapf(ErrAlreadyExists, "entry %s", trimmedTitle)
	}

	_, err = s.store.Add(ctx, community, trimmedTitle, content, authorID)
	if err := s.persistenceOutcome(logrus.Fields{"community": community, "title": trimmedTitle}, err, "adding wiki entry"); err != nil {
		return nil, err
	}

	return s.store.Get(community, trimmedTitle), nil
}

func (s *service) GetEntry(_ context.Context, communityID, title string) (*Entry, error) {
	community, trimmedTitle, err := requireScope(communityID, title)
	if err != nil {
		return nil, err
	}

	entry := s.store.Get(community, trimmedTitle)
	if entry == nil {
		return nil, eris.Wrapf(ErrNotFound, "entry %s", trimmedTitle)
	}
	return entry, nil
}

func (s *service) EditEntry(ctx context.Context, communityID, title, content, authorID string) (*Entry, error) {
	community, trimmedTitle, err := requireScope(communityID, title)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(content) == "" {
		return nil, eris.Wrap(ErrInvalid, "content is required")
	}

	ok, err := s.store.Edit(ctx, community, trimmedTitle, content, authorID)
	if !ok && err == nil {
		return nil, eris.Wrapf(ErrNotFound, "entry %s", trimmedTitle)
	}
	if err := s.persistenceOutcome(logrus.Fields{"community": community, "title": trimmedTitle}, err, "editing wiki entry"); err != nil {
		return nil, err
	}

	return s.store.Get(community, trimmedTitle), nil
}

func (s *service) DeleteEntry(ctx context.Context, communityID, title string) error {
	community, trimmedTitle, err := requireScope(communityID, title)
	if err != nil {
		return err
	}

	ok, err := s.store.Delete(ctx, community, trimmedTitle)
	if !ok && err == nil {
		return eris.Wrapf(ErrNotFound, "entry %s", trimmedTitle)
	}
	return s.persistenceOutcome(logrus.Fields{"community": community, "title": trimmedTitle}, err, "deleting wiki entry")
}

func (s *service) Search(_ context.Context, communityID, query string, limit int) ([]SearchResult, error) {
	community, trimmedQuery, err := requireScope(communityID, query)
	if err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = defaultSearchLimit
	}

	return s.store.Search(community, trimmedQuery, limit), nil
}

func (s *service) List(_ context.Context, communityID string, limit int) ([]ListItem, error) {
	community := strings.TrimSpace(communityID)
	if community == "" {
		return nil, eris.Wrap(ErrInvalid, "community id is required")
	}

	if limit <= 0 {
		limit = defaultListLimit
	}

	return s.store.List(community, limit), nil
}

func (s *service) AddAlias(ctx context.Context, communityID, alias, targetTitle string) error {
	community, trimmedAlias, err := requireScope(communityID, alias)
	if err != nil {
		return err
	}
	trimmedTarget := strings.TrimSpace(targetTitle)
	if trimmedTarget == "" {
		return eris.Wrap(ErrInvalid, "alias target is required")
	}

	ok, err := s.store.AddAlias(ctx, community, trimmedAlias, trimmedTarget)
	if err != nil && eris.Is(err, ErrAliasConflict) {
		return err
	}
	if !ok && err == nil {
		return eris.Wrapf(ErrNotFound, "alias target %s", trimmedTarget)
	}
	return s.persistenceOutcome(logrus.Fields{"community": community, "alias": trimmedAlias, "target": trimmedTarget}, err, "adding wiki alias")
}

func (s *service) LookupCharacter(ctx context.Context, name string) (*extract.Character, error) {
	page, subject, err := s.fetch(ctx, name, extract.KindCharacter)
	if err != nil {
		return nil, err
	}

	record := extract.ExtractCharacter(page.Text, subject, page.URL)
	return &record, nil
}

func (s *service) LookupPathway(ctx context.Context, name string) (*extract.Pathway, error) {
	page, subject, err := s.fetch(ctx, name, extract.KindPathway)
	if err != nil {
		return nil, err
	}

	record := extract.ExtractPathway(page.Text, subject, page.URL)
	return &record, nil
}

func (s *service) LookupGeneral(ctx context.Context, term string) (*extract.General, error) {
	page, subject, err := s.fetch(ctx, term, extract.KindGeneral)
	if err != nil {
		return nil, err
	}

	record := extract.ExtractGeneral(page.Text, subject, page.URL)
	return &record, nil
}

// RandomFact returns ErrNotFound when the chosen page cannot be fetched or is
// empty. A page with content but no qualifying line yields the fallback fact.
func (s *service) RandomFact(ctx context.Context) (string, error) {
	s.rngMu.Lock()
	slug := FactPages[s.rng.IntN(len(FactPages))]
	s.rngMu.Unlock()

	page, err := s.fetcher.FetchPage(ctx, slug)
	if err != nil {
		if s.logger != nil {
			s.logger.WithFields(logrus.Fields{"page": slug, "error": err.Error()}).Warn("fact page unavailable")
		}
		return "", eris.Wrapf(ErrNotFound, "fact page %s", slug)
	}
	if page == nil || strings.TrimSpace(page.Text) == "" {
		return "", eris.Wrapf(ErrNotFound, "fact page %s has no content", slug)
	}

	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return extract.RandomFact(page.Text, s.rng), nil
}

func (s *service) fetch(ctx context.Context, subject string, kind extract.Kind) (*lore.Page, string, error) {
	trimmed := strings.TrimSpace(subject)
	if trimmed == "" {
		return nil, "", eris.Wrapf(ErrInvalid, "%s name is required", kind)
	}

	page, err := s.fetcher.Fetch(ctx, trimmed, kind)
	if err != nil {
		if s.logger != nil {
			s.logger.WithFields(logrus.Fields{"subject": trimmed, "kind": kind.String(), "error": err.Error()}).Warn("lore page unavailable")
		}
		return nil, "", eris.Wrapf(ErrNotFound, "%s %s", kind, trimmed)
	}
	if page == nil || strings.TrimSpace(page.Text) == "" {
		return nil, "", eris.Wrapf(ErrNotFound, "%s %s has no content", kind, trimmed)
	}

	return page, trimmed, nil
}

// persistenceOutcome reports a commit failure and decides whether the caller
// sees it.
func (s *service) persistenceOutcome(fields logrus.Fields, err error, message string) error {
	if err == nil {
		return nil
	}

	s.recordError(fields, err, message)
	if eris.Is(err, ErrPersistence) && !s.strict {
		return nil
	}
	return err
}

func (s *service) recordError(fields logrus.Fields, err error, message string) {
	if err == nil {
		return
	}

	if s.logger != nil {
		entry := s.logger.WithField("error", err.Error())
		if len(fields) > 0 {
			entry = entry.WithFields(fields)
		}
		entry.Error(message)
	}

	if s.sentryHub != nil {
		s.sentryHub.CaptureException(err)
	}
}

func requireScope(communityID, value string) (string, string, error) {
	community := strings.TrimSpace(communityID)
	if community == "" {
		return "", "", eris.Wrap(ErrInvalid, "community id is required")
	}

	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", "", eris.Wrap(ErrInvalid, "title is required")
	}

	return community, trimmed, nil
}
