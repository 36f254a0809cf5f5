package http

import (
	"context"
	"encoding/json"
	"io"
	stdhttp "net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	datawiki "lorekeeper/app/internal/data/wiki"
	"lorekeeper/app/internal/domain/extract"
	"lorekeeper/app/internal/domain/guild"
	"lorekeeper/app/internal/domain/lore"
	"lorekeeper/app/internal/domain/wiki"
)

func TestCreateAndGetEntry(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, "POST", "/guilds/g1/wiki", `{"title":"Klein Moretti","content":"The Fool.","author_id":"42"}`)
	if rec.Code != stdhttp.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, srv, "GET", "/guilds/g1/wiki/klein%20moretti", "")
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var entry wiki.Entry
	decodeBody(t, rec, &entry)
	if entry.Title != "Klein Moretti" || entry.Content != "The Fool." || entry.AuthorID != "42" {
		t.Fatalf("unexpected entry %+v", entry)
	}

	if id := rec.Header().Get("X-Request-ID"); id == "" {
		t.Fatalf("expected request id header to be set")
	}
}

func TestCreateDuplicateEntryConflicts(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)

	doJSON(t, srv, "POST", "/guilds/g1/wiki", `{"title":"Audrey","content":"Justice."}`)
	rec := doJSON(t, srv, "POST", "/guilds/g1/wiki", `{"title":"AUDREY","content":"Again."}`)
	if rec.Code != stdhttp.StatusConflict {
		t.Fatalf("expected status 409, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestCreateEntryWithBlankTitleIsBadRequest(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, "POST", "/guilds/g1/wiki", `{"title":"   ","content":"text"}`)
	if rec.Code != stdhttp.StatusBadRequest {
		t.Fatalf("expected status 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestMissingEntryReturns404(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)

	for _, method := range []string{"GET", "DELETE"} {
		rec := doJSON(t, srv, method, "/guilds/g1/wiki/nobody", "")
		if rec.Code != stdhttp.StatusNotFound {
			t.Fatalf("%s: expected status 404, got %d", method, rec.Code)
		}
	}

	rec := doJSON(t, srv, "PUT", "/guilds/g1/wiki/nobody", `{"content":"text"}`)
	if rec.Code != stdhttp.StatusNotFound {
		t.Fatalf("PUT: expected status 404, got %d", rec.Code)
	}
}

func TestEditAndDeleteEntry(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)

	doJSON(t, srv, "POST", "/guilds/g1/wiki", `{"title":"Derrick","content":"Sun."}`)

	rec := doJSON(t, srv, "PUT", "/guilds/g1/wiki/derrick", `{"content":"The Sun.","author_id":"9"}`)
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var entry wiki.Entry
	decodeBody(t, rec, &entry)
	if entry.Content != "The Sun." || entry.EditCount != 1 {
		t.Fatalf("unexpected edited entry %+v", entry)
	}

	rec = doJSON(t, srv, "DELETE", "/guilds/g1/wiki/Derrick", "")
	if rec.Code != stdhttp.StatusNoContent {
		t.Fatalf("expected status 204, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestSearchAndList(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)

	doJSON(t, srv, "POST", "/guilds/g1/wiki", `{"title":"Seer","content":"First rung."}`)
	doJSON(t, srv, "POST", "/guilds/g1/wiki", `{"title":"Clown","content":"After the seer."}`)

	rec := doJSON(t, srv, "GET", "/guilds/g1/wiki?q=seer&limit=5", "")
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var search struct {
		Results []wiki.SearchResult `json:"results"`
	}
	decodeBody(t, rec, &search)
	if len(search.Results) != 2 || search.Results[0].MatchType != wiki.MatchTitle || search.Results[1].MatchType != wiki.MatchContent {
		t.Fatalf("unexpected search results %+v", search.Results)
	}

	rec = doJSON(t, srv, "GET", "/guilds/g1/wiki-list?limit=1", "")
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var list struct {
		Entries []wiki.ListItem `json:"entries"`
	}
	decodeBody(t, rec, &list)
	if len(list.Entries) != 1 {
		t.Fatalf("expected 1 listed entry, got %d", len(list.Entries))
	}
}

func TestAliasRoutes(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)

	doJSON(t, srv, "POST", "/guilds/g1/wiki", `{"title":"Klein Moretti","content":"The Fool."}`)

	rec := doJSON(t, srv, "POST", "/guilds/g1/aliases", `{"alias":"Sherlock","target":"Klein Moretti"}`)
	if rec.Code != stdhttp.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, srv, "GET", "/guilds/g1/wiki/sherlock", "")
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("expected alias lookup to succeed, got %d", rec.Code)
	}

	rec = doJSON(t, srv, "POST", "/guilds/g1/aliases", `{"alias":"x","target":"nobody"}`)
	if rec.Code != stdhttp.StatusNotFound {
		t.Fatalf("expected status 404 for missing target, got %d", rec.Code)
	}

	rec = doJSON(t, srv, "POST", "/guilds/g1/aliases", `{"alias":"klein moretti","target":"Klein Moretti"}`)
	if rec.Code != stdhttp.StatusConflict {
		t.Fatalf("expected status 409 for colliding alias, got %d", rec.Code)
	}
}

func TestEmbedRendersHTML(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)

	doJSON(t, srv, "POST", "/guilds/g1/wiki", `{"title":"Tarot Club","content":"A <secret> gathering."}`)

	rec := doJSON(t, srv, "GET", "/guilds/g1/wiki/tarot%20club/embed", "")
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != htmlContentType {
		t.Fatalf("expected content type %q, got %q", htmlContentType, ct)
	}
	if body := rec.Body.String(); !strings.Contains(body, "A &lt;secret&gt; gathering.") {
		t.Fatalf("expected escaped content in body, got %q", body)
	}
}

func TestLoreRoutes(t *testing.T) {
	t.Parallel()

	srv, fetcher := newTestServer(t)
	fetcher.text = "Overview\nThe pathway of mysteries and divination arts."

	rec := doJSON(t, srv, "GET", "/lore/pathways/Fool", "")
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var pathway extract.Pathway
	decodeBody(t, rec, &pathway)
	if pathway.Title != "Fool Pathway" || pathway.GeneralInformation == "" {
		t.Fatalf("unexpected pathway %+v", pathway)
	}

	fetcher.err = eris.New("status 404")
	rec = doJSON(t, srv, "GET", "/lore/characters/Nobody", "")
	if rec.Code != stdhttp.StatusNotFound {
		t.Fatalf("expected status 404 when the page is missing, got %d", rec.Code)
	}

	rec = doJSON(t, srv, "GET", "/lore/fact", "")
	if rec.Code != stdhttp.StatusNotFound {
		t.Fatalf("expected status 404 for fact when the page is missing, got %d", rec.Code)
	}

	line := "Every Beyonder must follow the potion formula of their sequence."
	fetcher.err = nil
	fetcher.text = "Gods\n" + line

	rec = doJSON(t, srv, "GET", "/lore/fact", "")
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("expected status 200 for fact, got %d", rec.Code)
	}
	var fact struct {
		Fact string `json:"fact"`
	}
	decodeBody(t, rec, &fact)
	if fact.Fact != "📚 "+line {
		t.Fatalf("expected prefixed fact, got %q", fact.Fact)
	}
}

func TestWelcomeChannelRoutes(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)
	path := "/guilds/g1/settings/welcome-channel"

	if rec := doJSON(t, srv, "GET", path, ""); rec.Code != stdhttp.StatusNotFound {
		t.Fatalf("expected status 404 before configuration, got %d", rec.Code)
	}

	rec := doJSON(t, srv, "PUT", path, `{"channel_id":"555"}`)
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, srv, "GET", path, "")
	var out struct {
		WelcomeChannelID string `json:"welcome_channel_id"`
	}
	decodeBody(t, rec, &out)
	if out.WelcomeChannelID != "555" {
		t.Fatalf("expected channel 555, got %q", out.WelcomeChannelID)
	}

	if rec := doJSON(t, srv, "DELETE", path, ""); rec.Code != stdhttp.StatusNoContent {
		t.Fatalf("expected status 204, got %d", rec.Code)
	}
	if rec := doJSON(t, srv, "DELETE", path, ""); rec.Code != stdhttp.StatusNotFound {
		t.Fatalf("expected status 404 on second removal, got %d", rec.Code)
	}
}

func TestHealthWithoutDatabase(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, "GET", "/healthz", "")
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
}

func TestRateLimitRejectsBurst(t *testing.T) {
	t.Parallel()

	srv := buildServer(t, RateLimiterSettings{RequestsPerSecond: 0.001, Burst: 1, ClientTTL: time.Minute}, &stubFetcher{})

	if rec := doJSON(t, srv, "GET", "/healthz", ""); rec.Code != stdhttp.StatusOK {
		t.Fatalf("expected first request to pass, got %d", rec.Code)
	}

	rec := doJSON(t, srv, "GET", "/healthz", "")
	if rec.Code != stdhttp.StatusTooManyRequests {
		t.Fatalf("expected status 429, got %d", rec.Code)
	}
	if got := rec.Header().Get("Retry-After"); got != "1000" {
		t.Fatalf("expected Retry-After of 1000 seconds, got %q", got)
	}
}

func TestStatusForError(t *testing.T) {
	t.Parallel()

	cases := []struct {
		err  error
		want int
	}{
		{err: eris.Wrap(wiki.ErrInvalid, "title is required"), want: stdhttp.StatusBadRequest},
		{err: eris.Wrap(wiki.ErrNotFound, "entry x"), want: stdhttp.StatusNotFound},
		{err: eris.Wrap(wiki.ErrAlreadyExists, "entry x"), want: stdhttp.StatusConflict},
		{err: eris.Wrap(wiki.ErrAliasConflict, "alias x"), want: stdhttp.StatusConflict},
		{err: eris.Wrap(wiki.ErrPersistence, "committing"), want: stdhttp.StatusServiceUnavailable},
		{err: eris.New("database is locked"), want: stdhttp.StatusInternalServerError},
	}

	for _, tc := range cases {
		if got, _ := statusForError(tc.err); got != tc.want {
			t.Fatalf("%v: expected status %d, got %d", tc.err, tc.want, got)
		}
	}
}

func TestNewServerValidatesOptions(t *testing.T) {
	t.Parallel()

	if _, err := NewServer(Options{}); err == nil {
		t.Fatalf("expected error without wiki service")
	}
}

func newTestServer(t *testing.T) (*Server, *stubFetcher) {
	t.Helper()

	fetcher := &stubFetcher{}
	srv := buildServer(t, RateLimiterSettings{RequestsPerSecond: 1000, Burst: 1000, ClientTTL: time.Minute}, fetcher)
	return srv, fetcher
}

func buildServer(t *testing.T, limits RateLimiterSettings, fetcher *stubFetcher) *Server {
	t.Helper()

	logger := silentLogger()

	persister, err := datawiki.NewFilePersister(filepath.Join(t.TempDir(), "wiki.json"), logger)
	if err != nil {
		t.Fatalf("NewFilePersister returned error: %v", err)
	}
	store, err := wiki.NewStore(persister, logger)
	if err != nil {
		t.Fatalf("NewStore returned error: %v", err)
	}
	service, err := wiki.NewService(wiki.ServiceOptions{Store: store, Fetcher: fetcher, Logger: logger})
	if err != nil {
		t.Fatalf("NewService returned error: %v", err)
	}

	srv, err := NewServer(Options{
		WikiService:   service,
		GuildSettings: newStubGuildRepository(),
		Logger:        logger,
		RateLimiter:   limits,
	})
	if err != nil {
		t.Fatalf("NewServer returned error: %v", err)
	}
	t.Cleanup(srv.Close)

	return srv
}

func doJSON(t *testing.T, srv *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, target any) {
	t.Helper()

	if err := json.Unmarshal(rec.Body.Bytes(), target); err != nil {
		t.Fatalf("decoding response body %q: %v", rec.Body.String(), err)
	}
}

func silentLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

type stubFetcher struct {
	mu   sync.Mutex
	text string
	err  error
}

func (s *stubFetcher) Fetch(_ context.Context, subject string, kind extract.Kind) (*lore.Page, error) {
	return s.FetchPage(context.Background(), kind.String()+"/"+subject)
}

func (s *stubFetcher) FetchPage(_ context.Context, slug string) (*lore.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return nil, s.err
	}
	if s.text == "" {
		return nil, eris.New("page not found")
	}
	return &lore.Page{URL: "https://wiki.test/" + slug, Text: s.text}, nil
}

type stubGuildRepository struct {
	mu       sync.Mutex
	channels map[string]string
}

func newStubGuildRepository() *stubGuildRepository {
	return &stubGuildRepository{channels: map[string]string{}}
}

func (r *stubGuildRepository) Get(_ context.Context, communityID string) (*guild.Settings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	channel, ok := r.channels[communityID]
	if !ok {
		return nil, nil
	}
	return &guild.Settings{CommunityID: communityID, WelcomeChannelID: channel}, nil
}

func (r *stubGuildRepository) SetWelcomeChannel(_ context.Context, communityID, channelID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.channels[communityID] = channelID
	return nil
}

func (r *stubGuildRepository) RemoveWelcomeChannel(_ context.Context, communityID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.channels[communityID] == "" {
		return false, nil
	}
	delete(r.channels, communityID)
	return true, nil
}

func (r *stubGuildRepository) ListAll(context.Context) ([]guild.Settings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	settings := make([]guild.Settings, 0, len(r.channels))
	for id, channel := range r.channels {
		settings = append(settings, guild.Settings{CommunityID: id, WelcomeChannelID: channel})
	}
	return settings, nil
}
