package fandom

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lorekeeper/app/internal/domain/extract"
)

const samplePage = `<!DOCTYPE html>
<html>
<head><title>Klein Moretti</title><style>.x{color:red}</style></head>
<body>
<nav>Site navigation</nav>
<div class="page-content"><div class="mw-parser-output">
<p>Klein Moretti is the <b>main protagonist</b> of the series.<sup>[1]</sup></p>
<h2>Appearance</h2>
<ul><li>Black hair</li><li>Brown   eyes</li></ul>
<script>var tracking = true;</script>
</div></div>
<footer>Footer text</footer>
</body>
</html>`

func TestSlugFollowsSubjectKind(t *testing.T) {
	t.Parallel()

	fetcher := newTestFetcher(t, "http://wiki.test/wiki/", 1)

	assert.Equal(t, "Klein_Moretti", fetcher.Slug("klein moretti", extract.KindCharacter))
	assert.Equal(t, "Klein_Moretti", fetcher.Slug("KLEIN MORETTI", extract.KindCharacter))
	assert.Equal(t, "Sealed_Artifacts", fetcher.Slug(" sealed artifacts ", extract.KindGeneral))
	assert.Equal(t, "Klein_Moretti", fetcher.Slug("klein_moretti", extract.KindCharacter))
	assert.Equal(t, "O'Neil", fetcher.Slug("o'neil", extract.KindCharacter))
	assert.Equal(t, "Audrey_Hall'S_Diary", fetcher.Slug("audrey hall's diary", extract.KindGeneral))
	assert.Equal(t, "red_priest_Pathway", fetcher.Slug("red priest", extract.KindPathway))
	assert.Equal(t, "", fetcher.Slug("   ", extract.KindGeneral))
}

func TestFetchFlattensContent(t *testing.T) {
	t.Parallel()

	var gotPath, gotAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAgent = r.Header.Get("User-Agent")
		_, _ = io.WriteString(w, samplePage)
	}))
	t.Cleanup(server.Close)

	fetcher := newTestFetcher(t, server.URL+"/wiki", 1)

	page, err := fetcher.Fetch(context.Background(), "klein moretti", extract.KindCharacter)
	require.NoError(t, err)

	assert.Equal(t, "/wiki/Klein_Moretti", gotPath)
	assert.NotEmpty(t, gotAgent)
	assert.Equal(t, server.URL+"/wiki/Klein_Moretti", page.URL)
	assert.Equal(t, strings.Join([]string{
		"Klein Moretti is the main protagonist of the series.",
		"Appearance",
		"Black hair",
		"Brown eyes",
	}, "\n"), page.Text)
}

func TestFlattenWithoutContentContainerUsesWholeDocument(t *testing.T) {
	t.Parallel()

	text, err := Flatten(strings.NewReader("<html><body><p>First</p>Loose <i>text</i><p>Second</p></body></html>"))
	require.NoError(t, err)
	assert.Equal(t, "First\nLoose text\nSecond", text)
}

func TestFetchNotFoundIsPermanent(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	}))
	t.Cleanup(server.Close)

	fetcher := newTestFetcher(t, server.URL+"/wiki/", 3)

	_, err := fetcher.FetchPage(context.Background(), "Nobody")
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrPageNotFound), "expected ErrPageNotFound, got %v", err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetchRetriesServerErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, "<p>Recovered page body</p>")
	}))
	t.Cleanup(server.Close)

	fetcher := newTestFetcher(t, server.URL+"/wiki/", 2)

	page, err := fetcher.FetchPage(context.Background(), "Gods")
	require.NoError(t, err)
	assert.Equal(t, "Recovered page body", page.Text)
	assert.Equal(t, int32(2), calls.Load())
}

func TestFetchGivesUpAfterMaxAttempts(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	t.Cleanup(server.Close)

	fetcher := newTestFetcher(t, server.URL+"/wiki/", 2)

	_, err := fetcher.FetchPage(context.Background(), "Angels")
	require.Error(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestFetchClientErrorsAreNotRetried(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	t.Cleanup(server.Close)

	fetcher := newTestFetcher(t, server.URL+"/wiki/", 3)

	_, err := fetcher.FetchPage(context.Background(), "Angels")
	require.Error(t, err)
	assert.False(t, eris.Is(err, ErrPageNotFound))
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetchHonoursTimeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		server.Close()
	})

	fetcher, err := NewFetcher(Options{
		BaseURL:         server.URL + "/wiki/",
		Timeout:         50 * time.Millisecond,
		MaxAttempts:     1,
		InitialInterval: time.Millisecond,
		Logger:          silentLogger(),
	})
	require.NoError(t, err)

	_, err = fetcher.FetchPage(context.Background(), "Slow")
	require.Error(t, err)
}

func TestNewFetcherRejectsRelativeBaseURL(t *testing.T) {
	t.Parallel()

	_, err := NewFetcher(Options{BaseURL: "wiki.test/wiki"})
	require.Error(t, err)
}

func newTestFetcher(t *testing.T, baseURL string, attempts int) *Fetcher {
	t.Helper()

	fetcher, err := NewFetcher(Options{
		BaseURL:         baseURL,
		Timeout:         2 * time.Second,
		MaxAttempts:     attempts,
		InitialInterval: time.Millisecond,
		Logger:          silentLogger(),
	})
	require.NoError(t, err)
	return fetcher
}

func silentLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
