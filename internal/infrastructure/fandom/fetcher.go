// Package fandom retrieves Lord of Mysteries wiki pages and flattens them to
// plain text for the lore extractor.
package fandom

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"lorekeeper/app/internal/domain/extract"
	"lorekeeper/app/internal/domain/lore"
)

const (
	// DefaultBaseURL is the wiki the fetcher reads from unless configured otherwise.
	DefaultBaseURL = "https://lordofthemysteries.fandom.com/wiki/"

	defaultTimeout         = 10 * time.Second
	defaultMaxAttempts     = 2
	defaultInitialInterval = 250 * time.Millisecond
	defaultUserAgent       = "lorekeeper/1.0 (+https://lordofthemysteries.fandom.com)"
	maxBodyBytes           = 8 << 20
)

// ErrPageNotFound indicates the wiki has no page for the requested subject.
var ErrPageNotFound = eris.New("wiki page not found")

// Options configures the fandom fetcher.
type Options struct {
	BaseURL     string
	Timeout     time.Duration
	MaxAttempts int
	// InitialInterval is the first retry delay; later delays grow exponentially.
	InitialInterval time.Duration
	UserAgent       string
	HTTPClient      *http.Client
	Logger          *logrus.Logger
}

// Fetcher implements lore.Fetcher against a MediaWiki-style site.
type Fetcher struct {
	baseURL         string
	client          *http.Client
	maxAttempts     uint
	initialInterval time.Duration
	userAgent       string
	logger          *logrus.Logger
}

var _ lore.Fetcher = (*Fetcher)(nil)

// NewFetcher constructs a fetcher, filling unset options with defaults.
func NewFetcher(opts Options) (*Fetcher, error) {
	baseURL := strings.TrimSpace(opts.BaseURL)
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		return nil, eris.Errorf("base url must be absolute: %s", baseURL)
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}

	maxAttempts := opts.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}

	interval := opts.InitialInterval
	if interval <= 0 {
		interval = defaultInitialInterval
	}

	userAgent := strings.TrimSpace(opts.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	return &Fetcher{
		baseURL:         baseURL,
		client:          client,
		maxAttempts:     uint(maxAttempts),
		initialInterval: interval,
		userAgent:       userAgent,
		logger:          opts.Logger,
	}, nil
}

// Fetch resolves subject to a wiki page according to kind and retrieves it.
func (f *Fetcher) Fetch(ctx context.Context, subject string, kind extract.Kind) (*lore.Page, error) {
	slug := f.Slug(subject, kind)
	if slug == "" {
		return nil, eris.New("subject is required")
	}
	return f.FetchPage(ctx, slug)
}

// Slug maps a subject to its wiki page name. Pathway pages keep the caller's
// casing and gain a "_Pathway" suffix; everything else is title cased with
// underscores and apostrophes starting a new word.
func (f *Fetcher) Slug(subject string, kind extract.Kind) string {
	trimmed := strings.TrimSpace(subject)
	if trimmed == "" {
		return ""
	}

	underscored := strings.ReplaceAll(trimmed, " ", "_")
	if kind == extract.KindPathway {
		return underscored + "_Pathway"
	}
	return titleWords(underscored)
}

func titleWords(s string) string {
	// Casers are stateful, so each call gets its own.
	caser := cases.Title(language.English)

	var b strings.Builder
	start := 0
	for i, r := range s {
		if r != '_' && r != '\'' {
			continue
		}
		b.WriteString(caser.String(s[start:i]))
		b.WriteRune(r)
		start = i + 1
	}
	b.WriteString(caser.String(s[start:]))
	return b.String()
}

// URL returns the absolute address of slug.
func (f *Fetcher) URL(slug string) string {
	return f.baseURL + slug
}

// FetchPage retrieves slug, retrying transient failures with exponential backoff.
func (f *Fetcher) FetchPage(ctx context.Context, slug string) (*lore.Page, error) {
	trimmed := strings.TrimSpace(slug)
	if trimmed == "" {
		return nil, eris.New("slug is required")
	}

	url := f.URL(trimmed)

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = f.initialInterval

	attempt := 0
	text, err := backoff.Retry(ctx, func() (string, error) {
		attempt++
		text, err := f.get(ctx, url)
		if err != nil && f.logger != nil {
			f.logger.WithFields(logrus.Fields{"url": url, "attempt": attempt, "error": err.Error()}).Warn("wiki fetch attempt failed")
		}
		return text, err
	}, backoff.WithBackOff(policy), backoff.WithMaxTries(f.maxAttempts))
	if err != nil {
		return nil, eris.Wrapf(err, "fetching %s", url)
	}

	if f.logger != nil {
		f.logger.WithFields(logrus.Fields{"url": url, "attempts": attempt}).Debug("wiki page fetched")
	}

	return &lore.Page{URL: url, Text: text}, nil
}

// get performs one request. Errors that retrying cannot fix are marked permanent.
func (f *Fetcher) get(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", backoff.Permanent(eris.Wrap(err, "building wiki request"))
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html")

	resp, err := f.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", backoff.Permanent(eris.Wrap(ctxErr, "wiki request cancelled"))
		}
		return "", eris.Wrap(err, "requesting wiki page")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound:
		return "", backoff.Permanent(eris.Wrapf(ErrPageNotFound, "status %d", resp.StatusCode))
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError:
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return "", eris.Errorf("wiki responded with status %d", resp.StatusCode)
	default:
		return "", backoff.Permanent(eris.Errorf("wiki responded with status %d", resp.StatusCode))
	}

	text, err := Flatten(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", backoff.Permanent(eris.Wrap(err, "flattening wiki page"))
	}
	return text, nil
}
