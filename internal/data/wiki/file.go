package wiki

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	domainwiki "lorekeeper/app/internal/domain/wiki"
)

// FilePersister stores the wiki document as a single JSON file. Saves write a
// temporary file and rename it over the target so readers never observe a
// partial document.
type FilePersister struct {
	path   string
	logger *logrus.Logger
}

// NewFilePersister constructs a persister for the JSON document at path.
func NewFilePersister(path string, logger *logrus.Logger) (*FilePersister, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, eris.New("wiki file path is required")
	}

	return &FilePersister{path: trimmed, logger: logger}, nil
}

var _ domainwiki.Persister = (*FilePersister)(nil)

// Load reads the document; a missing file yields an empty document.
func (p *FilePersister) Load(_ context.Context) (*domainwiki.Document, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domainwiki.NewDocument(), nil
		}
		p.logError(err, "reading wiki document")
		return nil, eris.Wrapf(err, "reading wiki document: %s", p.path)
	}

	doc, err := UnmarshalDocument(data)
	if err != nil {
		p.logError(err, "decoding wiki document")
		return nil, eris.Wrapf(err, "decoding wiki document: %s", p.path)
	}

	return doc, nil
}

// Save atomically replaces the document file.
func (p *FilePersister) Save(ctx context.Context, doc *domainwiki.Document) error {
	if err := ctx.Err(); err != nil {
		return eris.Wrap(err, "saving wiki document")
	}

	data, err := MarshalDocument(doc)
	if err != nil {
		return eris.Wrap(err, "encoding wiki document")
	}

	dir := filepath.Dir(p.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		p.logError(err, "creating wiki document directory")
		return eris.Wrapf(err, "creating directory: %s", dir)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(p.path)+".*.tmp")
	if err != nil {
		p.logError(err, "creating temporary wiki document")
		return eris.Wrap(err, "creating temporary wiki document")
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		p.logError(err, "writing wiki document")
		return eris.Wrap(err, "writing wiki document")
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return eris.Wrap(err, "syncing wiki document")
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return eris.Wrap(err, "closing wiki document")
	}

	if err := os.Rename(tmpName, p.path); err != nil {
		_ = os.Remove(tmpName)
		p.logError(err, "replacing wiki document")
		return eris.Wrapf(err, "replacing wiki document: %s", p.path)
	}

	return nil
}

func (p *FilePersister) logError(err error, message string) {
	if p.logger == nil || err == nil {
		return
	}

	p.logger.WithField("error", err.Error()).WithField("path", p.path).Error(message)
}
