package wiki

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sirupsen/logrus"
)

func TestFilePersisterRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "wiki_data.json")
	persister, err := NewFilePersister(path, silentLogger())
	if err != nil {
		t.Fatalf("NewFilePersister returned error: %v", err)
	}

	doc := sampleDocument()
	if err := persister.Save(context.Background(), doc); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	loaded, err := persister.Load(context.Background())
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if diff := cmp.Diff(doc, loaded); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}

	matches, err := filepath.Glob(filepath.Join(filepath.Dir(path), "*.tmp"))
	if err != nil {
		t.Fatalf("globbing temp files failed: %v", err)
	}
	if len(matches) != 0 {
		t.Fatalf("expected no temporary files left behind, got %v", matches)
	}
}

func TestFilePersisterMissingFileYieldsEmptyDocument(t *testing.T) {
	t.Parallel()

	persister, err := NewFilePersister(filepath.Join(t.TempDir(), "absent.json"), silentLogger())
	if err != nil {
		t.Fatalf("NewFilePersister returned error: %v", err)
	}

	doc, err := persister.Load(context.Background())
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if len(doc.Communities) != 0 {
		t.Fatalf("expected empty document, got %d communities", len(doc.Communities))
	}
}

func TestFilePersisterReadsLegacyFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "wiki_data.json")
	if err := os.WriteFile(path, []byte(legacyDocument), 0o644); err != nil {
		t.Fatalf("writing fixture failed: %v", err)
	}

	persister, err := NewFilePersister(path, silentLogger())
	if err != nil {
		t.Fatalf("NewFilePersister returned error: %v", err)
	}

	doc, err := persister.Load(context.Background())
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if got := len(doc.Communities["123456789"].Entries); got != 2 {
		t.Fatalf("expected 2 legacy entries, got %d", got)
	}
}

func TestFilePersisterRejectsCorruptFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "wiki_data.json")
	if err := os.WriteFile(path, []byte("{\"entries\":"), 0o644); err != nil {
		t.Fatalf("writing fixture failed: %v", err)
	}

	persister, err := NewFilePersister(path, silentLogger())
	if err != nil {
		t.Fatalf("NewFilePersister returned error: %v", err)
	}

	if _, err := persister.Load(context.Background()); err == nil {
		t.Fatalf("expected error loading corrupt document")
	}
}

func TestFilePersisterSaveHonoursCancelledContext(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "wiki_data.json")
	persister, err := NewFilePersister(path, silentLogger())
	if err != nil {
		t.Fatalf("NewFilePersister returned error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := persister.Save(ctx, sampleDocument()); err == nil {
		t.Fatalf("expected error saving with cancelled context")
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Fatalf("expected no document written, stat returned %v", statErr)
	}
}

func TestNewFilePersisterRequiresPath(t *testing.T) {
	t.Parallel()

	if _, err := NewFilePersister("  ", nil); err == nil {
		t.Fatalf("expected error for blank path")
	}
}

func silentLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
