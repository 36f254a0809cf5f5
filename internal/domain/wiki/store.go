package wiki

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
)

const (
	searchSnippetLength = 100
	listSnippetLength   = 50
)

// Store keeps the wiki document in memory and commits the whole document to
// its Persister after every mutation.
type Store struct {
	mu        sync.RWMutex
	doc       *Document
	persister Persister
	logger    *logrus.Logger
	now       func() time.Time
}

// NewStore constructs an empty store backed by the provided persister.
// Call Load to populate it from durable storage.
func NewStore(persister Persister, logger *logrus.Logger) (*Store, error) {
	if persister == nil {
		return nil, eris.New("wiki persister is required")
	}

	return &Store{
		doc:       NewDocument(),
		persister: persister,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC().Round(0) },
	}, nil
}

// Load replaces the in-memory document with the persisted one.
func (s *Store) Load(ctx context.Context) error {
	doc, err := s.persister.Load(ctx)
	if err != nil {
		s.logError(nil, err, "loading wiki document")
		return eris.Wrap(err, "loading wiki document")
	}
	if doc == nil {
		doc = NewDocument()
	}

	s.mu.Lock()
	s.doc = doc
	s.mu.Unlock()

	if s.logger != nil {
		s.logger.WithField("communities", len(doc.Communities)).Info("wiki document loaded")
	}

	return nil
}

// Replace installs a complete document, for example an import, and commits it.
func (s *Store) Replace(ctx context.Context, doc *Document) error {
	if doc == nil {
		return eris.New("document is nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.doc = doc.Clone()
	return s.commit(ctx, logrus.Fields{"operation": "replace"})
}

// Snapshot returns a deep copy of the current document.
func (s *Store) Snapshot() *Document {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.doc.Clone()
}

// Add stores an entry, overwriting any entry with the same normalized key.
// Duplicate detection is the caller's responsibility.
func (s *Store) Add(ctx context.Context, communityID, title, content, authorID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	entry := Entry{
		Title:     strings.TrimSpace(title),
		Content:   content,
		AuthorID:  authorID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	key := entry.Key()

	community := s.community(communityID, true)
	if _, exists := community.Entries[key]; !exists {
		community.Order = append(community.Order, key)
	}
	community.Entries[key] = entry

	fields := logrus.Fields{"community": communityID, "title": title, "author": authorID}
	s.logInfo(fields, "wiki entry added")

	return true, s.commit(ctx, fields)
}

// Edit replaces the content of an existing entry. It reports false when the
// entry does not exist.
func (s *Store) Edit(ctx context.Context, communityID, title, content, authorID string) (bool, error) {
	key := NormalizeKey(title)

	s.mu.Lock()
	defer s.mu.Unlock()

	community := s.community(communityID, false)
	if community == nil {
		return false, nil
	}

	entry, ok := community.Entries[key]
	if !ok {
		return false, nil
	}

	entry.Content = content
	entry.UpdatedAt = s.now()
	entry.EditCount++
	community.Entries[key] = entry

	fields := logrus.Fields{"community": communityID, "title": title, "author": authorID}
	s.logInfo(fields, "wiki entry edited")

	return true, s.commit(ctx, fields)
}

// Get resolves a single alias hop and returns the matching entry, or nil.
func (s *Store) Get(communityID, title string) *Entry {
	key := NormalizeKey(title)

	s.mu.RLock()
	defer s.mu.RUnlock()

	community := s.community(communityID, false)
	if community == nil {
		return nil
	}

	if target, ok := community.Aliases[key]; ok {
		key = target
	}

	entry, ok := community.Entries[key]
	if !ok {
		return nil
	}
	return &entry
}

// Delete removes an entry and every alias pointing at it. It reports false
// when the entry does not exist.
func (s *Store) Delete(ctx context.Context, communityID, title string) (bool, error) {
	key := NormalizeKey(title)

	s.mu.Lock()
	defer s.mu.Unlock()

	community := s.community(communityID, false)
	if community == nil {
		return false, nil
	}

	if _, ok := community.Entries[key]; !ok {
		return false, nil
	}

	delete(community.Entries, key)
	for idx, candidate := range community.Order {
		if candidate == key {
			community.Order = append(community.Order[:idx], community.Order[idx+1:]...)
			break
		}
	}
	for alias, target := range community.Aliases {
		if target == key {
			delete(community.Aliases, alias)
		}
	}

	fields := logrus.Fields{"community": communityID, "title": title}
	s.logInfo(fields, "wiki entry deleted")

	return true, s.commit(ctx, fields)
}

// Search scans entries in insertion order and returns at most limit matches.
// A title match takes precedence over a content match for the same entry.
func (s *Store) Search(communityID, query string, limit int) []SearchResult {
	needle := strings.ToLower(query)
	results := []SearchResult{}
	if limit <= 0 {
		return results
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	community := s.community(communityID, false)
	if community == nil {
		return results
	}

	for _, key := range community.Order {
		entry, ok := community.Entries[key]
		if !ok {
			continue
		}

		var matchType string
		switch {
		case strings.Contains(strings.ToLower(entry.Title), needle):
			matchType = MatchTitle
		case strings.Contains(strings.ToLower(entry.Content), needle):
			matchType = MatchContent
		default:
			continue
		}

		results = append(results, SearchResult{
			Title:     entry.Title,
			Snippet:   snippet(entry.Content, searchSnippetLength),
			MatchType: matchType,
		})
		if len(results) >= limit {
			break
		}
	}

	return results
}

// List returns entries ordered by creation time, newest first, truncated to limit.
func (s *Store) List(communityID string, limit int) []ListItem {
	items := []ListItem{}

	s.mu.RLock()
	community := s.community(communityID, false)
	if community != nil {
		for _, key := range community.Order {
			entry, ok := community.Entries[key]
			if !ok {
				continue
			}
			items = append(items, ListItem{
				Title:     entry.Title,
				Snippet:   snippet(entry.Content, listSnippetLength),
				CreatedAt: entry.CreatedAt,
				EditCount: entry.EditCount,
			})
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})

	if limit >= 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}

// AddAlias points alias at an existing entry. It reports false when the target
// entry is missing; it returns ErrAliasConflict when the alias would shadow an
// existing entry.
func (s *Store) AddAlias(ctx context.Context, communityID, alias, targetTitle string) (bool, error) {
	aliasKey := NormalizeKey(alias)
	targetKey := NormalizeKey(targetTitle)

	s.mu.Lock()
	defer s.mu.Unlock()

	community := s.community(communityID, false)
	if community == nil {
		return false, nil
	}

	if _, ok := community.Entries[targetKey]; !ok {
		return false, nil
	}

	if _, shadows := community.Entries[aliasKey]; shadows {
		return false, eris.Wrapf(ErrAliasConflict, "alias %s", aliasKey)
	}

	community.Aliases[aliasKey] = targetKey

	fields := logrus.Fields{"community": communityID, "alias": alias, "target": targetTitle}
	s.logInfo(fields, "wiki alias added")

	return true, s.commit(ctx, fields)
}

// community returns the community state, creating it when create is set.
// Callers must hold the lock.
func (s *Store) community(id string, create bool) *Community {
	community, ok := s.doc.Communities[id]
	if ok {
		return community
	}
	if !create {
		return nil
	}

	community = NewCommunity()
	s.doc.Communities[id] = community
	return community
}

// commit persists the document. Callers must hold the write lock.
func (s *Store) commit(ctx context.Context, fields logrus.Fields) error {
	if err := s.persister.Save(ctx, s.doc); err != nil {
		s.logError(fields, err, "saving wiki document")
		return eris.Wrapf(ErrPersistence, "committing wiki document: %v", err)
	}
	return nil
}

func (s *Store) logInfo(fields logrus.Fields, message string) {
	if s.logger == nil {
		return
	}
	s.logger.WithFields(fields).Info(message)
}

func (s *Store) logError(fields logrus.Fields, err error, message string) {
	if s.logger == nil || err == nil {
		return
	}

	entry := s.logger.WithField("error", err.Error())
	if len(fields) > 0 {
		entry = entry.WithFields(fields)
	}
	entry.Error(message)
}
