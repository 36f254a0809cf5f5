package wiki

import (
	"context"
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	domainwiki "lorekeeper/app/internal/domain/wiki"
)

const insertBatchSize = 200

// GormPersister stores the wiki document in SQLite through Gorm. Every save
// rewrites both tables inside one transaction.
type GormPersister struct {
	db     *gorm.DB
	logger *logrus.Logger
}

// NewGormPersister constructs a Gorm-backed persister.
func NewGormPersister(db *gorm.DB, logger *logrus.Logger) (*GormPersister, error) {
	if db == nil {
		return nil, eris.New("gorm DB is required")
	}

	return &GormPersister{db: db, logger: logger}, nil
}

var _ domainwiki.Persister = (*GormPersister)(nil)

// Load reads every entry and alias, preserving insertion order by row id.
func (p *GormPersister) Load(ctx context.Context) (*domainwiki.Document, error) {
	var entries []EntryRecord
	if err := p.db.WithContext(ctx).Order("id ASC").Find(&entries).Error; err != nil {
		p.logError(nil, err, "listing wiki entries")
		return nil, eris.Wrap(err, "listing wiki entries")
	}

	var aliases []AliasRecord
	if err := p.db.WithContext(ctx).Order("id ASC").Find(&aliases).Error; err != nil {
		p.logError(nil, err, "listing wiki aliases")
		return nil, eris.Wrap(err, "listing wiki aliases")
	}

	doc := domainwiki.NewDocument()
	for _, record := range entries {
		entry, err := toDomainEntry(record)
		if err != nil {
			p.logError(logrus.Fields{"community": record.CommunityID, "key": record.NormalizedKey}, err, "decoding wiki entry")
			return nil, err
		}

		community := ensureCommunity(doc, record.CommunityID)
		if _, exists := community.Entries[record.NormalizedKey]; !exists {
			community.Order = append(community.Order, record.NormalizedKey)
		}
		community.Entries[record.NormalizedKey] = entry
	}

	for _, record := range aliases {
		community := ensureCommunity(doc, record.CommunityID)
		community.Aliases[record.AliasKey] = record.TargetKey
	}

	return doc, nil
}

// Save replaces the persisted document with doc.
func (p *GormPersister) Save(ctx context.Context, doc *domainwiki.Document) error {
	if doc == nil {
		return eris.New("document is nil")
	}

	entries, aliases := toRecords(doc)

	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM wiki_aliases").Error; err != nil {
			return eris.Wrap(err, "clearing wiki aliases")
		}
		if err := tx.Exec("DELETE FROM wiki_entries").Error; err != nil {
			return eris.Wrap(err, "clearing wiki entries")
		}
		if len(entries) > 0 {
			if err := tx.CreateInBatches(entries, insertBatchSize).Error; err != nil {
				return eris.Wrap(err, "inserting wiki entries")
			}
		}
		if len(aliases) > 0 {
			if err := tx.CreateInBatches(aliases, insertBatchSize).Error; err != nil {
				return eris.Wrap(err, "inserting wiki aliases")
			}
		}
		return nil
	})
	if err != nil {
		p.logError(logrus.Fields{"entries": len(entries), "aliases": len(aliases)}, err, "saving wiki document")
		return eris.Wrap(err, "saving wiki document")
	}

	return nil
}

func (p *GormPersister) logError(fields logrus.Fields, err error, message string) {
	if p.logger == nil || err == nil {
		return
	}

	entry := p.logger.WithField("error", err.Error())
	if len(fields) > 0 {
		entry = entry.WithFields(fields)
	}
	entry.Error(message)
}

func toRecords(doc *domainwiki.Document) ([]EntryRecord, []AliasRecord) {
	ids := make([]string, 0, len(doc.Communities))
	for id := range doc.Communities {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var entries []EntryRecord
	var aliases []AliasRecord

	for _, id := range ids {
		community := doc.Communities[id]
		for _, key := range community.Order {
			entry, ok := community.Entries[key]
			if !ok {
				continue
			}
			entries = append(entries, EntryRecord{
				CommunityID:   id,
				NormalizedKey: key,
				Title:         entry.Title,
				Content:       entry.Content,
				AuthorID:      entry.AuthorID,
				CreatedAt:     entry.CreatedAt.Format(time.RFC3339Nano),
				UpdatedAt:     entry.UpdatedAt.Format(time.RFC3339Nano),
				EditCount:     entry.EditCount,
			})
		}

		aliasKeys := make([]string, 0, len(community.Aliases))
		for alias := range community.Aliases {
			aliasKeys = append(aliasKeys, alias)
		}
		sort.Strings(aliasKeys)
		for _, alias := range aliasKeys {
			aliases = append(aliases, AliasRecord{
				CommunityID: id,
				AliasKey:    alias,
				TargetKey:   community.Aliases[alias],
			})
		}
	}

	return entries, aliases
}

func toDomainEntry(record EntryRecord) (domainwiki.Entry, error) {
	createdAt, err := time.Parse(time.RFC3339Nano, record.CreatedAt)
	if err != nil {
		return domainwiki.Entry{}, eris.Wrapf(err, "parsing created_at for %s", record.NormalizedKey)
	}
	updatedAt, err := time.Parse(time.RFC3339Nano, record.UpdatedAt)
	if err != nil {
		return domainwiki.Entry{}, eris.Wrapf(err, "parsing updated_at for %s", record.NormalizedKey)
	}

	return domainwiki.Entry{
		Title:     record.Title,
		Content:   record.Content,
		AuthorID:  record.AuthorID,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
		EditCount: record.EditCount,
	}, nil
}

func ensureCommunity(doc *domainwiki.Document, id string) *domainwiki.Community {
	community, ok := doc.Communities[id]
	if !ok {
		community = domainwiki.NewCommunity()
		doc.Communities[id] = community
	}
	return community
}
