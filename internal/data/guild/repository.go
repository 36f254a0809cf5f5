// Package guild persists community settings with Gorm.
package guild

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domainguild "lorekeeper/app/internal/domain/guild"
)

// Repository persists community settings using a Gorm database connection.
type Repository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

// NewRepository constructs a Gorm-backed settings repository.
func NewRepository(db *gorm.DB, logger *logrus.Logger) (*Repository, error) {
	if db == nil {
		return nil, eris.New("gorm DB is required")
	}

	return &Repository{db: db, logger: logger}, nil
}

var _ domainguild.Repository = (*Repository)(nil)

// Get returns the settings for a community or nil when none are stored.
func (r *Repository) Get(ctx context.Context, communityID string) (*domainguild.Settings, error) {
	trimmed := strings.TrimSpace(communityID)
	if trimmed == "" {
		return nil, eris.New("community id is required")
	}

	var record SettingsRecord
	err := r.db.WithContext(ctx).First(&record, "community_id = ?", trimmed).Error
	if err != nil {
		if eris.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logError(logrus.Fields{"community": trimmed}, err, "fetching guild settings")
		return nil, eris.Wrapf(err, "fetching guild settings: %s", trimmed)
	}

	return toDomainSettings(record), nil
}

// SetWelcomeChannel stores the welcome channel, creating the settings row if needed.
func (r *Repository) SetWelcomeChannel(ctx context.Context, communityID, channelID string) error {
	trimmed := strings.TrimSpace(communityID)
	if trimmed == "" {
		return eris.New("community id is required")
	}

	channel := strings.TrimSpace(channelID)
	if channel == "" {
		return eris.New("channel id is required")
	}

	record := SettingsRecord{CommunityID: trimmed, WelcomeChannelID: channel}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "community_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"welcome_channel_id"}),
	}).Create(&record).Error
	if err != nil {
		r.logError(logrus.Fields{"community": trimmed, "channel": channel}, err, "saving welcome channel")
		return eris.Wrapf(err, "saving welcome channel: %s", trimmed)
	}

	if r.logger != nil {
		r.logger.WithFields(logrus.Fields{"community": trimmed, "channel": channel}).Info("welcome channel set")
	}

	return nil
}

// RemoveWelcomeChannel clears the welcome channel. It reports false when none was set.
func (r *Repository) RemoveWelcomeChannel(ctx context.Context, communityID string) (bool, error) {
	trimmed := strings.TrimSpace(communityID)
	if trimmed == "" {
		return false, eris.New("community id is required")
	}

	result := r.db.WithContext(ctx).
		Model(&SettingsRecord{}).
		Where("community_id = ? AND welcome_channel_id <> ''", trimmed).
		Update("welcome_channel_id", "")
	if result.Error != nil {
		r.logError(logrus.Fields{"community": trimmed}, result.Error, "removing welcome channel")
		return false, eris.Wrapf(result.Error, "removing welcome channel: %s", trimmed)
	}

	return result.RowsAffected > 0, nil
}

// ListAll returns every stored community's settings ordered by community id.
func (r *Repository) ListAll(ctx context.Context) ([]domainguild.Settings, error) {
	var records []SettingsRecord
	if err := r.db.WithContext(ctx).Order("community_id ASC").Find(&records).Error; err != nil {
		r.logError(nil, err, "listing guild settings")
		return nil, eris.Wrap(err, "listing guild settings")
	}

	settings := make([]domainguild.Settings, 0, len(records))
	for _, record := range records {
		settings = append(settings, *toDomainSettings(record))
	}
	return settings, nil
}

func (r *Repository) logError(fields logrus.Fields, err error, message string) {
	if r.logger == nil || err == nil {
		return
	}

	entry := r.logger.WithField("error", err.Error())
	if len(fields) > 0 {
		entry = entry.WithFields(fields)
	}
	entry.Error(message)
}

func toDomainSettings(record SettingsRecord) *domainguild.Settings {
	return &domainguild.Settings{
		CommunityID:      strings.TrimSpace(record.CommunityID),
		WelcomeChannelID: strings.TrimSpace(record.WelcomeChannelID),
	}
}
