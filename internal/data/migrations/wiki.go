package migrations

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	guilddata "lorekeeper/app/internal/data/guild"
	wikidata "lorekeeper/app/internal/data/wiki"
)

// Migrate applies the wiki and guild settings schema using Gorm's AutoMigrate and logs progress.
func Migrate(ctx context.Context, db *gorm.DB, logger *logrus.Logger) error {
	if db == nil {
		return eris.New("gorm DB is required")
	}

	logFields := logrus.Fields{"component": "migrations"}
	if logger != nil {
		logger.WithFields(logFields).Info("applying schema")
	}

	models := []any{
		&wikidata.EntryRecord{},
		&wikidata.AliasRecord{},
		&guilddata.SettingsRecord{},
	}

	if err := db.WithContext(ctx).AutoMigrate(models...); err != nil {
		if logger != nil {
			logger.WithFields(logFields).WithField("error", err.Error()).Error("schema migration failed")
		}
		return eris.Wrap(err, "auto migrating schema")
	}

	if logger != nil {
		logger.WithFields(logFields).Info("schema migration complete")
	}

	return nil
}
