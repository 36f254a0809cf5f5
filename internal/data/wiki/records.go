package wiki

// EntryRecord represents a wiki entry row. Timestamps are RFC 3339 strings so
// a reload reproduces the persisted values exactly.
type EntryRecord struct {
	ID            uint   `gorm:"primaryKey;autoIncrement"`
	CommunityID   string `gorm:"size:64;not null;uniqueIndex:idx_wiki_entries_key"`
	NormalizedKey string `gorm:"size:255;not null;uniqueIndex:idx_wiki_entries_key"`
	Title         string `gorm:"size:255;not null"`
	Content       string `gorm:"type:text;not null"`
	AuthorID      string `gorm:"size:64"`
	CreatedAt     string `gorm:"size:40;not null"`
	UpdatedAt     string `gorm:"size:40;not null"`
	EditCount     int    `gorm:"not null;default:0"`
}

// TableName defines the table name for the EntryRecord model.
func (EntryRecord) TableName() string {
	return "wiki_entries"
}

// AliasRecord maps an alias key to an entry key within a community.
type AliasRecord struct {
	ID          uint   `gorm:"primaryKey;autoIncrement"`
	CommunityID string `gorm:"size:64;not null;uniqueIndex:idx_wiki_aliases_key"`
	AliasKey    string `gorm:"size:255;not null;uniqueIndex:idx_wiki_aliases_key"`
	TargetKey   string `gorm:"size:255;not null"`
}

// TableName defines the table name for the AliasRecord model.
func (AliasRecord) TableName() string {
	return "wiki_aliases"
}
