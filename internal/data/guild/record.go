package guild

// SettingsRecord represents a community's settings row.
type SettingsRecord struct {
	CommunityID      string `gorm:"primaryKey;size:64"`
	WelcomeChannelID string `gorm:"size:64"`
}

// TableName defines the table name for the SettingsRecord model.
func (SettingsRecord) TableName() string {
	return "guild_settings"
}
