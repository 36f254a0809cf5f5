// Package guild holds per-community settings consumed by the chat layer.
package guild

import "context"

// Settings is the configuration stored for one community.
type Settings struct {
	CommunityID      string `json:"community_id"`
	WelcomeChannelID string `json:"welcome_channel_id,omitempty"`
}

// Repository persists community settings.
type Repository interface {
	Get(ctx context.Context, communityID string) (*Settings, error)
	SetWelcomeChannel(ctx context.Context, communityID, channelID string) error
	RemoveWelcomeChannel(ctx context.Context, communityID string) (bool, error)
	ListAll(ctx context.Context) ([]Settings, error)
}
