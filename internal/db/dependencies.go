package db

import (
	"context"
)

type Client interface {
	Close() error

	UpsertBan(ctx context.Context, ban *BanRecord) error
	DeleteBan(ctx context.Context, userID int64) error
	GetBan(ctx context.Context, userID int64) (*BanRecord, error)
	ListBans(ctx context.Context) ([]*BanRecord, error)

	GetUserSettings(ctx context.Context, userID int64) (*UserSettings, error)
	SetUserSettings(ctx context.Context, settings *UserSettings) error

	InsertInteraction(ctx context.Context, interaction *Interaction) error
	GetLastInteraction(ctx context.Context, userID int64) (*Interaction, error)
	GetStats(ctx context.Context) (*Stats, error)
}
