package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iamwavecut/tool"

	"github.com/iamwavecut/multibot/internal/db"
)

func (c *sqliteClient) UpsertBan(ctx context.Context, ban *db.BanRecord) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if ban.CreatedAt.IsZero() {
		ban.CreatedAt = time.Now().UTC()
	}
	query := `
		INSERT INTO banned_users (user_id, display_name, banned_by, reason, created_at)
		VALUES (:user_id, :display_name, :banned_by, :reason, :created_at)
		ON CONFLICT(user_id) DO UPDATE SET
		display_name = excluded.display_name,
		banned_by = excluded.banned_by,
		reason = excluded.reason,
		created_at = excluded.created_at
	`
	if err := tool.Err(c.db.NamedExecContext(ctx, query, ban)); err != nil {
		return fmt.Errorf("failed to upsert ban for user %d: %w", ban.UserID, err)
	}
	return nil
}

func (c *sqliteClient) DeleteBan(ctx context.Context, userID int64) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	_, err := c.db.ExecContext(ctx, `DELETE FROM banned_users WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("failed to delete ban for user %d: %w", userID, err)
	}
	return nil
}

func (c *sqliteClient) GetBan(ctx context.Context, userID int64) (*db.BanRecord, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	var ban db.BanRecord
	err := c.db.GetContext(ctx, &ban, `
		SELECT user_id, display_name, banned_by, reason, created_at
		FROM banned_users
		WHERE user_id = ?
	`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get ban for user %d: %w", userID, err)
	}
	return &ban, nil
}

func (c *sqliteClient) ListBans(ctx context.Context) ([]*db.BanRecord, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	var bans []*db.BanRecord
	err := c.db.SelectContext(ctx, &bans, `
		SELECT user_id, display_name, banned_by, reason, created_at
		FROM banned_users
		ORDER BY created_at DESC, rowid DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list bans: %w", err)
	}
	return bans, nil
}
