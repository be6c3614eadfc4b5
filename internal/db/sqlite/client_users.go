package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iamwavecut/multibot/internal/db"
)

func (c *sqliteClient) GetUserSettings(ctx context.Context, userID int64) (*db.UserSettings, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	var settings db.UserSettings
	err := c.db.GetContext(ctx, &settings, `SELECT user_id, language, updated_at FROM user_settings WHERE user_id = ?`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get settings for user %d: %w", userID, err)
	}
	return &settings, nil
}

func (c *sqliteClient) SetUserSettings(ctx context.Context, settings *db.UserSettings) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	settings.UpdatedAt = time.Now().UTC()
	query := `
		INSERT INTO user_settings (user_id, language, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
		language = excluded.language,
		updated_at = excluded.updated_at
	`
	if _, err := c.db.ExecContext(ctx, query, settings.UserID, settings.Language, settings.UpdatedAt); err != nil {
		return fmt.Errorf("failed to set settings for user %d: %w", settings.UserID, err)
	}
	return nil
}

func (c *sqliteClient) InsertInteraction(ctx context.Context, interaction *db.Interaction) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if interaction.CreatedAt.IsZero() {
		interaction.CreatedAt = time.Now().UTC()
	}
	interaction.Truncate()
	result, err := c.db.ExecContext(ctx, `
		INSERT INTO user_logs (user_id, username, first_name, last_name, command, message_text, chat_type, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		interaction.UserID,
		interaction.UserName,
		interaction.FirstName,
		interaction.LastName,
		interaction.Command,
		interaction.MessageText,
		interaction.ChatType,
		interaction.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert interaction: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get interaction id: %w", err)
	}
	interaction.ID = id
	return nil
}

func (c *sqliteClient) GetLastInteraction(ctx context.Context, userID int64) (*db.Interaction, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	var interaction db.Interaction
	err := c.db.GetContext(ctx, &interaction, `
		SELECT id, user_id, username, first_name, last_name, command, message_text, chat_type, created_at
		FROM user_logs
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get last interaction for user %d: %w", userID, err)
	}
	return &interaction, nil
}

func (c *sqliteClient) GetStats(ctx context.Context) (*db.Stats, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	var stats db.Stats
	err := c.db.GetContext(ctx, &stats, `
		SELECT
			(SELECT COUNT(*) FROM user_logs) AS interactions,
			(SELECT COUNT(DISTINCT user_id) FROM user_logs) AS users,
			(SELECT COUNT(*) FROM banned_users) AS banned
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}
	return &stats, nil
}
