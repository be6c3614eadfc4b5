package db

import (
	"time"
)

const (
	DefaultLanguage   = "en"
	UnknownUserName   = "Unknown"
	DefaultBanReason  = "No reason provided"
	ChatTypeCallback  = "callback"
	ChatTypeInline    = "inline"
	interactionMaxLen = 4096
)

type (
	// BanRecord is the single active ban of a user. Absence means not banned.
	BanRecord struct {
		UserID      int64     `db:"user_id"`
		DisplayName string    `db:"display_name"`
		BannedBy    string    `db:"banned_by"`
		Reason      string    `db:"reason"`
		CreatedAt   time.Time `db:"created_at"`
	}

	UserSettings struct {
		UserID    int64     `db:"user_id"`
		Language  string    `db:"language"`
		UpdatedAt time.Time `db:"updated_at"`
	}

	// Interaction is one append-only user_logs row.
	Interaction struct {
		ID          int64     `db:"id"`
		UserID      int64     `db:"user_id"`
		UserName    string    `db:"username"`
		FirstName   string    `db:"first_name"`
		LastName    string    `db:"last_name"`
		Command     string    `db:"command"`
		MessageText string    `db:"message_text"`
		ChatType    string    `db:"chat_type"`
		CreatedAt   time.Time `db:"created_at"`
	}

	Stats struct {
		Interactions int64 `db:"interactions"`
		Users        int64 `db:"users"`
		Banned       int64 `db:"banned"`
	}
)

// Truncate keeps interaction text within a sane size before it hits the log table.
func (i *Interaction) Truncate() {
	if r := []rune(i.MessageText); len(r) > interactionMaxLen {
		i.MessageText = string(r[:interactionMaxLen])
	}
}

func DefaultSettings(userID int64) *UserSettings {
	return &UserSettings{
		UserID:   userID,
		Language: DefaultLanguage,
	}
}
