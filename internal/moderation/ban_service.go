package moderation

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/iamwavecut/multibot/internal/db"
	"github.com/iamwavecut/multibot/internal/observability"
)

type BanService interface {
	// IsBanned never fails: storage errors are logged and treated as "not banned".
	IsBanned(ctx context.Context, userID int64) bool
	Ban(ctx context.Context, userID int64, bannedBy string, reason string) (*db.BanRecord, error)
	Unban(ctx context.Context, userID int64) error
	ListBanned(ctx context.Context) ([]*db.BanRecord, error)
}

type banStore interface {
	UpsertBan(ctx context.Context, ban *db.BanRecord) error
	DeleteBan(ctx context.Context, userID int64) error
	GetBan(ctx context.Context, userID int64) (*db.BanRecord, error)
	ListBans(ctx context.Context) ([]*db.BanRecord, error)
	GetLastInteraction(ctx context.Context, userID int64) (*db.Interaction, error)
}

type defaultBanService struct {
	db      banStore
	metrics *observability.Metrics
	logger  *log.Entry
}

func NewBanService(store banStore, metrics *observability.Metrics) BanService {
	return &defaultBanService{
		db:      store,
		metrics: metrics,
		logger:  log.WithField("object", "BanService"),
	}
}

func (s *defaultBanService) IsBanned(ctx context.Context, userID int64) bool {
	ban, err := s.db.GetBan(ctx, userID)
	if err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Error("ban lookup failed, admitting")
		s.metrics.BanLookupFailed()
		return false
	}
	return ban != nil
}

func (s *defaultBanService) Ban(ctx context.Context, userID int64, bannedBy string, reason string) (*db.BanRecord, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = db.DefaultBanReason
	}
	ban := &db.BanRecord{
		UserID:      userID,
		DisplayName: s.resolveDisplayName(ctx, userID),
		BannedBy:    bannedBy,
		Reason:      reason,
	}
	if err := s.db.UpsertBan(ctx, ban); err != nil {
		return nil, fmt.Errorf("ban user %d: %w", userID, err)
	}
	s.logger.WithFields(log.Fields{
		"user_id":   userID,
		"banned_by": bannedBy,
		"reason":    reason,
	}).Info("user banned")
	return ban, nil
}

func (s *defaultBanService) Unban(ctx context.Context, userID int64) error {
	if err := s.db.DeleteBan(ctx, userID); err != nil {
		return fmt.Errorf("unban user %d: %w", userID, err)
	}
	s.logger.WithField("user_id", userID).Info("user unbanned")
	return nil
}

func (s *defaultBanService) ListBanned(ctx context.Context) ([]*db.BanRecord, error) {
	bans, err := s.db.ListBans(ctx)
	if err != nil {
		return nil, fmt.Errorf("list banned: %w", err)
	}
	return bans, nil
}

func (s *defaultBanService) resolveDisplayName(ctx context.Context, userID int64) string {
	last, err := s.db.GetLastInteraction(ctx, userID)
	if err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Warn("cant resolve display name")
		return db.UnknownUserName
	}
	if last == nil {
		return db.UnknownUserName
	}
	if last.UserName != "" {
		return "@" + last.UserName
	}
	if name := strings.TrimSpace(last.FirstName + " " + last.LastName); name != "" {
		return name
	}
	return db.UnknownUserName
}
