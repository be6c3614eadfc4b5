package moderation

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iamwavecut/multibot/internal/db"
	"github.com/iamwavecut/multibot/internal/db/sqlite"
)

type failingStore struct {
	banStore
	err error
}

func (s *failingStore) GetBan(context.Context, int64) (*db.BanRecord, error) {
	return nil, s.err
}

func newSQLiteService(t *testing.T) (BanService, db.Client) {
	t.Helper()

	client, err := sqlite.NewSQLiteClient(context.Background(), t.TempDir(), "test.db")
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return NewBanService(client, nil), client
}

func TestIsBannedFailsOpen(t *testing.T) {
	t.Parallel()

	svc := NewBanService(&failingStore{err: errors.New("db is gone")}, nil)
	assert.False(t, svc.IsBanned(context.Background(), 555))
}

func TestBanUnbanScenario(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, _ := newSQLiteService(t)

	assert.False(t, svc.IsBanned(ctx, 555))

	_, err := svc.Ban(ctx, 555, "8509052775", "spam")
	require.NoError(t, err)
	assert.True(t, svc.IsBanned(ctx, 555))

	require.NoError(t, svc.Unban(ctx, 555))
	assert.False(t, svc.IsBanned(ctx, 555))
}

func TestBanIsIdempotentAndKeepsLatestReason(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, _ := newSQLiteService(t)

	_, err := svc.Ban(ctx, 1, "admin", "first")
	require.NoError(t, err)
	_, err = svc.Ban(ctx, 1, "admin", "second")
	require.NoError(t, err)

	bans, err := svc.ListBanned(ctx)
	require.NoError(t, err)
	require.Len(t, bans, 1)
	assert.Equal(t, "second", bans[0].Reason)
}

func TestUnbanNeverBannedIsNoop(t *testing.T) {
	t.Parallel()

	svc, _ := newSQLiteService(t)
	require.NoError(t, svc.Unban(context.Background(), 404))
}

func TestBanDefaultsAndDisplayName(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, client := newSQLiteService(t)

	ban, err := svc.Ban(ctx, 2, "admin", "  ")
	require.NoError(t, err)
	assert.Equal(t, db.DefaultBanReason, ban.Reason)
	assert.Equal(t, db.UnknownUserName, ban.DisplayName)

	require.NoError(t, client.InsertInteraction(ctx, &db.Interaction{UserID: 3, UserName: "spammer"}))
	ban, err = svc.Ban(ctx, 3, "admin", "ads")
	require.NoError(t, err)
	assert.Equal(t, "@spammer", ban.DisplayName)
}

func TestConcurrentBanChecks(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, _ := newSQLiteService(t)

	const workers = 8
	var wg sync.WaitGroup
	for w := int64(1); w <= workers; w++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			for i := 0; i < 10; i++ {
				_, err := svc.Ban(ctx, id, "admin", "loop")
				assert.NoError(t, err)
				assert.True(t, svc.IsBanned(ctx, id))
				assert.NoError(t, svc.Unban(ctx, id))
			}
		}(w)
	}
	wg.Wait()

	bans, err := svc.ListBanned(ctx)
	require.NoError(t, err)
	assert.Empty(t, bans)
}
