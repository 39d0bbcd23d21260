package redis

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ad-reward-backend/internal/features/reward/models"
	"ad-reward-backend/internal/features/reward/repository"
	platform "ad-reward-backend/internal/platform/redis"
)

func TestProfileKey(t *testing.T) {
	r := &ledgerRepository{namespace: "adreward"}

	assert.Equal(t, "adreward:users:u1", r.profileKey("u1"))
	assert.Equal(t, "adreward:users:123456789", r.profileKey("123456789"))
}

func TestProfileKey_NamespaceIsolation(t *testing.T) {
	a := &ledgerRepository{namespace: "appA"}
	b := &ledgerRepository{namespace: "appB"}

	assert.NotEqual(t, a.profileKey("u1"), b.profileKey("u1"))
}

func newTestRepo(t *testing.T) (*miniredis.Miniredis, *platform.Client, repository.LedgerRepository) {
	t.Helper()

	mr := miniredis.RunT(t)

	client, err := platform.Open(context.Background(), mr.Addr(), "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return mr, client, NewLedgerRepository(client, "adreward")
}

func storedProfile(t *testing.T, mr *miniredis.Miniredis, key string) models.UserProfile {
	t.Helper()

	data, err := mr.Get(key)
	require.NoError(t, err)

	var profile models.UserProfile
	require.NoError(t, json.Unmarshal([]byte(data), &profile))
	return profile
}

func TestCreditOrCreate_CreatesProfileWithReward(t *testing.T) {
	mr, _, repo := newTestRepo(t)

	profile, created, err := repo.CreditOrCreate(context.Background(), "u1", 50)

	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "u1", profile.UserID)
	assert.Equal(t, int64(50), profile.Points)
	assert.Equal(t, 0, profile.Referrals)
	assert.Empty(t, profile.ClaimedTasks)
	assert.Equal(t, time.Now().Format("2006-01-02"), profile.LastAdWatchDate)
	assert.Equal(t, 1, profile.AdsWatchedToday)
	assert.False(t, profile.ProcessingWithdrawal)

	// Creation and the first credit are one write: the stored document
	// already carries the reward.
	stored := storedProfile(t, mr, "adreward:users:u1")
	assert.Equal(t, profile.Points, stored.Points)
	assert.Equal(t, 1, stored.AdsWatchedToday)
}

func TestCreditOrCreate_ExistingUserOnlyPointsChange(t *testing.T) {
	mr, _, repo := newTestRepo(t)

	seed := models.UserProfile{
		UserID:               "u1",
		Points:               50,
		Referrals:            3,
		ClaimedTasks:         []string{"task-1", "task-2"},
		LastAdWatchDate:      "2025-01-01",
		AdsWatchedToday:      4,
		ProcessingWithdrawal: true,
	}
	payload, err := json.Marshal(seed)
	require.NoError(t, err)
	require.NoError(t, mr.Set("adreward:users:u1", string(payload)))

	profile, created, err := repo.CreditOrCreate(context.Background(), "u1", 20)

	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, int64(70), profile.Points)

	stored := storedProfile(t, mr, "adreward:users:u1")
	assert.Equal(t, int64(70), stored.Points)
	assert.Equal(t, seed.Referrals, stored.Referrals)
	assert.Equal(t, seed.ClaimedTasks, stored.ClaimedTasks)
	assert.Equal(t, seed.LastAdWatchDate, stored.LastAdWatchDate)
	assert.Equal(t, seed.AdsWatchedToday, stored.AdsWatchedToday)
	assert.Equal(t, seed.ProcessingWithdrawal, stored.ProcessingWithdrawal)
}

func TestGetByID(t *testing.T) {
	_, _, repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.GetByID(ctx, "u1")
	assert.ErrorIs(t, err, repository.ErrProfileNotFound)

	_, _, err = repo.CreditOrCreate(ctx, "u1", 50)
	require.NoError(t, err)

	profile, err := repo.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(50), profile.Points)
}

// contendedWriteHook bumps the watched key after every GET, so the WATCH
// transaction loses on each attempt.
type contendedWriteHook struct {
	mr      *miniredis.Miniredis
	key     string
	payload string
}

func (h *contendedWriteHook) DialHook(next goredis.DialHook) goredis.DialHook {
	return next
}

func (h *contendedWriteHook) ProcessHook(next goredis.ProcessHook) goredis.ProcessHook {
	return func(ctx context.Context, cmd goredis.Cmder) error {
		err := next(ctx, cmd)
		if cmd.Name() == "get" {
			_ = h.mr.Set(h.key, h.payload)
		}
		return err
	}
}

func (h *contendedWriteHook) ProcessPipelineHook(next goredis.ProcessPipelineHook) goredis.ProcessPipelineHook {
	return next
}

func TestCreditOrCreate_RetryExhaustionConflict(t *testing.T) {
	mr, client, repo := newTestRepo(t)

	key := "adreward:users:u1"
	seed := models.UserProfile{UserID: "u1", Points: 10, ClaimedTasks: []string{}}
	payload, err := json.Marshal(seed)
	require.NoError(t, err)
	require.NoError(t, mr.Set(key, string(payload)))

	client.AddHook(&contendedWriteHook{mr: mr, key: key, payload: string(payload)})

	_, _, err = repo.CreditOrCreate(context.Background(), "u1", 20)

	assert.ErrorIs(t, err, repository.ErrTxConflict)

	// Every attempt aborted before EXEC: the stored balance is untouched.
	stored := storedProfile(t, mr, key)
	assert.Equal(t, int64(10), stored.Points)
}

func TestCreditOrCreate_ConcurrentCreditsLoseNoUpdates(t *testing.T) {
	const (
		n      = 20
		amount = int64(5)
	)

	_, _, repo := newTestRepo(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// A conflicted transaction commits nothing, so retrying it
			// mirrors the caller's 500-then-retry policy.
			for {
				_, _, err := repo.CreditOrCreate(ctx, "u1", amount)
				if err == nil {
					return
				}
				if errors.Is(err, repository.ErrTxConflict) {
					continue
				}
				assert.NoError(t, err)
				return
			}
		}()
	}
	wg.Wait()

	profile, err := repo.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(n)*amount, profile.Points)
}
