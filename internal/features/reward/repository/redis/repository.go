package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"ad-reward-backend/internal/features/reward/models"
	"ad-reward-backend/internal/features/reward/repository"
	platform "ad-reward-backend/internal/platform/redis"
)

// maxTxRetries bounds the optimistic-transaction retry loop. A contended key
// is re-read on every attempt, so retrying never loses a credit.
const maxTxRetries = 5

type ledgerRepository struct {
	client    *platform.Client
	namespace string
}

// NewLedgerRepository returns a LedgerRepository storing one JSON document
// per user under the given application namespace.
func NewLedgerRepository(client *platform.Client, namespace string) repository.LedgerRepository {
	return &ledgerRepository{
		client:    client,
		namespace: namespace,
	}
}

func (r *ledgerRepository) profileKey(userID string) string {
	return fmt.Sprintf("%s:users:%s", r.namespace, userID)
}

func (r *ledgerRepository) CreditOrCreate(ctx context.Context, userID string, points int64) (*models.UserProfile, bool, error) {
	key := r.profileKey(userID)

	var (
		profile *models.UserProfile
		created bool
	)

	// Read-then-branch inside a WATCH transaction: if the key changes
	// between the read and EXEC, the commit fails and we retry with a
	// fresh read. This is what makes two concurrent credits for the same
	// user both land instead of one overwriting the other.
	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		switch {
		case err == redis.Nil:
			profile = models.NewProfile(userID, points, time.Now())
			created = true
		case err != nil:
			return err
		default:
			profile = &models.UserProfile{}
			if err := json.Unmarshal(data, profile); err != nil {
				return fmt.Errorf("unmarshal profile %s: %w", userID, err)
			}
			profile.Points += points
			created = false
		}

		payload, err := json.Marshal(profile)
		if err != nil {
			return fmt.Errorf("marshal profile %s: %w", userID, err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, 0)
			return nil
		})
		return err
	}

	for i := 0; i < maxTxRetries; i++ {
		err := r.client.Watch(ctx, txf, key)
		if err == nil {
			return profile, created, nil
		}
		if err == redis.TxFailedErr {
			continue
		}
		return nil, false, err
	}

	return nil, false, repository.ErrTxConflict
}

func (r *ledgerRepository) GetByID(ctx context.Context, userID string) (*models.UserProfile, error) {
	data, err := r.client.Get(ctx, r.profileKey(userID)).Bytes()
	if err == redis.Nil {
		return nil, repository.ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}

	var profile models.UserProfile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, err
	}

	return &profile, nil
}
