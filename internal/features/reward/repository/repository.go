package repository

import (
	"context"
	"errors"

	"ad-reward-backend/internal/features/reward/models"
)

var (
	ErrProfileNotFound = errors.New("profile not found")

	// ErrTxConflict means the optimistic transaction kept losing to
	// concurrent writers and gave up.
	ErrTxConflict = errors.New("ledger transaction conflict")
)

// LedgerRepository is the per-user reward balance store.
type LedgerRepository interface {
	// CreditOrCreate atomically applies a credit to the user's profile,
	// creating it with the reward embedded when the user is unseen. It
	// reports the resulting profile and whether it was created. Two
	// concurrent calls for the same user must never both commit a stale
	// balance.
	CreditOrCreate(ctx context.Context, userID string, points int64) (*models.UserProfile, bool, error)

	// GetByID reads a single profile, ErrProfileNotFound when absent.
	GetByID(ctx context.Context, userID string) (*models.UserProfile, error)
}
