package service

import (
	"context"

	"ad-reward-backend/internal/common/apperrors"
	"ad-reward-backend/internal/common/logger"
	"ad-reward-backend/internal/features/reward/models"
	"ad-reward-backend/internal/features/reward/repository"
)

// CreditOutcome classifies a successful credit.
type CreditOutcome string

const (
	// OutcomeCreated means the profile did not exist and was written with
	// the reward embedded.
	OutcomeCreated CreditOutcome = "created"

	// OutcomeCredited means an existing profile's balance was increased.
	OutcomeCredited CreditOutcome = "credited"
)

type RewardService interface {
	// Credit atomically applies a validated reward to the user's balance.
	// Any storage failure is reported as a transaction error so the
	// caller can signal retry-ability.
	Credit(ctx context.Context, userID string, points int64) (CreditOutcome, error)

	GetProfile(ctx context.Context, userID string) (*models.UserProfile, error)
}

type rewardService struct {
	repo repository.LedgerRepository
}

func NewRewardService(repo repository.LedgerRepository) RewardService {
	return &rewardService{repo: repo}
}

func (s *rewardService) Credit(ctx context.Context, userID string, points int64) (CreditOutcome, error) {
	profile, created, err := s.repo.CreditOrCreate(ctx, userID, points)
	if err != nil {
		logger.Error().
			Str("user_id", userID).
			Int64("points", points).
			Err(err).
			Msg("Reward transaction failed")
		return "", apperrors.NewTransactionError("credit", err)
	}

	if created {
		logger.Info().
			Str("user_id", userID).
			Int64("points", points).
			Msg("Profile created with first reward")
		return OutcomeCreated, nil
	}

	logger.Info().
		Str("user_id", userID).
		Int64("points", points).
		Int64("balance", profile.Points).
		Msg("Reward credited")
	return OutcomeCredited, nil
}

func (s *rewardService) GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	return s.repo.GetByID(ctx, userID)
}
