package models

import "time"

// UserProfile is the per-user ledger document. Field names follow the stored
// JSON layout; other subsystems (task claims, withdrawals, daily throttling)
// own most of the fields, the reward path only ever increments Points.
type UserProfile struct {
	UserID               string   `json:"userId"`
	Points               int64    `json:"points"`
	Referrals            int      `json:"referrals"`
	ClaimedTasks         []string `json:"claimedTasks"`
	LastAdWatchDate      string   `json:"lastAdWatchDate"`
	AdsWatchedToday      int      `json:"adsWatchedToday"`
	ProcessingWithdrawal bool     `json:"processingWithdrawal"`
}

// NewProfile builds the document written when a user is first credited. The
// triggering reward is embedded so creation and the first credit are a single
// event.
func NewProfile(userID string, points int64, now time.Time) *UserProfile {
	return &UserProfile{
		UserID:               userID,
		Points:               points,
		Referrals:            0,
		ClaimedTasks:         []string{},
		LastAdWatchDate:      now.Format("2006-01-02"),
		AdsWatchedToday:      1,
		ProcessingWithdrawal: false,
	}
}
