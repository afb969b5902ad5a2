// Package model defines domain entities used by services, adapters and stores.
package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// Session is the authenticated identity context for the current client.
// It exists only while a provider token is valid and is never persisted
// by the core.
type Session struct {
	UserID   string
	Username string
	Email    string
	FullName string
}

// NextStep tells the caller whether sign-up is complete or requires
// further action (e.g. account confirmation) before sign-in can succeed.
type NextStep string

const (
	// StepDone means the account is ready and sign-in may proceed.
	StepDone NextStep = "DONE"
	// StepConfirmSignUp means the account awaits out-of-band confirmation.
	StepConfirmSignUp NextStep = "CONFIRM_SIGN_UP"
)

// SignUpResult reports the outcome of account creation. Callers must check
// NextStep before treating sign-up as complete.
type SignUpResult struct {
	UserID   string
	NextStep NextStep
}

// UserMetadata is the durable per-user progress record, one per user,
// addressed by the composite key (ID, UserNameKey).
//
// WatchCount is maintained by the synchronizer as len(VideosWatched);
// the store never recomputes it. Ratings keys are overwritten on
// re-rating, not accumulated.
type UserMetadata struct {
	ID            string      `json:"id"`
	UserNameKey   string      `json:"user_name_key"`
	FullName      string      `json:"full_name"`
	VideosWatched []int       `json:"videos_watched"`
	WatchCount    int         `json:"watch_count"`
	Ratings       map[int]int `json:"ratings"`
}

// NewUserMetadata returns the implicit default record for a user that has
// no stored item yet. There is no explicit create operation separate from
// read-or-default.
func NewUserMetadata(id, userNameKey string) *UserMetadata {
	return &UserMetadata{
		ID:            id,
		UserNameKey:   userNameKey,
		VideosWatched: []int{},
		Ratings:       map[int]int{},
	}
}

// Account is a provider-side user record. The core never touches it
// directly; it belongs to the user-pool implementation.
type Account struct {
	ID        uuid.UUID
	Email     string
	PwdHash   []byte
	SaltAuth  []byte
	FullName  string
	Confirmed bool
	CreatedAt time.Time
}
