// Package service contains the session manager and metadata synchronizer,
// the core that reconciles identity-provider session state with the durable
// metadata record.
package service

import (
	"context"
	"fmt"

	"github.com/sibulut/simple-atom/internal/model"
)

// AuthState is the session manager's position in the authentication
// lifecycle.
type AuthState string

const (
	StateUnknown       AuthState = "unknown"
	StateChecking      AuthState = "checking"
	StateAnonymous     AuthState = "anonymous"
	StateAuthenticated AuthState = "authenticated"
)

// IdentityClient is the uniform identity surface the manager drives.
// *identity.Client implements it.
type IdentityClient interface {
	SignUp(ctx context.Context, email, password, fullName string) (model.SignUpResult, error)
	SignIn(ctx context.Context, email, password string) (model.Session, string, error)
	SignOut(ctx context.Context, token string) error
	CurrentSession(ctx context.Context, token string) (model.Session, error)
}

// SessionManager owns the authentication lifecycle for one client instance.
// Operations are strictly sequential per instance; the manager holds no
// locks because no two calls are issued concurrently by one client.
type SessionManager struct {
	ident IdentityClient
	meta  MetadataSynchronizer
	state AuthState
}

// NewSessionManager constructs a manager in the Unknown state.
func NewSessionManager(ident IdentityClient, meta MetadataSynchronizer) *SessionManager {
	return &SessionManager{ident: ident, meta: meta, state: StateUnknown}
}

// State reports the manager's current lifecycle state.
func (m *SessionManager) State() AuthState { return m.state }

// CheckSession runs the sign-in-screen entry policy: the screen must never
// be entered with a residual session. Any existing session is
// unconditionally signed out, and the result is always Anonymous. Absence
// of a session is not an error here and nothing is surfaced to the user.
func (m *SessionManager) CheckSession(ctx context.Context, token string) AuthState {
	m.state = StateChecking
	if _, err := m.ident.CurrentSession(ctx, token); err == nil {
		// Best effort: a failed sign-out still leaves the screen anonymous.
		_ = m.ident.SignOut(ctx, token)
	}
	m.state = StateAnonymous
	return m.state
}

// SubmitSignUp drives the sign-up chain: sign up, then sign in with the
// same credentials, then seed the metadata record with the full name.
// When the provider reports a pending confirmation step, the chain stops
// and the manager stays Anonymous.
func (m *SessionManager) SubmitSignUp(ctx context.Context, email, password, fullName string) (string, error) {
	m.state = StateAnonymous

	res, err := m.ident.SignUp(ctx, email, password, fullName)
	if err != nil {
		return "", err
	}
	if res.NextStep != model.StepDone {
		return "", fmt.Errorf("sign up requires further action: %s", res.NextStep)
	}
	return m.signInAndSync(ctx, email, password)
}

// SubmitSignIn authenticates and loads-or-creates the metadata record.
func (m *SessionManager) SubmitSignIn(ctx context.Context, email, password string) (string, error) {
	m.state = StateAnonymous
	return m.signInAndSync(ctx, email, password)
}

// signInAndSync is the shared tail of both submit paths. Authenticated is
// never entered without a readable metadata record: when the fetch-or-create
// fails, the fresh session is rolled back and the failure surfaces.
func (m *SessionManager) signInAndSync(ctx context.Context, email, password string) (string, error) {
	sess, token, err := m.ident.SignIn(ctx, email, password)
	if err != nil {
		return "", err
	}
	if _, err := m.meta.EnsureRecord(ctx, sess); err != nil {
		_ = m.ident.SignOut(ctx, token)
		m.state = StateAnonymous
		return "", err
	}
	m.state = StateAuthenticated
	return token, nil
}

// LoadDashboard resolves the session and returns the metadata record for
// display. The full-name backfill is re-checked on every load; re-applying
// the same name is a no-op change.
func (m *SessionManager) LoadDashboard(ctx context.Context, token string) (*model.UserMetadata, error) {
	sess, err := m.ident.CurrentSession(ctx, token)
	if err != nil {
		return nil, err
	}
	rec, err := m.meta.EnsureRecord(ctx, sess)
	if err != nil {
		return nil, err
	}
	m.state = StateAuthenticated
	return rec, nil
}

// MarkWatched records one watch event for the session's user and returns
// the updated record for re-render.
func (m *SessionManager) MarkWatched(ctx context.Context, token string, videoID int) (*model.UserMetadata, error) {
	sess, err := m.ident.CurrentSession(ctx, token)
	if err != nil {
		return nil, err
	}
	rec, err := m.meta.EnsureRecord(ctx, sess)
	if err != nil {
		return nil, err
	}
	return m.meta.RecordWatch(ctx, rec, videoID)
}

// Rate records a rating for the session's user and returns the updated
// record for re-render.
func (m *SessionManager) Rate(ctx context.Context, token string, videoID, rating int) (*model.UserMetadata, error) {
	sess, err := m.ident.CurrentSession(ctx, token)
	if err != nil {
		return nil, err
	}
	rec, err := m.meta.EnsureRecord(ctx, sess)
	if err != nil {
		return nil, err
	}
	return m.meta.RecordRating(ctx, rec, videoID, rating)
}
