// Package identity wraps the identity provider into a uniform result and
// error shape for the session layer.
//
// Provider failures arrive as named exceptions; this is the only place that
// knows those names. Known names map to the fixed sentinels in errs, anything
// else falls through to the generic provider error carrying the original
// message. Form constraints are checked here, before any provider call.
package identity

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/sibulut/simple-atom/internal/errs"
	"github.com/sibulut/simple-atom/internal/model"
	"github.com/sibulut/simple-atom/internal/provider"
)

// emailRe is the basic address pattern the sign-in form enforces.
var emailRe = regexp.MustCompile(`^\S+@\S+\.\S+$`)

const minPasswordLen = 8

// Client adapts a provider.IdentityProvider for the session layer.
type Client struct {
	prov provider.IdentityProvider
}

// NewClient constructs the adapter.
func NewClient(prov provider.IdentityProvider) *Client {
	return &Client{prov: prov}
}

// ValidateSignUp checks the sign-up form constraints: syntactically valid
// email, password of at least eight characters, full name present.
func ValidateSignUp(email, password, fullName string) error {
	if email == "" || password == "" || fullName == "" {
		return fmt.Errorf("%w: please fill in all fields", errs.ErrValidation)
	}
	return validateCredentials(email, password)
}

// ValidateSignIn checks the sign-in form constraints.
func ValidateSignIn(email, password string) error {
	if email == "" || password == "" {
		return fmt.Errorf("%w: please fill in all fields", errs.ErrValidation)
	}
	return validateCredentials(email, password)
}

func validateCredentials(email, password string) error {
	if !emailRe.MatchString(email) {
		return fmt.Errorf("%w: please enter a valid email address", errs.ErrValidation)
	}
	if len(password) < minPasswordLen {
		return fmt.Errorf("%w: password must be at least %d characters long", errs.ErrValidation, minPasswordLen)
	}
	return nil
}

// SignUp validates the form and creates the account. The result carries a
// NextStep the caller must check before treating sign-up as complete.
func (c *Client) SignUp(ctx context.Context, email, password, fullName string) (model.SignUpResult, error) {
	if err := ValidateSignUp(email, password, fullName); err != nil {
		return model.SignUpResult{}, err
	}
	res, err := c.prov.SignUp(ctx, email, password, provider.Attributes{Email: email, Name: fullName})
	if err != nil {
		return model.SignUpResult{}, mapProviderError(err)
	}
	return res, nil
}

// SignIn authenticates and composes the Session from the provider's identity
// and attribute lookups. The returned token identifies the session for all
// subsequent calls.
func (c *Client) SignIn(ctx context.Context, email, password string) (model.Session, string, error) {
	if err := ValidateSignIn(email, password); err != nil {
		return model.Session{}, "", err
	}
	token, err := c.prov.SignIn(ctx, email, password)
	if err != nil {
		return model.Session{}, "", mapProviderError(err)
	}
	sess, err := c.session(ctx, token)
	if err != nil {
		return model.Session{}, "", err
	}
	return sess, token, nil
}

// SignOut revokes the session. It fails only on backend failure; a token
// that is already gone signs out cleanly.
func (c *Client) SignOut(ctx context.Context, token string) error {
	if err := c.prov.SignOut(ctx, token); err != nil {
		return mapProviderError(err)
	}
	return nil
}

// CurrentSession resolves the token to a Session, or ErrNoSession when no
// valid session exists. Absence is an expected state for callers.
func (c *Client) CurrentSession(ctx context.Context, token string) (model.Session, error) {
	if token == "" {
		return model.Session{}, errs.ErrNoSession
	}
	sess, err := c.session(ctx, token)
	if err != nil {
		if errors.Is(err, errs.ErrInvalidCredentials) || errors.Is(err, errs.ErrUserNotFound) {
			return model.Session{}, errs.ErrNoSession
		}
		return model.Session{}, err
	}
	return sess, nil
}

func (c *Client) session(ctx context.Context, token string) (model.Session, error) {
	userID, username, err := c.prov.CurrentUser(ctx, token)
	if err != nil {
		return model.Session{}, mapProviderError(err)
	}
	attrs, err := c.prov.UserAttributes(ctx, token)
	if err != nil {
		return model.Session{}, mapProviderError(err)
	}
	email := attrs.Email
	if email == "" {
		email = username
	}
	fullName := attrs.Name
	if fullName == "" {
		fullName = username
	}
	return model.Session{
		UserID:   userID,
		Username: username,
		Email:    email,
		FullName: fullName,
	}, nil
}

// mapProviderError translates named provider exceptions into the closed
// error set. Unmapped names keep their original message under ErrProvider.
func mapProviderError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var pe *provider.Error
	if !errors.As(err, &pe) {
		return fmt.Errorf("%w: %v", errs.ErrProvider, err)
	}
	switch pe.Name {
	case provider.ErrNameNotAuthorized:
		return errs.ErrInvalidCredentials
	case provider.ErrNameUserNotFound:
		return errs.ErrUserNotFound
	case provider.ErrNameUserNotConfirmed:
		return errs.ErrUserNotConfirmed
	case provider.ErrNameUsernameExists:
		return errs.ErrUserExists
	default:
		return fmt.Errorf("%w: %s", errs.ErrProvider, pe.Message)
	}
}
