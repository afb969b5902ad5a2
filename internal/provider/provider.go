// Package provider defines the identity-provider capability the application
// consumes. Implementations surface failures as named errors, the shape a
// hosted user pool exposes; the identity client translates those names into
// the application's closed error set at the boundary.
package provider

import (
	"context"
	"fmt"

	"github.com/sibulut/simple-atom/internal/model"
)

// Exception names an implementation may return. Unlisted names fall through
// to the generic provider failure when mapped by the identity client.
const (
	ErrNameNotAuthorized    = "NotAuthorizedException"
	ErrNameUserNotFound     = "UserNotFoundException"
	ErrNameUserNotConfirmed = "UserNotConfirmedException"
	ErrNameUsernameExists   = "UsernameExistsException"
	ErrNameInvalidParameter = "InvalidParameterException"
)

// Error is a named provider exception.
type Error struct {
	Name    string
	Message string
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %s", e.Name, e.Message) }

// Attributes carries the profile attributes recorded at sign-up.
type Attributes struct {
	Email string
	Name  string
}

// IdentityProvider is the consumed identity capability: account creation,
// token-backed sessions, and attribute lookup. Tokens are opaque to callers.
type IdentityProvider interface {
	// SignUp creates an account. The result's NextStep reports whether the
	// account still requires confirmation before it can sign in.
	SignUp(ctx context.Context, username, password string, attrs Attributes) (model.SignUpResult, error)

	// SignIn authenticates and returns a session token.
	SignIn(ctx context.Context, username, password string) (token string, err error)

	// SignOut revokes the session for token. Revoking an unknown token is
	// not an error.
	SignOut(ctx context.Context, token string) error

	// CurrentUser resolves the token to the account identity, or a
	// NotAuthorizedException when the token is invalid, revoked or expired.
	CurrentUser(ctx context.Context, token string) (userID, username string, err error)

	// UserAttributes returns the profile attributes for the token's account.
	UserAttributes(ctx context.Context, token string) (Attributes, error)
}
