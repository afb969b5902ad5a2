// Package userpool is the PostgreSQL-backed identity provider. It owns the
// accounts and sessions tables and issues revocable HS256 session tokens.
//
// Failures leave the package as named provider errors so the identity client
// can map them without knowing anything about Postgres.
package userpool

import (
	"context"
	"errors"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5"

	pkgcrypto "github.com/sibulut/simple-atom/internal/crypto"
	"github.com/sibulut/simple-atom/internal/model"
	pg "github.com/sibulut/simple-atom/internal/postgres"
	"github.com/sibulut/simple-atom/internal/provider"
)

// Pool implements provider.IdentityProvider on top of Postgres.
type Pool struct {
	db          *pg.DB
	signKey     []byte
	accessTTL   time.Duration
	autoConfirm bool
}

var _ provider.IdentityProvider = (*Pool)(nil)

// New constructs the user pool with required dependencies.
func New(db *pg.DB, signKey []byte, accessTTL time.Duration, autoConfirm bool) *Pool {
	return &Pool{db: db, signKey: signKey, accessTTL: accessTTL, autoConfirm: autoConfirm}
}

// SignUp creates an account row. Whether the result's NextStep is DONE or
// CONFIRM_SIGN_UP depends on the pool's auto-confirm policy.
func (p *Pool) SignUp(ctx context.Context, username, password string, attrs provider.Attributes) (model.SignUpResult, error) {
	if username == "" || password == "" {
		return model.SignUpResult{}, &provider.Error{Name: provider.ErrNameInvalidParameter, Message: "username and password are required"}
	}
	uid, err := uuid.NewV4()
	if err != nil {
		return model.SignUpResult{}, err
	}
	salt, err := pkgcrypto.RandBytes(16)
	if err != nil {
		return model.SignUpResult{}, err
	}
	hash := pkgcrypto.HashPassword([]byte(password), salt)

	const q = `
INSERT INTO accounts (id, email, pwd_hash, salt_auth, full_name, confirmed)
VALUES ($1, $2, $3, $4, $5, $6)`
	_, err = p.db.Pool.Exec(ctx, q, uid, username, hash, salt, attrs.Name, p.autoConfirm)
	if pg.IsUniqueViolation(err) {
		return model.SignUpResult{}, &provider.Error{Name: provider.ErrNameUsernameExists, Message: "an account with the given email already exists"}
	}
	if err != nil {
		return model.SignUpResult{}, err
	}

	step := model.StepConfirmSignUp
	if p.autoConfirm {
		step = model.StepDone
	}
	return model.SignUpResult{UserID: uid.String(), NextStep: step}, nil
}

// SignIn verifies credentials, records a session row, and returns a signed
// token whose jti is the session id.
func (p *Pool) SignIn(ctx context.Context, username, password string) (string, error) {
	const q = `
SELECT id, pwd_hash, salt_auth, confirmed FROM accounts WHERE email=$1`
	row := p.db.Pool.QueryRow(ctx, q, username)

	var (
		accountID uuid.UUID
		hash      []byte
		salt      []byte
		confirmed bool
	)
	if err := row.Scan(&accountID, &hash, &salt, &confirmed); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", err
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return "", &provider.Error{Name: provider.ErrNameUserNotFound, Message: "user does not exist"}
		}
		return "", err
	}
	if !pkgcrypto.VerifyPassword([]byte(password), salt, hash) {
		return "", &provider.Error{Name: provider.ErrNameNotAuthorized, Message: "incorrect username or password"}
	}
	if !confirmed {
		return "", &provider.Error{Name: provider.ErrNameUserNotConfirmed, Message: "user is not confirmed"}
	}

	jti, err := uuid.NewV4()
	if err != nil {
		return "", err
	}
	now := time.Now()
	exp := now.Add(p.accessTTL)

	const ins = `
INSERT INTO sessions (id, account_id, expires_at) VALUES ($1, $2, $3)`
	if _, err := p.db.Pool.Exec(ctx, ins, jti, accountID, exp); err != nil {
		return "", err
	}

	claims := jwt.RegisteredClaims{
		Subject:   accountID.String(),
		ID:        jti.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.signKey)
}

// SignOut deletes the session row named by the token's jti. Tokens that no
// longer parse or rows that are already gone are treated as signed out.
func (p *Pool) SignOut(ctx context.Context, token string) error {
	claims, err := p.parseToken(token)
	if err != nil {
		return nil
	}
	const q = `DELETE FROM sessions WHERE id=$1`
	if _, err := p.db.Pool.Exec(ctx, q, claims.ID); err != nil {
		return err
	}
	return nil
}

// CurrentUser verifies the token signature and expiry, then requires the
// session row to still exist (sign-out is real revocation, not just expiry).
func (p *Pool) CurrentUser(ctx context.Context, token string) (string, string, error) {
	claims, err := p.parseToken(token)
	if err != nil {
		return "", "", notAuthorized()
	}
	const q = `
SELECT a.id, a.email
FROM sessions s JOIN accounts a ON a.id = s.account_id
WHERE s.id=$1 AND s.expires_at > now()`
	row := p.db.Pool.QueryRow(ctx, q, claims.ID)

	var (
		accountID uuid.UUID
		email     string
	)
	if err := row.Scan(&accountID, &email); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", "", err
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return "", "", notAuthorized()
		}
		return "", "", err
	}
	return accountID.String(), email, nil
}

// UserAttributes returns the profile attributes for the token's account.
func (p *Pool) UserAttributes(ctx context.Context, token string) (provider.Attributes, error) {
	claims, err := p.parseToken(token)
	if err != nil {
		return provider.Attributes{}, notAuthorized()
	}
	const q = `
SELECT a.email, a.full_name
FROM sessions s JOIN accounts a ON a.id = s.account_id
WHERE s.id=$1 AND s.expires_at > now()`
	row := p.db.Pool.QueryRow(ctx, q, claims.ID)

	var attrs provider.Attributes
	if err := row.Scan(&attrs.Email, &attrs.Name); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return provider.Attributes{}, err
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return provider.Attributes{}, notAuthorized()
		}
		return provider.Attributes{}, err
	}
	return attrs, nil
}

func (p *Pool) parseToken(token string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return p.signKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if claims.ID == "" || claims.Subject == "" {
		return nil, errors.New("token missing id/subject")
	}
	return claims, nil
}

func notAuthorized() error {
	return &provider.Error{Name: provider.ErrNameNotAuthorized, Message: "invalid or expired session token"}
}
