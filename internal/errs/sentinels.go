// Package errs contains sentinel errors used across layers for stable error mapping.
//
// The identity provider and the metadata store surface failures as named
// exceptions at their SDK boundary; the adapters translate those names into
// this closed set once, so everything above matches with errors.Is instead of
// string comparison. The Error() strings double as the user-facing messages.
package errs

import "errors"

// Form validation and session lookup.
var (
	// ErrValidation indicates bad form input, caught before any network call.
	ErrValidation = errors.New("validation failed")

	// ErrNoSession indicates there is no current authenticated session.
	// Absence of a session is an expected state, not a failure.
	ErrNoSession = errors.New("no current session")
)

// Identity provider kinds (fixed user-facing messages).
var (
	// ErrInvalidCredentials maps the provider's not-authorized failure.
	ErrInvalidCredentials = errors.New("incorrect email or password")

	// ErrUserNotFound maps the provider's unknown-user failure.
	ErrUserNotFound = errors.New("user does not exist")

	// ErrUserNotConfirmed maps the provider's pending-confirmation failure.
	ErrUserNotConfirmed = errors.New("user is not confirmed, please confirm your account")

	// ErrUserExists indicates sign-up with an email that is already registered.
	ErrUserExists = errors.New("an account with this email already exists")

	// ErrProvider is the fallback for unmapped identity backend failures.
	ErrProvider = errors.New("authentication failed")
)

// Metadata store kinds.
var (
	// ErrSchemaMismatch indicates the table structure or key usage is wrong.
	ErrSchemaMismatch = errors.New("metadata store schema mismatch, check table structure and key usage")

	// ErrTableNotFound indicates the configured metadata table does not exist.
	ErrTableNotFound = errors.New("metadata store table not found, check table name and configuration")

	// ErrThroughputExceeded indicates the store ran out of capacity; retry later.
	ErrThroughputExceeded = errors.New("metadata store capacity exceeded, try again later")

	// ErrAccessDenied indicates the store rejected our credentials.
	ErrAccessDenied = errors.New("access denied to metadata store, check credentials and permissions")

	// ErrStore is the fallback for unmapped store failures.
	ErrStore = errors.New("metadata store error")

	// ErrMetadataUnavailable indicates the metadata record could not be read
	// right after a successful sign-in; authentication is rolled back.
	ErrMetadataUnavailable = errors.New("user metadata not found")
)
