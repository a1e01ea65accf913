package identity

import (
	"errors"
	"fmt"
)

// Resolution errors. Each one is terminal for a single Resolve call.
var (
	ErrMissingEmail            = errors.New("identity: provider did not supply a verified email")
	ErrProviderLinkedElsewhere = errors.New("identity: provider identity is linked to another account")
	ErrTransientConflict       = errors.New("identity: concurrent modification, retry the login")
	ErrPersistence             = errors.New("identity: credential vault failure")
)

// Profile validation errors
var (
	ErrInvalidProfile      = errors.New("identity: invalid provider profile")
	ErrUnsupportedProvider = fmt.Errorf("%w: unsupported provider", ErrInvalidProfile)
	ErrMissingSubject      = fmt.Errorf("%w: missing subject id", ErrInvalidProfile)
	ErrMissingAccessToken  = fmt.Errorf("%w: missing access token", ErrInvalidProfile)
)

// Vault errors
var (
	ErrAccountNotFound = errors.New("identity: account not found")
	ErrConflict        = errors.New("identity: uniqueness conflict")
)

// ConflictKind names the constraint a write collided with.
type ConflictKind string

const (
	// ConflictProviderSubject means the (provider, subject) pair is already owned.
	ConflictProviderSubject ConflictKind = "provider_subject"
	// ConflictEmail means the primary email is already taken.
	ConflictEmail ConflictKind = "email"
	// ConflictStale means the account was created or removed concurrently.
	ConflictStale ConflictKind = "stale"
)

// ConflictError is returned by vault writes that would break a uniqueness
// constraint or lost an optimistic concurrency race.
type ConflictError struct {
	Kind      ConflictKind
	Provider  Provider
	SubjectID string
	Email     string

	// OwnerID is the account currently holding the contested key, when known.
	OwnerID string
}

func (e *ConflictError) Error() string {
	switch e.Kind {
	case ConflictProviderSubject:
		if e.OwnerID != "" {
			return fmt.Sprintf("identity: %s identity %q already linked to account %s", e.Provider, e.SubjectID, e.OwnerID)
		}
		return fmt.Sprintf("identity: %s identity %q already linked", e.Provider, e.SubjectID)
	case ConflictEmail:
		return fmt.Sprintf("identity: email %q already registered", e.Email)
	default:
		return "identity: account modified concurrently"
	}
}

// Unwrap makes errors.Is(err, ErrConflict) hold for every ConflictError.
func (e *ConflictError) Unwrap() error { return ErrConflict }

// IsConflict reports whether err is any vault conflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// Retryable reports whether a failed Resolve may succeed if the login is retried.
func Retryable(err error) bool {
	return errors.Is(err, ErrTransientConflict) || errors.Is(err, ErrPersistence)
}
