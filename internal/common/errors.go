package common

import "errors"

var (
	// repository specific errors
	ErrorNotFound = errors.New("not found")
	ErrConflict   = errors.New("already exists")

	// service specific errors
	ErrorInternal = errors.New("internal error")
	ErrTransient  = errors.New("store unavailable")

	// credential and account state
	ErrInvalidCredential = errors.New("invalid credential")
	ErrAccountLocked     = errors.New("account locked")
	ErrAlreadyLocked     = errors.New("account already locked")
	ErrNotLocked         = errors.New("account not locked")
	ErrRootProtected     = errors.New("operation not permitted on root account")

	// session errors
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrSessionExpired  = errors.New("session expired")
	ErrForbidden       = errors.New("forbidden")

	// input errors
	ErrInvalidRole = errors.New("invalid role")
	ErrValidation  = errors.New("validation error")

	ErrRateLimited = errors.New("rate limit exceeded")
)

// Kind is the stable, caller-visible name of an error category.
type Kind string

const (
	KindNotFound          Kind = "NOT_FOUND"
	KindConflict          Kind = "CONFLICT"
	KindInvalidCredential Kind = "INVALID_CREDENTIAL"
	KindAccountLocked     Kind = "ACCOUNT_LOCKED"
	KindAlreadyLocked     Kind = "ALREADY_LOCKED"
	KindNotLocked         Kind = "NOT_LOCKED"
	KindRootProtected     Kind = "ROOT_PROTECTED"
	KindUnauthenticated   Kind = "UNAUTHENTICATED"
	KindExpired           Kind = "EXPIRED"
	KindForbidden         Kind = "FORBIDDEN"
	KindInvalidRole       Kind = "INVALID_ROLE"
	KindValidation        Kind = "VALIDATION"
	KindRateLimited       Kind = "RATE_LIMITED"
	KindTransient         Kind = "TRANSIENT"
	KindInternal          Kind = "INTERNAL"
)

var kinds = []struct {
	err  error
	kind Kind
}{
	{ErrTransient, KindTransient},
	{ErrorNotFound, KindNotFound},
	{ErrConflict, KindConflict},
	{ErrInvalidCredential, KindInvalidCredential},
	{ErrAccountLocked, KindAccountLocked},
	{ErrAlreadyLocked, KindAlreadyLocked},
	{ErrNotLocked, KindNotLocked},
	{ErrRootProtected, KindRootProtected},
	{ErrUnauthenticated, KindUnauthenticated},
	{ErrSessionExpired, KindExpired},
	{ErrForbidden, KindForbidden},
	{ErrInvalidRole, KindInvalidRole},
	{ErrValidation, KindValidation},
	{ErrRateLimited, KindRateLimited},
}

// KindOf classifies err. Anything outside the taxonomy is KindInternal.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindInternal
}

// IsDomain reports whether err belongs to the taxonomy and can be handed to
// callers unchanged.
func IsDomain(err error) bool {
	k := KindOf(err)
	return k != "" && k != KindInternal && k != KindTransient
}

// ErrorOf is the inverse of KindOf: it returns the sentinel for kind, or
// ErrorInternal when the kind is unknown.
func ErrorOf(kind Kind) error {
	for _, k := range kinds {
		if k.kind == kind {
			return k.err
		}
	}
	return ErrorInternal
}
