package domain

import "errors"

// Configuration errors: fatal at startup or a rejected request.
var (
	ErrConfiguration   = errors.New("configuration error")
	ErrUnknownProvider = errors.New("unknown provider") // 400
)

// Authentication errors all surface as the same "unauthenticated" outcome.
var (
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrInvalidCredentials = wrap(ErrUnauthenticated, "invalid email or password")
	ErrTokenMalformed     = wrap(ErrUnauthenticated, "malformed token")
	ErrTokenSignature     = wrap(ErrUnauthenticated, "token signature mismatch")
	ErrTokenExpired       = wrap(ErrUnauthenticated, "token expired")
	ErrTokenNoSubject     = wrap(ErrUnauthenticated, "token has no subject")
	ErrProviderExchange   = wrap(ErrUnauthenticated, "provider authentication failed")
	ErrInvalidState       = wrap(ErrUnauthenticated, "invalid oauth state")
)

var (
	ErrDuplicate        = errors.New("resource already exists") // 400 on register
	ErrNotFound         = errors.New("not found")               // 404
	ErrInvalidInput     = errors.New("invalid input")           // 400
	ErrStoreUnavailable = errors.New("store unavailable")       // 500
)

type kindError struct {
	parent error
	msg    string
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.parent }

func wrap(parent error, msg string) error { return &kindError{parent: parent, msg: msg} }
