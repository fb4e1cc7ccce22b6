package errs

import "time"

// Error pairs a sentinel kind with a message fit for API clients.
// errors.Is matches the kind.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string { return e.Msg }
func (e *Error) Unwrap() error { return e.Kind }

// New returns an error of kind carrying msg.
func New(kind error, msg string) error { return &Error{Kind: kind, Msg: msg} }

// Limited reports an exhausted request or login budget.
type Limited struct {
	RetryAfter time.Duration // zero when unknown
}

func (e *Limited) Error() string { return "rate limited" }
func (e *Limited) Unwrap() error { return ErrRateLimited }
