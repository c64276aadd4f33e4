package errcode

import "errors"

// Code is a stable, log-facing error identifier.
// It is a string newtype, comparable, allocation-free, and implements error.
type Code string

func (c Code) Error() string { return string(c) }
func (c Code) Code() Code    { return c }

type coder interface{ Code() Code }

// Canonical codes (short, stable).
const (
	OK            Code = "ok"
	InvalidParams Code = "invalid_params"
	Timeout       Code = "timeout"

	// Profile / persistence
	NotConfigured Code = "not_configured"
	StoreCommit   Code = "store_commit"
	StoreRead     Code = "store_read"

	// Radio
	AssociationTimeout   Code = "association_timeout"
	ProvisioningFallback Code = "provisioning_fallback"
	LinkDown             Code = "link_down"
	AccessPointFailed    Code = "access_point_failed"

	// Dashboard
	ServerNotFound Code = "server_not_found"
	DeliveryFailed Code = "delivery_failed"

	// Lifecycle: the device must restart.
	Restart Code = "restart"

	Error Code = "error" // generic fallback
)

// E wraps a Code with the operation that produced it and an optional cause.
type E struct {
	C   Code
	Op  string
	Msg string
	Err error
}

func (e *E) Error() string {
	s := string(e.C)
	if e.Op != "" {
		s = e.Op + ": " + s
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}
func (e *E) Unwrap() error { return e.Err }
func (e *E) Code() Code    { return e.C }

// Wrap builds an *E, keeping err as the cause.
func Wrap(c Code, op string, err error) error {
	return &E{C: c, Op: op, Err: err}
}

// Of extracts a Code from an error, defaulting to Error.
func Of(err error) Code {
	if err == nil {
		return OK
	}
	// Code and *E both implement coder; the outermost one in the chain wins.
	var x coder
	if errors.As(err, &x) {
		return x.Code()
	}
	return Error
}

// Is reports whether err carries code c.
func Is(err error, c Code) bool { return Of(err) == c }
