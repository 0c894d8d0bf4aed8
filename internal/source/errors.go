package source

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"net"

	"github.com/rs/zerolog"
)

// Failure classes. Concrete errors wrap one of these with fmt.Errorf("%w: ...").
var (
	ErrMissingResource   = errors.New("missing resource")
	ErrTransientNetwork  = errors.New("transient network failure")
	ErrMalformedResponse = errors.New("malformed response")
	ErrAuthentication    = errors.New("authentication failure")
	ErrUnexpected        = errors.New("unexpected failure")
)

// Kind names a failure class for logs and summaries.
type Kind string

const (
	KindNone           Kind = ""
	KindMissing        Kind = "missing_resource"
	KindTransient      Kind = "transient_network"
	KindMalformed      Kind = "malformed_response"
	KindAuthentication Kind = "authentication"
	KindUnexpected     Kind = "unexpected"
)

// Classify maps err onto the failure taxonomy. Errors that were not wrapped
// with a sentinel are recognized by their standard library shape.
func Classify(err error) Kind {
	if err == nil {
		return KindNone
	}
	switch {
	case errors.Is(err, ErrMissingResource):
		return KindMissing
	case errors.Is(err, ErrTransientNetwork):
		return KindTransient
	case errors.Is(err, ErrMalformedResponse):
		return KindMalformed
	case errors.Is(err, ErrAuthentication):
		return KindAuthentication
	case errors.Is(err, ErrUnexpected):
		return KindUnexpected
	case errors.Is(err, fs.ErrNotExist):
		return KindMissing
	case errors.Is(err, context.DeadlineExceeded):
		return KindTransient
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindTransient
	}
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return KindMalformed
	}
	return KindUnexpected
}

// Level is the log level a failure of this kind is reported at.
func (k Kind) Level() zerolog.Level {
	switch k {
	case KindNone:
		return zerolog.InfoLevel
	case KindTransient:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}
