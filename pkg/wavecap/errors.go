package wavecap

import (
	"errors"
	"fmt"
)

// Kind classifies a failed backend call.
type Kind int

const (
	// KindNetwork means the request never produced a response.
	KindNetwork Kind = iota
	// KindHTTP means the backend answered with a non-2xx status.
	KindHTTP
	// KindParse means the response body was not the expected JSON.
	KindParse
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindHTTP:
		return "http"
	case KindParse:
		return "parse"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error is returned by every Client method that fails.
type Error struct {
	Kind    Kind
	Op      string // e.g. "POST /save-stock"
	Status  int    // HTTP status, zero unless Kind == KindHTTP
	Detail  string // "error" field of the response body, if any
	Message string // "message" field of the response body, if any
	Err     error
}

// reason is the most specific server-provided text.
func (e *Error) reason() string {
	if e.Detail != "" {
		return e.Detail
	}
	return e.Message
}

func (e *Error) Error() string {
	switch {
	case e.Kind == KindHTTP && e.reason() != "":
		return fmt.Sprintf("%s: %d: %s", e.Op, e.Status, e.reason())
	case e.Kind == KindHTTP:
		return fmt.Sprintf("%s: status %d", e.Op, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	default:
		return fmt.Sprintf("%s: %s failure", e.Op, e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// IsNetwork reports whether err is a transport failure. Malformed response
// bodies count as transport failures too.
func IsNetwork(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == KindNetwork || e.Kind == KindParse
}

// IsHTTP reports whether err carries a non-2xx backend status.
func IsHTTP(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindHTTP
}

// Message returns the text a user should see for err: the backend's own
// error or message when there is one, otherwise err's string form.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) && e.reason() != "" {
		return e.reason()
	}
	return err.Error()
}
