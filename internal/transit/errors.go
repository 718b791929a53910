package transit

import (
	"errors"
	"fmt"
)

// Kind classifies a failed arrivals fetch.
type Kind int

const (
	// KindNetwork means the request could not be sent or the response could
	// not be read.
	KindNetwork Kind = iota + 1
	// KindParse means the response body is not the expected JSON.
	KindParse
	// KindMissing means the JSON is well formed but carries no arrivals
	// array. An expired token currently surfaces this way too.
	KindMissing
)

var (
	ErrNetwork       = errors.New("network error")
	ErrParse         = errors.New("malformed response")
	ErrMissing       = errors.New("arrivals missing from response")
	ErrNoAccessToken = errors.New("access token not found in login response")
	ErrNoSession     = errors.New("no access token in session")
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindParse:
		return "parse"
	case KindMissing:
		return "missing"
	default:
		return "unknown"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindNetwork:
		return ErrNetwork
	case KindParse:
		return ErrParse
	case KindMissing:
		return ErrMissing
	default:
		return nil
	}
}

// FetchError is returned by GetArrivals. It matches ErrNetwork, ErrParse or
// ErrMissing with errors.Is, according to its Kind.
type FetchError struct {
	Kind   Kind
	StopID string
	// StatusCode is the HTTP status of the response, zero when none was
	// received.
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	msg := fmt.Sprintf("fetching arrivals for stop %s: %s error", e.StopID, e.Kind)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (http %d)", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FetchError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if s := e.Kind.sentinel(); s != nil {
		errs = append(errs, s)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// AuthError is returned by Login when no access token could be obtained.
type AuthError struct {
	StatusCode  int
	Code        string
	Description string
	Err         error
}

func (e *AuthError) Error() string {
	msg := "logging in"
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (http %d)", e.StatusCode)
	}
	if e.Code != "" || e.Description != "" {
		msg += fmt.Sprintf(" [%s %s]", e.Code, e.Description)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *AuthError) Unwrap() error {
	return e.Err
}
