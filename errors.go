package bpupload

import (
	"fmt"

	"gopkg.in/errgo.v1"
)

// ErrTokenFieldAbsent is the cause of errors returned when a page was served
// but carries no input with the requested token field name.
var ErrTokenFieldAbsent = errgo.New("csrf token field absent")

// TokenNotFoundError is returned when the page holding a token could not be
// fetched.
type TokenNotFoundError struct {
	StatusCode int
	Status     string
	URL        string
}

func (e *TokenNotFoundError) Error() string {
	return fmt.Sprintf("unable to find csrf token: %d:%s @ %s", e.StatusCode, e.Status, e.URL)
}

func IsTokenNotFound(err error) bool {
	_, ok := errgo.Cause(err).(*TokenNotFoundError)
	return ok
}

func IsTokenFieldAbsent(err error) bool {
	return errgo.Cause(err) == ErrTokenFieldAbsent
}
