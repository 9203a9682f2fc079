package token

import (
	"errors"
	"fmt"
)

// ErrAuthFailure matches every error produced while obtaining a token
var ErrAuthFailure = errors.New("token: authentication failed")

// AuthError reports a rejected or failed token exchange
type AuthError struct {
	Reason string
	Err    error
}

func (e *AuthError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("failed to refresh access token: %v", e.Err)
	}
	return fmt.Sprintf("failed to refresh access token: %s", e.Reason)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

func (e *AuthError) Is(target error) bool {
	return target == ErrAuthFailure
}
