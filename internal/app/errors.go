package app

import "errors"

var (
	// ErrValidation wraps a required-field or format violation; nothing
	// was written.
	ErrValidation = errors.New("validation failed")

	// ErrSelfDelete rejects any attempt to trash or purge the acting
	// user's own account, independent of role.
	ErrSelfDelete = errors.New("you cannot delete your own account")

	// ErrInvalidCredentials covers both unknown username and wrong
	// password, without revealing which.
	ErrInvalidCredentials = errors.New("invalid username or password")
)
