package service

import (
	"errors"
)

// Validation and not-found errors surfaced to handlers. Store and
// transport failures are wrapped and bubble up as generic errors.
var (
	// ErrLinkNotFound covers unknown and expired short codes alike.
	ErrLinkNotFound = errors.New("link not found")

	// ErrInvalidURL is returned for malformed or non-http(s) URLs.
	ErrInvalidURL = errors.New("invalid URL")

	// ErrCodeTaken is returned when a custom code collides with an
	// existing short code.
	ErrCodeTaken = errors.New("code already in use")

	// ErrInvalidCustomCode is returned when a requested custom code
	// fails length or charset validation.
	ErrInvalidCustomCode = errors.New("invalid custom code")

	// ErrInvalidCredentials is returned on failed login.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidPhoneNumber is returned for malformed SMS recipients.
	ErrInvalidPhoneNumber = errors.New("invalid phone number")

	// ErrEmptyMessage is returned for blank SMS bodies.
	ErrEmptyMessage = errors.New("message cannot be empty")
)
