package repository

import (
	"errors"
)

// Sentinel errors surfaced by the repositories. The service layer maps
// them to user-visible messages and HTTP statuses.
var (
	// ErrDuplicateShortCode is returned when an insert hits the
	// unique index on links.short_code.
	ErrDuplicateShortCode = errors.New("short code already exists")

	// ErrEmailTaken is returned when registering an already-known email.
	ErrEmailTaken = errors.New("email already registered")

	// ErrCodeNotFound is returned when a redeem code does not exist.
	ErrCodeNotFound = errors.New("redeem code not found")

	// ErrCodeInactive is returned for deactivated redeem codes.
	ErrCodeInactive = errors.New("redeem code is inactive")

	// ErrCodeExhausted is returned once current_uses reached max_uses.
	ErrCodeExhausted = errors.New("redeem code usage limit reached")

	// ErrAlreadyRedeemed is returned when a user redeems the same code twice.
	ErrAlreadyRedeemed = errors.New("code already redeemed by this user")

	// ErrInsufficientCredits is returned when a debit exceeds the balance.
	ErrInsufficientCredits = errors.New("insufficient credits")
)
