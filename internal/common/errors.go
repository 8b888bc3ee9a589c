// Package common defines shared constants and sentinel errors used across
// prayerkeeper components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors.
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrNotSubscribed  = errors.New("cloud backup is not enabled")

	// Validation errors.
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidSlot      = errors.New("invalid prayer slot")
	ErrInvalidStatus    = errors.New("invalid prayer status")
	ErrInvalidVoluntary = errors.New("voluntary units must not be negative")
	ErrInvalidLocation  = errors.New("invalid location")
	ErrNoLocation       = errors.New("location is not set")

	// Sign-in errors.
	ErrInvalidSignInLink = errors.New("invalid sign-in link")
	ErrEmailMismatch     = errors.New("sign-in was not started on this device")
	ErrInvalidToken      = errors.New("invalid token")
)
