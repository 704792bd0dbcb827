package models

import "errors"

var (
	// ErrNotFound is returned when a referenced warning, comment or user does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCategory is returned when a category id has no matching category.
	ErrInvalidCategory = errors.New("invalid category")
	// ErrUnauthorized covers both a missing identity and a missing admin privilege.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrValidation marks malformed caller input.
	ErrValidation = errors.New("validation failed")
	// ErrConflict is returned when a unique field is already taken.
	ErrConflict = errors.New("conflict")
	// ErrInvalidCredentials hides whether the email or the password was wrong.
	ErrInvalidCredentials = errors.New("invalid email or password")
)
