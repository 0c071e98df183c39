package model

import "errors"

var (
	// Authentication
	ErrInvalidToken     = errors.New("invalid token")
	ErrUnauthenticated  = errors.New("unauthenticated")
	ErrBadCredentials   = errors.New("invalid email or password")
	ErrAlreadyExists    = errors.New("user already exists")
	ErrInvalidSignature = errors.New("invalid signature")

	// Authorization
	ErrForbidden = errors.New("forbidden")

	// Records
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("record already exists for this date")

	// Dependencies
	ErrUpstream = errors.New("upstream unavailable")

	ErrInvalidInput = errors.New("invalid input")
)
