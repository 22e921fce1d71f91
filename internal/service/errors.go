package service

import "errors"

var (
	ErrMissingFields      = errors.New("missing required fields")
	ErrMissingUserID      = errors.New("user id is required")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidSession     = errors.New("invalid session")
	ErrEmailTaken         = errors.New("email already registered")
	ErrNotFound           = errors.New("not found")
	ErrInvalidPriority    = errors.New("invalid priority")
	ErrInvalidMood        = errors.New("mood must be between 1 and 5")
	ErrUnknownCategory    = errors.New("unknown category")
	ErrUnknownUser        = errors.New("unknown user")
	ErrInvalidTime        = errors.New("invalid time of day")
	ErrInvalidFrequency   = errors.New("invalid frequency")
)
