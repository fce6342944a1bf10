package domain

import "errors"

// Sentinel errors shared across services and handlers. Resources owned by
// another user surface as ErrNotFound so existence never leaks; global
// categories are the one exception since their existence is public.
var (
	ErrNotFound           = errors.New("resource not found")
	ErrNotAllowed         = errors.New("operation not allowed")
	ErrEmailTaken         = errors.New("email is already registered")
	ErrNameTaken          = errors.New("name is already taken")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAIUnavailable      = errors.New("AI service unavailable")
)
