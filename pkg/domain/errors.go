package domain

import "errors"

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrInvalidMode is returned when a mode is not one of the defined values.
var ErrInvalidMode = errors.New("invalid mode")

// ErrInvalidPatch is returned when a patch would break a state invariant.
var ErrInvalidPatch = errors.New("invalid state patch")

// ErrUnknownTool is returned when a tool call names a tool that is not registered.
var ErrUnknownTool = errors.New("unknown tool")

// ErrInvalidToolInput is returned when tool arguments fail schema validation.
var ErrInvalidToolInput = errors.New("invalid tool input")
