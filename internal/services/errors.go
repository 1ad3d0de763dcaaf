/**
 * @description
 * Sentinel errors shared by all services.
 * Handlers map these to HTTP status codes with errors.Is; anything else is a 500.
 */

package services

import "errors"

var (
	// ErrNotFound means a referenced entity is absent
	ErrNotFound = errors.New("not found")
	// ErrForbidden means the actor is authenticated but not allowed to perform the action
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidState means the action is illegal for the entity's current state
	ErrInvalidState = errors.New("invalid state")
	// ErrValidation means the input is malformed or violates a business rule
	ErrValidation = errors.New("validation failed")
	// ErrUnauthorized means the credentials are missing or wrong
	ErrUnauthorized = errors.New("unauthorized")
)
