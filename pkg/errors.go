// Package pkg holds small utilities shared by every server layer.
// This file defines the domain-level errors.
//
// Services return these (usually wrapped with fmt.Errorf("%w: ...")) and
// the handler layer maps them to HTTP status codes:
//
//	if errors.Is(err, pkg.ErrNotFound) { ... }
package pkg

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrAlreadyExists   = errors.New("already exists")
	ErrBadRequest      = errors.New("bad request")
	ErrTooManyRequests = errors.New("too many requests")
	ErrInternal        = errors.New("internal error")
)
