package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrManagerOnly rejects a mutation attempted without the MANAGER role.
	// The operation must have no side effect when this is returned.
	ErrManagerOnly = errors.New("manager role required")
)
