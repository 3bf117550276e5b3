package server

import "errors"

var (
	// ErrUnknownVariable indicates a load command for a variable missing from the catalog.
	ErrUnknownVariable = errors.New("server: unknown variable")

	// ErrUnknownCommand indicates a client message with an unsupported type.
	ErrUnknownCommand = errors.New("server: unknown command")
)
