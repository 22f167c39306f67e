package model

import "github.com/m-mizutani/goerr/v2"

// Error taxonomy for the session client. Callers check these with errors.Is;
// the concrete cause and request attributes ride along as goerr values.
var (
	// ErrNetwork means a request never completed (transport failure).
	ErrNetwork = goerr.New("network error")

	// ErrServer means the backend answered with a non-2xx status.
	ErrServer = goerr.New("server error")

	// ErrParse means a payload could not be decoded or failed validation.
	ErrParse = goerr.New("parse error")

	// ErrState means the operation is invalid for the current machine state.
	// It is rejected synchronously and never reaches the network layer.
	ErrState = goerr.New("invalid state")

	// ErrNotFound means the referenced note does not exist in the registry.
	ErrNotFound = goerr.New("not found")

	// ErrAlreadyInProgress means a question fetch is still in flight.
	ErrAlreadyInProgress = goerr.New("already in progress")
)
