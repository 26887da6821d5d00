package client

import "errors"

// Sentinel errors for transport-level discrimination. Callers wrap these and
// test with errors.Is; the polling loop logs and retries, foreground actions
// may surface them to the user.
var (
	// ErrAuth means no usable credential was available or the server
	// rejected the one presented.
	ErrAuth = errors.New("authentication failed")

	// ErrNetwork means the request never produced an HTTP response.
	ErrNetwork = errors.New("network failure")

	// ErrServer means the server answered with a non-success status.
	ErrServer = errors.New("server error")
)
