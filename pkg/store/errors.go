package store

import "errors"

// ErrQuotaExceeded is returned by Create operations when the backend
// rejects the write for exceeding the subscription quota. The engine rolls
// back the optimistic insert entirely instead of marking it errored.
var ErrQuotaExceeded = errors.New("store: subscription quota exceeded")

// ErrNotSupported is returned by operations a backend cannot provide.
var ErrNotSupported = errors.New("store: operation not supported")
