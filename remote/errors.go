package remote

import "errors"

// ErrServerClosed is returned by Run after Close.
var ErrServerClosed = errors.New("remote server closed")
