package usecase

import "errors"

// ErrInvalidRequest marks errors caused by bad caller input so the
// presentation layer can map them to a client error instead of a server
// fault.
var ErrInvalidRequest = errors.New("invalid request")
