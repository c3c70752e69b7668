package authstate

import "errors"

// ErrAlreadyStarted is returned by Start when the Manager is already
// consuming the backend session stream.
var ErrAlreadyStarted = errors.New("authstate: manager already started")
