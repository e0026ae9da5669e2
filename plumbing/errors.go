package plumbing

import "errors"

// ErrObjectNotFound is returned when a requested object exists neither
// as a loose object nor in any known packfile
var ErrObjectNotFound = errors.New("object not found")
