// Package errutil carries small error-handling helpers shared across
// the repository.
package errutil

import "io"

// Close closes c and, when the surrounding function isn't already
// failing, promotes the close error into *err. Meant to be deferred:
//
//	defer errutil.Close(f, &err)
func Close(c io.Closer, err *error) {
	if cerr := c.Close(); cerr != nil && *err == nil {
		*err = cerr
	}
}
