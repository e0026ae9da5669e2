// Package exe shells out to external commands for the test helpers.
package exe

import (
	"bytes"
	"errors"
	"os/exec"
	"strings"
)

// Run executes the named program and returns its stdout. When the
// program fails and printed to stderr, that output becomes the error
// message.
func Run(name string, args ...string) (string, error) {
	var stdout, stderr bytes.Buffer

	cmd := exec.Command(name, args...) //nolint:gosec // running caller-chosen commands is the point
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	out := strings.TrimSuffix(stdout.String(), "\n")
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return out, errors.New(msg) //nolint:goerr113 // the message comes from the program itself
		}
		return out, err
	}
	return out, nil
}
