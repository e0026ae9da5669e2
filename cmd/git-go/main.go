// git-go is a small git client covering init, the object-inspection
// plumbing, and cloning over smart HTTP.
package main

import (
	"fmt"
	"os"

	"github.com/kaliumlabs/gitcore/internal/env"
)

func main() {
	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := newRootCmd(cwd, env.NewFromOs()).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
