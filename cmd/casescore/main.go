// Command casescore runs the legal case scoring system: a Temporal worker
// hosting the scoring pipeline, an HTTP trigger server, and a starter for
// launching individual runs from the command line.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
