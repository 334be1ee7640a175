package main

import (
	"errors"
	"fmt"
	"os"
)

func main() {
	rootCmd := buildRootCommand()
	rootCmd.AddCommand(buildHistoryCommand())

	if err := rootCmd.Execute(); err != nil {
		// Errors of a dump were already shown by the notifier.
		var reported *reportedError
		if !errors.As(err, &reported) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

// reportedError marks an error that has already been shown to the user.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }

func (e *reportedError) Unwrap() error { return e.err }
