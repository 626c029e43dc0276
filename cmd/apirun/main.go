package main

import (
	"fmt"
	"os"

	"github.com/alexisbeaulieu97/streamy/internal/engine"
)

func main() {
	if err := engine.RegisterDefaultRunners(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to register step runners: %v\n", err)
		os.Exit(exitInternalError)
	}

	rootCmd := newRootCmd()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCodeOf(err))
	}
}
