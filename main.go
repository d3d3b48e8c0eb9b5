// Package main is the entry point for the ticketsmith CLI.
package main

import (
	"fmt"
	"os"

	"github.com/ticketsmith/ticketsmith/cmd"
	"github.com/ticketsmith/ticketsmith/internal/logging"
)

func main() {
	if err := cmd.Execute(); err != nil {
		logging.Error("command execution failed", "error", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
