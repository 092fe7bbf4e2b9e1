// Package main is the entry point for the bipbuf CLI.
//
// Usage:
//
//	bipbuf [flags] <command> [subcommand] [args]
//
// Commands:
//
//	config     - Buffer profile management (list, show, set, use, delete)
//	pipe       - Copy stdin to stdout through a bip buffer
//	trace      - Run an operation script and show the buffer after each step
//	bench      - Measure buffer throughput
//	version    - Show version information
package main

import (
	"fmt"
	"os"

	"github.com/haivivi/bipbuf/cmd/bipbuf/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
