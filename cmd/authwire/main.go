// Package main is the entry point for the authwire CLI.
package main

import (
	"os"

	"github.com/authwire/authwire/cmd/authwire/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(commands.ExitCode(err))
	}
}
