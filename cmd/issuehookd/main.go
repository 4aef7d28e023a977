// Package main is the entry point for the issuehookd webhook server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// version is set at build time using -ldflags.
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	// Local development reads a .env file; missing files are fine.
	_ = godotenv.Load()
	return newRootCommand(version).Execute()
}
