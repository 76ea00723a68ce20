// Package main provides the entry point for the swindex CLI.
package main

import (
	"os"

	"github.com/swcatalog/swindex/cmd/swindex/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
