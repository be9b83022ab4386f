// Package main provides the blobkeep CLI for storing and inspecting blocks
// and datastore values in cloud blob containers.
package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
