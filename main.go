// Package main provides the entrypoint for smartsheet-webhook-app.
package main

import (
	"os"

	"github.com/isometry/smartsheet-webhook-app/cmd"
)

func main() {
	if err := cmd.New().Execute(); err != nil {
		os.Exit(1)
	}
}
