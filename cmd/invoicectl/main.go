// Package main is the entry point for the invoicectl admin CLI.
package main

import (
	"os"

	"invoicepro/cmd/invoicectl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
