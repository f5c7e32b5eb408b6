// Package main is the entry point for the ajo CLI.
package main

import "github.com/ajopay/ajo-cli/internal/cli"

func main() {
	cli.Execute()
}
