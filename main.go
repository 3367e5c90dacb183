// Package main is the entry point for the nlsql CLI application.
// It uploads SQLite databases to a natural-language SQL backend and asks questions about them.
package main

import (
	"nlsql/cli/cmd"
)

// main is the entry point for the nlsql CLI application.
// It initializes and executes the command-line interface.
func main() {
	cmd.Execute()
}
