// Package main provides the sqliteoptimierer CLI.
package main

import (
	"os"

	"github.com/SkodaRunner/SQLiteOptimierer/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
