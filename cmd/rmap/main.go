package main

import (
	"os"

	"rmap/cmd/rmap/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
