package main

import (
	"os"

	"github.com/noteward-dev/noteward/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
