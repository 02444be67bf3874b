package main

import (
	"os"

	"github.com/notreally/notreally/cmd/notreally/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
