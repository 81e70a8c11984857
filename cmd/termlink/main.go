package main

import (
	"os"

	"github.com/avolkov/termlink/cmd/termlink/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
