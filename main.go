package main

import (
	"os"

	"github.com/bitrise-io/bitrise-plugins-code-copilot/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
