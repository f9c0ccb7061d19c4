package main

import (
	"os"

	"github.com/msto63/netplane/cmd/netplane/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
