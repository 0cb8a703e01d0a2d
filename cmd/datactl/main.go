package main

import (
	"os"

	"github.com/reuben-baek/go-data/cmd/datactl/cmd"
)

func main() {
	if err := cmd.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
