package main

import (
	"os"

	"github.com/campaignboard/campaignboard/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
