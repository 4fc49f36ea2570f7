package main

import (
	"os"

	"github.com/odyssey-erp/interco/cmd/icctl/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
