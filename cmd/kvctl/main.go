package main

import (
	"os"

	"github.com/gobeyondidentity/scopedkv/cmd/kvctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
