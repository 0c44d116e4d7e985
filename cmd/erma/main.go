// Package main provides the erma command-line tool.
package main

import (
	"os"

	"github.com/tianliuyang/pacaya/internal/cli"
)

var version = "dev"

func main() {
	if err := cli.New(version).Run(); err != nil {
		os.Exit(1)
	}
}
