package main

import (
	_ "embed"
	"strings"

	"github.com/kontaktio/kontakt/internal/cli"
	"github.com/kontaktio/kontakt/internal/logging"
)

//go:embed VERSION
var versionFile string

var executeCLI = cli.Execute

func run() error {
	version := strings.TrimSpace(versionFile)
	return executeCLI(version)
}

func main() {
	if err := run(); err != nil {
		logging.Fatal("kontakt execution failed", "error", err)
	}
}
