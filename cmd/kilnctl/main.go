package main

import (
	"os"

	"github.com/dalemusser/kilntrack/internal/cli"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	os.Exit(cli.Execute(cli.NewRootCmd(version)))
}
