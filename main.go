package main

import (
	"log/slog"
	"os"

	"github.com/bensuskins/household-hub/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		slog.Error("household-hub failed", "error", err)
		os.Exit(1)
	}
}
