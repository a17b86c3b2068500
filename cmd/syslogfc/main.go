package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/V4T54L/syslogfc/internal/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(2)
	}

	if err := newRootCmd(cfg).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "syslogfc:", err)
		os.Exit(1)
	}
}
