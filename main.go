package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/farmwatch/farmwatch/cmd"
	"github.com/farmwatch/farmwatch/internal/buildinfo"
	"github.com/farmwatch/farmwatch/internal/conf"
	"github.com/farmwatch/farmwatch/internal/logger"
)

// Set at build time with -ldflags "-X main.version=... -X main.buildDate=...".
var (
	version   = "dev"
	buildDate = buildinfo.UnknownValue
)

func main() {
	os.Exit(run())
}

func run() int {
	settings, err := conf.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading configuration: %v\n", err)
		return 1
	}
	defer func() { _ = logger.Global().Close() }()

	systemID, err := buildinfo.LoadOrCreateSystemID(configDir())
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}
	info := buildinfo.NewContext(version, buildDate, systemID)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.RootCommand(settings, info).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

// configDir is the directory holding config.yaml, or the first default one.
func configDir() string {
	if path, err := conf.FindConfigFile(); err == nil {
		return filepath.Dir(path)
	}
	if paths, err := conf.GetDefaultConfigPaths(); err == nil && len(paths) > 0 {
		return paths[0]
	}
	return "."
}
