package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/gophjournal/internal/buildinfo"
	"github.com/dmitrijs2005/gophjournal/internal/cli"
	"github.com/dmitrijs2005/gophjournal/internal/config"
	"github.com/dmitrijs2005/gophjournal/internal/filex"
	"github.com/dmitrijs2005/gophjournal/internal/logging"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	cfg, err := config.LoadConfig(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	dataDir, err := filex.EnsureDir("", cfg.DataDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cfg.DataDir = dataDir

	logFile, err := filex.ResolvePath(dataDir, cfg.LogFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := logging.NewFileLogger(logFile, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		logger.Error(ctx, "failed to start", "error", err)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	app.Run(ctx)
}
