package main

import (
	"context"
	"fmt"
	"os"

	"meetingai/internal/cli"
	"meetingai/internal/config"
	"meetingai/internal/logging"
	"meetingai/internal/output"
)

func main() {
	if err := run(); err != nil {
		formatter := output.NewFormatter(os.Stderr)
		formatter.Error(err.Error())
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log, closer, err := logging.New(cfg.Log, os.Stderr)
	if err != nil {
		return fmt.Errorf("initializing logging: %w", err)
	}
	defer closer.Close()

	if cfg.Source != "" {
		log.Debug().Str("path", cfg.Source).Msg("config file loaded")
	}

	deps := &cli.Dependencies{
		Config: cfg,
		Log:    log,
	}

	return cli.NewRootCmd(deps).ExecuteContext(context.Background())
}
