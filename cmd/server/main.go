package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/NicolasHaas/chanrelay/pkg/logging"
	"github.com/NicolasHaas/chanrelay/pkg/server"
	"github.com/NicolasHaas/chanrelay/pkg/version"
)

func main() {
	// Flag values are applied last, and only for flags given explicitly.
	flagCfg := server.DefaultConfig()

	configPath := flag.String("config", "", "YAML config file")
	server.RegisterFlags(flag.CommandLine, &flagCfg)

	logLevel := flag.String("log-level", "info", "Log level: "+logging.LevelNames())
	logFormat := flag.String("log-format", "text", "Log format: text or json")
	showVersion := flag.Bool("version", false, "Print version and exit")

	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] [<host> <port>]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Get().Full())
		return
	}

	if err := logging.Setup(logging.Options{
		Level:  *logLevel,
		Format: *logFormat,
		Output: os.Stdout,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "invalid logging config: %v\n", err)
		os.Exit(1)
	}

	cfg, err := server.BuildConfig(flag.CommandLine, *configPath, flagCfg)
	if errors.Is(err, server.ErrUsage) {
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}

	srv, err := server.New(cfg)
	if err != nil {
		slog.Error("create server", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("chanrelay starting", "build", version.Get(), "addr", cfg.Addr())
	if err := srv.Run(ctx); err != nil {
		slog.Error("server error", "err", err)
		os.Exit(1)
	}
}
