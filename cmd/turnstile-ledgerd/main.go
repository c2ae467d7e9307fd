// Copyright 2026 The Turnstile Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/turnstile-systems/turnstile/host"
	"github.com/turnstile-systems/turnstile/ledgerstore"
	"github.com/turnstile-systems/turnstile/lib/config"
	"github.com/turnstile-systems/turnstile/lib/version"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath  string
		showVersion bool
	)
	flag.StringVar(&configPath, "config", "", "path to turnstile.yaml (default: $TURNSTILE_CONFIG)")
	flag.BoolVar(&showVersion, "version", false, "print version information and exit")
	flag.Parse()

	if showVersion {
		fmt.Printf("turnstile-ledgerd %s\n", version.Info())
		return nil
	}

	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	level, err := config.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := ledgerstore.Open(ctx, ledgerstore.Config{
		Path:   cfg.DatabasePath,
		Admin:  cfg.Admin,
		Logger: logger,
	})
	if err != nil {
		return err
	}
	defer store.Close()

	ledgerService := &ledgerService{store: store, logger: logger}

	server := host.NewServer(cfg.SocketPath, logger)
	ledgerService.registerActions(server)

	serveDone := make(chan error, 1)
	go func() {
		serveDone <- server.Serve(ctx)
	}()

	logger.Info("ledger daemon running",
		"socket", cfg.SocketPath,
		"database", cfg.DatabasePath,
		"admin", cfg.Admin,
	)

	<-ctx.Done()
	logger.Info("shutting down")

	if err := <-serveDone; err != nil {
		logger.Error("socket server error", "error", err)
		return err
	}
	return nil
}
