// Copyright 2026 The Turnstile Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/turnstile-systems/turnstile/cmd/turnstile/cli"
	"github.com/turnstile-systems/turnstile/host"
	"github.com/turnstile-systems/turnstile/lib/config"
	"github.com/turnstile-systems/turnstile/lib/ref"
	"github.com/turnstile-systems/turnstile/lib/version"
)

// connection holds the flags every ledger subcommand shares: how to
// reach the daemon and who is calling.
type connection struct {
	configPath string
	socketPath string
	caller     string
	jsonOut    bool
}

// register adds the shared flags to a subcommand's flag set.
func (c *connection) register(flags *pflag.FlagSet) {
	flags.StringVar(&c.configPath, "config", "", "path to turnstile.yaml (default: $TURNSTILE_CONFIG)")
	flags.StringVar(&c.socketPath, "socket", "", "daemon socket path (overrides config)")
	flags.StringVar(&c.caller, "caller", "", "caller identity (e.g., alice@main)")
	flags.BoolVar(&c.jsonOut, "json", false, "output as JSON")
}

// client resolves the socket path (explicit flag, else config file)
// and builds a host client for the caller identity.
func (c *connection) client() (*host.Client, error) {
	socketPath := c.socketPath
	if socketPath == "" {
		var (
			cfg *config.Config
			err error
		)
		if c.configPath != "" {
			cfg, err = config.LoadFile(c.configPath)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return nil, fmt.Errorf("resolving socket path: %w (or pass --socket)", err)
		}
		socketPath = cfg.SocketPath
	}

	var caller ref.AccountID
	if c.caller != "" {
		parsed, err := ref.ParseAccountID(c.caller)
		if err != nil {
			return nil, fmt.Errorf("--caller: %w", err)
		}
		caller = parsed
	}
	return host.NewClient(socketPath, caller), nil
}

// requireCaller fails early for subcommands whose action the daemon
// will reject without an identity.
func (c *connection) requireCaller() error {
	if c.caller == "" {
		return fmt.Errorf("--caller is required")
	}
	return nil
}

func rootCommand() *cli.Command {
	return &cli.Command{
		Name:    "turnstile",
		Summary: "operate a Turnstile ticket ledger",
		Description: "turnstile issues, transfers, redeems, and inspects tickets on a\n" +
			"running ledger daemon. The daemon socket comes from --socket, or\n" +
			"from the config file named by --config or $TURNSTILE_CONFIG.",
		Subcommands: []*cli.Command{
			mintCommand(),
			transferCommand(),
			redeemCommand(),
			voidCommand(),
			queryCommand(),
			statusCommand(),
			auditCommand(),
			versionCommand(),
		},
	}
}

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:    "version",
		Summary: "print version information",
		Run: func(args []string) error {
			fmt.Println("turnstile", version.Full())
			return nil
		},
	}
}
