// Copyright 2026 The Turnstile Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/turnstile-systems/turnstile/cmd/turnstile/cli"
	"github.com/turnstile-systems/turnstile/host"
	"github.com/turnstile-systems/turnstile/ledgerstore"
)

func statusCommand() *cli.Command {
	conn := &connection{}

	return &cli.Command{
		Name:    "status",
		Summary: "show ledger counters, audit tail, and state root",
		Usage:   "turnstile status [flags]",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("status", pflag.ContinueOnError)
			conn.register(flags)
			return flags
		},
		Run: func(args []string) error {
			client, err := conn.client()
			if err != nil {
				return err
			}

			var status ledgerstore.Status
			if err := client.Call(context.Background(), "status", nil, &status); err != nil {
				return err
			}

			if conn.jsonOut {
				return cli.WriteJSON(status)
			}
			fmt.Printf("admin:        %s\n", status.Admin)
			fmt.Printf("tickets:      %d (next id %d)\n", status.TicketCount, status.NextID)
			fmt.Printf("audit:        %d entries (next seq %d)\n", status.AuditSeq, status.NextSeq)
			fmt.Printf("audit hash:   %s\n", status.AuditHash)
			fmt.Printf("state root:   %s\n", status.StateRoot)
			return nil
		},
	}
}

func auditCommand() *cli.Command {
	return &cli.Command{
		Name:    "audit",
		Summary: "inspect the audit journal",
		Subcommands: []*cli.Command{
			auditListCommand(),
			auditVerifyCommand(),
			auditExportCommand(),
		},
	}
}

func auditListCommand() *cli.Command {
	conn := &connection{}
	var (
		fromSeq uint64
		limit   int
	)

	return &cli.Command{
		Name:    "list",
		Summary: "list audit journal entries",
		Usage:   "turnstile audit list [flags]",
		Examples: []cli.Example{
			{
				Description: "show the 20 entries starting at sequence 100",
				Command:     "turnstile audit list --from 100 --limit 20",
			},
		},
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("list", pflag.ContinueOnError)
			conn.register(flags)
			flags.Uint64Var(&fromSeq, "from", 1, "first sequence to show")
			flags.IntVar(&limit, "limit", 0, "maximum entries to show (0 = all)")
			return flags
		},
		Run: func(args []string) error {
			client, err := conn.client()
			if err != nil {
				return err
			}

			var value host.AuditValue
			auditArgs := host.AuditArgs{FromSeq: fromSeq, Limit: limit}
			if err := client.Call(context.Background(), "audit", auditArgs, &value); err != nil {
				return err
			}

			if conn.jsonOut {
				return cli.WriteJSON(value.Entries)
			}
			for _, entry := range value.Entries {
				at := time.UnixMilli(entry.ReceivedAt).UTC().Format(time.RFC3339)
				fmt.Printf("%6d  %-12s ticket %-6d by %-20s %s\n",
					entry.Event.Seq, entry.Event.Kind, entry.Event.TicketID, entry.Event.Actor, at)
			}
			return nil
		},
	}
}

func auditVerifyCommand() *cli.Command {
	conn := &connection{}

	return &cli.Command{
		Name:    "verify",
		Summary: "recompute and check the audit chain",
		Usage:   "turnstile audit verify [flags]",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("verify", pflag.ContinueOnError)
			conn.register(flags)
			return flags
		},
		Run: func(args []string) error {
			client, err := conn.client()
			if err != nil {
				return err
			}

			var value host.AuditVerifyValue
			if err := client.Call(context.Background(), "audit-verify", nil, &value); err != nil {
				return err
			}

			if conn.jsonOut {
				return cli.WriteJSON(value)
			}
			fmt.Printf("audit chain intact: %d entries\n", value.Entries)
			return nil
		},
	}
}

func auditExportCommand() *cli.Command {
	conn := &connection{}
	var outputPath string

	return &cli.Command{
		Name:    "export",
		Summary: "download the journal as a compressed archive",
		Usage:   "turnstile audit export --output <file> [flags]",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("export", pflag.ContinueOnError)
			conn.register(flags)
			flags.StringVar(&outputPath, "output", "", "file to write the archive to (required)")
			return flags
		},
		Run: func(args []string) error {
			if outputPath == "" {
				return fmt.Errorf("--output is required")
			}
			client, err := conn.client()
			if err != nil {
				return err
			}

			var value host.AuditExportValue
			if err := client.Call(context.Background(), "audit-export", nil, &value); err != nil {
				return err
			}
			if err := os.WriteFile(outputPath, value.Archive, 0o600); err != nil {
				return fmt.Errorf("writing archive: %w", err)
			}

			fmt.Printf("wrote %d bytes to %s\n", len(value.Archive), outputPath)
			return nil
		},
	}
}
