// Copyright 2026 The Turnstile Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/pflag"

	"github.com/turnstile-systems/turnstile/cmd/turnstile/cli"
	"github.com/turnstile-systems/turnstile/ledger"
	"github.com/turnstile-systems/turnstile/lib/ref"
)

// parseTicketID parses the single positional ticket id argument.
func parseTicketID(args []string) (ledger.TicketID, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("expected exactly one ticket id argument")
	}
	id, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid ticket id %q", args[0])
	}
	return ledger.TicketID(id), nil
}

func mintCommand() *cli.Command {
	conn := &connection{}
	var metadata string

	return &cli.Command{
		Name:    "mint",
		Summary: "issue a new ticket to a recipient",
		Usage:   "turnstile mint <recipient> [flags]",
		Examples: []cli.Example{
			{
				Description: "mint a ticket for alice with seat metadata",
				Command:     `turnstile mint alice@main --caller admin@main --metadata '{"seat":"12F"}'`,
			},
		},
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("mint", pflag.ContinueOnError)
			conn.register(flags)
			flags.StringVar(&metadata, "metadata", "", "opaque metadata stored with the ticket")
			return flags
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one recipient argument")
			}
			recipient, err := ref.ParseAccountID(args[0])
			if err != nil {
				return fmt.Errorf("recipient: %w", err)
			}
			if err := conn.requireCaller(); err != nil {
				return err
			}
			client, err := conn.client()
			if err != nil {
				return err
			}

			mintArgs := ledger.MintArgs{Recipient: recipient}
			if metadata != "" {
				mintArgs.Metadata = []byte(metadata)
			}
			var minted ledger.MintValue
			if err := client.Call(context.Background(), "mint", mintArgs, &minted); err != nil {
				return err
			}

			if conn.jsonOut {
				return cli.WriteJSON(minted)
			}
			fmt.Printf("minted ticket %d for %s\n", minted.ID, recipient)
			return nil
		},
	}
}

func transferCommand() *cli.Command {
	conn := &connection{}

	return &cli.Command{
		Name:    "transfer",
		Summary: "transfer a ticket to a new owner",
		Usage:   "turnstile transfer <id> <recipient> [flags]",
		Examples: []cli.Example{
			{
				Description: "alice hands ticket 12 to bob",
				Command:     "turnstile transfer 12 bob@main --caller alice@main",
			},
		},
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("transfer", pflag.ContinueOnError)
			conn.register(flags)
			return flags
		},
		Run: func(args []string) error {
			if len(args) != 2 {
				return fmt.Errorf("expected ticket id and recipient arguments")
			}
			id, err := parseTicketID(args[:1])
			if err != nil {
				return err
			}
			recipient, err := ref.ParseAccountID(args[1])
			if err != nil {
				return fmt.Errorf("recipient: %w", err)
			}
			if err := conn.requireCaller(); err != nil {
				return err
			}
			client, err := conn.client()
			if err != nil {
				return err
			}

			transferArgs := ledger.TransferArgs{ID: id, Recipient: recipient}
			if err := client.Call(context.Background(), "transfer", transferArgs, nil); err != nil {
				return err
			}

			if conn.jsonOut {
				return cli.WriteJSON(map[string]any{"id": id, "owner": recipient})
			}
			fmt.Printf("ticket %d transferred to %s\n", id, recipient)
			return nil
		},
	}
}

func redeemCommand() *cli.Command {
	conn := &connection{}

	return &cli.Command{
		Name:    "redeem",
		Summary: "redeem a ticket you own",
		Usage:   "turnstile redeem <id> [flags]",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("redeem", pflag.ContinueOnError)
			conn.register(flags)
			return flags
		},
		Run: func(args []string) error {
			id, err := parseTicketID(args)
			if err != nil {
				return err
			}
			if err := conn.requireCaller(); err != nil {
				return err
			}
			client, err := conn.client()
			if err != nil {
				return err
			}

			if err := client.Call(context.Background(), "redeem", ledger.TicketArgs{ID: id}, nil); err != nil {
				return err
			}

			if conn.jsonOut {
				return cli.WriteJSON(map[string]any{"id": id, "status": ledger.StatusRedeemed})
			}
			fmt.Printf("ticket %d redeemed\n", id)
			return nil
		},
	}
}

func voidCommand() *cli.Command {
	conn := &connection{}

	return &cli.Command{
		Name:    "void",
		Summary: "void an issued ticket (admin only)",
		Usage:   "turnstile void <id> [flags]",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("void", pflag.ContinueOnError)
			conn.register(flags)
			return flags
		},
		Run: func(args []string) error {
			id, err := parseTicketID(args)
			if err != nil {
				return err
			}
			if err := conn.requireCaller(); err != nil {
				return err
			}
			client, err := conn.client()
			if err != nil {
				return err
			}

			if err := client.Call(context.Background(), "void", ledger.TicketArgs{ID: id}, nil); err != nil {
				return err
			}

			if conn.jsonOut {
				return cli.WriteJSON(map[string]any{"id": id, "status": ledger.StatusVoid})
			}
			fmt.Printf("ticket %d voided\n", id)
			return nil
		},
	}
}

func queryCommand() *cli.Command {
	conn := &connection{}

	return &cli.Command{
		Name:    "query",
		Summary: "look up a ticket record",
		Usage:   "turnstile query <id> [flags]",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("query", pflag.ContinueOnError)
			conn.register(flags)
			return flags
		},
		Run: func(args []string) error {
			id, err := parseTicketID(args)
			if err != nil {
				return err
			}
			client, err := conn.client()
			if err != nil {
				return err
			}

			var value ledger.QueryValue
			if err := client.Call(context.Background(), "query", ledger.TicketArgs{ID: id}, &value); err != nil {
				return err
			}

			if conn.jsonOut {
				return cli.WriteJSON(value.Ticket)
			}
			ticket := value.Ticket
			fmt.Printf("ticket %d\n", ticket.ID)
			fmt.Printf("  owner:  %s\n", ticket.Owner)
			fmt.Printf("  issuer: %s\n", ticket.Issuer)
			fmt.Printf("  status: %s\n", ticket.Status)
			if len(ticket.Metadata) > 0 {
				fmt.Printf("  metadata: %s\n", ticket.Metadata)
			}
			return nil
		},
	}
}
