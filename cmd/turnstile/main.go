// Copyright 2026 The Turnstile Authors
// SPDX-License-Identifier: Apache-2.0

// turnstile is the operator CLI for the ticket ledger. Subcommands
// map 1:1 onto the daemon's socket actions: mint, transfer, redeem,
// void, query, plus status and audit inspection.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	return rootCommand().Execute(os.Args[1:])
}
