// Copyright 2026 The Turnstile Authors
// SPDX-License-Identifier: Apache-2.0

package host

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/turnstile-systems/turnstile/ledger"
	"github.com/turnstile-systems/turnstile/lib/codec"
	"github.com/turnstile-systems/turnstile/lib/ref"
)

var alice = ref.MustAccountID("alice@main")

// startServer runs a server on a fresh socket and blocks until it
// accepts connections. Shut down via t.Cleanup.
func startServer(t *testing.T, configure func(*Server)) string {
	t.Helper()

	socketPath := filepath.Join(t.TempDir(), "ledger.sock")
	server := NewServer(socketPath, slog.New(slog.DiscardHandler))
	configure(server)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- server.Serve(ctx) }()
	t.Cleanup(func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("Serve: %v", err)
		}
	})

	// Serve removes and recreates the socket file; poll until a
	// connection succeeds.
	deadline := time.Now().Add(5 * time.Second)
	for {
		conn, err := net.Dial("unix", socketPath)
		if err == nil {
			conn.Close()
			return socketPath
		}
		if time.Now().After(deadline) {
			t.Fatalf("server did not start listening: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestCallRoundTrip(t *testing.T) {
	type echoArgs struct {
		Text string `cbor:"text"`
	}
	type echoValue struct {
		Text   string `cbor:"text"`
		Caller string `cbor:"caller"`
	}

	socketPath := startServer(t, func(server *Server) {
		server.Handle("echo", func(ctx context.Context, request Request) (any, error) {
			var args echoArgs
			if err := ledgerUnmarshal(request.Args, &args); err != nil {
				return nil, err
			}
			return echoValue{Text: args.Text, Caller: request.Caller.String()}, nil
		})
	})

	client := NewClient(socketPath, alice)
	var value echoValue
	if err := client.Call(context.Background(), "echo", echoArgs{Text: "hello"}, &value); err != nil {
		t.Fatalf("Call: %v", err)
	}
	if value.Text != "hello" {
		t.Errorf("echoed text = %q, want %q", value.Text, "hello")
	}
	if value.Caller != alice.String() {
		t.Errorf("caller = %q, want %q", value.Caller, alice)
	}
}

func TestCallWithoutResult(t *testing.T) {
	handled := make(chan struct{}, 1)
	socketPath := startServer(t, func(server *Server) {
		server.Handle("ping", func(ctx context.Context, request Request) (any, error) {
			handled <- struct{}{}
			return nil, nil
		})
	})

	client := NewClient(socketPath, alice)
	if err := client.Call(context.Background(), "ping", nil, nil); err != nil {
		t.Fatalf("Call: %v", err)
	}
	select {
	case <-handled:
	default:
		t.Error("handler did not run")
	}
}

func TestLedgerErrorCodeCrossesWire(t *testing.T) {
	socketPath := startServer(t, func(server *Server) {
		server.Handle("fail", func(ctx context.Context, request Request) (any, error) {
			return nil, &ledger.Error{Code: ledger.CodeNotFound, Message: "ticket 7 has never been issued"}
		})
	})

	client := NewClient(socketPath, alice)
	err := client.Call(context.Background(), "fail", nil, nil)

	var callErr *CallError
	if !errors.As(err, &callErr) {
		t.Fatalf("got %T (%v), want *CallError", err, err)
	}
	if callErr.Code != ledger.CodeNotFound {
		t.Errorf("code = %q, want %q", callErr.Code, ledger.CodeNotFound)
	}
	if callErr.Message == "" {
		t.Error("message is empty")
	}
}

func TestUncategorizedErrorHasNoCode(t *testing.T) {
	socketPath := startServer(t, func(server *Server) {
		server.Handle("fail", func(ctx context.Context, request Request) (any, error) {
			return nil, fmt.Errorf("disk on fire")
		})
	})

	client := NewClient(socketPath, alice)
	err := client.Call(context.Background(), "fail", nil, nil)

	var callErr *CallError
	if !errors.As(err, &callErr) {
		t.Fatalf("got %T (%v), want *CallError", err, err)
	}
	if callErr.Code != "" {
		t.Errorf("code = %q, want empty", callErr.Code)
	}
}

func TestUnknownAction(t *testing.T) {
	socketPath := startServer(t, func(server *Server) {
		server.Handle("known", func(ctx context.Context, request Request) (any, error) {
			return nil, nil
		})
	})

	client := NewClient(socketPath, alice)
	err := client.Call(context.Background(), "unknown", nil, nil)

	var callErr *CallError
	if !errors.As(err, &callErr) {
		t.Fatalf("got %T (%v), want *CallError", err, err)
	}
	if callErr.Code != "" {
		t.Errorf("code = %q, want empty for transport failure", callErr.Code)
	}
}

func TestDuplicateHandlerPanics(t *testing.T) {
	server := NewServer("unused.sock", slog.New(slog.DiscardHandler))
	server.Handle("action", func(ctx context.Context, request Request) (any, error) { return nil, nil })

	defer func() {
		if recover() == nil {
			t.Error("duplicate Handle did not panic")
		}
	}()
	server.Handle("action", func(ctx context.Context, request Request) (any, error) { return nil, nil })
}

// ledgerUnmarshal decodes handler args the way the daemon does,
// mapping decode failures to the taxonomy.
func ledgerUnmarshal(raw []byte, into any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := codec.Unmarshal(raw, into); err != nil {
		return &ledger.Error{Code: ledger.CodeInvalidArgument, Message: err.Error()}
	}
	return nil
}
