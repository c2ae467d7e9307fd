// Copyright 2026 The Turnstile Authors
// SPDX-License-Identifier: Apache-2.0

package host

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/turnstile-systems/turnstile/ledger"
	"github.com/turnstile-systems/turnstile/lib/codec"
	"github.com/turnstile-systems/turnstile/lib/ref"
)

// Request is the wire envelope for one call. Action is a ledger
// selector (mint, transfer, redeem, void, query) or an operational
// action (status, audit, audit-verify, audit-export, state-root).
// Caller is required for ledger selectors, ignored by operational
// actions. Args carries the action-specific arguments, still
// encoded; the handler decodes the shape its action expects.
type Request struct {
	Action string           `cbor:"action"`
	Caller ref.AccountID    `cbor:"caller,omitempty"`
	Args   codec.RawMessage `cbor:"args,omitempty"`
}

// Response is the wire envelope for all responses. ErrorCode carries
// the ledger failure code when the failure is categorized, and is
// empty for transport-level failures (malformed request, unknown
// action, internal errors).
type Response struct {
	OK        bool             `cbor:"ok"`
	ErrorCode string           `cbor:"error_code,omitempty"`
	Error     string           `cbor:"error,omitempty"`
	Data      codec.RawMessage `cbor:"data,omitempty"`
}

// HandlerFunc processes one request. The returned value, if non-nil,
// is CBOR-encoded into the response's data field. A returned
// *ledger.Error surfaces its code in error_code; any other error
// produces an uncategorized failure response.
type HandlerFunc func(ctx context.Context, request Request) (any, error)

// Server serves the call protocol on a Unix socket. Register
// handlers with Handle before calling Serve.
type Server struct {
	socketPath string
	handlers   map[string]HandlerFunc
	logger     *slog.Logger

	// activeConnections tracks in-flight handlers so Serve can drain
	// them before returning.
	activeConnections sync.WaitGroup
}

// NewServer creates a server that will listen on socketPath.
func NewServer(socketPath string, logger *slog.Logger) *Server {
	return &Server{
		socketPath: socketPath,
		handlers:   make(map[string]HandlerFunc),
		logger:     logger,
	}
}

// Handle registers a handler for the given action. Panics on a
// duplicate registration; wiring errors should fail at startup.
func (s *Server) Handle(action string, handler HandlerFunc) {
	if _, exists := s.handlers[action]; exists {
		panic(fmt.Sprintf("host.Server: duplicate handler for action %q", action))
	}
	s.handlers[action] = handler
}

// Serve accepts connections until ctx is cancelled, then stops
// accepting and waits for in-flight handlers to finish. A stale
// socket file at the path is removed before listening, and the
// socket file is removed on return.
func (s *Server) Serve(ctx context.Context) error {
	if err := os.Remove(s.socketPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing stale socket %s: %w", s.socketPath, err)
	}

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.socketPath, err)
	}
	defer func() {
		listener.Close()
		os.Remove(s.socketPath)
	}()

	// Unblock Accept when the context is cancelled.
	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	s.logger.Info("host socket listening", "path", s.socketPath)

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				break
			}
			s.logger.Error("accept failed", "error", err)
			continue
		}

		s.activeConnections.Add(1)
		go func() {
			defer s.activeConnections.Done()
			s.handleConnection(ctx, conn)
		}()
	}

	s.activeConnections.Wait()
	return nil
}

// readTimeout bounds the wait for the client's request. A
// well-behaved client writes immediately after connecting.
const readTimeout = 30 * time.Second

// writeTimeout bounds the response write.
const writeTimeout = 10 * time.Second

// maxRequestSize bounds a single CBOR request. Generous for any
// ledger call: the largest legal request is a mint at the metadata
// cap, well under 64 KB.
const maxRequestSize = 1024 * 1024

// handleConnection runs one request-response cycle.
func (s *Server) handleConnection(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(readTimeout))

	// CBOR is self-delimiting, so a single Decode reads exactly one
	// request. LimitReader keeps a hostile client from exhausting
	// memory.
	var request Request
	if err := codec.NewDecoder(io.LimitReader(conn, maxRequestSize)).Decode(&request); err != nil {
		if errors.Is(err, io.EOF) {
			// Connected but sent nothing.
			return
		}
		s.writeFailure(conn, "", fmt.Sprintf("invalid request: %v", err))
		return
	}
	if request.Action == "" {
		s.writeFailure(conn, "", "missing required field: action")
		return
	}

	handler, exists := s.handlers[request.Action]
	if !exists {
		s.writeFailure(conn, "", fmt.Sprintf("unknown action %q", request.Action))
		return
	}

	result, err := handler(ctx, request)
	if err != nil {
		s.logger.Debug("action failed",
			"action", request.Action,
			"caller", request.Caller,
			"error", err,
		)
		s.writeFailure(conn, ledger.ErrorCode(err), err.Error())
		return
	}

	s.writeSuccess(conn, result)
}

// writeFailure sends {ok: false, error_code, error}. Write failures
// are logged at debug level; the connection is closing regardless.
func (s *Server) writeFailure(conn net.Conn, code, message string) {
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := codec.NewEncoder(conn).Encode(Response{
		OK:        false,
		ErrorCode: code,
		Error:     message,
	}); err != nil {
		s.logger.Debug("failed to write failure response", "error", err)
	}
}

// writeSuccess sends {ok: true} with the encoded result in data when
// the handler returned one.
func (s *Server) writeSuccess(conn net.Conn, result any) {
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))

	response := Response{OK: true}
	if result != nil {
		data, err := codec.Marshal(result)
		if err != nil {
			s.writeFailure(conn, "", fmt.Sprintf("internal: encoding response: %v", err))
			return
		}
		response.Data = data
	}

	if err := codec.NewEncoder(conn).Encode(response); err != nil {
		s.logger.Debug("failed to write success response", "error", err)
	}
}
