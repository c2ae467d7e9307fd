// Copyright 2026 The Turnstile Authors
// SPDX-License-Identifier: Apache-2.0

package host

import (
	"context"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/turnstile-systems/turnstile/lib/codec"
	"github.com/turnstile-systems/turnstile/lib/ref"
)

// dialTimeout covers only the connect phase; the server's own
// timeouts govern the rest of the exchange.
const dialTimeout = 5 * time.Second

// responseReadTimeout is how long the client waits for a response
// after writing its request. Matched to the server's readTimeout
// plus writeTimeout to leave room for handler execution.
const responseReadTimeout = 45 * time.Second

// maxResponseSize mirrors the server's maxRequestSize.
const maxResponseSize = 1024 * 1024

// CallError is returned by Call when the server answers ok=false.
// Code is the ledger failure code, empty for transport-level
// failures.
type CallError struct {
	Action  string
	Code    string
	Message string
}

func (e *CallError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("host call %q: %s", e.Action, e.Message)
	}
	return fmt.Sprintf("host call %q: %s: %s", e.Action, e.Code, e.Message)
}

// Client speaks the call protocol to a ledger socket. Each Call
// opens a fresh connection, matching the server's
// one-request-per-connection model. The caller identity set at
// construction is stamped on every request.
type Client struct {
	socketPath string
	caller     ref.AccountID
}

// NewClient creates a client that calls the socket at socketPath as
// the given identity. A zero caller is allowed for operational
// actions that need no identity.
func NewClient(socketPath string, caller ref.AccountID) *Client {
	return &Client{socketPath: socketPath, caller: caller}
}

// Call sends one request and decodes the response. args, if non-nil,
// is CBOR-encoded into the request's args field; result, if non-nil,
// receives the decoded data field of a successful response.
//
// A server-side failure returns *CallError carrying the wire code
// and message. Connection and encoding failures return plain errors.
func (c *Client) Call(ctx context.Context, action string, args any, result any) error {
	request := Request{Action: action, Caller: c.caller}
	if args != nil {
		encoded, err := codec.Marshal(args)
		if err != nil {
			return fmt.Errorf("encoding args for %q: %w", action, err)
		}
		request.Args = encoded
	}

	response, err := c.send(ctx, request)
	if err != nil {
		return fmt.Errorf("calling %q on %s: %w", action, c.socketPath, err)
	}

	if !response.OK {
		return &CallError{
			Action:  action,
			Code:    response.ErrorCode,
			Message: response.Error,
		}
	}

	if result != nil && len(response.Data) > 0 {
		if err := codec.Unmarshal(response.Data, result); err != nil {
			return fmt.Errorf("decoding response data for %q: %w", action, err)
		}
	}
	return nil
}

// send connects, writes the request, and reads the response.
func (c *Client) send(ctx context.Context, request Request) (*Response, error) {
	dialer := net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, "unix", c.socketPath)
	if err != nil {
		return nil, fmt.Errorf("connecting: %w", err)
	}
	defer conn.Close()

	if err := codec.NewEncoder(conn).Encode(request); err != nil {
		return nil, fmt.Errorf("writing request: %w", err)
	}

	// Half-close the write side so the server's read sees a clean
	// EOF after the one request.
	if unixConn, ok := conn.(*net.UnixConn); ok {
		unixConn.CloseWrite()
	}

	conn.SetReadDeadline(time.Now().Add(responseReadTimeout))
	var response Response
	if err := codec.NewDecoder(io.LimitReader(conn, maxResponseSize)).Decode(&response); err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	return &response, nil
}
