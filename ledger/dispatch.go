// Copyright 2026 The Turnstile Authors
// SPDX-License-Identifier: Apache-2.0

package ledger

import (
	"github.com/turnstile-systems/turnstile/lib/codec"
	"github.com/turnstile-systems/turnstile/lib/ref"
)

// Selector names one ledger operation at the host call boundary.
type Selector string

const (
	SelectorMint     Selector = "mint"
	SelectorTransfer Selector = "transfer"
	SelectorRedeem   Selector = "redeem"
	SelectorVoid     Selector = "void"
	SelectorQuery    Selector = "query"
)

// Call is one decoded host call: which operation, its CBOR-encoded
// arguments, and the caller identity the host authenticated. The
// argument shape depends on the selector, so Args stays raw until the
// dispatcher routes the call.
type Call struct {
	Selector Selector         `cbor:"selector"`
	Caller   ref.AccountID    `cbor:"caller"`
	Args     codec.RawMessage `cbor:"args,omitempty"`
}

// MintArgs are the arguments of the mint selector.
type MintArgs struct {
	// Recipient is the identity that will own the new ticket.
	Recipient ref.AccountID `json:"recipient"`
	// Metadata is the opaque payload attached to the ticket for its
	// lifetime.
	Metadata []byte `json:"metadata,omitempty"`
}

// TransferArgs are the arguments of the transfer selector.
type TransferArgs struct {
	ID        TicketID      `json:"id"`
	Recipient ref.AccountID `json:"recipient"`
}

// TicketArgs are the arguments of the redeem, void, and query
// selectors, which act on a single ticket.
type TicketArgs struct {
	ID TicketID `json:"id"`
}

// MintValue is the success value of the mint selector.
type MintValue struct {
	ID TicketID `json:"id"`
}

// QueryValue is the success value of the query selector.
type QueryValue struct {
	Ticket Ticket `json:"ticket"`
}

// Result is the outcome of a successful call: the operation's value
// (nil for transfer, redeem, and void) and the audit events the call
// produced, in commit order. The host persists the state writes and
// the events in one atomic unit.
type Result struct {
	Value  any
	Events []Event
}

// Dispatch decodes and executes one call against the registry. Pure
// routing: it selects exactly one lifecycle operation, forwards the
// decoded arguments, and returns the operation's outcome unchanged —
// failure codes are never remapped or swallowed.
//
// A zero caller, an unknown selector, or undecodable arguments fail
// with CodeInvalidArgument before any operation runs. On any failure
// the registry is untouched and no events are produced.
func Dispatch(r *Registry, call Call) (Result, error) {
	if call.Caller.IsZero() {
		return Result{}, errorf(CodeInvalidArgument, "call: caller identity is required")
	}

	recorder := &Recorder{}

	switch call.Selector {
	case SelectorMint:
		var args MintArgs
		if err := decodeArgs(call.Args, &args); err != nil {
			return Result{}, err
		}
		id, err := r.Mint(recorder, call.Caller, args.Recipient, args.Metadata)
		if err != nil {
			return Result{}, err
		}
		return Result{Value: MintValue{ID: id}, Events: recorder.Events()}, nil

	case SelectorTransfer:
		var args TransferArgs
		if err := decodeArgs(call.Args, &args); err != nil {
			return Result{}, err
		}
		if err := r.Transfer(recorder, call.Caller, args.ID, args.Recipient); err != nil {
			return Result{}, err
		}
		return Result{Events: recorder.Events()}, nil

	case SelectorRedeem:
		var args TicketArgs
		if err := decodeArgs(call.Args, &args); err != nil {
			return Result{}, err
		}
		if err := r.Redeem(recorder, call.Caller, args.ID); err != nil {
			return Result{}, err
		}
		return Result{Events: recorder.Events()}, nil

	case SelectorVoid:
		var args TicketArgs
		if err := decodeArgs(call.Args, &args); err != nil {
			return Result{}, err
		}
		if err := r.Void(recorder, call.Caller, args.ID); err != nil {
			return Result{}, err
		}
		return Result{Events: recorder.Events()}, nil

	case SelectorQuery:
		var args TicketArgs
		if err := decodeArgs(call.Args, &args); err != nil {
			return Result{}, err
		}
		ticket, err := r.Query(args.ID)
		if err != nil {
			return Result{}, err
		}
		return Result{Value: QueryValue{Ticket: ticket}}, nil

	default:
		return Result{}, errorf(CodeInvalidArgument, "unknown selector %q", call.Selector)
	}
}

// decodeArgs unmarshals the raw argument payload, mapping decode
// failures to the InvalidArgument taxonomy code. A nil payload
// decodes every field to its zero value; the operations reject
// missing required fields themselves.
func decodeArgs(raw codec.RawMessage, args any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := codec.Unmarshal(raw, args); err != nil {
		return errorf(CodeInvalidArgument, "decoding arguments: %v", err)
	}
	return nil
}
