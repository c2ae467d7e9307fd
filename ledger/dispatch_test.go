// Copyright 2026 The Turnstile Authors
// SPDX-License-Identifier: Apache-2.0

package ledger

import (
	"testing"

	"github.com/turnstile-systems/turnstile/lib/codec"
	"github.com/turnstile-systems/turnstile/lib/ref"
)

// call builds a Call with CBOR-encoded arguments, failing the test on
// encoding errors.
func call(t *testing.T, selector Selector, caller ref.AccountID, args any) Call {
	t.Helper()
	var raw codec.RawMessage
	if args != nil {
		data, err := codec.Marshal(args)
		if err != nil {
			t.Fatalf("encoding args: %v", err)
		}
		raw = data
	}
	return Call{Selector: selector, Caller: caller, Args: raw}
}

func TestDispatchMintTransferRedeemQuery(t *testing.T) {
	registry := newTestRegistry(t)

	result, err := Dispatch(registry, call(t, SelectorMint, admin, MintArgs{
		Recipient: alice,
		Metadata:  []byte("Seat 12"),
	}))
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	minted, ok := result.Value.(MintValue)
	if !ok {
		t.Fatalf("mint value has type %T", result.Value)
	}
	if minted.ID != 1 {
		t.Errorf("minted id = %d, want 1", minted.ID)
	}
	if len(result.Events) != 1 || result.Events[0].Kind != EventMinted {
		t.Errorf("mint events = %+v", result.Events)
	}

	result, err = Dispatch(registry, call(t, SelectorTransfer, alice, TransferArgs{
		ID:        minted.ID,
		Recipient: bob,
	}))
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if result.Value != nil {
		t.Errorf("transfer value = %v, want nil", result.Value)
	}
	if len(result.Events) != 1 || result.Events[0].Kind != EventTransferred {
		t.Errorf("transfer events = %+v", result.Events)
	}

	result, err = Dispatch(registry, call(t, SelectorRedeem, bob, TicketArgs{ID: minted.ID}))
	if err != nil {
		t.Fatalf("redeem: %v", err)
	}
	if len(result.Events) != 1 || result.Events[0].Kind != EventRedeemed {
		t.Errorf("redeem events = %+v", result.Events)
	}

	result, err = Dispatch(registry, call(t, SelectorQuery, carol, TicketArgs{ID: minted.ID}))
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	queried, ok := result.Value.(QueryValue)
	if !ok {
		t.Fatalf("query value has type %T", result.Value)
	}
	if queried.Ticket.Status != StatusRedeemed || queried.Ticket.Owner != bob {
		t.Errorf("queried ticket = %+v", queried.Ticket)
	}
	if len(result.Events) != 0 {
		t.Errorf("query produced events: %+v", result.Events)
	}
}

func TestDispatchPreservesFailureCodes(t *testing.T) {
	registry := newTestRegistry(t)
	if _, err := Dispatch(registry, call(t, SelectorMint, admin, MintArgs{Recipient: alice})); err != nil {
		t.Fatalf("setup mint: %v", err)
	}

	tests := []struct {
		name     string
		call     Call
		wantCode string
	}{
		{
			"non-admin mint",
			call(t, SelectorMint, bob, MintArgs{Recipient: carol}),
			CodeUnauthorized,
		},
		{
			"query unknown id",
			call(t, SelectorQuery, alice, TicketArgs{ID: 99}),
			CodeNotFound,
		},
		{
			"redeem by stranger",
			call(t, SelectorRedeem, bob, TicketArgs{ID: 1}),
			CodeUnauthorized,
		},
		{
			"self transfer",
			call(t, SelectorTransfer, alice, TransferArgs{ID: 1, Recipient: alice}),
			CodeInvalidArgument,
		},
		{
			"unknown selector",
			call(t, Selector("burn"), alice, TicketArgs{ID: 1}),
			CodeInvalidArgument,
		},
		{
			"zero caller",
			Call{Selector: SelectorQuery, Args: nil},
			CodeInvalidArgument,
		},
		{
			"undecodable args",
			Call{Selector: SelectorQuery, Caller: alice, Args: []byte{0xff, 0xff}},
			CodeInvalidArgument,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			before, err := registry.StateRoot()
			if err != nil {
				t.Fatalf("StateRoot: %v", err)
			}

			result, dispatchErr := Dispatch(registry, test.call)
			if !IsCode(dispatchErr, test.wantCode) {
				t.Fatalf("err = %v, want code %s", dispatchErr, test.wantCode)
			}
			if len(result.Events) != 0 {
				t.Errorf("failed call produced events: %+v", result.Events)
			}

			after, err := registry.StateRoot()
			if err != nil {
				t.Fatalf("StateRoot: %v", err)
			}
			if after != before {
				t.Error("failed call changed the registry state root")
			}
		})
	}
}

func TestDispatchNilArgsRejectedPerOperation(t *testing.T) {
	registry := newTestRegistry(t)

	// Absent argument payloads decode to zero values; the operations
	// themselves reject them with their own codes.
	_, err := Dispatch(registry, Call{Selector: SelectorMint, Caller: admin})
	if !IsCode(err, CodeInvalidArgument) {
		t.Errorf("mint without args: err = %v, want code %s", err, CodeInvalidArgument)
	}
	_, err = Dispatch(registry, Call{Selector: SelectorQuery, Caller: alice})
	if !IsCode(err, CodeNotFound) {
		t.Errorf("query without args: err = %v, want code %s", err, CodeNotFound)
	}
}
