// Copyright 2026 The Turnstile Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"context"
	"log/slog"

	"github.com/turnstile-systems/turnstile/host"
	"github.com/turnstile-systems/turnstile/ledger"
	"github.com/turnstile-systems/turnstile/ledgerstore"
	"github.com/turnstile-systems/turnstile/lib/codec"
)

// ledgerService wires the host socket actions to the store. The
// store serializes dispatch and commit internally, so handlers here
// can run on concurrent connections without coordination.
type ledgerService struct {
	store  *ledgerstore.Store
	logger *slog.Logger
}

// registerActions installs the five ledger selectors and the
// operational actions on the server.
func (s *ledgerService) registerActions(server *host.Server) {
	for _, selector := range []ledger.Selector{
		ledger.SelectorMint,
		ledger.SelectorTransfer,
		ledger.SelectorRedeem,
		ledger.SelectorVoid,
		ledger.SelectorQuery,
	} {
		server.Handle(string(selector), s.handleCall(selector))
	}
	server.Handle("status", s.handleStatus)
	server.Handle("audit", s.handleAudit)
	server.Handle("audit-verify", s.handleAuditVerify)
	server.Handle("audit-export", s.handleAuditExport)
	server.Handle("state-root", s.handleStateRoot)
}

// handleCall adapts one ledger selector to a socket action. The
// request's caller and raw args pass through to the dispatcher
// unchanged; failure codes surface in the response envelope.
func (s *ledgerService) handleCall(selector ledger.Selector) host.HandlerFunc {
	return func(ctx context.Context, request host.Request) (any, error) {
		result, err := s.store.Call(ctx, ledger.Call{
			Selector: selector,
			Caller:   request.Caller,
			Args:     request.Args,
		})
		if err != nil {
			return nil, err
		}

		if len(result.Events) > 0 {
			s.logger.Info("call accepted",
				"selector", selector,
				"caller", request.Caller,
				"events", len(result.Events),
			)
		}
		return result.Value, nil
	}
}

func (s *ledgerService) handleStatus(ctx context.Context, request host.Request) (any, error) {
	status, err := s.store.Status()
	if err != nil {
		return nil, err
	}
	return status, nil
}

func (s *ledgerService) handleAudit(ctx context.Context, request host.Request) (any, error) {
	var args host.AuditArgs
	if len(request.Args) > 0 {
		if err := decodeArgs(request.Args, &args); err != nil {
			return nil, err
		}
	}
	fromSeq := args.FromSeq
	if fromSeq == 0 {
		fromSeq = 1
	}

	entries, err := s.store.ReadAudit(ctx, fromSeq, args.Limit)
	if err != nil {
		return nil, err
	}
	return host.AuditValue{Entries: entries}, nil
}

func (s *ledgerService) handleAuditVerify(ctx context.Context, request host.Request) (any, error) {
	count, err := s.store.VerifyAudit(ctx)
	if err != nil {
		return nil, err
	}
	return host.AuditVerifyValue{Entries: count}, nil
}

func (s *ledgerService) handleAuditExport(ctx context.Context, request host.Request) (any, error) {
	var archive bytes.Buffer
	if err := s.store.ExportAudit(ctx, &archive); err != nil {
		return nil, err
	}
	return host.AuditExportValue{Archive: archive.Bytes()}, nil
}

func (s *ledgerService) handleStateRoot(ctx context.Context, request host.Request) (any, error) {
	status, err := s.store.Status()
	if err != nil {
		return nil, err
	}
	return host.StateRootValue{StateRoot: status.StateRoot}, nil
}

// decodeArgs maps undecodable operational-action arguments to the
// invalid-argument code, matching the dispatcher's treatment of
// ledger call arguments.
func decodeArgs(raw []byte, into any) error {
	if err := codec.Unmarshal(raw, into); err != nil {
		return &ledger.Error{Code: ledger.CodeInvalidArgument, Message: "decoding args: " + err.Error()}
	}
	return nil
}
