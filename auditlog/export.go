// Copyright 2026 The Turnstile Authors
// SPDX-License-Identifier: Apache-2.0

package auditlog

import (
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"zombiezen.com/go/sqlite"

	"github.com/turnstile-systems/turnstile/lib/codec"
)

// Export writes every journal entry to w as a zstd-compressed stream
// of CBOR-encoded [Entry] values, in sequence order. The stream is
// self-delimiting: readers decode entries until the compressed frame
// ends.
func Export(conn *sqlite.Conn, w io.Writer) error {
	compressor, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return fmt.Errorf("auditlog: creating zstd writer: %w", err)
	}

	encoder := codec.NewEncoder(compressor)
	entries, err := Read(conn, 1, 0)
	if err != nil {
		compressor.Close()
		return err
	}
	for _, entry := range entries {
		if err := encoder.Encode(entry); err != nil {
			compressor.Close()
			return fmt.Errorf("auditlog: encoding export entry %d: %w", entry.Event.Seq, err)
		}
	}

	if err := compressor.Close(); err != nil {
		return fmt.Errorf("auditlog: flushing export: %w", err)
	}
	return nil
}

// ReadExport decodes an export stream produced by [Export].
func ReadExport(r io.Reader) ([]Entry, error) {
	decompressor, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("auditlog: creating zstd reader: %w", err)
	}
	defer decompressor.Close()

	decoder := codec.NewDecoder(decompressor.IOReadCloser())
	var entries []Entry
	for {
		var entry Entry
		if err := decoder.Decode(&entry); err != nil {
			if errors.Is(err, io.EOF) {
				return entries, nil
			}
			return nil, fmt.Errorf("auditlog: decoding export entry: %w", err)
		}
		entries = append(entries, entry)
	}
}
