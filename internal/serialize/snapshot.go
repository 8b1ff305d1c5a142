// Package serialize packs grid snapshots and Arrow pages into compact
// binary payloads: MessagePack or Arrow IPC, compressed with ZStandard.
package serialize

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/hugr-lab/gridfilter/internal/msgpack"
)

// snapshotMagic prefixes packed snapshots so foreign payloads fail fast.
var snapshotMagic = []byte("GFS1")

// ErrNotSnapshot is returned by Unpack for payloads without the snapshot header.
var ErrNotSnapshot = errors.New("serialize: payload is not a packed snapshot")

// Pack encodes v as MessagePack and compresses the result.
func Pack(v any) ([]byte, error) {
	data, err := msgpack.Encode(v)
	if err != nil {
		return nil, fmt.Errorf("serialize: %w", err)
	}
	compressed, err := Compress(data)
	if err != nil {
		return nil, fmt.Errorf("serialize: %w", err)
	}
	out := make([]byte, 0, len(snapshotMagic)+len(compressed))
	out = append(out, snapshotMagic...)
	return append(out, compressed...), nil
}

// Unpack reverses Pack into v, which must be a pointer.
func Unpack(data []byte, v any) error {
	if !bytes.HasPrefix(data, snapshotMagic) {
		return ErrNotSnapshot
	}
	raw, err := Decompress(data[len(snapshotMagic):])
	if err != nil {
		return fmt.Errorf("serialize: %w", err)
	}
	if err := msgpack.Decode(raw, v); err != nil {
		return fmt.Errorf("serialize: %w", err)
	}
	return nil
}
