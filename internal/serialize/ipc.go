package serialize

import (
	"bytes"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// WriteIPC serializes a record to the Arrow IPC stream format and
// compresses the stream with ZStandard.
func WriteIPC(rec arrow.RecordBatch, allocator memory.Allocator) ([]byte, error) {
	if allocator == nil {
		allocator = memory.DefaultAllocator
	}

	var buf bytes.Buffer
	writer := ipc.NewWriter(&buf, ipc.WithSchema(rec.Schema()), ipc.WithAllocator(allocator))
	defer writer.Close()

	if err := writer.Write(rec); err != nil {
		return nil, fmt.Errorf("failed to write IPC record: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close IPC writer: %w", err)
	}

	return Compress(buf.Bytes())
}

// ReadIPC reverses WriteIPC. The caller owns the returned record and must
// release it.
func ReadIPC(data []byte, allocator memory.Allocator) (arrow.RecordBatch, error) {
	if allocator == nil {
		allocator = memory.DefaultAllocator
	}

	raw, err := Decompress(data)
	if err != nil {
		return nil, err
	}

	reader, err := ipc.NewReader(bytes.NewReader(raw), ipc.WithAllocator(allocator))
	if err != nil {
		return nil, fmt.Errorf("failed to open IPC reader: %w", err)
	}
	defer reader.Release()

	if !reader.Next() {
		if err := reader.Err(); err != nil {
			return nil, fmt.Errorf("failed to read IPC record: %w", err)
		}
		return nil, fmt.Errorf("IPC stream contains no record")
	}
	rec := reader.RecordBatch()
	rec.Retain()
	return rec, nil
}
