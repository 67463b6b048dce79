// Package parquet provides the on-disk representation of commit history
// snapshots using github.com/parquet-go/parquet-go.
package parquet

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/huangsam/osshealth/schema"
	"github.com/parquet-go/parquet-go"
)

// CommitRow represents one row of a history snapshot.
type CommitRow struct {
	// SHA is the commit identifier
	SHA string `parquet:"sha,snappy"`

	// Timestamp is the commit time (stored as TIMESTAMP with nanosecond precision, UTC)
	Timestamp time.Time `parquet:"timestamp,snappy"`

	// Author is the login of the commit author, or "None"
	Author string `parquet:"author,snappy,dict"`
}

// readBatchSize bounds the number of rows decoded per read call.
const readBatchSize = 1024

// FromHistory converts a history table into parquet rows, keeping row order.
func FromHistory(h schema.History) []CommitRow {
	rows := make([]CommitRow, len(h))
	for i, c := range h {
		rows[i] = CommitRow{SHA: c.SHA, Timestamp: c.Timestamp.UTC(), Author: c.Author}
	}
	return rows
}

// ToHistory converts parquet rows back into a history table, keeping row order.
func ToHistory(rows []CommitRow) schema.History {
	h := make(schema.History, len(rows))
	for i, r := range rows {
		h[i] = schema.Commit{SHA: r.SHA, Timestamp: r.Timestamp.UTC(), Author: r.Author}
	}
	return h
}

// EncodeHistory serializes a history table to parquet bytes.
func EncodeHistory(h schema.History) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeHistory(&buf, h); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeHistory deserializes parquet bytes into a history table.
func DecodeHistory(data []byte) (schema.History, error) {
	return readHistory(bytes.NewReader(data), int64(len(data)))
}

// WriteHistoryFile writes a history table to a parquet file, creating parent directories.
// The file is written to a temporary sibling and renamed so readers never see a partial file.
func WriteHistoryFile(h schema.History, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(outputPath), filepath.Base(outputPath)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if err := writeHistory(tmp, h); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close output file: %w", err)
	}
	return os.Rename(tmp.Name(), outputPath)
}

// ReadHistoryFile reads a history table from a parquet file.
func ReadHistoryFile(inputPath string) (schema.History, error) {
	file, err := os.Open(inputPath)
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()

	info, err := file.Stat()
	if err != nil {
		return nil, err
	}
	return readHistory(file, info.Size())
}

func writeHistory(w io.Writer, h schema.History) error {
	// The schema is automatically derived from the CommitRow struct tags
	writer := parquet.NewGenericWriter[CommitRow](w)
	if _, err := writer.Write(FromHistory(h)); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write history rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet data: %w", err)
	}
	return nil
}

func readHistory(r io.ReaderAt, size int64) (schema.History, error) {
	// OpenFile validates the footer; NewGenericReader panics on malformed input
	f, err := parquet.OpenFile(r, size)
	if err != nil {
		return nil, fmt.Errorf("invalid parquet data: %w", err)
	}
	reader := parquet.NewGenericReader[CommitRow](f)
	defer func() { _ = reader.Close() }()

	rows := make([]CommitRow, 0, reader.NumRows())
	buf := make([]CommitRow, readBatchSize)
	for {
		n, err := reader.Read(buf)
		rows = append(rows, buf[:n]...)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read history rows: %w", err)
		}
		if n == 0 {
			break
		}
	}
	return ToHistory(rows), nil
}
