package table

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

const maxLineSize = 16 * 1024 * 1024

// Write serializes t as tab-separated text, header first when present.
// No index column is written.
func Write(w io.Writer, t *Table) error {
	bw := bufio.NewWriter(w)
	if t.HasHeader() {
		if err := writeRow(bw, t.Columns); err != nil {
			return err
		}
	}
	for _, r := range t.Rows {
		if err := writeRow(bw, r); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func writeRow(w *bufio.Writer, fields []string) error {
	if _, err := w.WriteString(strings.Join(fields, "\t")); err != nil {
		return err
	}
	return w.WriteByte('\n')
}

// WriteFile writes t to path, replacing any existing file.
func WriteFile(path string, t *Table) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(f, t); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// Read parses tab-separated text. With header set, the first non-blank line
// becomes the column names.
func Read(r io.Reader, header bool) (*Table, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	t := &Table{}
	for scanner.Scan() {
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		t.Append(strings.Split(line, "\t"), header)
		header = false
	}
	return t, scanner.Err()
}

// ReadFile is Read on the file at path.
func ReadFile(path string, header bool) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f, header)
}

// Append adds fields as the header row when asHeader is set, otherwise as a
// data row, recording a Warning when the row is wider than the header.
func (t *Table) Append(fields []string, asHeader bool) {
	if asHeader {
		t.Columns = fields
		return
	}
	if t.HasHeader() && len(fields) > len(t.Columns) {
		t.Warnings = append(t.Warnings, Warning{
			Row:  len(t.Rows),
			Want: len(t.Columns),
			Got:  len(fields),
		})
	}
	t.Rows = append(t.Rows, fields)
}
