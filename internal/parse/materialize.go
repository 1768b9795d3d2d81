package parse

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/Zuo-Peng/softsplit/internal/table"
)

// HeadingSection is the one section whose body has no column-name row.
const HeadingSection = "Heading"

// ParseError reports a section body that could not be tokenized.
type ParseError struct {
	Section string
	Line    int // 1-based line within the section body
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("section %q line %d: %v", e.Section, e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

var errInvalidUTF8 = errors.New("invalid UTF-8")

// InferHeader decides whether a section's first body line names its columns.
// Heading is read without a header unless it is the section that was still
// open at end of stream, which is always read with one.
func InferHeader(s Section) bool {
	if s.Final {
		return true
	}
	return s.Name != HeadingSection
}

// Materialize splits body lines on tabs into a Table. Blank lines are skipped.
// With inferHeader the first row becomes Columns. Rows wider than the header
// are kept whole and noted in Table.Warnings.
func Materialize(body []string, inferHeader bool) (*table.Table, error) {
	t := &table.Table{}
	for i, line := range body {
		if !utf8.ValidString(line) {
			return nil, &ParseError{Line: i + 1, Err: errInvalidUTF8}
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			continue
		}
		t.Append(strings.Split(line, "\t"), inferHeader)
		inferHeader = false
	}
	return t, nil
}

// MaterializeSection applies the header policy to s.
func MaterializeSection(s Section) (*table.Table, error) {
	t, err := Materialize(s.Body, InferHeader(s))
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			pe.Section = s.Name
		}
		return nil, err
	}
	return t, nil
}
