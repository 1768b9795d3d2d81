package parse

import (
	"bufio"
	"io"
	"strings"
)

const maxLineSize = 16 * 1024 * 1024 // Probes rows in Illumina files run long

// Section is a bracket-headed span of a SOFT-family file.
type Section struct {
	Name string
	Body []string // raw lines, newline stripped, header excluded
	// Final is set on the section still open when the stream ended.
	Final bool
}

type splitState int

const (
	noSectionOpen splitState = iota
	sectionOpen
)

// splitter is the line-level state machine behind Split.
type splitter struct {
	state splitState
	name  string
	body  []string
	emit  func(Section) error
}

func (s *splitter) header(line string) error {
	if s.state == sectionOpen {
		if err := s.emit(Section{Name: s.name, Body: s.body}); err != nil {
			return err
		}
	}
	s.body = nil
	s.name = headerName(line)
	// an empty header closes the open section without opening another
	if s.name == "" {
		s.state = noSectionOpen
		return nil
	}
	s.state = sectionOpen
	return nil
}

func (s *splitter) data(line string) {
	if s.state == sectionOpen {
		s.body = append(s.body, line)
	}
}

func (s *splitter) end() error {
	if s.state != sectionOpen {
		return nil
	}
	s.state = noSectionOpen
	return s.emit(Section{Name: s.name, Body: s.body, Final: true})
}

// Split scans r line by line and calls emit for every section, in file order.
// Lines before the first header, and lines after an empty "[]" header, are
// dropped. The section still open at end of
// stream is emitted last with Final set. Errors from r or emit stop the scan.
func Split(r io.Reader, emit func(Section) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	s := &splitter{emit: emit}
	for scanner.Scan() {
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if isHeader(line) {
			if err := s.header(line); err != nil {
				return err
			}
			continue
		}
		s.data(line)
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return s.end()
}

func isHeader(line string) bool {
	return strings.HasPrefix(line, "[")
}

// headerName strips '[', ']' and newline characters from both ends. A header
// missing its closing bracket is accepted as is.
func headerName(line string) string {
	return strings.Trim(line, "[]\r\n")
}
