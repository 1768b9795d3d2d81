package parse

import (
	"io"
	"log/slog"
)

type options struct {
	logger *slog.Logger
}

// Option configures Parse.
type Option func(*options)

// WithLogger routes duplicate-section and field-count warnings to l.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// Parse splits r into sections and materializes each one. A repeated section
// name keeps only the last table under that name. Read errors from r are
// returned unwrapped; an untokenizable body is a *ParseError.
func Parse(r io.Reader, opts ...Option) (*Tables, error) {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	tables := NewTables()
	err := Split(r, func(s Section) error {
		t, err := MaterializeSection(s)
		if err != nil {
			return err
		}
		for _, w := range t.Warnings {
			o.logger.Warn("field count mismatch", "section", s.Name, "detail", w.String())
		}
		if tables.Set(s.Name, t) {
			o.logger.Warn("duplicate section, keeping last", "section", s.Name)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tables, nil
}
