package parse

import "github.com/Zuo-Peng/softsplit/internal/table"

// Tables maps section names to materialized tables. Iteration follows the
// order in which a name was first set; setting an existing name replaces its
// table in place.
type Tables struct {
	names  []string
	tables map[string]*table.Table
}

func NewTables() *Tables {
	return &Tables{tables: make(map[string]*table.Table)}
}

// Set stores t under name and reports whether it replaced an earlier table.
func (ts *Tables) Set(name string, t *table.Table) (replaced bool) {
	if _, ok := ts.tables[name]; ok {
		ts.tables[name] = t
		return true
	}
	ts.names = append(ts.names, name)
	ts.tables[name] = t
	return false
}

func (ts *Tables) Get(name string) (*table.Table, bool) {
	t, ok := ts.tables[name]
	return t, ok
}

func (ts *Tables) Names() []string {
	return append([]string(nil), ts.names...)
}

func (ts *Tables) Len() int {
	return len(ts.names)
}

// Each calls fn for every table in order, stopping at the first error.
func (ts *Tables) Each(fn func(name string, t *table.Table) error) error {
	for _, n := range ts.names {
		if err := fn(n, ts.tables[n]); err != nil {
			return err
		}
	}
	return nil
}
