package search

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zuo-Peng/softsplit/internal/index"
)

func seed(t *testing.T) *index.DB {
	t.Helper()
	db, err := index.OpenDB(filepath.Join(t.TempDir(), "softsplit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	files := []*index.FileRow{
		{
			FileKey: "GSM1.txt", GzPath: "/raw/GSM1.txt.gz", OutputDir: "/p/GSM1.txt",
			Status: index.StatusDone, ProcessedAt: time.Now(),
			Outputs: []index.OutputRow{
				{Name: "Heading", Path: "/p/GSM1.txt/Heading.tsv", Rows: 2, Columns: 2},
				{Name: "Probes", Path: "/p/GSM1.txt/Probes.tsv", HasHeader: true,
					ColumnNames: []string{"ID", "Probe_Sequence", "Symbol"}},
			},
		},
		{
			FileKey: "GSM2_x.txt", GzPath: "/raw/GSM2_x.txt.gz", OutputDir: "/p/GSM2_x.txt",
			Status: index.StatusDone, ProcessedAt: time.Now(),
			Outputs: []index.OutputRow{
				{Name: "Controls", Path: "/p/GSM2_x.txt/Controls.tsv", HasHeader: true,
					ColumnNames: []string{"Probe_Id", "Array_Address_Id"}},
			},
		},
	}
	for _, f := range files {
		require.NoError(t, db.RecordFile(f))
	}
	return db
}

func names(results []Result) []string {
	var out []string
	for _, r := range results {
		out = append(out, r.FileKey+"/"+r.Name)
	}
	return out
}

func TestOutputs(t *testing.T) {
	db := seed(t)

	tests := []struct {
		name  string
		opts  Options
		want  []string
		match []string
	}{
		{
			name:  "empty query lists all",
			opts:  Options{},
			want:  []string{"GSM1.txt/Heading", "GSM1.txt/Probes", "GSM2_x.txt/Controls"},
			match: []string{"", "", ""},
		},
		{
			name:  "section name, case-insensitive",
			opts:  Options{Query: "probes"},
			want:  []string{"GSM1.txt/Probes"},
			match: []string{""},
		},
		{
			name:  "column name",
			opts:  Options{Query: "sequence"},
			want:  []string{"GSM1.txt/Probes"},
			match: []string{"Probe_Sequence"},
		},
		{
			name:  "first matching column wins",
			opts:  Options{Query: "id"},
			want:  []string{"GSM1.txt/Probes", "GSM2_x.txt/Controls"},
			match: []string{"ID", "Probe_Id"},
		},
		{
			name:  "underscore is literal",
			opts:  Options{Query: "2_x"},
			want:  []string{"GSM2_x.txt/Controls"},
			match: []string{""},
		},
		{
			name:  "file filter",
			opts:  Options{File: "GSM1.txt"},
			want:  []string{"GSM1.txt/Heading", "GSM1.txt/Probes"},
			match: []string{"", ""},
		},
		{
			name:  "limit",
			opts:  Options{Limit: 1},
			want:  []string{"GSM1.txt/Heading"},
			match: []string{""},
		},
		{
			name: "no match",
			opts: Options{Query: "nothing%here"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := Outputs(db, tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(results))

			var match []string
			for _, r := range results {
				match = append(match, r.Match)
			}
			assert.Equal(t, tt.match, match)
		})
	}
}
