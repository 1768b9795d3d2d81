package search

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/Zuo-Peng/softsplit/internal/index"
)

// Result is one output table matching a query. Match is the first column
// name that matched, empty when the hit came from the file or section name.
type Result struct {
	index.OutputRow
	Match string
}

type Options struct {
	Query string
	File  string // "" = all files
	Limit int
}

// Outputs finds output tables whose section name, file key or column names
// contain opts.Query, case-insensitively. An empty query lists everything.
func Outputs(db *index.DB, opts Options) ([]Result, error) {
	if opts.Limit <= 0 {
		opts.Limit = 500
	}

	var conditions []string
	var args []interface{}

	// first matching column, computed per row
	matchExpr := "''"
	if opts.Query != "" {
		pattern := index.LikePattern(opts.Query)
		matchExpr = `COALESCE((
			SELECT c.column_name FROM output_columns c
			WHERE c.file_key = o.file_key AND c.name = o.name
			  AND c.column_name LIKE ? ESCAPE '\'
			ORDER BY c.position LIMIT 1), '')`
		args = append(args, pattern)

		conditions = append(conditions, `(
			o.name LIKE ? ESCAPE '\'
			OR o.file_key LIKE ? ESCAPE '\'
			OR EXISTS (
				SELECT 1 FROM output_columns c
				WHERE c.file_key = o.file_key AND c.name = o.name
				  AND c.column_name LIKE ? ESCAPE '\'))`)
		args = append(args, pattern, pattern, pattern)
	}

	// file filter
	if opts.File != "" {
		conditions = append(conditions, "o.file_key = ?")
		args = append(args, opts.File)
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf(`
		SELECT %s, %s AS matched_column
		FROM outputs o
		%s
		ORDER BY o.file_key, o.seq
		LIMIT ?
	`, index.OutputColumns, matchExpr, where)
	args = append(args, opts.Limit)

	rows, err := db.Raw().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()

	return scanResults(rows)
}

func scanResults(rows *sql.Rows) ([]Result, error) {
	var results []Result
	for rows.Next() {
		var r Result
		if err := rows.Scan(
			&r.FileKey, &r.Name, &r.Path, &r.Rows, &r.Columns,
			&r.HasHeader, &r.Truncated, &r.Warnings, &r.Match,
		); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}
