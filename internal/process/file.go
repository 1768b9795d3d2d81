package process

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Zuo-Peng/softsplit/internal/archive"
	"github.com/Zuo-Peng/softsplit/internal/logging"
	"github.com/Zuo-Peng/softsplit/internal/parse"
	"github.com/Zuo-Peng/softsplit/internal/scan"
	"github.com/Zuo-Peng/softsplit/internal/table"
)

const outputExt = ".tsv"

// Output is one table written next to its source file.
type Output struct {
	Name      string
	Path      string
	Table     *table.Table
	Truncated bool
}

type FileResult struct {
	File      scan.FileInfo
	OutputDir string
	Outputs   []Output
}

// Warnings counts field-count mismatches across the untrimmed outputs.
func (r *FileResult) Warnings() int {
	n := 0
	for _, o := range r.Outputs {
		if !o.Truncated {
			n += len(o.Table.Warnings)
		}
	}
	return n
}

// ProcessFile decompresses fi into <processedDir>/<name>/<name> and splits it
// there with SplitFile.
func ProcessFile(ctx context.Context, fi scan.FileInfo, processedDir string) (*FileResult, error) {
	outDir := filepath.Join(processedDir, fi.Name)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, ioErr("mkdir", outDir, err)
	}

	src := filepath.Join(outDir, fi.Name)
	if err := archive.Gunzip(fi.Path, src); err != nil {
		return nil, ioErr("decompress", fi.Path, err)
	}

	outputs, err := SplitFile(ctx, src)
	res := &FileResult{File: fi, OutputDir: outDir, Outputs: outputs}
	return res, err
}

// SplitFile parses the decompressed file at path, writes <section>.tsv for
// every section into the same directory, adds Probes_truncated.tsv when there
// is a Probes section, and finally deletes path. Outputs written before a
// failure are returned alongside the error and are not rolled back.
func SplitFile(ctx context.Context, path string) ([]Output, error) {
	logger := logging.FromContext(ctx).With("file", filepath.Base(path))

	f, err := os.Open(path)
	if err != nil {
		return nil, ioErr("open", path, err)
	}
	tables, err := parse.Parse(f, parse.WithLogger(logger))
	f.Close()
	if err != nil {
		var pe *parse.ParseError
		if errors.As(err, &pe) {
			return nil, err
		}
		return nil, ioErr("read", path, err)
	}

	dir := filepath.Dir(path)
	files := fileNames{}
	var outputs []Output
	write := func(name string, t *table.Table, truncated bool) error {
		fileName, renamed := files.claim(name)
		if renamed {
			logger.Warn("output file name taken, writing under another name", "section", name, "path", fileName)
		}
		out := filepath.Join(dir, fileName)
		if err := table.WriteFile(out, t); err != nil {
			return ioErr("write", out, err)
		}
		o := Output{Name: name, Path: out, Table: t, Truncated: truncated}
		if i := indexOfOutput(outputs, name); i >= 0 {
			outputs[i] = o
		} else {
			outputs = append(outputs, o)
		}
		logger.Debug("wrote table", "section", name, "rows", len(t.Rows), "columns", t.Width())
		return nil
	}

	err = tables.Each(func(name string, t *table.Table) error {
		return write(name, t, false)
	})
	if err != nil {
		return outputs, err
	}

	if probes, ok := tables.Get(parse.ProbesSection); ok {
		if err := write(parse.TruncatedProbesName, parse.TrimProbes(probes), true); err != nil {
			return outputs, err
		}
	}

	if err := os.Remove(path); err != nil {
		return outputs, ioErr("remove", path, err)
	}
	return outputs, nil
}

// OutputFileName maps a section name to its file name. Path separators are
// replaced so a section can never write outside its directory.
func OutputFileName(section string) string {
	return strings.NewReplacer("/", "_", `\`, "_").Replace(section) + outputExt
}

// fileNames maps each output file name in a directory to the section that
// owns it.
type fileNames map[string]string

// claim returns the file name for section. When OutputFileName collides with
// a different section's file, a ~N suffix is added until the name is free.
// The second result reports whether a suffix was needed.
func (f fileNames) claim(section string) (string, bool) {
	base := OutputFileName(section)
	name := base
	for n := 1; ; n++ {
		owner, taken := f[name]
		if !taken || owner == section {
			f[name] = section
			return name, n > 1
		}
		name = strings.TrimSuffix(base, outputExt) + "~" + strconv.Itoa(n) + outputExt
	}
}

func indexOfOutput(outputs []Output, name string) int {
	for i, o := range outputs {
		if o.Name == name {
			return i
		}
	}
	return -1
}
