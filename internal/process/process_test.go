package process

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zuo-Peng/softsplit/internal/index"
	"github.com/Zuo-Peng/softsplit/internal/logging"
	"github.com/Zuo-Peng/softsplit/internal/parse"
	"github.com/Zuo-Peng/softsplit/internal/testutil"
)

const fixture = "[Heading]\nA\tB\n[Probes]\nID\tDefinition\tSynonyms\n1\tfoo\tbar\n"

func testContext(t *testing.T) context.Context {
	return logging.WithLogger(context.Background(), testutil.NewTestLogger(t))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func writeGz(t *testing.T, path, body string) {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(body))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func TestSplitFileFixture(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "GSM1.txt")
	require.NoError(t, os.WriteFile(src, []byte(fixture), 0o644))

	outputs, err := SplitFile(testContext(t), src)
	require.NoError(t, err)
	require.Len(t, outputs, 3)

	assert.Equal(t, "Heading", outputs[0].Name)
	assert.Equal(t, "Probes", outputs[1].Name)
	assert.Equal(t, parse.TruncatedProbesName, outputs[2].Name)
	assert.True(t, outputs[2].Truncated)

	assert.Equal(t, "A\tB\n", readFile(t, filepath.Join(dir, "Heading.tsv")))
	assert.Equal(t, "ID\tDefinition\tSynonyms\n1\tfoo\tbar\n", readFile(t, filepath.Join(dir, "Probes.tsv")))
	assert.Equal(t, "ID\n1\n", readFile(t, filepath.Join(dir, "Probes_truncated.tsv")))
	assert.NoFileExists(t, src)
}

func TestSplitFileNoSections(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "plain.txt")
	require.NoError(t, os.WriteFile(src, []byte("just text\n"), 0o644))

	outputs, err := SplitFile(testContext(t), src)
	require.NoError(t, err)
	assert.Empty(t, outputs)
	assert.NoFileExists(t, src)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSplitFileWithoutProbes(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "GSM2.txt")
	require.NoError(t, os.WriteFile(src, []byte("[Heading]\nk\tv\n[Controls]\nID\n1\n"), 0o644))

	outputs, err := SplitFile(testContext(t), src)
	require.NoError(t, err)
	assert.Len(t, outputs, 2)
	assert.NoFileExists(t, filepath.Join(dir, "Probes_truncated.tsv"))
}

func TestSplitFileParseError(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "bad.txt")
	require.NoError(t, os.WriteFile(src, []byte("[T]\na\n\xff\n"), 0o644))

	_, err := SplitFile(testContext(t), src)
	require.Error(t, err)

	var pe *parse.ParseError
	assert.True(t, errors.As(err, &pe))
	assert.False(t, IsIOError(err))
	assert.FileExists(t, src, "source is kept when parsing fails")
}

func TestSplitFileIOErrors(t *testing.T) {
	t.Run("missing source", func(t *testing.T) {
		_, err := SplitFile(testContext(t), filepath.Join(t.TempDir(), "gone.txt"))
		require.Error(t, err)
		assert.True(t, IsIOError(err))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("unwritable output", func(t *testing.T) {
		dir := t.TempDir()
		src := filepath.Join(dir, "GSM1.txt")
		require.NoError(t, os.WriteFile(src, []byte(fixture), 0o644))
		// a directory where Probes.tsv should go
		require.NoError(t, os.Mkdir(filepath.Join(dir, "Probes.tsv"), 0o755))

		outputs, err := SplitFile(testContext(t), src)
		require.Error(t, err)

		var ioe *IOError
		require.True(t, errors.As(err, &ioe))
		assert.Equal(t, "write", ioe.Op)
		assert.Len(t, outputs, 1, "Heading was written before the failure")
		assert.FileExists(t, src)
	})
}

func TestOutputFileName(t *testing.T) {
	assert.Equal(t, "Probes.tsv", OutputFileName("Probes"))
	assert.Equal(t, "a_b_c.tsv", OutputFileName(`a/b\c`))
}

func openManifest(t *testing.T) *index.DB {
	t.Helper()
	db, err := index.OpenDB(filepath.Join(t.TempDir(), "softsplit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestSplitFileNameCollision(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "GSM1.txt")
	require.NoError(t, os.WriteFile(src, []byte("[a/b]\nc1\n1\n[a_b]\nc2\n2\n"), 0o644))

	outputs, err := SplitFile(testContext(t), src)
	require.NoError(t, err)
	require.Len(t, outputs, 2)

	assert.Equal(t, "a/b", outputs[0].Name)
	assert.Equal(t, filepath.Join(dir, "a_b.tsv"), outputs[0].Path)
	assert.Equal(t, "a_b", outputs[1].Name)
	assert.Equal(t, filepath.Join(dir, "a_b~1.tsv"), outputs[1].Path)

	assert.Equal(t, "c1\n1\n", readFile(t, outputs[0].Path))
	assert.Equal(t, "c2\n2\n", readFile(t, outputs[1].Path))
}

func TestSplitFileTrimmedProbesReplacesSameNamedSection(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "GSM1.txt")
	body := "[Probes_truncated]\nx\n1\n[Probes]\nID\tDefinition\n1\tfoo\n"
	require.NoError(t, os.WriteFile(src, []byte(body), 0o644))

	outputs, err := SplitFile(testContext(t), src)
	require.NoError(t, err)
	require.Len(t, outputs, 2)

	assert.Equal(t, parse.TruncatedProbesName, outputs[0].Name)
	assert.True(t, outputs[0].Truncated)
	assert.Equal(t, filepath.Join(dir, "Probes_truncated.tsv"), outputs[0].Path)
	assert.Equal(t, "ID\n1\n", readFile(t, outputs[0].Path))
	assert.NoFileExists(t, filepath.Join(dir, "Probes_truncated~1.tsv"))
}

func TestFileNamesClaim(t *testing.T) {
	files := fileNames{}

	name, renamed := files.claim("a/b")
	assert.Equal(t, "a_b.tsv", name)
	assert.False(t, renamed)

	name, renamed = files.claim(`a\b`)
	assert.Equal(t, "a_b~1.tsv", name)
	assert.True(t, renamed)

	name, _ = files.claim("a_b")
	assert.Equal(t, "a_b~2.tsv", name)

	name, renamed = files.claim("a/b")
	assert.Equal(t, "a_b.tsv", name, "a section keeps its own file")
	assert.False(t, renamed)
}

func TestProcessAll(t *testing.T) {
	root := t.TempDir()
	raw := filepath.Join(root, "raw")
	processed := filepath.Join(root, "processed")
	require.NoError(t, os.MkdirAll(raw, 0o755))

	writeGz(t, filepath.Join(raw, "GSM1.txt.gz"), fixture)
	writeGz(t, filepath.Join(raw, "GSM2.txt.gz"), "[T]\na\n\xff\n")
	writeGz(t, filepath.Join(raw, "GSM3.txt.gz"), "[Heading]\nk\tv\n")

	db := openManifest(t)
	opts := Options{RawDir: raw, ProcessedDir: processed}

	stats, err := ProcessAll(testContext(t), db, opts)
	require.Error(t, err, "a failed file surfaces as an error")
	assert.Contains(t, err.Error(), "GSM2.txt.gz")
	assert.Equal(t, 3, stats.Scanned)
	assert.Equal(t, 2, stats.Processed)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 4, stats.Tables)
	assert.NotEmpty(t, stats.RunID)

	assert.Equal(t, "ID\n1\n", readFile(t, filepath.Join(processed, "GSM1.txt", "Probes_truncated.tsv")))
	assert.Equal(t, "k\tv\n", readFile(t, filepath.Join(processed, "GSM3.txt", "Heading.tsv")))
	assert.NoFileExists(t, filepath.Join(processed, "GSM1.txt", "GSM1.txt"))
	assert.FileExists(t, filepath.Join(processed, "GSM2.txt", "GSM2.txt"))

	failed, err := db.FailedFiles()
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "GSM2.txt", failed[0].FileKey)
	assert.Contains(t, failed[0].Error, "invalid UTF-8")

	outs, err := db.ListOutputs("GSM1.txt")
	require.NoError(t, err)
	require.Len(t, outs, 3)
	assert.Equal(t, 1, outs[2].Columns)

	// unchanged successes are skipped, failures are retried
	stats, err = ProcessAll(testContext(t), db, opts)
	require.Error(t, err)
	assert.Equal(t, 2, stats.Skipped)
	assert.Equal(t, 1, stats.Failed)

	opts.Force = true
	stats, err = ProcessAll(testContext(t), db, opts)
	require.Error(t, err)
	assert.Equal(t, 0, stats.Skipped)
	assert.Equal(t, 2, stats.Processed)

	last, err := db.LastRun()
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, stats.RunID, last.RunID)
	assert.Equal(t, stats.String(), last.Stats)
}

func TestProcessAllFailFast(t *testing.T) {
	root := t.TempDir()
	raw := filepath.Join(root, "raw")
	require.NoError(t, os.MkdirAll(raw, 0o755))

	writeGz(t, filepath.Join(raw, "GSM1.txt.gz"), "[T]\n\xff\n")
	writeGz(t, filepath.Join(raw, "GSM2.txt.gz"), fixture)

	stats, err := ProcessAll(testContext(t), openManifest(t), Options{
		RawDir:       raw,
		ProcessedDir: filepath.Join(root, "processed"),
		FailFast:     true,
	})
	require.Error(t, err)

	var pe *parse.ParseError
	assert.True(t, errors.As(err, &pe))
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 0, stats.Processed)
	assert.NoDirExists(t, filepath.Join(root, "processed", "GSM2.txt"))
}

func TestProcessAllBadGzipIsIOError(t *testing.T) {
	root := t.TempDir()
	raw := filepath.Join(root, "raw")
	require.NoError(t, os.MkdirAll(raw, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(raw, "GSM1.txt.gz"), []byte("not gzip"), 0o644))

	_, err := ProcessAll(testContext(t), openManifest(t), Options{
		RawDir:       raw,
		ProcessedDir: filepath.Join(root, "processed"),
		FailFast:     true,
	})
	require.Error(t, err)
	assert.True(t, IsIOError(err))
}

func TestProcessAllEmpty(t *testing.T) {
	stats, err := ProcessAll(testContext(t), openManifest(t), Options{
		RawDir:       filepath.Join(t.TempDir(), "missing"),
		ProcessedDir: t.TempDir(),
	})
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Scanned)
}
