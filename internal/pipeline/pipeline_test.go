package pipeline

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zuo-Peng/softsplit/internal/config"
	"github.com/Zuo-Peng/softsplit/internal/index"
	"github.com/Zuo-Peng/softsplit/internal/logging"
	"github.com/Zuo-Peng/softsplit/internal/testutil"
)

const fixture = "[Heading]\nA\tB\n[Probes]\nID\tDefinition\tSynonyms\n1\tfoo\tbar\n"

func gz(t *testing.T, body string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(body))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func seriesTar(t *testing.T, files map[string][]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for name, data := range files {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name: name, Mode: 0o644, Size: int64(len(data)), Typeflag: tar.TypeReg,
			ModTime: time.Unix(1_700_000_000, 0),
		}))
		_, err := tw.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	return buf.Bytes()
}

func setup(t *testing.T, handler http.Handler) (*Pipeline, *index.DB, context.Context) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	root := t.TempDir()
	cfg := &config.Config{
		DataDir:      root,
		RawDir:       filepath.Join(root, "raw"),
		ProcessedDir: filepath.Join(root, "processed"),
		DBPath:       filepath.Join(root, "softsplit.db"),
		ArchiveURL:   srv.URL + "/geo/download/?acc=GSE68849&format=file",
		ArchiveName:  config.DefaultArchiveName,
	}

	db, err := index.OpenDB(cfg.DBPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	p := New(cfg, db)
	p.Client = srv.Client()
	ctx := logging.WithLogger(context.Background(), testutil.NewTestLogger(t))
	return p, db, ctx
}

func TestRun(t *testing.T) {
	body := seriesTar(t, map[string][]byte{
		"GSM1_sample.txt.gz": gz(t, fixture),
		"GSM2_sample.txt.gz": gz(t, "[Heading]\nk\tv\n"),
	})
	hits := 0
	p, db, ctx := setup(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		_, _ = w.Write(body)
	}))

	stats, err := p.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Processed)
	assert.Equal(t, 4, stats.Tables)

	out := filepath.Join(p.Config.ProcessedDir, "GSM1_sample.txt")
	data, err := os.ReadFile(filepath.Join(out, "Probes_truncated.tsv"))
	require.NoError(t, err)
	assert.Equal(t, "ID\n1\n", string(data))
	assert.NoFileExists(t, filepath.Join(out, "GSM1_sample.txt"))

	n, err := db.OutputCount()
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	// rerun reuses the archive and skips unchanged files
	stats, err = p.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, hits)
	assert.Equal(t, 2, stats.Skipped)
}

func TestRunStopsOnFetchError(t *testing.T) {
	p, _, ctx := setup(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusServiceUnavailable)
	}))

	_, err := p.Run(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch")
	assert.NoDirExists(t, p.Config.ProcessedDir)
}

func TestExtractMissingArchive(t *testing.T) {
	p, _, ctx := setup(t, http.NotFoundHandler())

	_, err := p.Extract(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
