package scan

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanRaw(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"GSM2.txt.gz", "GSM1.txt.gz", "GSE68849_RAW.tar", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.gz"), 0o755))

	files, err := ScanRaw(dir)
	require.NoError(t, err)
	require.Len(t, files, 2)

	assert.Equal(t, "GSM1.txt", files[0].Name)
	assert.Equal(t, filepath.Join(dir, "GSM1.txt.gz"), files[0].Path)
	assert.EqualValues(t, 1, files[0].Size)
	assert.NotZero(t, files[0].Mtime)
	assert.Equal(t, "GSM2.txt", files[1].Name)
}

func TestScanRawMissingDir(t *testing.T) {
	files, err := ScanRaw(filepath.Join(t.TempDir(), "absent"))
	require.NoError(t, err)
	assert.Empty(t, files)
}
