package scan

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const gzExt = ".gz"

type FileInfo struct {
	Path  string
	Name  string // base name without .gz, also the output folder name
	Mtime int64
	Size  int64
}

// ScanRaw lists the *.gz files directly inside rawDir, sorted by name.
// A missing rawDir yields no files.
func ScanRaw(rawDir string) ([]FileInfo, error) {
	entries, err := os.ReadDir(rawDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var files []FileInfo
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), gzExt) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue // removed between ReadDir and Info
		}
		files = append(files, FileInfo{
			Path:  filepath.Join(rawDir, e.Name()),
			Name:  strings.TrimSuffix(e.Name(), gzExt),
			Mtime: info.ModTime().Unix(),
			Size:  info.Size(),
		})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}
