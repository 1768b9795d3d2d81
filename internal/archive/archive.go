package archive

import (
	"archive/tar"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnsafePath is returned for tar entries that would land outside the
// destination directory.
var ErrUnsafePath = errors.New("entry escapes destination")

// ExtractTar unpacks regular files and directories from the tar at path into
// destDir and returns the extracted file paths. Regular files keep their
// archived modification time. Other entry types are skipped.
func ExtractTar(path, destDir string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", destDir, err)
	}

	var files []string
	tr := tar.NewReader(f)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return files, fmt.Errorf("read %s: %w", path, err)
		}

		target, err := safeJoin(destDir, hdr.Name)
		if err != nil {
			return files, err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return files, err
			}
		case tar.TypeReg:
			if err := writeFile(target, tr); err != nil {
				return files, fmt.Errorf("extract %s: %w", hdr.Name, err)
			}
			// keep the archived mtime so re-extraction looks unchanged
			if err := os.Chtimes(target, hdr.ModTime, hdr.ModTime); err != nil {
				return files, err
			}
			files = append(files, target)
		}
	}
	return files, nil
}

func safeJoin(dir, name string) (string, error) {
	target := filepath.Join(dir, name)
	rel, err := filepath.Rel(dir, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrUnsafePath, name)
	}
	return target, nil
}

func writeFile(path string, r io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// Gunzip decompresses src into dst, replacing dst if it exists.
func Gunzip(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	zr, err := gzip.NewReader(in)
	if err != nil {
		return fmt.Errorf("gzip %s: %w", src, err)
	}
	defer zr.Close()

	if err := writeFile(dst, zr); err != nil {
		return fmt.Errorf("gunzip %s: %w", src, err)
	}
	return nil
}
