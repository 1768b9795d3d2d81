package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/Zuo-Peng/softsplit/internal/logging"
)

// Result describes a finished download.
type Result struct {
	Path    string
	Bytes   int64
	Skipped bool // dest already existed
}

// Download streams url into dest. The body goes to dest+".part" first and is
// renamed into place once complete, so an interrupted download never looks
// finished. An existing dest is left alone unless force is set.
func Download(ctx context.Context, client *http.Client, url, dest string, force bool) (*Result, error) {
	logger := logging.FromContext(ctx)

	if !force {
		if info, err := os.Stat(dest); err == nil {
			logger.InfoContext(ctx, "archive already present", "path", dest, "bytes", info.Size())
			return &Result{Path: dest, Bytes: info.Size(), Skipped: true}, nil
		}
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return nil, fmt.Errorf("create raw dir: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	logger.InfoContext(ctx, "downloading archive", "url", url)
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("get %s: unexpected status %s", url, resp.Status)
	}

	part := dest + ".part"
	f, err := os.Create(part)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", part, err)
	}

	n, err := io.Copy(f, resp.Body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(part)
		return nil, fmt.Errorf("write %s: %w", part, err)
	}

	if err := os.Rename(part, dest); err != nil {
		return nil, fmt.Errorf("rename %s: %w", part, err)
	}

	logger.InfoContext(ctx, "archive downloaded", "path", dest, "bytes", n)
	return &Result{Path: dest, Bytes: n}, nil
}
