package process

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Zuo-Peng/softsplit/internal/index"
	"github.com/Zuo-Peng/softsplit/internal/logging"
	"github.com/Zuo-Peng/softsplit/internal/scan"
)

// Manifest is the part of the index the processor writes to.
type Manifest interface {
	BeginRun(runID string, started time.Time) error
	FinishRun(runID string, finished time.Time, stats string) error
	GetFileInfo(fileKey string) (*index.FileInfo, error)
	RecordFile(f *index.FileRow) error
}

type Options struct {
	RawDir       string
	ProcessedDir string
	// Force reprocesses files whose .gz is unchanged since a successful run.
	Force bool
	// FailFast stops at the first failed file instead of counting it and
	// moving on.
	FailFast bool
}

type Stats struct {
	RunID     string
	Scanned   int
	Processed int
	Skipped   int
	Failed    int
	Tables    int
	Warnings  int
}

func (s Stats) String() string {
	return fmt.Sprintf("scanned=%d processed=%d skipped=%d failed=%d tables=%d warnings=%d",
		s.Scanned, s.Processed, s.Skipped, s.Failed, s.Tables, s.Warnings)
}

// ProcessAll processes every .gz under opts.RawDir, one file at a time, and
// records each outcome in m. Failed files are logged and counted; unless
// FailFast is set the remaining files are still processed and an error
// summarising the failures is returned at the end.
func ProcessAll(ctx context.Context, m Manifest, opts Options) (Stats, error) {
	logger := logging.FromContext(ctx)
	stats := Stats{RunID: uuid.NewString()}

	files, err := scan.ScanRaw(opts.RawDir)
	if err != nil {
		return stats, fmt.Errorf("scan: %w", err)
	}
	stats.Scanned = len(files)

	if err := m.BeginRun(stats.RunID, time.Now()); err != nil {
		return stats, fmt.Errorf("begin run: %w", err)
	}
	logger.InfoContext(ctx, "processing files", "run_id", stats.RunID, "files", len(files), "raw_dir", opts.RawDir)

	var firstErr error
	for _, fi := range files {
		select {
		case <-ctx.Done():
			return stats, ctx.Err()
		default:
		}

		if !opts.Force {
			needs, err := needsUpdate(m, fi)
			if err != nil {
				return stats, fmt.Errorf("manifest lookup %s: %w", fi.Name, err)
			}
			if !needs {
				stats.Skipped++
				logger.DebugContext(ctx, "skipping unchanged file", "file", fi.Name)
				continue
			}
		}

		res, perr := ProcessFile(ctx, fi, opts.ProcessedDir)
		if rerr := m.RecordFile(fileRow(stats.RunID, fi, res, perr)); rerr != nil {
			logger.ErrorContext(ctx, "failed to record file", "file", fi.Name, "error", rerr)
			if perr == nil {
				perr = fmt.Errorf("record manifest: %w", rerr)
			}
		}

		if perr != nil {
			stats.Failed++
			kind := "parse"
			if IsIOError(perr) {
				kind = "io"
			}
			logger.ErrorContext(ctx, "failed to process file", "file", fi.Path, "kind", kind, "error", perr)
			if firstErr == nil {
				firstErr = fmt.Errorf("process %s: %w", fi.Path, perr)
			}
			if opts.FailFast {
				break
			}
			continue
		}

		stats.Processed++
		stats.Tables += len(res.Outputs)
		stats.Warnings += res.Warnings()
		logger.InfoContext(ctx, "processed file", "file", fi.Name, "tables", len(res.Outputs), "warnings", res.Warnings())
	}

	if err := m.FinishRun(stats.RunID, time.Now(), stats.String()); err != nil {
		logger.ErrorContext(ctx, "failed to finish run", "run_id", stats.RunID, "error", err)
	}
	logger.InfoContext(ctx, "processing completed", "run_id", stats.RunID, "stats", stats.String())

	switch {
	case firstErr == nil:
		return stats, nil
	case opts.FailFast:
		return stats, firstErr
	default:
		return stats, fmt.Errorf("%d of %d files failed, first: %w", stats.Failed, stats.Scanned, firstErr)
	}
}

func needsUpdate(m Manifest, fi scan.FileInfo) (bool, error) {
	info, err := m.GetFileInfo(fi.Name)
	if err != nil {
		return false, err
	}
	if info == nil || info.Status != index.StatusDone {
		return true, nil
	}
	return info.Mtime != fi.Mtime || info.Size != fi.Size, nil
}

func fileRow(runID string, fi scan.FileInfo, res *FileResult, err error) *index.FileRow {
	row := &index.FileRow{
		FileKey:     fi.Name,
		GzPath:      fi.Path,
		Status:      index.StatusDone,
		Mtime:       fi.Mtime,
		Size:        fi.Size,
		RunID:       runID,
		ProcessedAt: time.Now(),
	}
	if err != nil {
		row.Status = index.StatusFailed
		row.Error = err.Error()
	}
	if res == nil {
		return row
	}

	row.OutputDir = res.OutputDir
	for _, o := range res.Outputs {
		row.Outputs = append(row.Outputs, index.OutputRow{
			Name:        o.Name,
			Path:        o.Path,
			Rows:        len(o.Table.Rows),
			Columns:     o.Table.Width(),
			HasHeader:   o.Table.HasHeader(),
			Truncated:   o.Truncated,
			Warnings:    len(o.Table.Warnings),
			ColumnNames: o.Table.Columns,
		})
	}
	return row
}
