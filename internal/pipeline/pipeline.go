package pipeline

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Zuo-Peng/softsplit/internal/archive"
	"github.com/Zuo-Peng/softsplit/internal/config"
	"github.com/Zuo-Peng/softsplit/internal/fetch"
	"github.com/Zuo-Peng/softsplit/internal/logging"
	"github.com/Zuo-Peng/softsplit/internal/process"
)

// Pipeline runs download, extraction and processing against one config.
type Pipeline struct {
	Config   *config.Config
	Client   *http.Client
	Manifest process.Manifest
}

// New builds a Pipeline with an HTTP client using the configured timeout.
func New(cfg *config.Config, m process.Manifest) *Pipeline {
	return &Pipeline{
		Config:   cfg,
		Client:   &http.Client{Timeout: cfg.Timeout()},
		Manifest: m,
	}
}

// Fetch downloads the series archive into the raw directory.
func (p *Pipeline) Fetch(ctx context.Context, force bool) (*fetch.Result, error) {
	res, err := fetch.Download(ctx, p.Client, p.Config.ArchiveURL, p.Config.ArchivePath(), force)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	return res, nil
}

// Extract unpacks the downloaded archive next to itself in the raw directory.
func (p *Pipeline) Extract(ctx context.Context) ([]string, error) {
	logger := logging.FromContext(ctx)
	path := p.Config.ArchivePath()

	files, err := archive.ExtractTar(path, p.Config.RawDir)
	if err != nil {
		return files, fmt.Errorf("extract %s: %w", path, err)
	}
	logger.InfoContext(ctx, "archive extracted", "path", path, "files", len(files))
	return files, nil
}

// Process splits every extracted .gz and records the outcome in the manifest.
func (p *Pipeline) Process(ctx context.Context, force bool) (process.Stats, error) {
	return process.ProcessAll(ctx, p.Manifest, process.Options{
		RawDir:       p.Config.RawDir,
		ProcessedDir: p.Config.ProcessedDir,
		Force:        force,
		FailFast:     p.Config.FailFast,
	})
}

// Run fetches, extracts and processes in order, stopping at the first stage
// that fails. Per-file processing failures follow the configured policy.
func (p *Pipeline) Run(ctx context.Context) (process.Stats, error) {
	if _, err := p.Fetch(ctx, false); err != nil {
		return process.Stats{}, err
	}
	if _, err := p.Extract(ctx); err != nil {
		return process.Stats{}, err
	}
	return p.Process(ctx, false)
}
