package onnx

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/quarry-labs/quarry/internal/core/domain"
	"github.com/quarry-labs/quarry/internal/logger"
)

// hubBaseURL is the Hugging Face hub file endpoint.
const hubBaseURL = "https://huggingface.co"

// downloadTimeout bounds a single asset download.
const downloadTimeout = 10 * time.Minute

// tokenizerFilename is the tokenizer asset expected alongside the model.
const tokenizerFilename = "tokenizer.json"

// modelAssets is the resolved local file pair for one model.
type modelAssets struct {
	ModelPath     string
	TokenizerPath string
}

// modelFileCandidates returns the repo-relative ONNX filenames to try,
// in preference order. Hub repos are inconsistent about where the
// exported graph lives.
func modelFileCandidates(modelID string) []string {
	base := modelID
	if i := strings.LastIndex(modelID, "/"); i >= 0 {
		base = modelID[i+1:]
	}
	return []string{
		"onnx/model.onnx",
		"model.onnx",
		base + ".onnx",
	}
}

// cacheDirFor maps a model ID onto a directory under the cache root.
// Path separators in the ID become nested directories, so distinct
// models never collide.
func cacheDirFor(cacheRoot, modelID string) string {
	return filepath.Join(cacheRoot, "models", filepath.FromSlash(modelID))
}

// resolveAssets ensures the ONNX graph and tokenizer for modelID exist
// locally, downloading them from the hub on first use. An explicit
// modelFilename overrides the candidate search.
func resolveAssets(ctx context.Context, cacheRoot, modelID, modelFilename string) (modelAssets, error) {
	if modelID == "" {
		return modelAssets{}, fmt.Errorf("%w: empty model id", domain.ErrModelAssets)
	}
	dir := cacheDirFor(cacheRoot, modelID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return modelAssets{}, fmt.Errorf("%w: create cache dir: %v", domain.ErrModelAssets, err)
	}

	candidates := modelFileCandidates(modelID)
	if modelFilename != "" {
		candidates = []string{modelFilename}
	}

	modelPath, err := fetchFirst(ctx, dir, modelID, candidates)
	if err != nil {
		return modelAssets{}, err
	}

	tokenizerPath, err := fetchFirst(ctx, dir, modelID, []string{tokenizerFilename})
	if err != nil {
		return modelAssets{}, err
	}

	return modelAssets{ModelPath: modelPath, TokenizerPath: tokenizerPath}, nil
}

// fetchFirst returns the local path of the first candidate that either
// already sits in the cache or can be downloaded from the hub.
func fetchFirst(ctx context.Context, dir, modelID string, candidates []string) (string, error) {
	var lastErr error
	for _, name := range candidates {
		local := filepath.Join(dir, filepath.FromSlash(name))
		if fileExists(local) {
			return local, nil
		}
		if err := download(ctx, hubFileURL(modelID, name), local); err != nil {
			lastErr = err
			continue
		}
		logger.Info("Downloaded %s/%s", modelID, name)
		return local, nil
	}
	return "", fmt.Errorf("%w: none of %v found for %s (last error: %v)",
		domain.ErrModelAssets, candidates, modelID, lastErr)
}

func hubFileURL(modelID, name string) string {
	return fmt.Sprintf("%s/%s/resolve/main/%s", hubBaseURL, modelID, name)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// download streams url into path via a temp file, so a partial download
// never masquerades as a cached asset.
func download(ctx context.Context, url, path string) error {
	ctx, cancel := context.WithTimeout(ctx, downloadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create asset dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".download-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}
