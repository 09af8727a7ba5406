// Package download fetches the raw dataset files over HTTP with checksum
// verification.
package download

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// FileInfo describes one remote dataset file.
type FileInfo struct {
	Name string
	URL  string
	MD5  string
}

// Client downloads dataset files into a local directory.
type Client struct {
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a download client. A nil http client falls back to the
// default one.
func NewClient(httpClient *http.Client, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{httpClient: httpClient, logger: logger}
}

// Fetch downloads info into dir and returns the local path. A file already
// present with a matching checksum is not downloaded again. A checksum
// mismatch after download fails and removes the partial file.
func (c *Client) Fetch(ctx context.Context, info FileInfo, dir string) (string, error) {
	path := filepath.Join(dir, info.Name)

	if sum, err := fileMD5(path); err == nil && sum == info.MD5 {
		c.logger.Info("file already downloaded", zap.String("path", path))
		return path, nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create download directory: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, info.URL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request for %s: %w", info.URL, err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download %s: %w", info.URL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to download %s: status %s", info.URL, resp.Status)
	}

	tmp, err := os.CreateTemp(dir, info.Name+".part*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	hash := md5.New()
	if _, err := io.Copy(io.MultiWriter(tmp, hash), resp.Body); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}

	if sum := hex.EncodeToString(hash.Sum(nil)); info.MD5 != "" && sum != info.MD5 {
		return "", fmt.Errorf("checksum mismatch for %s: got %s, want %s",
			info.Name, sum, info.MD5)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("failed to move %s into place: %w", path, err)
	}

	c.logger.Info("file downloaded", zap.String("path", path))
	return path, nil
}

func fileMD5(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	hash := md5.New()
	if _, err := io.Copy(hash, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}
