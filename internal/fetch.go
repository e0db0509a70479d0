package internal

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
)

type ProgressWriter struct {
	Total      int64
	Written    int64
	OnProgress func(written, total int64)
}

func (pw *ProgressWriter) Write(p []byte) (int, error) {
	n := len(p)
	pw.Written += int64(n)
	if pw.OnProgress != nil {
		pw.OnProgress(pw.Written, pw.Total)
	}
	return n, nil
}

// Fetcher downloads remote documents into the documents directory.
type Fetcher struct {
	dir    string
	token  string
	client *http.Client
}

func NewFetcher(dir, token string) *Fetcher {
	return &Fetcher{
		dir:    dir,
		token:  token,
		client: http.DefaultClient,
	}
}

// Fetch stores rawURL under its base name and returns the local path. An
// existing file of the same name is kept unless overwrite is set.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, overwrite bool, onProgress func(written, total int64)) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return "", fmt.Errorf("%w: not an http(s) url: %q", ErrInvalidArgument, rawURL)
	}

	name := path.Base(u.Path)
	if name == "." || name == ".." || name == "/" || name == "" {
		return "", fmt.Errorf("%w: no file name in %q", ErrInvalidArgument, rawURL)
	}
	dest := filepath.Join(f.dir, name)

	if _, err := os.Stat(dest); err == nil && !overwrite {
		return dest, nil
	}

	if err := os.MkdirAll(f.dir, 0755); err != nil {
		return "", fmt.Errorf("create documents dir: %w", err)
	}

	if err := f.download(ctx, rawURL, dest, onProgress); err != nil {
		return "", err
	}

	return dest, nil
}

func (f *Fetcher) download(ctx context.Context, url, dest string, onProgress func(written, total int64)) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	if f.token != "" {
		req.Header.Set("Authorization", "Bearer "+f.token)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download failed: status %d", resp.StatusCode)
	}

	tmpFile := dest + ".tmp"
	out, err := os.Create(tmpFile)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	pw := &ProgressWriter{
		Total:      resp.ContentLength,
		OnProgress: onProgress,
	}

	_, err = io.Copy(out, io.TeeReader(resp.Body, pw))
	closeErr := out.Close()

	if err != nil {
		os.Remove(tmpFile)
		return fmt.Errorf("write file: %w", err)
	}
	if closeErr != nil {
		os.Remove(tmpFile)
		return fmt.Errorf("close file: %w", closeErr)
	}

	if err := os.Rename(tmpFile, dest); err != nil {
		os.Remove(tmpFile)
		return fmt.Errorf("rename file: %w", err)
	}

	return nil
}
