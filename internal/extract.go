package internal

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/ledongthuc/pdf"
)

// TextExtractor returns the plain text of a document. Failures wrap
// ErrExtraction.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (string, error)
}

var (
	_ TextExtractor = (*PDFExtractor)(nil)
	_ TextExtractor = (*PlainTextExtractor)(nil)
	_ TextExtractor = (*Extractors)(nil)
)

type PDFExtractor struct {
	fs billy.Filesystem
}

func NewPDFExtractor(fs billy.Filesystem) *PDFExtractor {
	return &PDFExtractor{fs: fs}
}

func (e *PDFExtractor) Extract(ctx context.Context, path string) (text string, err error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	// The pdf package panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("%w: %s: malformed pdf: %v", ErrExtraction, path, r)
		}
	}()

	info, err := e.fs.Stat(path)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrExtraction, path, err)
	}

	f, err := e.fs.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrExtraction, path, err)
	}
	defer f.Close()

	r, err := pdf.NewReader(f, info.Size())
	if err != nil {
		return "", fmt.Errorf("%w: %s: open pdf: %w", ErrExtraction, path, err)
	}

	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("%w: %s: read pdf text: %w", ErrExtraction, path, err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", fmt.Errorf("%w: %s: read pdf text: %w", ErrExtraction, path, err)
	}

	return buf.String(), nil
}

type PlainTextExtractor struct {
	fs billy.Filesystem
}

func NewPlainTextExtractor(fs billy.Filesystem) *PlainTextExtractor {
	return &PlainTextExtractor{fs: fs}
}

func (e *PlainTextExtractor) Extract(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	data, err := util.ReadFile(e.fs, path)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrExtraction, path, err)
	}
	return string(data), nil
}

// Extractors dispatches on the lower-cased file extension.
type Extractors struct {
	byExt map[string]TextExtractor
}

func NewExtractors(fs billy.Filesystem) *Extractors {
	text := NewPlainTextExtractor(fs)
	e := &Extractors{byExt: make(map[string]TextExtractor)}
	e.Register(".pdf", NewPDFExtractor(fs))
	e.Register(".txt", text)
	e.Register(".md", text)
	e.Register(".markdown", text)
	return e
}

func (e *Extractors) Register(ext string, x TextExtractor) {
	e.byExt[strings.ToLower(ext)] = x
}

func (e *Extractors) Supports(path string) bool {
	_, ok := e.byExt[strings.ToLower(filepath.Ext(path))]
	return ok
}

func (e *Extractors) Extensions() []string {
	exts := make([]string, 0, len(e.byExt))
	for ext := range e.byExt {
		exts = append(exts, ext)
	}
	slices.Sort(exts)
	return exts
}

func (e *Extractors) Extract(ctx context.Context, path string) (string, error) {
	x, ok := e.byExt[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return "", fmt.Errorf("%w: %s: %w (supported: %s)", ErrExtraction, path, ErrUnsupportedSource, strings.Join(e.Extensions(), " "))
	}
	return x.Extract(ctx, path)
}
