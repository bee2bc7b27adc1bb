// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package pdf

import (
	"errors"
	"fmt"
	"os"

	"github.com/gabriel-vasile/mimetype"
)

// Backend names accepted by NewOpener
const (
	BackendFitz = "fitz"
	BackendPure = "pure"
)

var (
	ErrNotPDF         = errors.New("file is not a PDF document")
	ErrFileTooLarge   = errors.New("file exceeds size limit")
	ErrUnknownBackend = errors.New("unknown PDF backend")
	ErrMalformedPDF   = errors.New("malformed PDF")
)

// Document is an opened PDF exposing plain text per page. Page indices are zero-based.
type Document interface {
	NumPage() int
	Text(page int) (string, error)
	Close() error
}

// Opener opens a document by path
type Opener interface {
	Open(path string) (Document, error)
}

// OpenerFunc adapts a function to the Opener interface
type OpenerFunc func(path string) (Document, error)

func (f OpenerFunc) Open(path string) (Document, error) { return f(path) }

// NewOpener returns an Opener for the named backend. Files are sniffed before
// opening; anything that is not application/pdf, or larger than maxFileSize
// when maxFileSize > 0, is refused.
func NewOpener(backend string, maxFileSize int64) (Opener, error) {
	var open OpenerFunc
	switch backend {
	case "", BackendFitz:
		open = openFitz
	case BackendPure:
		open = openPure
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
	return &checkedOpener{open: open, maxFileSize: maxFileSize}, nil
}

type checkedOpener struct {
	open        OpenerFunc
	maxFileSize int64
}

func (o *checkedOpener) Open(path string) (Document, error) {
	if err := Check(path, o.maxFileSize); err != nil {
		return nil, err
	}
	return o.open(path)
}

// Check verifies that path is a PDF by content and within maxFileSize
func Check(path string, maxFileSize int64) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat file: %w", err)
	}
	if maxFileSize > 0 && info.Size() > maxFileSize {
		return fmt.Errorf("%w: %d bytes", ErrFileTooLarge, info.Size())
	}

	m, err := mimetype.DetectFile(path)
	if err != nil {
		return fmt.Errorf("failed to detect content type: %w", err)
	}
	if !m.Is("application/pdf") {
		return fmt.Errorf("%w: detected %s", ErrNotPDF, m.String())
	}
	return nil
}
