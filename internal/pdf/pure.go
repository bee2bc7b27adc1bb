// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package pdf

import (
	"fmt"
	"os"

	"github.com/ledongthuc/pdf"
)

// pureDocument extracts text with the pure Go ledongthuc/pdf reader, for
// builds without MuPDF. The reader panics on malformed objects; every entry
// point converts that into ErrMalformedPDF.
type pureDocument struct {
	file   *os.File
	reader *pdf.Reader
	pages  int
}

func openPure(path string) (doc Document, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer func() {
		if r := recover(); r != nil {
			f.Close()
			doc, err = nil, fmt.Errorf("%w: %v", ErrMalformedPDF, r)
		}
	}()

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to stat PDF: %w", err)
	}
	r, err := pdf.NewReader(f, info.Size())
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}

	return &pureDocument{file: f, reader: r, pages: r.NumPage()}, nil
}

func (d *pureDocument) NumPage() int {
	return d.pages
}

func (d *pureDocument) Text(page int) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("%w: page %d: %v", ErrMalformedPDF, page, r)
		}
	}()

	// ledongthuc pages are one-based
	p := d.reader.Page(page + 1)
	if p.V.IsNull() {
		return "", nil
	}
	text, err = p.GetPlainText(nil)
	if err != nil {
		return "", fmt.Errorf("failed to extract text from page %d: %w", page, err)
	}
	return text, nil
}

func (d *pureDocument) Close() error {
	return d.file.Close()
}
