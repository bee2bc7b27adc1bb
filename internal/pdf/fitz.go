// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package pdf

import (
	"fmt"

	"github.com/gen2brain/go-fitz"
)

// fitzDocument extracts text with go-fitz (MuPDF)
type fitzDocument struct {
	doc *fitz.Document
}

func openFitz(path string) (Document, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	return &fitzDocument{doc: doc}, nil
}

func (d *fitzDocument) NumPage() int {
	return d.doc.NumPage()
}

func (d *fitzDocument) Text(page int) (string, error) {
	text, err := d.doc.Text(page)
	if err != nil {
		return "", fmt.Errorf("failed to extract text from page %d: %w", page, err)
	}
	return text, nil
}

func (d *fitzDocument) Close() error {
	return d.doc.Close()
}
