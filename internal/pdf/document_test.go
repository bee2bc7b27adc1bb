// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package pdf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/form019-finder/internal/form019"
	"github.com/form019-finder/internal/pdf/pdftest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestCheck_AcceptsPDFHeader(t *testing.T) {
	path := writeFile(t, "form-019.pdf", "%PDF-1.4\n%\xe2\xe3\xcf\xd3\n1 0 obj\n<<>>\nendobj\n")
	assert.NoError(t, Check(path, 0))
}

func TestCheck_RejectsNonPDF(t *testing.T) {
	path := writeFile(t, "form-019.pdf", "just some plain text named like a pdf\n")
	err := Check(path, 0)
	assert.ErrorIs(t, err, ErrNotPDF)
}

func TestCheck_RejectsOversizedFile(t *testing.T) {
	path := writeFile(t, "form-019.pdf", "%PDF-1.4\n0123456789\n")
	err := Check(path, 8)
	assert.ErrorIs(t, err, ErrFileTooLarge)
}

func TestCheck_MissingFile(t *testing.T) {
	err := Check(filepath.Join(t.TempDir(), "missing.pdf"), 0)
	assert.Error(t, err)
}

func TestNewOpener_Backends(t *testing.T) {
	for _, name := range []string{"", BackendFitz, BackendPure} {
		o, err := NewOpener(name, 0)
		require.NoError(t, err, name)
		assert.NotNil(t, o)
	}

	_, err := NewOpener("poppler", 0)
	assert.ErrorIs(t, err, ErrUnknownBackend)
}

func TestOpener_RefusesNonPDFBeforeParsing(t *testing.T) {
	called := false
	o := &checkedOpener{open: func(string) (Document, error) {
		called = true
		return nil, nil
	}}

	_, err := o.Open(writeFile(t, "form-19.pdf", "not a pdf"))
	assert.ErrorIs(t, err, ErrNotPDF)
	assert.False(t, called)
}

var formLines = []string{
	"FORM-019 ALIF",
	"Lot 240101.CA.?03",
	"AP Depth B (mm) 10.0 12.0 14.0",
	"ML Width A (mm) 20.0 22.0 24.0",
	"Max Cage Height C (mm) 5.0 6.0 7.0",
}

func TestBackends_ExtractPageText(t *testing.T) {
	path := pdftest.WriteFile(t, t.TempDir(), "form-019.pdf", pdftest.Document(formLines...))

	for _, backend := range []string{BackendFitz, BackendPure} {
		t.Run(backend, func(t *testing.T) {
			o, err := NewOpener(backend, 0)
			require.NoError(t, err)

			doc, err := o.Open(path)
			require.NoError(t, err)
			assert.Equal(t, 1, doc.NumPage())

			text, err := doc.Text(0)
			require.NoError(t, err)
			assert.Contains(t, text, "FORM-019 ALIF")
			assert.Contains(t, text, "AP Depth B (mm) 10.0 12.0 14.0")

			m, ok := form019.ParsePage(text)
			require.True(t, ok, "page text: %q", text)
			assert.Equal(t, form019.Triplet{5, 6, 7}, m.MaxCageHeightC)
			assert.Equal(t, "240101.CA.?03", m.Lot)

			assert.NoError(t, doc.Close())
		})
	}
}

func TestPure_PageOutOfRangeIsEmpty(t *testing.T) {
	path := pdftest.WriteFile(t, t.TempDir(), "form-019.pdf", pdftest.Document(formLines...))
	doc, err := openPure(path)
	require.NoError(t, err)
	defer doc.Close()

	text, err := doc.Text(1)
	require.NoError(t, err)
	assert.Equal(t, "", text)
}

func TestPure_MalformedObjectReturnsError(t *testing.T) {
	path := pdftest.WriteFile(t, t.TempDir(), "form-019.pdf", pdftest.CorruptPageOffset(formLines...))
	require.NoError(t, Check(path, 0))

	assert.NotPanics(t, func() {
		doc, err := openPure(path)
		if err != nil {
			assert.ErrorIs(t, err, ErrMalformedPDF)
			return
		}
		defer doc.Close()
		for i := 0; i < doc.NumPage(); i++ {
			_, err := doc.Text(i)
			assert.ErrorIs(t, err, ErrMalformedPDF)
		}
	})
}
