// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package scanner

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/form019-finder/internal/form019"
	"github.com/form019-finder/internal/logger"
	"github.com/form019-finder/internal/pdf"
	"github.com/form019-finder/internal/pdf/pdftest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const alifPage = `FORM-019 ALIF
Lot 240101.CA.?03
AP Depth B (mm) 10.0 12.0 14.0
ML Width A (mm) 20.0 22.0 24.0
Max Cage Height C (mm) 5.0 6.0 7.0
IMPLANT_NAME=ALIF-10 IMPLANT_NAME=ALIF-12 IMPLANT_NAME=ALIF-14`

type fakeDoc struct {
	pages   []string
	pageErr map[int]error
}

func (d *fakeDoc) NumPage() int { return len(d.pages) }

func (d *fakeDoc) Text(i int) (string, error) {
	if err := d.pageErr[i]; err != nil {
		return "", err
	}
	return d.pages[i], nil
}

func (d *fakeDoc) Close() error { return nil }

type fakeOpener struct {
	mu    sync.Mutex
	docs  map[string]*fakeDoc
	opens int
}

func (o *fakeOpener) Open(path string) (pdf.Document, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.opens++
	d, ok := o.docs[path]
	if !ok {
		return nil, errors.New("failed to open PDF: corrupt")
	}
	return d, nil
}

type memCache struct {
	entries map[string][]string
	deleted []string
}

func (c *memCache) Lookup(path, hash string) ([]string, bool, error) {
	p, ok := c.entries[path+"|"+hash]
	return p, ok, nil
}

func (c *memCache) Store(path, hash string, pages []string) error {
	c.Delete(path)
	c.entries[path+"|"+hash] = pages
	return nil
}

func (c *memCache) Delete(path string) error {
	c.deleted = append(c.deleted, path)
	for key := range c.entries {
		if strings.HasPrefix(key, path+"|") {
			delete(c.entries, key)
		}
	}
	return nil
}

func quietLogger() (*logger.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return logger.NewWithWriter(&buf, logger.LevelDebug), &buf
}

func TestScanFile_EmitsThreeRowsPerMatchingPage(t *testing.T) {
	unit := filepath.Join("/data", "Ren A")
	path := filepath.Join(unit, "PO5531 Acme", "form-019.pdf")
	opener := &fakeOpener{docs: map[string]*fakeDoc{path: {pages: []string{alifPage}}}}
	log, _ := quietLogger()

	rows := New(opener, nil, log).ScanFile(path, "ALIF", unit)
	require.Len(t, rows, 3)

	assert.Equal(t, form019.MeasurementRow{
		PO:             "PO5531",
		Lot:            "240101.CA.?03",
		PartType:       "ALIF",
		Plan:           "Minus 01",
		ImplantName:    "ALIF-10",
		APDepthB:       10,
		MLWidthA:       20,
		MaxCageHeightC: 5,
		PDF:            path,
	}, rows[0])
	assert.Equal(t, "Plan 02", rows[1].Plan)
	assert.Equal(t, "ALIF-12", rows[1].ImplantName)
	assert.Equal(t, 22.0, rows[1].MLWidthA)
	assert.Equal(t, "Plus 03", rows[2].Plan)
	assert.Equal(t, 7.0, rows[2].MaxCageHeightC)
}

func TestScanFile_ThresholdScenario(t *testing.T) {
	path := filepath.Join("/data", "Ren A", "form-019.pdf")
	opener := &fakeOpener{docs: map[string]*fakeDoc{path: {pages: []string{alifPage}}}}
	log, _ := quietLogger()

	rows := New(opener, nil, log).ScanFile(path, "ALIF", filepath.Join("/data", "Ren A"))
	th := form019.Thresholds{APDepthB: &form019.Threshold{Value: 11, Op: form019.OpAtLeast}}
	kept := th.Filter(rows)

	require.Len(t, kept, 2)
	assert.Equal(t, "Plan 02", kept[0].Plan)
	assert.Equal(t, "Plus 03", kept[1].Plan)
	assert.Equal(t, "", kept[0].PO)
}

func TestScanFile_SkipsPages(t *testing.T) {
	path := "/data/Ren A/form-019.pdf"
	partial := "ALIF\nAP Depth B (mm) 1 2 3\nML Width A (mm) 1 2 3"
	other := "TLIF-C\nAP Depth B (mm) 1 2 3\nML Width A (mm) 1 2 3\nMax Cage Height C (mm) 1 2 3"
	doc := &fakeDoc{
		pages:   []string{"", "   \n", partial, other, alifPage, alifPage},
		pageErr: map[int]error{5: errors.New("bad page")},
	}
	opener := &fakeOpener{docs: map[string]*fakeDoc{path: doc}}
	log, _ := quietLogger()

	rows := New(opener, nil, log).ScanFile(path, "alif", "/data/Ren A")
	assert.Len(t, rows, 3)
}

func TestScanFile_OpenErrorYieldsNoRows(t *testing.T) {
	opener := &fakeOpener{docs: map[string]*fakeDoc{}}
	log, logs := quietLogger()

	rows := New(opener, nil, log).ScanFile("/data/Ren A/broken form-019.pdf", "ALIF", "")
	assert.Empty(t, rows)
	assert.Contains(t, logs.String(), "Skipping /data/Ren A/broken form-019.pdf")
}

func TestScanFile_MisalignedImplantNamesWarns(t *testing.T) {
	path := "/data/Ren A/form-019.pdf"
	page := "ALIF\nAP Depth B (mm) 1 2 3\nML Width A (mm) 1 2 3\nMax Cage Height C (mm) 1 2 3\nIMPLANT_NAME=ONE IMPLANT_NAME=TWO"
	opener := &fakeOpener{docs: map[string]*fakeDoc{path: {pages: []string{page}}}}
	log, logs := quietLogger()

	rows := New(opener, nil, log).ScanFile(path, "ALIF", "")
	require.Len(t, rows, 3)
	assert.Equal(t, "ONE", rows[0].ImplantName)
	assert.Equal(t, "TWO", rows[1].ImplantName)
	assert.Equal(t, "", rows[2].ImplantName)
	assert.Contains(t, logs.String(), "2 implant names for 3 plans")
}

func TestPages_UsesCacheForUnchangedContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "form-019.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 v1"), 0644))

	opener := &fakeOpener{docs: map[string]*fakeDoc{path: {pages: []string{alifPage}}}}
	log, _ := quietLogger()
	s := New(opener, &memCache{entries: map[string][]string{}}, log)

	first := s.ScanFile(path, "ALIF", "")
	second := s.ScanFile(path, "ALIF", "")
	assert.Equal(t, first, second)
	assert.Equal(t, 1, opener.opens)

	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 v2"), 0644))
	s.ScanFile(path, "ALIF", "")
	assert.Equal(t, 2, opener.opens)
}

type panicDoc struct{}

func (panicDoc) NumPage() int             { return 1 }
func (panicDoc) Text(int) (string, error) { panic(`unexpected keyword "bj" parsing object`) }
func (panicDoc) Close() error             { return nil }

func TestScanFile_BackendPanicSkipsFile(t *testing.T) {
	opener := pdf.OpenerFunc(func(string) (pdf.Document, error) { return panicDoc{}, nil })
	log, logs := quietLogger()

	var rows []form019.MeasurementRow
	require.NotPanics(t, func() {
		rows = New(opener, nil, log).ScanFile("/data/Ren A/form-019.pdf", "ALIF", "")
	})
	assert.Empty(t, rows)
	assert.Contains(t, logs.String(), "Skipping /data/Ren A/form-019.pdf")
	assert.Contains(t, logs.String(), "malformed PDF")
}

func TestPages_IncompleteExtractionIsNotCached(t *testing.T) {
	path := filepath.Join(t.TempDir(), "form-019.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 v1"), 0644))

	doc := &fakeDoc{
		pages:   []string{alifPage, alifPage},
		pageErr: map[int]error{1: errors.New("transient")},
	}
	opener := &fakeOpener{docs: map[string]*fakeDoc{path: doc}}
	pageCache := &memCache{entries: map[string][]string{"stale|old": nil}}
	pageCache.entries[path+"|old"] = []string{"previous content"}
	log, logs := quietLogger()
	s := New(opener, pageCache, log)

	rows := s.ScanFile(path, "ALIF", "")
	assert.Len(t, rows, 3)
	assert.Equal(t, map[string][]string{"stale|old": nil}, pageCache.entries)
	assert.Contains(t, logs.String(), "page 2: transient")

	doc.pageErr = nil
	rows = s.ScanFile(path, "ALIF", "")
	assert.Len(t, rows, 6)
	assert.Equal(t, 2, opener.opens)
	assert.Len(t, pageCache.entries, 2)

	s.ScanFile(path, "ALIF", "")
	assert.Equal(t, 2, opener.opens)
}

func TestScanFile_PureBackendCorruptFileNextToGoodFile(t *testing.T) {
	unit := filepath.Join(t.TempDir(), "Ren A")
	lines := []string{
		"FORM-019 ALIF",
		"AP Depth B (mm) 10.0 12.0 14.0",
		"ML Width A (mm) 20.0 22.0 24.0",
		"Max Cage Height C (mm) 5.0 6.0 7.0",
	}
	bad := pdftest.WriteFile(t, unit, filepath.Join("PO1", "bad form-019.pdf"), pdftest.CorruptPageOffset(lines...))
	good := pdftest.WriteFile(t, unit, filepath.Join("PO2", "form-019.pdf"), pdftest.Document(lines...))

	opener, err := pdf.NewOpener(pdf.BackendPure, 0)
	require.NoError(t, err)
	log, _ := quietLogger()
	s := New(opener, nil, log)

	require.NotPanics(t, func() {
		assert.Empty(t, s.ScanFile(bad, "ALIF", unit))
	})
	rows := s.ScanFile(good, "ALIF", unit)
	require.Len(t, rows, 3)
	assert.Equal(t, "PO2", rows[0].PO)
	assert.Equal(t, 12.0, rows[1].APDepthB)
}
