// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package scanner

import (
	"fmt"
	"strings"

	"github.com/form019-finder/internal/cache"
	"github.com/form019-finder/internal/form019"
	"github.com/form019-finder/internal/logger"
	"github.com/form019-finder/internal/pdf"
)

// PageCache remembers extracted page text per file content hash
type PageCache interface {
	Lookup(path, hash string) ([]string, bool, error)
	Store(path, hash string, pages []string) error
	Delete(path string) error
}

// Scanner turns one FORM-019 document into candidate measurement rows
type Scanner struct {
	opener pdf.Opener
	cache  PageCache
	log    *logger.Logger
}

// New creates a scanner. pageCache may be nil to always extract.
func New(opener pdf.Opener, pageCache PageCache, log *logger.Logger) *Scanner {
	if log == nil {
		log = logger.GetDefault()
	}
	return &Scanner{opener: opener, cache: pageCache, log: log}
}

// ScanFile returns up to three rows per page that mentions partType and
// carries all three measurement triplets. The PO is taken from the nearest
// ancestor folder below boundary. Documents that cannot be opened yield no rows.
func (s *Scanner) ScanFile(path, partType, boundary string) []form019.MeasurementRow {
	pages, err := s.Pages(path)
	if err != nil {
		s.log.Warnf("Skipping %s: %v", path, err)
		return nil
	}

	po := form019.POFromPath(path, boundary)

	var rows []form019.MeasurementRow
	for i, text := range pages {
		if strings.TrimSpace(text) == "" {
			continue
		}
		if !form019.ContainsPartType(text, partType) {
			continue
		}
		m, ok := form019.ParsePage(text)
		if !ok {
			continue
		}
		if !m.ImplantNamesAligned() {
			s.log.Warnf("%s page %d: %d implant names for %d plans, names matched by position",
				path, i+1, len(m.ImplantNames), form019.PlanCount)
		}

		for idx := 0; idx < form019.PlanCount; idx++ {
			rows = append(rows, form019.MeasurementRow{
				PO:             po,
				Lot:            m.Lot,
				PartType:       partType,
				Plan:           form019.PlanLabel(idx),
				ImplantName:    m.ImplantName(idx),
				APDepthB:       m.APDepthB[idx],
				MLWidthA:       m.MLWidthA[idx],
				MaxCageHeightC: m.MaxCageHeightC[idx],
				PDF:            path,
			})
		}
	}
	return rows
}

// Pages returns the plain text of every page, from the cache when the file
// content is unchanged
func (s *Scanner) Pages(path string) ([]string, error) {
	var hash string
	if s.cache != nil {
		h, err := cache.FileHash(path)
		if err != nil {
			return nil, fmt.Errorf("failed to hash file: %w", err)
		}
		hash = h

		pages, ok, err := s.cache.Lookup(path, hash)
		if err != nil {
			s.log.Warnf("Extraction cache lookup failed for %s: %v", path, err)
		} else if ok {
			s.log.Debugf("Extraction cache hit: %s", path)
			return pages, nil
		}
	}

	pages, complete, err := s.extract(path)
	if err != nil {
		s.forget(path)
		return nil, err
	}

	if s.cache != nil {
		if !complete {
			s.forget(path)
		} else if err := s.cache.Store(path, hash, pages); err != nil {
			s.log.Warnf("Extraction cache store failed for %s: %v", path, err)
		}
	}
	return pages, nil
}

// forget drops a cached entry for a file whose current content did not extract cleanly
func (s *Scanner) forget(path string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(path); err != nil {
		s.log.Warnf("Extraction cache delete failed for %s: %v", path, err)
	}
}

// extract reads every page. complete is false when any page failed; those
// pages are left empty. A panic inside the PDF backend is returned as an error.
func (s *Scanner) extract(path string) (pages []string, complete bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			pages, complete = nil, false
			err = fmt.Errorf("%w: %v", pdf.ErrMalformedPDF, r)
		}
	}()

	doc, err := s.opener.Open(path)
	if err != nil {
		return nil, false, err
	}
	defer doc.Close()

	n := doc.NumPage()
	pages = make([]string, n)
	complete = true
	for i := 0; i < n; i++ {
		text, err := doc.Text(i)
		if err != nil {
			s.log.Warnf("%s page %d: %v", path, i+1, err)
			complete = false
			continue
		}
		pages[i] = text
	}
	return pages, complete, nil
}
