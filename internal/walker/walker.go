// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package walker

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/form019-finder/internal/form019"
	"github.com/form019-finder/internal/logger"
)

// Candidate is a FORM-019 file found under one unit folder
type Candidate struct {
	Path    string
	Unit    string
	UnitDir string // PO lookup boundary
}

// Walker enumerates FORM-019 files below the configured unit folders
type Walker struct {
	log *logger.Logger
}

// New creates a walker that reports skipped folders to log
func New(log *logger.Logger) *Walker {
	if log == nil {
		log = logger.GetDefault()
	}
	return &Walker{log: log}
}

// Walk visits root/unit recursively for each unit and returns every regular
// file whose name marks it as a FORM-019 form. Units that are missing,
// unreadable or outside root are skipped with a warning, and so is a missing
// root, which yields no candidates.
func (w *Walker) Walk(root string, units []string) ([]Candidate, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base directory: %w", err)
	}
	info, err := os.Stat(absRoot)
	if err != nil || !info.IsDir() {
		w.log.Warnf("Base directory not found, nothing to scan: %s", absRoot)
		return nil, nil
	}

	var found []Candidate
	seen := make(map[string]bool)
	for _, unit := range units {
		unitDir, ok := unitPath(absRoot, unit)
		if !ok {
			w.log.Warnf("Skipping unit folder %q: not inside %s", unit, absRoot)
			continue
		}
		if seen[unitDir] {
			continue
		}
		seen[unitDir] = true

		if info, err := os.Stat(unitDir); err != nil || !info.IsDir() {
			w.log.Warnf("Unit folder not found, skipping: %s", unitDir)
			continue
		}

		found = append(found, w.walkUnit(unit, unitDir)...)
	}
	return found, nil
}

func (w *Walker) walkUnit(unit, unitDir string) []Candidate {
	var found []Candidate
	filepath.WalkDir(unitDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			w.log.Warnf("Cannot read %s, skipping: %v", path, err)
			if d != nil && d.IsDir() && path != unitDir {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if form019.IsFormFileName(d.Name()) {
			found = append(found, Candidate{Path: path, Unit: unit, UnitDir: unitDir})
		}
		return nil
	})
	return found
}

// unitPath joins unit onto root and reports whether the result is a proper
// descendant of root
func unitPath(root, unit string) (string, bool) {
	if strings.TrimSpace(unit) == "" || filepath.IsAbs(unit) {
		return "", false
	}
	dir := filepath.Join(root, unit)
	rel, err := filepath.Rel(root, dir)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return dir, true
}
