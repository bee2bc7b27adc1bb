// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package form019

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

const number = `[-+]?(?:\d+\.\d+|\d+)`

var (
	apDepthPattern   = regexp.MustCompile(`(?i)AP\s*Depth\s*"?B"?\s*\(mm\)\s+(` + number + `)\s+(` + number + `)\s+(` + number + `)`)
	mlWidthPattern   = regexp.MustCompile(`(?i)ML\s*Width\s*"?A"?\s*\(mm\)\s+(` + number + `)\s+(` + number + `)\s+(` + number + `)`)
	maxHeightPattern = regexp.MustCompile(`(?i)Max\s*Cage\s*Height\s*"?C"?\s*\(mm\)\s+(` + number + `)\s+(` + number + `)\s+(` + number + `)`)
	implantPattern   = regexp.MustCompile(`(?i)IMPLANT_NAME=(\S+)`)
	lotPattern       = regexp.MustCompile(`(?i)\b\d{6}\.[A-Z]{2}\.\??\d{2}\b`)
	poPattern        = regexp.MustCompile(`(?i)(PO\d+)`)
)

// Triplet holds the three plan values captured by one measurement pattern
type Triplet [PlanCount]float64

// PageMeasurements is the set of values extracted from one page
type PageMeasurements struct {
	APDepthB       Triplet
	MLWidthA       Triplet
	MaxCageHeightC Triplet
	ImplantNames   []string
	Lot            string
}

// ImplantName returns the implant name at the plan index, or "" if the page has fewer names
func (m PageMeasurements) ImplantName(idx int) string {
	if idx < 0 || idx >= len(m.ImplantNames) {
		return ""
	}
	return m.ImplantNames[idx]
}

// ImplantNamesAligned reports whether the implant names line up with the plan
// indices: either none are present or exactly one per plan.
func (m PageMeasurements) ImplantNamesAligned() bool {
	n := len(m.ImplantNames)
	return n == 0 || n == PlanCount
}

// ParsePage applies the measurement patterns to a page of text. ok is false
// when any of the three triplets is missing or does not parse.
func ParsePage(text string) (PageMeasurements, bool) {
	var m PageMeasurements
	var ok bool

	if m.APDepthB, ok = parseTriplet(apDepthPattern, text); !ok {
		return PageMeasurements{}, false
	}
	if m.MLWidthA, ok = parseTriplet(mlWidthPattern, text); !ok {
		return PageMeasurements{}, false
	}
	if m.MaxCageHeightC, ok = parseTriplet(maxHeightPattern, text); !ok {
		return PageMeasurements{}, false
	}

	m.ImplantNames = FindImplantNames(text)
	m.Lot = FindLot(text)
	return m, true
}

func parseTriplet(re *regexp.Regexp, text string) (Triplet, bool) {
	var t Triplet
	groups := re.FindStringSubmatch(text)
	if len(groups) != PlanCount+1 {
		return t, false
	}
	for i := 0; i < PlanCount; i++ {
		v, err := strconv.ParseFloat(groups[i+1], 64)
		if err != nil {
			return t, false
		}
		t[i] = v
	}
	return t, true
}

// FindImplantNames returns every IMPLANT_NAME= token on the page in order
func FindImplantNames(text string) []string {
	matches := implantPattern.FindAllStringSubmatch(text, -1)
	names := make([]string, 0, len(matches))
	for _, match := range matches {
		names = append(names, match[1])
	}
	return names
}

// FindLot returns the first lot code on the page, or ""
func FindLot(text string) string {
	return lotPattern.FindString(text)
}

// ContainsPartType reports whether the part type appears in the text, ignoring case
func ContainsPartType(text, partType string) bool {
	return strings.Contains(strings.ToLower(text), strings.ToLower(partType))
}

// POFromPath scans the ancestor directory names of path, nearest first, for a
// purchase-order token. The walk stops before boundary when boundary is an
// ancestor; otherwise it continues to the filesystem root. The token is
// returned upper-cased.
func POFromPath(path, boundary string) string {
	if boundary != "" {
		boundary = filepath.Clean(boundary)
	}

	dir := filepath.Dir(filepath.Clean(path))
	for {
		if boundary != "" && dir == boundary {
			return ""
		}
		if m := poPattern.FindString(filepath.Base(dir)); m != "" {
			return strings.ToUpper(m)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// IsFormFileName reports whether a file base name marks a FORM-019 document
func IsFormFileName(name string) bool {
	lower := strings.ToLower(name)
	return strings.Contains(lower, "form-019") || strings.Contains(lower, "form-19")
}
