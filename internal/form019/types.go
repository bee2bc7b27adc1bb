// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package form019

import (
	"strconv"
	"strings"
)

// PlanCount is the number of plan variants captured by one measurement triplet
const PlanCount = 3

// planLabels maps a plan index to the label printed on the form
var planLabels = [PlanCount]string{"Minus 01", "Plan 02", "Plus 03"}

// DefaultPartTypes is the part type enumeration offered by the search form
var DefaultPartTypes = []string{"ALIF", "LLIF", "ALIF-X", "TLIF-C", "TLIF-O", "TLIF-CA"}

// DefaultUnitFolders are the organisational folders searched under the base directory
var DefaultUnitFolders = []string{"Ren A", "Ren B", "Ren C"}

// PlanLabel returns the label for a plan index, or the index itself if out of range
func PlanLabel(idx int) string {
	if idx < 0 || idx >= PlanCount {
		return strconv.Itoa(idx)
	}
	return planLabels[idx]
}

// MeasurementRow is one matching plan variant found on a FORM-019 page
type MeasurementRow struct {
	PO             string  `json:"PO"`
	Lot            string  `json:"Lot"`
	PartType       string  `json:"PartType"`
	Plan           string  `json:"Plan"`
	ImplantName    string  `json:"ImplantName"`
	APDepthB       float64 `json:"AP_Depth_B_mm"`
	MLWidthA       float64 `json:"ML_Width_A_mm"`
	MaxCageHeightC float64 `json:"Max_Cage_Height_C_mm"`
	PDF            string  `json:"PDF"`
}

// Columns is the fixed export header, in field order
var Columns = []string{
	"PO",
	"Lot",
	"PartType",
	"Plan",
	"ImplantName",
	"AP_Depth_B_mm",
	"ML_Width_A_mm",
	"Max_Cage_Height_C_mm",
	"PDF",
}

// Record returns the row's fields as strings in Columns order
func (r MeasurementRow) Record() []string {
	return []string{
		r.PO,
		r.Lot,
		r.PartType,
		r.Plan,
		r.ImplantName,
		FormatMM(r.APDepthB),
		FormatMM(r.MLWidthA),
		FormatMM(r.MaxCageHeightC),
		r.PDF,
	}
}

// FormatMM renders a millimetre value with the shortest exact decimal form,
// keeping at least one fractional digit (10 -> "10.0", 12.25 -> "12.25").
func FormatMM(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// IsKnownPartType reports whether partType is a member of the enumeration (exact match)
func IsKnownPartType(partType string, known []string) bool {
	for _, pt := range known {
		if pt == partType {
			return true
		}
	}
	return false
}
