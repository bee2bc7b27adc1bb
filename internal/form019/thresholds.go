// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package form019

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	ErrInvalidOperator  = errors.New("invalid comparison operator")
	ErrInvalidThreshold = errors.New("invalid threshold value")
)

// Operator is the comparison applied between a measurement and its threshold
type Operator string

const (
	OpAtLeast Operator = ">="
	OpAtMost  Operator = "<="
)

// ParseOperator parses a form operator; an empty string defaults to ">="
func ParseOperator(s string) (Operator, error) {
	switch strings.TrimSpace(s) {
	case "", string(OpAtLeast):
		return OpAtLeast, nil
	case string(OpAtMost):
		return OpAtMost, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidOperator, s)
	}
}

// Threshold is one configured limit
type Threshold struct {
	Value float64  `json:"value"`
	Op    Operator `json:"op"`
}

// Allows reports whether v satisfies the threshold
func (t Threshold) Allows(v float64) bool {
	if t.Op == OpAtMost {
		return v <= t.Value
	}
	return v >= t.Value
}

// ParseThreshold builds a threshold from form values. A blank value means no
// limit and returns nil. NaN and infinities are rejected.
func ParseThreshold(value, op string) (*Threshold, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidThreshold, value)
	}
	o, err := ParseOperator(op)
	if err != nil {
		return nil, err
	}
	return &Threshold{Value: v, Op: o}, nil
}

// Thresholds holds the optional limit for each measurement dimension
type Thresholds struct {
	APDepthB       *Threshold `json:"ap_depth_b_mm,omitempty"`
	MLWidthA       *Threshold `json:"ml_width_a_mm,omitempty"`
	MaxCageHeightC *Threshold `json:"max_cage_height_c_mm,omitempty"`
}

// Admit reports whether every configured dimension accepts the row
func (t Thresholds) Admit(row MeasurementRow) bool {
	return allows(t.APDepthB, row.APDepthB) &&
		allows(t.MLWidthA, row.MLWidthA) &&
		allows(t.MaxCageHeightC, row.MaxCageHeightC)
}

func allows(t *Threshold, v float64) bool {
	if t == nil {
		return true
	}
	return t.Allows(v)
}

// Filter returns the rows admitted by t, preserving order
func (t Thresholds) Filter(rows []MeasurementRow) []MeasurementRow {
	kept := make([]MeasurementRow, 0, len(rows))
	for _, row := range rows {
		if t.Admit(row) {
			kept = append(kept, row)
		}
	}
	return kept
}
