// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package form019

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func row(ap, ml, maxh float64) MeasurementRow {
	return MeasurementRow{APDepthB: ap, MLWidthA: ml, MaxCageHeightC: maxh}
}

func TestThresholds_UnsetAdmitsEverything(t *testing.T) {
	var th Thresholds
	for _, r := range []MeasurementRow{row(0, 0, 0), row(-5, 100, 3.3), row(1e6, -1e6, 0.0001)} {
		assert.True(t, th.Admit(r))
	}
}

func TestThresholds_AdmitIsConjunction(t *testing.T) {
	th := Thresholds{
		APDepthB:       &Threshold{Value: 11, Op: OpAtLeast},
		MLWidthA:       &Threshold{Value: 23, Op: OpAtMost},
		MaxCageHeightC: &Threshold{Value: 6, Op: OpAtLeast},
	}

	values := []float64{5, 6, 11, 12, 23, 24}
	for _, ap := range values {
		for _, ml := range values {
			for _, maxh := range values {
				want := ap >= 11 && ml <= 23 && maxh >= 6
				assert.Equal(t, want, th.Admit(row(ap, ml, maxh)), "ap=%v ml=%v maxh=%v", ap, ml, maxh)
			}
		}
	}
}

func TestThreshold_BoundaryIsInclusive(t *testing.T) {
	assert.True(t, Threshold{Value: 10, Op: OpAtLeast}.Allows(10))
	assert.True(t, Threshold{Value: 10, Op: OpAtMost}.Allows(10))
	assert.False(t, Threshold{Value: 10, Op: OpAtLeast}.Allows(9.99))
	assert.False(t, Threshold{Value: 10, Op: OpAtMost}.Allows(10.01))
}

func TestParseThreshold(t *testing.T) {
	th, err := ParseThreshold("  ", ">=")
	require.NoError(t, err)
	assert.Nil(t, th)

	th, err = ParseThreshold("11.5", "")
	require.NoError(t, err)
	assert.Equal(t, &Threshold{Value: 11.5, Op: OpAtLeast}, th)

	th, err = ParseThreshold("4", "<=")
	require.NoError(t, err)
	assert.Equal(t, OpAtMost, th.Op)

	_, err = ParseThreshold("abc", ">=")
	assert.ErrorIs(t, err, ErrInvalidThreshold)

	for _, v := range []string{"NaN", "nan", "Inf", "-Inf", "+inf", "infinity", "1e400"} {
		_, err = ParseThreshold(v, ">=")
		assert.ErrorIs(t, err, ErrInvalidThreshold, v)
	}

	_, err = ParseThreshold("1", "==")
	assert.ErrorIs(t, err, ErrInvalidOperator)
}

func TestThresholds_FilterKeepsOrder(t *testing.T) {
	th := Thresholds{APDepthB: &Threshold{Value: 11, Op: OpAtLeast}}
	rows := []MeasurementRow{row(10, 0, 0), row(12, 0, 0), row(14, 0, 0)}
	kept := th.Filter(rows)
	require.Len(t, kept, 2)
	assert.Equal(t, 12.0, kept[0].APDepthB)
	assert.Equal(t, 14.0, kept[1].APDepthB)
}
