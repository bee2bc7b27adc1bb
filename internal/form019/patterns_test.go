// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package form019

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePage = `FORM-019 Implant Verification
Part: ALIF Cage
Lot 123456.AB.?07
AP Depth "B" (mm) 10.0 12.0 14.0
ML Width "A" (mm) 20 22.5 24
Max Cage Height "C" (mm) 5.0 6.0 7.0
IMPLANT_NAME=ALIF-S IMPLANT_NAME=ALIF-M IMPLANT_NAME=ALIF-L
`

func TestParsePage_AllTriplets(t *testing.T) {
	m, ok := ParsePage(samplePage)
	require.True(t, ok)

	assert.Equal(t, Triplet{10, 12, 14}, m.APDepthB)
	assert.Equal(t, Triplet{20, 22.5, 24}, m.MLWidthA)
	assert.Equal(t, Triplet{5, 6, 7}, m.MaxCageHeightC)
	assert.Equal(t, []string{"ALIF-S", "ALIF-M", "ALIF-L"}, m.ImplantNames)
	assert.Equal(t, "123456.AB.?07", m.Lot)
	assert.True(t, m.ImplantNamesAligned())
}

func TestParsePage_UnquotedLabels(t *testing.T) {
	text := "AP Depth B (mm) 10.0 12.0 14.0\nML Width A (mm) 20.0 22.0 24.0\nMax Cage Height C (mm) 5.0 6.0 7.0"
	m, ok := ParsePage(text)
	require.True(t, ok)
	assert.Equal(t, Triplet{10, 12, 14}, m.APDepthB)
	assert.Empty(t, m.ImplantNames)
	assert.Equal(t, "", m.Lot)
}

func TestParsePage_MissingTripletRejectsPage(t *testing.T) {
	cases := map[string]string{
		"no ap":      "ML Width A (mm) 1 2 3\nMax Cage Height C (mm) 1 2 3",
		"no ml":      "AP Depth B (mm) 1 2 3\nMax Cage Height C (mm) 1 2 3",
		"no height":  "AP Depth B (mm) 1 2 3\nML Width A (mm) 1 2 3",
		"two values": "AP Depth B (mm) 1 2\nML Width A (mm) 1 2 3\nMax Cage Height C (mm) 1 2 3",
	}
	for name, text := range cases {
		t.Run(name, func(t *testing.T) {
			_, ok := ParsePage(text)
			assert.False(t, ok)
		})
	}
}

func TestParsePage_CaseInsensitive(t *testing.T) {
	text := "ap depth b (MM) 1 2 3\nml width a (mm) 4 5 6\nmax cage height c (mm) -1 +2 3.5"
	m, ok := ParsePage(text)
	require.True(t, ok)
	assert.Equal(t, Triplet{-1, 2, 3.5}, m.MaxCageHeightC)
}

func TestImplantName_ByIndex(t *testing.T) {
	m := PageMeasurements{ImplantNames: []string{"only-one"}}
	assert.Equal(t, "only-one", m.ImplantName(0))
	assert.Equal(t, "", m.ImplantName(1))
	assert.Equal(t, "", m.ImplantName(2))
	assert.False(t, m.ImplantNamesAligned())
}

func TestContainsPartType(t *testing.T) {
	assert.True(t, ContainsPartType("Part: alif cage", "ALIF"))
	assert.False(t, ContainsPartType("Part: TLIF", "ALIF"))
}

func TestIsFormFileName(t *testing.T) {
	assert.True(t, IsFormFileName("PO123 FORM-019 rev B.pdf"))
	assert.True(t, IsFormFileName("form-19.PDF"))
	assert.False(t, IsFormFileName("form-20.pdf"))
	assert.False(t, IsFormFileName("form019.pdf"))
}

func TestPOFromPath(t *testing.T) {
	root := filepath.Join(string(filepath.Separator), "data", "Run")
	unit := filepath.Join(root, "Ren A")

	t.Run("nearest ancestor wins", func(t *testing.T) {
		path := filepath.Join(unit, "Job po4455 Widget", "Docs", "PO999", "form-019.pdf")
		assert.Equal(t, "PO999", POFromPath(path, unit))
	})

	t.Run("found above the file", func(t *testing.T) {
		path := filepath.Join(unit, "Job po4455 Widget", "Docs", "CMD", "form-019.pdf")
		assert.Equal(t, "PO4455", POFromPath(path, unit))
	})

	t.Run("boundary is exclusive", func(t *testing.T) {
		poUnit := filepath.Join(root, "PO777")
		path := filepath.Join(poUnit, "Docs", "form-019.pdf")
		assert.Equal(t, "", POFromPath(path, poUnit))
	})

	t.Run("file directly in boundary", func(t *testing.T) {
		assert.Equal(t, "", POFromPath(filepath.Join(unit, "form-019.pdf"), unit))
	})

	t.Run("no boundary walks to root", func(t *testing.T) {
		path := filepath.Join(string(filepath.Separator), "PO31", "a", "b", "form-019.pdf")
		assert.Equal(t, "PO31", POFromPath(path, ""))
	})
}

func TestFormatMM(t *testing.T) {
	assert.Equal(t, "10.0", FormatMM(10))
	assert.Equal(t, "12.25", FormatMM(12.25))
	assert.Equal(t, "-3.5", FormatMM(-3.5))
	assert.Equal(t, "0.1", FormatMM(0.1))
}

func TestPlanLabel(t *testing.T) {
	assert.Equal(t, "Minus 01", PlanLabel(0))
	assert.Equal(t, "Plan 02", PlanLabel(1))
	assert.Equal(t, "Plus 03", PlanLabel(2))
	assert.Equal(t, "3", PlanLabel(3))
}
