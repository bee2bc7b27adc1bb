// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/form019-finder/internal/form019"
	"github.com/xuri/excelize/v2"
)

// File names offered by the download endpoint
const (
	CSVFileName  = "form019_matches.csv"
	XLSXFileName = "form019_matches.xlsx"
	SheetName    = "Matches"
)

// CSV renders the header and one CRLF-terminated record per row. Output is
// byte-identical for identical input.
func CSV(rows []form019.MeasurementRow) []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.UseCRLF = true

	// Writes into a bytes.Buffer cannot fail
	w.Write(form019.Columns)
	for _, row := range rows {
		w.Write(row.Record())
	}
	w.Flush()
	return buf.Bytes()
}

// XLSX renders the same table as a workbook with a single "Matches" sheet,
// measurements stored as numbers
func XLSX(rows []form019.MeasurementRow) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	header := make([]interface{}, len(form019.Columns))
	for i, col := range form019.Columns {
		header[i] = col
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		values := []interface{}{
			row.PO,
			row.Lot,
			row.PartType,
			row.Plan,
			row.ImplantName,
			row.APDepthB,
			row.MLWidthA,
			row.MaxCageHeightC,
			row.PDF,
		}
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to render workbook: %w", err)
	}
	return buf.Bytes(), nil
}
