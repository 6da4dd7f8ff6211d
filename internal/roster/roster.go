// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package roster exports member profiles as a spreadsheet.
package roster

import (
	"bytes"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/acm-mitb/acm-site/internal/model"
)

// SheetName is the name of the roster worksheet.
const SheetName = "Members"

// Headers are the roster columns in order.
var Headers = []string{
	"Name", "Sign-in Email", "Registration Number", "Student Email", "Year",
	"Department", "Date of Birth", "Phone", "Townhall", "Created At",
}

// Filename returns the download name of a roster exported at t.
func Filename(t time.Time) string {
	return fmt.Sprintf("members_%s.xlsx", t.Format("2006-01-02"))
}

// Export writes profiles, one per row, below a header row.
func Export(profiles []model.Profile) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			slog.Error("closing roster workbook", "error", err)
		}
	}()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, fmt.Errorf("setting sheet name: %w", err)
	}

	for i, header := range Headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(SheetName, cell, header); err != nil {
			return nil, fmt.Errorf("setting header cell: %w", err)
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("creating header style: %w", err)
	}
	lastHeader, _ := excelize.CoordinatesToCellName(len(Headers), 1)
	if err := f.SetCellStyle(SheetName, "A1", lastHeader, bold); err != nil {
		return nil, fmt.Errorf("styling header: %w", err)
	}
	if err := f.SetPanes(SheetName, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return nil, fmt.Errorf("freezing header: %w", err)
	}

	for r, p := range profiles {
		row := []any{
			p.Name, p.AuthEmail, p.RegNo, p.StudentEmail, p.Year,
			p.Department, p.DOB, p.Phone, p.Privileged(), p.CreatedAt,
		}
		for i, value := range row {
			cell, _ := excelize.CoordinatesToCellName(i+1, r+2)
			if err := f.SetCellValue(SheetName, cell, value); err != nil {
				return nil, fmt.Errorf("setting cell %s: %w", cell, err)
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("writing roster: %w", err)
	}
	return &buf, nil
}
