// Package export renders the request ledger as an Excel workbook for the
// weekly report the site office files with the head contractor.
package export

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/materialgate/gatepass/internal/db"
)

const sheetName = "Requests"

var ledgerColumns = []string{
	"Request ID", "Status", "Direction", "Risk", "Company", "Material",
	"Vehicle", "Driver contact", "Gate", "Work date", "Work time",
	"Requested by", "Approved by", "Approved at", "Executed by", "Executed at",
}

// Ledger queries requests and writes one workbook row per request. The
// suggested filename carries the export date.
func Ledger(ctx context.Context, repo *db.RequestRepository, q db.Query) (*bytes.Buffer, string, error) {
	requests, err := repo.List(ctx, q)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, "", fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	for i, col := range ledgerColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, col)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}
	f.SetColWidth(sheetName, "A", "A", 28)
	f.SetColWidth(sheetName, "E", "H", 18)

	for row, req := range requests {
		values := []any{
			req.ID, string(req.Status), string(req.Direction), string(req.Risk),
			req.Company, req.Material, req.Vehicle, req.DriverContact,
			req.Gate, req.WorkDate, req.WorkTime,
			req.CreatedBy, req.ApprovedBy, formatStamp(req.ApprovedAt),
			req.ExecutedBy, formatStamp(req.ExecutedAt),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheetName, cell, v)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", fmt.Errorf("write workbook: %w", err)
	}
	filename := fmt.Sprintf("gatepass_ledger_%s.xlsx", time.Now().Format("20060102"))
	return buf, filename, nil
}

func formatStamp(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02 15:04")
}
