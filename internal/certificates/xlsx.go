package certificates

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/angelmondragon/cashvault-backend/pkg/denomination"
)

const sheetName = "Certificate"

// WriteXLSX renders cert as a single-sheet workbook.
func WriteXLSX(w io.Writer, cert *Certificate) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}

	sheet := &sheetWriter{f: f, name: sheetName, row: 1}
	set := sheet.set

	set(1, "Balance certificate")
	sheet.row++
	set(1, "Client")
	set(2, fmt.Sprintf("%s (%s)", cert.Client.Name, cert.Client.Code))
	sheet.row++
	set(1, "Date")
	set(2, cert.Date.String())
	sheet.row += 2

	header := []string{"", "Amount"}
	for _, d := range denomination.All {
		header = append(header, d.Name)
	}
	for i, h := range header {
		set(i+1, h)
	}
	sheet.row++

	summary := []struct {
		label  string
		amount string
		notes  denomination.Vector
	}{
		{"Opening", cert.OpeningBalance.StringFixed(2), cert.OpeningDenominations},
		{"Credits", cert.Credits.Total.StringFixed(2), cert.Credits.Denominations},
		{"Debits", cert.Debits.Total.StringFixed(2), cert.Debits.Denominations},
		{"Closing", cert.ClosingBalance.StringFixed(2), cert.ClosingDenominations},
	}
	for _, line := range summary {
		set(1, line.label)
		set(2, line.amount)
		for i, d := range denomination.All {
			set(i+3, d.Count(line.notes))
		}
		sheet.row++
	}

	sheet.row++
	for i, h := range []string{"Movement", "Type", "Amount", "Reason", "Recorded at"} {
		set(i+1, h)
	}
	sheet.row++
	for _, tx := range cert.Transactions {
		set(1, tx.ID)
		set(2, string(tx.Type))
		set(3, tx.Amount.StringFixed(2))
		set(4, tx.Reason)
		set(5, tx.CreatedAt.UTC().Format("2006-01-02 15:04:05"))
		sheet.row++
	}

	if sheet.err != nil {
		return fmt.Errorf("fill certificate: %w", sheet.err)
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// sheetWriter fills cells of the current row and keeps the first failure.
type sheetWriter struct {
	f    *excelize.File
	name string
	row  int
	err  error
}

func (s *sheetWriter) set(col int, value any) {
	if s.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(col, s.row)
	if err == nil {
		err = s.f.SetCellValue(s.name, cell, value)
	}
	if err != nil {
		s.err = fmt.Errorf("cell %d,%d: %w", col, s.row, err)
	}
}
