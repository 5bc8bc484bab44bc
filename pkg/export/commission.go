// Package export writes reports as spreadsheets.
package export

import (
	"bytes"
	"fmt"

	"venue-crm-backend/pkg/services"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	venueSheet  = "By venue"
	statusSheet = "By status"
)

// ContentTypeXLSX is the media type of the workbooks written here.
const ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// CommissionWorkbook writes the commission report as an .xlsx with one sheet
// per breakdown and a totals row on the venue sheet.
func CommissionWorkbook(report *services.CommissionReport) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", venueSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(statusSheet); err != nil {
		return nil, err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	moneyFmt := "#,##0.00"
	money, err := f.NewStyle(&excelize.Style{CustomNumFmt: &moneyFmt})
	if err != nil {
		return nil, err
	}

	venueRows := [][]interface{}{{"Venue", "Bookings", "Booked value", "Expected commission", "Claimed commission"}}
	for _, v := range report.ByVenue {
		venueRows = append(venueRows, []interface{}{
			v.VenueName, v.Bookings, num(v.BookedValue), num(v.ExpectedCommission), num(v.ClaimedCommission),
		})
	}
	venueRows = append(venueRows, []interface{}{
		"Total", "", num(report.Totals.BookedValue), num(report.Totals.ExpectedCommission), num(report.Totals.Claimed),
	})
	if err := writeRows(f, venueSheet, venueRows); err != nil {
		return nil, err
	}
	last := len(venueRows)
	_ = f.SetCellStyle(venueSheet, "A1", "E1", bold)
	_ = f.SetCellStyle(venueSheet, fmt.Sprintf("A%d", last), fmt.Sprintf("E%d", last), bold)
	_ = f.SetCellStyle(venueSheet, "C2", fmt.Sprintf("E%d", last), money)
	_ = f.SetColWidth(venueSheet, "A", "A", 32)
	_ = f.SetColWidth(venueSheet, "B", "E", 20)

	statusRows := [][]interface{}{{"Status", "Claims", "Amount"}}
	for _, s := range report.ByStatus {
		statusRows = append(statusRows, []interface{}{string(s.Status), s.Count, num(s.Amount)})
	}
	statusRows = append(statusRows,
		[]interface{}{"Paid", "", num(report.Totals.Paid)},
		[]interface{}{"Outstanding", "", num(report.Totals.Outstanding)},
	)
	if err := writeRows(f, statusSheet, statusRows); err != nil {
		return nil, err
	}
	_ = f.SetCellStyle(statusSheet, "A1", "C1", bold)
	_ = f.SetCellStyle(statusSheet, "C2", fmt.Sprintf("C%d", len(statusRows)), money)
	_ = f.SetColWidth(statusSheet, "A", "C", 18)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

func num(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}
