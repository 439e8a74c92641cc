// Package export renders bookings as XLSX workbooks.
package export

import (
	"fmt"
	"io"
	"time"

	"provider/internal/models"

	"github.com/xuri/excelize/v2"
)

const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var headers = []string{"ID", "Localizador", "Alojamiento", "Cliente", "Entrada", "Salida", "Noches", "Total", "Creada"}

type BookingExporter struct {
	sheetName string
}

func NewBookingExporter(sheetName string) *BookingExporter {
	if sheetName == "" {
		sheetName = "Reservas"
	}
	return &BookingExporter{sheetName: sheetName}
}

// FileName is the suggested attachment name for a workbook covering [from, to].
func (e *BookingExporter) FileName(from, to time.Time) string {
	return fmt.Sprintf("reservas_%s_to_%s.xlsx", models.FormatDay(from), models.FormatDay(to))
}

// Write renders one row per booking below a period title and a header row.
func (e *BookingExporter) Write(w io.Writer, from, to time.Time, bookings []*models.Booking) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := e.sheetName
	index, err := f.NewSheet(sheet)
	if err != nil {
		return fmt.Errorf("error creating sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if sheet != "Sheet1" {
		_ = f.DeleteSheet("Sheet1")
	}

	_ = f.SetCellValue(sheet, "A1", fmt.Sprintf("Periodo: %s - %s", models.FormatDay(from), models.FormatDay(to)))
	lastCol, _ := excelize.ColumnNumberToName(len(headers))
	_ = f.MergeCell(sheet, "A1", lastCol+"1")
	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.SetCellStyle(sheet, "A1", "A1", titleStyle)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	})
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		_ = f.SetCellValue(sheet, cell, h)
		_ = f.SetCellStyle(sheet, cell, cell, headerStyle)
	}

	for i, b := range bookings {
		row := i + 3
		values := []any{
			b.ID,
			b.Locator,
			b.ListingID,
			b.CustomerID,
			models.FormatDay(b.CheckIn),
			models.FormatDay(b.CheckOut),
			models.Nights(b.CheckIn, b.CheckOut),
			b.TotalPrice,
			b.CreatedAt.Format(time.RFC3339),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("error writing cell %s: %w", cell, err)
			}
		}
	}

	_ = f.SetColWidth(sheet, "A", lastCol, 15)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("error writing workbook: %w", err)
	}
	return nil
}
