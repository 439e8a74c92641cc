package export

import (
	"bytes"
	"testing"
	"time"

	"provider/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestBookingExporterWrite(t *testing.T) {
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)
	bookings := []*models.Booking{
		{ID: 1, ListingID: 9000, CustomerID: 7, Locator: 123456, TotalPrice: 300,
			CheckIn: from.AddDate(0, 0, 9), CheckOut: from.AddDate(0, 0, 12)},
		{ID: 2, ListingID: 9001, CustomerID: 8, Locator: 654321, TotalPrice: 80.5,
			CheckIn: from.AddDate(0, 0, 19), CheckOut: from.AddDate(0, 0, 20)},
	}

	e := NewBookingExporter("")
	var buf bytes.Buffer
	require.NoError(t, e.Write(&buf, from, to, bookings))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Reservas"}, f.GetSheetList())

	title, err := f.GetCellValue("Reservas", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Periodo: 2026-01-01 - 2026-01-31", title)

	rows, err := f.GetRows("Reservas")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, headers, rows[1])
	assert.Equal(t, []string{"123456", "9000", "7", "2026-01-10", "2026-01-13", "3", "300"}, rows[2][1:8])
	assert.Equal(t, "654321", rows[3][1])
}

func TestBookingExporterEmpty(t *testing.T) {
	from := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	e := NewBookingExporter("Export")

	var buf bytes.Buffer
	require.NoError(t, e.Write(&buf, from, from, nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Export")
	require.NoError(t, err)
	assert.Len(t, rows, 2)
	assert.Equal(t, "reservas_2026-02-01_to_2026-02-01.xlsx", e.FileName(from, from))
}
