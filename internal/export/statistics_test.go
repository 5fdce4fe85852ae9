package export

import (
	"bytes"
	"testing"
	"time"

	"lernecken/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var testStats = []*models.Statistic{
	{CalendarWeek: 9, Year: 2017, Facility: "g", Bookings: 12},
	{CalendarWeek: 9, Year: 2017, Facility: "h", Bookings: 3},
	{CalendarWeek: 10, Year: 2018, Facility: "h", Bookings: 7},
	{CalendarWeek: 52, Year: 2016, Facility: "g", Bookings: 1},
	{CalendarWeek: 52, Year: 2016, Facility: "x", Bookings: 100},
}

func TestPivot(t *testing.T) {
	rows := Pivot(testStats, models.DefaultFacilities())
	require.Len(t, rows, 3)

	assert.Equal(t, WeekRow{Year: 2018, CalendarWeek: 10, Counts: []int{0, 7}, Total: 7}, rows[0])
	assert.Equal(t, WeekRow{Year: 2017, CalendarWeek: 9, Counts: []int{12, 3}, Total: 15}, rows[1])
	assert.Equal(t, WeekRow{Year: 2016, CalendarWeek: 52, Counts: []int{1, 0}, Total: 1}, rows[2], "unknown facilities are ignored")
}

func TestWriteStatistics(t *testing.T) {
	var buf bytes.Buffer
	generated := time.Date(2030, 3, 1, 12, 0, 0, 0, time.Local)
	require.NoError(t, WriteStatistics(&buf, testStats, models.DefaultFacilities(), generated))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetName}, f.GetSheetList())

	title, err := f.GetCellValue(SheetName, "A1")
	require.NoError(t, err)
	assert.Equal(t, "Buchungsstatistik (Stand: 01.03.30 12:00)", title)

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, []string{"Jahr", "KW", "Lernecke G", "Lernecke H", "Gesamt"}, rows[1])
	assert.Equal(t, []string{"2018", "10", "0", "7", "7"}, rows[2])
	assert.Equal(t, []string{"2017", "9", "12", "3", "15"}, rows[3])
}

func TestSaveStatistics(t *testing.T) {
	path, err := SaveStatistics(t.TempDir(), testStats, models.DefaultFacilities(), time.Now())
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	v, err := f.GetCellValue(SheetName, "C3")
	require.NoError(t, err)
	assert.Equal(t, "0", v)
}
