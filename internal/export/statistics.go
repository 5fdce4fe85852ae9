// Package export renders accumulated statistics as an Excel workbook.
package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"lernecken/internal/models"

	"github.com/xuri/excelize/v2"
)

const SheetName = "Statistik"

type weekKey struct {
	year, week int
}

// WeekRow is one calendar week pivoted over facilities.
type WeekRow struct {
	Year         int
	CalendarWeek int
	Counts       []int
	Total        int
}

// Pivot groups statistics by week, newest first, with one count per facility.
func Pivot(stats []*models.Statistic, facilities []models.Facility) []WeekRow {
	column := make(map[string]int, len(facilities))
	for i, f := range facilities {
		column[f.Code] = i
	}

	rows := make(map[weekKey]*WeekRow)
	for _, s := range stats {
		col, ok := column[s.Facility]
		if !ok {
			continue
		}
		k := weekKey{s.Year, s.CalendarWeek}
		row, ok := rows[k]
		if !ok {
			row = &WeekRow{Year: s.Year, CalendarWeek: s.CalendarWeek, Counts: make([]int, len(facilities))}
			rows[k] = row
		}
		row.Counts[col] += s.Bookings
		row.Total += s.Bookings
	}

	out := make([]WeekRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year > out[j].Year
		}
		return out[i].CalendarWeek > out[j].CalendarWeek
	})
	return out
}

// WriteStatistics writes the workbook to w.
func WriteStatistics(w io.Writer, stats []*models.Statistic, facilities []models.Facility, generated time.Time) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(SheetName)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	_ = f.DeleteSheet("Sheet1")

	lastCol, _ := excelize.ColumnNumberToName(len(facilities) + 3)

	_ = f.SetCellValue(SheetName, "A1", fmt.Sprintf("Buchungsstatistik (Stand: %s)", generated.Format("02.01.06 15:04")))
	_ = f.MergeCell(SheetName, "A1", lastCol+"1")
	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.SetCellStyle(SheetName, "A1", "A1", titleStyle)

	headers := []string{"Jahr", "KW"}
	for _, fac := range facilities {
		headers = append(headers, fac.Name)
	}
	headers = append(headers, "Gesamt")

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		_ = f.SetCellValue(SheetName, cell, h)
		_ = f.SetCellStyle(SheetName, cell, cell, headerStyle)
	}
	_ = f.SetColWidth(SheetName, "A", "B", 8)
	_ = f.SetColWidth(SheetName, "C", lastCol, 16)

	for i, row := range Pivot(stats, facilities) {
		values := []interface{}{row.Year, row.CalendarWeek}
		for _, c := range row.Counts {
			values = append(values, c)
		}
		values = append(values, row.Total)

		cell, _ := excelize.CoordinatesToCellName(1, i+3)
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// SaveStatistics writes the workbook into dir and returns the file path.
func SaveStatistics(dir string, stats []*models.Statistic, facilities []models.Facility, generated time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("statistik_%s.xlsx", generated.Format("20060102_150405")))
	file, err := os.Create(path)
	if err != nil {
		return "", err
	}

	if err := WriteStatistics(file, stats, facilities, generated); err != nil {
		file.Close()
		return "", err
	}
	return path, file.Close()
}
