package importer

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"smartattend/internal/timetable"
)

// expected header of the first sheet, case-insensitive.
var header = []string{"class", "day", "slot", "room", "week"}

// ParseTimetable reads timetable entries from an .xlsx workbook. The first
// sheet must start with a Class|Day|Slot|Room|Week header row; blank rows are
// skipped.
func ParseTimetable(r io.Reader) ([]timetable.Entry, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %q is empty", sheet)
	}
	if err := checkHeader(rows[0]); err != nil {
		return nil, err
	}

	var entries []timetable.Entry
	for i, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		if len(row) < len(header) {
			return nil, fmt.Errorf("row %d: want %d columns, got %d", i+2, len(header), len(row))
		}
		slot, err := strconv.Atoi(strings.TrimSpace(row[2]))
		if err != nil {
			return nil, fmt.Errorf("row %d: bad slot %q", i+2, row[2])
		}
		entries = append(entries, timetable.Entry{
			ClassID:   strings.ToUpper(strings.TrimSpace(row[0])),
			DayOfWeek: canonicalDay(row[1]),
			SlotID:    slot,
			Room:      strings.TrimSpace(row[3]),
			WeekKey:   strings.TrimSpace(row[4]),
		})
	}
	return entries, nil
}

func checkHeader(row []string) error {
	if len(row) < len(header) {
		return fmt.Errorf("missing header row, want columns %v", header)
	}
	for i, want := range header {
		if !strings.EqualFold(strings.TrimSpace(row[i]), want) {
			return fmt.Errorf("header column %d: want %q, got %q", i+1, want, row[i])
		}
	}
	return nil
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func canonicalDay(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 3 {
		s = strings.ToUpper(s[:1]) + strings.ToLower(s[1:3])
	}
	return s
}
