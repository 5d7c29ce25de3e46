package ingest

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

const maxSheetRows = 100000

// Column aliases, compared after lowercasing and removing spaces, dashes and underscores.
var (
	nameColumns  = []string{"name", "student", "studentname", "fullname"}
	classColumns = []string{"class", "classname", "grade", "section"}
	inColumns    = []string{"clockin", "in", "intime", "timein", "checkin"}
	outColumns   = []string{"clockout", "out", "outtime", "timeout", "checkout"}
	dateColumns  = []string{"dayanddate", "date", "day", "attendancedate"}
)

// SheetRows reads the first worksheet into records keyed by the trimmed,
// lowercased header of each column.
func SheetRows(kind Kind, data []byte) ([]map[string]string, error) {
	var (
		grid [][]string
		err  error
	)
	switch kind {
	case KindXLS:
		grid, err = xlsGrid(data)
	case KindXLSX:
		grid, err = xlsxGrid(data)
	default:
		return nil, fmt.Errorf("not a spreadsheet: %s", kind)
	}
	if err != nil {
		return nil, err
	}
	return recordsFromGrid(grid), nil
}

func xlsxGrid(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, errors.New("no worksheet found")
	}
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read xlsx rows: %w", err)
	}
	return rows, nil
}

func xlsGrid(data []byte) ([][]string, error) {
	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("open xls: %w", err)
	}
	if wb.NumSheets() == 0 {
		return nil, errors.New("no worksheet found")
	}
	return wb.ReadAllCells(maxSheetRows), nil
}

func recordsFromGrid(grid [][]string) []map[string]string {
	header := -1
	for i, row := range grid {
		if !blankRow(row) {
			header = i
			break
		}
	}
	if header < 0 {
		return nil
	}
	keys := make([]string, len(grid[header]))
	for i, h := range grid[header] {
		keys[i] = strings.ToLower(strings.TrimSpace(h))
	}
	var records []map[string]string
	for _, row := range grid[header+1:] {
		if blankRow(row) {
			continue
		}
		rec := make(map[string]string, len(keys))
		for i, key := range keys {
			if key == "" || i >= len(row) {
				continue
			}
			rec[key] = strings.TrimSpace(row[i])
		}
		records = append(records, rec)
	}
	return records
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// SheetRecords maps spreadsheet records to rows. Record i is reported as line i+2,
// the header being line 1.
func SheetRecords(records []map[string]string) Outcome {
	out := Outcome{Strategy: StrategySpreadsheet}
	for i, rec := range records {
		cols := compactKeys(rec)
		row := Row{
			Name:       pick(cols, nameColumns),
			Class:      pick(cols, classColumns),
			ClockIn:    sheetClock(pick(cols, inColumns)),
			ClockOut:   sheetClock(pick(cols, outColumns)),
			DayAndDate: sheetDate(pick(cols, dateColumns)),
			Line:       i + 2,
		}
		switch {
		case row.Name == "":
			out.drop(row.Line, describe(rec), ReasonMissingName)
		case row.DayAndDate == "":
			out.drop(row.Line, describe(rec), ReasonMissingDate)
		default:
			out.Rows = append(out.Rows, row)
		}
	}
	return out
}

func compactKeys(rec map[string]string) map[string]string {
	out := make(map[string]string, len(rec))
	r := strings.NewReplacer(" ", "", "-", "", "_", "")
	for k, v := range rec {
		out[r.Replace(k)] = v
	}
	return out
}

func pick(cols map[string]string, aliases []string) string {
	for _, a := range aliases {
		if v, ok := cols[a]; ok && v != "" {
			return v
		}
	}
	return ""
}

func describe(rec map[string]string) string {
	parts := make([]string, 0, len(rec))
	for k, v := range rec {
		parts = append(parts, k+"="+v)
	}
	sort.Strings(parts)
	return strings.Join(parts, ", ")
}

// sheetDate handles raw serial numbers as well as textual dates.
func sheetDate(v string) string {
	if serial, err := strconv.ParseFloat(v, 64); err == nil {
		return SerialToISODate(serial)
	}
	return ToISODate(v)
}

// sheetClock turns a raw day fraction into H:MM; anything else is kept.
func sheetClock(v string) string {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 || f >= 1 {
		return v
	}
	total := int(math.Round(f * 24 * 60))
	return fmt.Sprintf("%d:%02d", (total/60)%24, total%60)
}

// SerialToISODate converts a spreadsheet serial day number to YYYY-MM-DD.
func SerialToISODate(serial float64) string {
	if serial < 1 {
		return ""
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return ""
	}
	return t.Format(isoLayout)
}
