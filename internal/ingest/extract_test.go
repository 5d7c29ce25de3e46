package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func glyphs(s string, x, y, size float64) []Fragment {
	var out []Fragment
	for _, r := range s {
		out = append(out, Fragment{X: x, Y: y, W: size * 0.5, FontSize: size, S: string(r)})
		x += size * 0.5
	}
	return out
}

func TestGroupLines(t *testing.T) {
	var page1 []Fragment
	// Out of order on purpose: lower line first, right column before left.
	page1 = append(page1, glyphs("9:05", 100, 680.2, 10)...)
	page1 = append(page1, glyphs("01/08/2025", 20, 679.8, 10)...)
	page1 = append(page1, glyphs("Name:", 20, 700, 10)...)
	page1 = append(page1, glyphs("Asha", 48, 700, 10)...)
	page1 = append(page1, Fragment{X: 10, Y: 720, S: ""})

	page2 := glyphs("Total", 20, 700, 10)

	lines := GroupLines([][]Fragment{page1, page2})
	require.Equal(t, []string{
		"Name: Asha",
		"01/08/2025  9:05",
		"Total",
	}, lines)
}

func TestGroupLinesWithoutWidths(t *testing.T) {
	row := []Fragment{
		{X: 10, Y: 100, S: "Asha"},
		{X: 200, Y: 100, S: "9A"},
	}
	assert.Equal(t, []string{"Asha  9A"}, GroupLines([][]Fragment{row}))
}

func TestTextLines(t *testing.T) {
	data := []byte("\xef\xbb\xbfname,class\r\n\r\n  Asha,9A  \nRahul,9B")
	assert.Equal(t, []string{"name,class", "Asha,9A", "Rahul,9B"}, TextLines(data))
}

func TestDetectKind(t *testing.T) {
	assert.Equal(t, KindPDF, DetectKind("report.bin", []byte("%PDF-1.4\n%âãÏÓ\n1 0 obj\n")))
	assert.Equal(t, KindText, DetectKind("rows.csv", []byte("name,class,in,out,date\nAsha,9A,9:05,15:00,2024-03-15\n")))
	assert.Equal(t, KindXLSX, DetectKind("sheet.xlsx", xlsxFixture(t)))
	assert.Equal(t, KindUnknown, DetectKind("blob", []byte{0x13, 0x37, 0x00, 0xff, 0x80}))
}

func TestPDFLinesRejectsGarbage(t *testing.T) {
	lines, err := PDFLines([]byte("definitely not a pdf"))
	assert.Error(t, err)
	assert.Empty(t, lines)
}

func xlsxFixture(t *testing.T) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	sheet := f.GetSheetName(0)
	rows := [][]any{
		{"Student Name", "Class", "Clock In", "Clock Out", "Date"},
		{"Asha Verma", "9A", 0.375, "3:10 PM", 45366},
		{"Rahul Singh", "", "08:55", "15:05", "16/03/2024"},
		{"", "9A", "08:55", "15:05", "16/03/2024"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestSheetRowsAndRecords(t *testing.T) {
	records, err := SheetRows(KindXLSX, xlsxFixture(t))
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "Asha Verma", records[0]["student name"])

	out := SheetRecords(records)
	require.Len(t, out.Rows, 2)
	assert.Equal(t, Row{Name: "Asha Verma", Class: "9A", ClockIn: "9:00", ClockOut: "3:10 PM", DayAndDate: "2024-03-15", Line: 2}, out.Rows[0])
	assert.Equal(t, Row{Name: "Rahul Singh", ClockIn: "08:55", ClockOut: "15:05", DayAndDate: "2024-03-16", Line: 3}, out.Rows[1])
	require.Len(t, out.Dropped, 1)
	assert.Equal(t, ReasonMissingName, out.Dropped[0].Reason)
	assert.Equal(t, 4, out.Dropped[0].Line)
}
