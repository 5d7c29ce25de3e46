package ingest

import (
	"bytes"
	"fmt"
	"math"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/ledongthuc/pdf"
)

// Kind is the detected format of an upload.
type Kind string

const (
	KindPDF     Kind = "pdf"
	KindXLSX    Kind = "xlsx"
	KindXLS     Kind = "xls"
	KindText    Kind = "text"
	KindUnknown Kind = "unknown"
)

// DetectKind sniffs the content first and falls back to the file extension.
func DetectKind(fileName string, data []byte) Kind {
	mt := mimetype.Detect(data)
	switch {
	case mt.Is("application/pdf"):
		return KindPDF
	case mt.Is("application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"):
		return KindXLSX
	case mt.Is("application/vnd.ms-excel"):
		return KindXLS
	case strings.HasPrefix(mt.String(), "text/"):
		return KindText
	}
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".pdf":
		return KindPDF
	case ".xlsx", ".xlsm":
		return KindXLSX
	case ".xls":
		return KindXLS
	case ".csv", ".txt", ".tsv":
		return KindText
	}
	if len(data) > 0 && utf8.Valid(data) {
		return KindText
	}
	return KindUnknown
}

// Fragment is a positioned piece of text on a PDF page.
type Fragment struct {
	X, Y     float64
	W        float64
	FontSize float64
	S        string
}

const (
	defaultFontSize = 10.0
	// Gaps are measured in multiples of the font size.
	wordGap   = 0.15
	columnGap = 1.2
)

var wideSpaceRe = regexp.MustCompile(`\s{3,}`)

// PDFLines extracts the text of every page as lines.
func PDFLines(data []byte) (lines []string, err error) {
	// The PDF reader panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			lines, err = nil, fmt.Errorf("read pdf: %v", r)
		}
	}()
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	pages := make([][]Fragment, 0, r.NumPage())
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		var frags []Fragment
		for _, t := range page.Content().Text {
			frags = append(frags, Fragment{X: t.X, Y: t.Y, W: t.W, FontSize: t.FontSize, S: t.S})
		}
		pages = append(pages, frags)
	}
	return GroupLines(pages), nil
}

// GroupLines clusters each page's fragments by rounded vertical position,
// orders clusters top to bottom and fragments left to right, and concatenates
// pages in order.
func GroupLines(pages [][]Fragment) []string {
	var lines []string
	for _, frags := range pages {
		byY := make(map[int][]Fragment)
		for _, f := range frags {
			if f.S == "" {
				continue
			}
			y := int(math.Round(f.Y))
			byY[y] = append(byY[y], f)
		}
		ys := make([]int, 0, len(byY))
		for y := range byY {
			ys = append(ys, y)
		}
		// PDF y grows upwards.
		sort.Sort(sort.Reverse(sort.IntSlice(ys)))
		for _, y := range ys {
			row := byY[y]
			sort.SliceStable(row, func(i, j int) bool { return row[i].X < row[j].X })
			if line := joinFragments(row); line != "" {
				lines = append(lines, line)
			}
		}
	}
	return lines
}

func joinFragments(row []Fragment) string {
	var b strings.Builder
	for i, f := range row {
		if i > 0 {
			prev := row[i-1]
			size := prev.FontSize
			if size <= 0 {
				size = defaultFontSize
			}
			width := prev.W
			if width <= 0 {
				width = float64(utf8.RuneCountInString(prev.S)) * size * 0.5
			}
			gap := f.X - (prev.X + width)
			switch {
			case gap >= columnGap*size:
				b.WriteString("  ")
			case gap >= wordGap*size:
				b.WriteString(" ")
			}
		}
		b.WriteString(f.S)
	}
	return strings.TrimSpace(wideSpaceRe.ReplaceAllString(b.String(), "  "))
}

// TextLines splits CSV or plain text into trimmed, non-empty lines.
func TextLines(data []byte) []string {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	var lines []string
	for _, line := range strings.Split(string(data), "\n") {
		if line = strings.TrimSpace(strings.TrimSuffix(line, "\r")); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
