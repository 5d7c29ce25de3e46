package ingest

import (
	"encoding/csv"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"schoolattend/internal/model"
)

// Strategy interprets line-oriented text as attendance rows.
type Strategy struct {
	Name    string
	Extract func(lines []string) Outcome
}

// Strategy names, also used as metric labels.
const (
	StrategyMonthlyTable   = "monthly-table"
	StrategyComma          = "comma"
	StrategyHeaderTable    = "header-table"
	StrategyMonthlySummary = "monthly-summary"
	StrategyYearlySummary  = "yearly-summary"
	StrategySpreadsheet    = "spreadsheet"
	StrategyPooled         = "pooled"
)

// commaColumns is the field count of a name, class, in, out, date line.
const commaColumns = 5

// trailingDurations is the number of Work+OT, OT and Break columns that close
// each dated line of the per-student monthly report.
const trailingDurations = 3

var (
	nameLabelRe   = regexp.MustCompile(`(?i)\b(?:student\s+|employee\s+)?name\s*:\s*(.+)$`)
	nameStopRe    = regexp.MustCompile(`(?i)\s+(?:emp(?:loyee)?\.?\s*(?:code|id|no)|id|roll\s*no|code|class|dept|department|designation|month|period)\s*[:.\-]`)
	datedLineRe   = regexp.MustCompile(`^\s*(\d{1,2}/\d{1,2}/\d{4})\b(.*)$`)
	timeTokenRe   = regexp.MustCompile(`\b(\d{1,2}:\d{2})(?::\d{2})?\b`)
	nameHeaderRe  = regexp.MustCompile(`(?i)name|student`)
	classHeaderRe = regexp.MustCompile(`(?i)class`)
	columnSplitRe = regexp.MustCompile(`\s*\|\s*|\t+|\s{2,}`)
	meridiemRe    = regexp.MustCompile(`(?i)^[ap]\.?m\.?$`)

	monthlySummaryRe = regexp.MustCompile(`(?i)^\s*(.+?)\s*,\s*class\s*:\s*(.+?)\s*,\s*month\s*:\s*(\d{4})-(\d{1,2})\s*,\s*days\s*:\s*(\d+)\s*$`)
	yearlySummaryRe  = regexp.MustCompile(`(?i)^\s*(.+?)\s*,\s*class\s*:\s*(.+?)\s*,\s*year\s*:\s*(\d{4})\s*,\s*days\s*:\s*(\d+)\s*$`)
)

// MonthlyTable reads per-student monthly reports: a "Name:" label sets the
// current student and every line starting with DD/MM/YYYY becomes one row.
// Class is left blank for later resolution.
func MonthlyTable(lines []string) Outcome {
	out := Outcome{Strategy: StrategyMonthlyTable}
	current := ""
	for i, line := range lines {
		if m := datedLineRe.FindStringSubmatch(line); m != nil {
			if current == "" {
				out.drop(i+1, line, ReasonMissingName)
				continue
			}
			day := ToISODate(m[1])
			if day == "" {
				out.drop(i+1, line, ReasonMissingDate)
				continue
			}
			in, outTime, ok := clockPair(timeTokens(m[2]))
			if !ok {
				out.drop(i+1, line, ReasonMissingTime)
				continue
			}
			out.Rows = append(out.Rows, Row{
				Name:       current,
				ClockIn:    in,
				ClockOut:   outTime,
				DayAndDate: day,
				Line:       i + 1,
			})
			continue
		}
		if m := nameLabelRe.FindStringSubmatch(line); m != nil {
			if name := cutName(m[1]); name != "" {
				current = name
			}
		}
	}
	return out
}

func timeTokens(s string) []string {
	var tokens []string
	for _, m := range timeTokenRe.FindAllStringSubmatch(s, -1) {
		tokens = append(tokens, m[1])
	}
	return tokens
}

// clockPair drops the trailing duration columns, never eating into the leading
// in/out pair, and returns the first and last remaining readings.
func clockPair(tokens []string) (in, out string, ok bool) {
	switch len(tokens) {
	case 0:
		return "", "", false
	case 1:
		return tokens[0], model.NoTime, true
	}
	keep := len(tokens) - trailingDurations
	if keep < 2 {
		keep = 2
	}
	usable := tokens[:keep]
	return usable[0], usable[len(usable)-1], true
}

func cutName(s string) string {
	if loc := nameStopRe.FindStringIndex(s); loc != nil {
		s = s[:loc[0]]
	}
	if idx := strings.Index(s, "  "); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

// Comma reads lines with at least five comma-separated fields as
// name, class, clock-in, clock-out, date.
func Comma(lines []string) Outcome {
	out := Outcome{Strategy: StrategyComma}
	for i, line := range lines {
		fields := commaFields(line)
		if len(fields) < commaColumns {
			continue
		}
		if isHeaderLine(line) && ToISODate(fields[4]) == "" {
			continue
		}
		row := Row{
			Name:       fields[0],
			Class:      fields[1],
			ClockIn:    fields[2],
			ClockOut:   fields[3],
			DayAndDate: ToISODate(fields[4]),
			Line:       i + 1,
		}
		switch {
		case row.Name == "":
			out.drop(i+1, line, ReasonMissingName)
		case row.DayAndDate == "":
			out.drop(i+1, line, ReasonMissingDate)
		default:
			out.Rows = append(out.Rows, row)
		}
	}
	return out
}

// commaFields reads one comma-delimited record, keeping quoted commas inside
// their field. Lines without a comma yield nil.
func commaFields(line string) []string {
	if !strings.Contains(line, ",") {
		return nil
	}
	r := csv.NewReader(strings.NewReader(line))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	r.LazyQuotes = true
	fields, err := r.Read()
	if err != nil {
		fields = strings.Split(line, ",")
	}
	for j := range fields {
		fields[j] = strings.TrimSpace(fields[j])
	}
	return fields
}

func isHeaderLine(line string) bool {
	return nameHeaderRe.MatchString(line) && classHeaderRe.MatchString(line)
}

// HeaderTable finds a header line naming the student and class columns and
// reads every following line cell by cell. Lines with a full comma record are
// left to Comma.
func HeaderTable(lines []string) Outcome {
	out := Outcome{Strategy: StrategyHeaderTable}
	start := -1
	for i, line := range lines {
		if isHeaderLine(line) {
			start = i + 1
			break
		}
	}
	if start < 0 {
		return out
	}
	for i := start; i < len(lines); i++ {
		if len(commaFields(lines[i])) >= commaColumns {
			continue
		}
		cells := splitCells(lines[i])
		if len(cells) == 0 {
			continue
		}
		var (
			day    string
			times  []string
			others []string
		)
		for _, cell := range cells {
			switch {
			case day == "" && ToISODate(cell) != "":
				day = ToISODate(cell)
			case isTime(cell):
				if len(times) < 2 {
					times = append(times, cell)
				}
			default:
				if len(others) < 2 {
					others = append(others, cell)
				}
			}
		}
		row := Row{DayAndDate: day, Line: i + 1}
		if len(others) > 0 {
			row.Name = others[0]
		}
		if len(others) > 1 {
			row.Class = others[1]
		}
		if len(times) > 0 {
			row.ClockIn = times[0]
		}
		if len(times) > 1 {
			row.ClockOut = times[1]
		}
		switch {
		case row.Name == "":
			out.drop(i+1, lines[i], ReasonMissingName)
		case row.DayAndDate == "":
			out.drop(i+1, lines[i], ReasonMissingDate)
		default:
			out.Rows = append(out.Rows, row)
		}
	}
	return out
}

// splitCells splits on commas or column breaks, falling back to single spaces
// for lines that lost their column spacing. A trailing AM/PM stays with its time.
func splitCells(line string) []string {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	cells := commaFields(line)
	if len(cells) < 3 {
		cells = columnSplitRe.Split(line, -1)
	}
	if len(cells) < 3 {
		cells = strings.FieldsFunc(line, func(r rune) bool { return r == '|' || unicode.IsSpace(r) })
		cells = mergeMeridiem(cells)
	}
	kept := cells[:0]
	for _, c := range cells {
		if c = strings.TrimSpace(c); c != "" {
			kept = append(kept, c)
		}
	}
	return kept
}

func mergeMeridiem(tokens []string) []string {
	merged := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if n := len(merged); n > 0 && meridiemRe.MatchString(tok) && clockTimeRe.MatchString(merged[n-1]) {
			merged[n-1] += " " + tok
			continue
		}
		merged = append(merged, tok)
	}
	return merged
}

// MonthlySummary expands "Name, Class: X, Month: YYYY-MM, Days: N" into N
// present days starting on the first of the month.
func MonthlySummary(lines []string) Outcome {
	out := Outcome{Strategy: StrategyMonthlySummary}
	for i, line := range lines {
		m := monthlySummaryRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		year, _ := strconv.Atoi(m[3])
		month, _ := strconv.Atoi(m[4])
		days, _ := strconv.Atoi(m[5])
		if month < 1 || month > 12 {
			out.drop(i+1, line, ReasonMissingDate)
			continue
		}
		first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
		if last := first.AddDate(0, 1, -1).Day(); days > last {
			days = last
		}
		out.Rows = append(out.Rows, presentDays(m[1], m[2], first, days, i+1)...)
	}
	return out
}

// YearlySummary expands "Name, Class: X, Year: YYYY, Days: N" into N
// consecutive present days starting on January 1.
func YearlySummary(lines []string) Outcome {
	out := Outcome{Strategy: StrategyYearlySummary}
	for i, line := range lines {
		m := yearlySummaryRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		year, _ := strconv.Atoi(m[3])
		days, _ := strconv.Atoi(m[4])
		first := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
		if last := first.AddDate(1, 0, -1).YearDay(); days > last {
			days = last
		}
		out.Rows = append(out.Rows, presentDays(m[1], m[2], first, days, i+1)...)
	}
	return out
}

func presentDays(name, class string, first time.Time, n, line int) []Row {
	rows := make([]Row, 0, n)
	for d := 0; d < n; d++ {
		rows = append(rows, Row{
			Name:       strings.TrimSpace(name),
			Class:      strings.TrimSpace(class),
			ClockIn:    model.NoTime,
			ClockOut:   model.NoTime,
			DayAndDate: first.AddDate(0, 0, d).Format(isoLayout),
			Line:       line,
		})
	}
	return rows
}

// GenericStrategies are pooled when the monthly table finds nothing.
var GenericStrategies = []Strategy{
	{Name: StrategyComma, Extract: Comma},
	{Name: StrategyHeaderTable, Extract: HeaderTable},
	{Name: StrategyMonthlySummary, Extract: MonthlySummary},
	{Name: StrategyYearlySummary, Extract: YearlySummary},
}

// ExtractLines runs the monthly table alone and, when it matches nothing,
// pools the generic strategies, keeping the first row per (name, class, day).
func ExtractLines(lines []string) Outcome {
	if monthly := MonthlyTable(lines); monthly.Matched() {
		return monthly
	}
	return Pool(lines, GenericStrategies...)
}

// Pool runs every strategy and merges their rows. Diagnostics for lines some
// strategy turned into a row are discarded.
func Pool(lines []string, strategies ...Strategy) Outcome {
	out := Outcome{Strategy: StrategyPooled}
	seen := make(map[rowKey]struct{})
	matchedLines := make(map[int]struct{})
	var dropped []Diagnostic
	for _, s := range strategies {
		res := s.Extract(lines)
		for _, row := range res.Rows {
			matchedLines[row.Line] = struct{}{}
			k := keyOf(row)
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			out.Rows = append(out.Rows, row)
		}
		dropped = append(dropped, res.Dropped...)
	}
	reported := make(map[int]struct{})
	for _, d := range dropped {
		if _, ok := matchedLines[d.Line]; ok {
			continue
		}
		if _, ok := reported[d.Line]; ok {
			continue
		}
		reported[d.Line] = struct{}{}
		out.Dropped = append(out.Dropped, d)
	}
	return out
}
