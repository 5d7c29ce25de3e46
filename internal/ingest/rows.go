package ingest

// Row is one attendance line pulled out of an uploaded file.
type Row struct {
	Name       string `json:"name"`
	Class      string `json:"Class"`
	ClockIn    string `json:"clockIn"`
	ClockOut   string `json:"clockOut"`
	DayAndDate string `json:"dayAndDate"`

	// Line is the 1-based source line (or spreadsheet row) the row came from.
	Line int `json:"line,omitempty"`
}

// Reason explains why a line did not become a row.
type Reason string

const (
	ReasonMissingName     Reason = "missing_name"
	ReasonMissingDate     Reason = "missing_date"
	ReasonMissingTime     Reason = "missing_time"
	ReasonUnresolvedClass Reason = "unresolved_class"
	ReasonUnreadable      Reason = "unreadable_file"
)

// Diagnostic records a dropped line.
type Diagnostic struct {
	Line   int    `json:"line,omitempty"`
	Text   string `json:"text"`
	Reason Reason `json:"reason"`
}

// Outcome is what a single extraction strategy produced.
type Outcome struct {
	Strategy string
	Rows     []Row
	Dropped  []Diagnostic
}

// Matched reports whether the strategy recognised at least one row.
func (o Outcome) Matched() bool { return len(o.Rows) > 0 }

func (o *Outcome) drop(line int, text string, reason Reason) {
	o.Dropped = append(o.Dropped, Diagnostic{Line: line, Text: text, Reason: reason})
}

type rowKey struct {
	name, class, day string
}

func keyOf(r Row) rowKey { return rowKey{r.Name, r.Class, r.DayAndDate} }
