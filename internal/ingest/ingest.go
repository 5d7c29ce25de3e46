// Package ingest turns uploaded attendance exports (PDF reports, spreadsheets,
// CSV or plain text) into per-student attendance entries.
//
// Everything here is free of storage concerns: class lookups are injected
// through a Resolver, and the result is a list of groups ready to be merged
// into attendance documents.
package ingest

import (
	"context"
	"fmt"
)

// Input is a single uploaded file.
type Input struct {
	FileName string
	Data     []byte
}

// Parsed is the outcome of running the pipeline over one file.
type Parsed struct {
	Kind     Kind         `json:"kind"`
	Strategy string       `json:"strategy,omitempty"`
	Rows     []Row        `json:"rows"`
	Groups   []Group      `json:"-"`
	Dropped  []Diagnostic `json:"dropped,omitempty"`
}

// Lines extracts line-oriented text from PDF and text uploads.
func Lines(kind Kind, data []byte) ([]string, error) {
	switch kind {
	case KindPDF:
		return PDFLines(data)
	case KindText:
		return TextLines(data), nil
	default:
		return nil, fmt.Errorf("no text extractor for %s", kind)
	}
}

// Extract detects the file kind and runs the matching extraction. Unreadable
// files produce an empty outcome carrying a diagnostic rather than an error.
func Extract(in Input) (Kind, Outcome) {
	kind := DetectKind(in.FileName, in.Data)
	switch kind {
	case KindXLSX, KindXLS:
		records, err := SheetRows(kind, in.Data)
		if err != nil {
			return kind, unreadable(StrategySpreadsheet, err)
		}
		return kind, SheetRecords(records)
	default:
		lines, err := Lines(kind, in.Data)
		if err != nil {
			return kind, unreadable("", err)
		}
		return kind, ExtractLines(lines)
	}
}

func unreadable(strategy string, err error) Outcome {
	return Outcome{
		Strategy: strategy,
		Dropped:  []Diagnostic{{Text: err.Error(), Reason: ReasonUnreadable}},
	}
}

// Parse extracts rows from the input, resolves missing classes and groups the
// result by attendance document. Only lookup failures are returned as errors;
// rows that cannot be used are reported in Dropped.
func Parse(ctx context.Context, in Input, resolver Resolver) (Parsed, error) {
	kind, outcome := Extract(in)
	parsed := Parsed{Kind: kind, Strategy: outcome.Strategy, Dropped: outcome.Dropped}

	rows := make([]Row, 0, len(outcome.Rows))
	for _, row := range outcome.Rows {
		if row.Class == "" {
			class, found := "", false
			if resolver != nil {
				var err error
				class, found, err = resolver.Resolve(ctx, row.Name)
				if err != nil {
					return Parsed{}, err
				}
			}
			if !found {
				parsed.Dropped = append(parsed.Dropped, Diagnostic{
					Line:   row.Line,
					Text:   row.Name,
					Reason: ReasonUnresolvedClass,
				})
				continue
			}
			row.Class = class
		}
		rows = append(rows, row)
	}
	parsed.Rows = rows
	parsed.Groups = GroupRows(rows)
	return parsed, nil
}
