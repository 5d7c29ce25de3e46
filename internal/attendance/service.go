package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"schoolattend/internal/ingest"
	"schoolattend/internal/metrics"
	"schoolattend/internal/model"
)

// ErrNoRows is returned when an upload yields nothing that can be written.
var ErrNoRows = errors.New("could not parse any rows")

// Store is everything the attendance service needs from the backend.
type Store interface {
	DocStore
	UserClass(ctx context.Context, name string) (string, bool, error)
	AttendanceClass(ctx context.Context, name string) (string, bool, error)
	AttendanceDoc(ctx context.Context, id string) (model.AttendanceDoc, error)
	ListAttendance(ctx context.Context, class string) ([]model.AttendanceDoc, error)
}

// Report describes the outcome of one upload.
type Report struct {
	FileName   string              `json:"fileName"`
	Kind       ingest.Kind         `json:"kind"`
	Strategy   string              `json:"strategy,omitempty"`
	ParsedRows int                 `json:"parsedRows"`
	Updated    int                 `json:"updated"`
	Documents  int                 `json:"documents"`
	Batches    int                 `json:"batches"`
	Dropped    []ingest.Diagnostic `json:"dropped,omitempty"`
}

// Summary is a read-side view of one attendance document.
type Summary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Class       string `json:"Class"`
	PresentDays int    `json:"presentDays"`
	FirstDay    string `json:"firstDay,omitempty"`
	LastDay     string `json:"lastDay,omitempty"`
}

// Service coordinates parsing uploads and merging them into storage.
type Service struct {
	store  Store
	writer *Writer
	log    *slog.Logger
}

// NewService creates a service backed by a store.
func NewService(store Store, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	w := NewWriter(store)
	w.OnBatch(func(entries int) {
		metrics.BatchesCommitted.Inc()
		metrics.EntriesWritten.Add(float64(entries))
	})
	return &Service{store: store, writer: w, log: log}
}

// Parse runs the extraction pipeline without writing anything.
func (s *Service) Parse(ctx context.Context, fileName string, data []byte) (ingest.Parsed, error) {
	resolver := ingest.NewClassResolver(s.store.UserClass, s.store.AttendanceClass)
	parsed, err := ingest.Parse(ctx, ingest.Input{FileName: fileName, Data: data}, resolver)
	if err != nil {
		return ingest.Parsed{}, fmt.Errorf("resolve classes: %w", err)
	}
	return parsed, nil
}

// Ingest parses an uploaded file and merges its rows into attendance
// documents. ErrNoRows is returned, with the diagnostics in the report, when
// nothing usable was found. On a write failure the report reflects the
// batches that were committed before it.
func (s *Service) Ingest(ctx context.Context, fileName string, data []byte) (Report, error) {
	start := time.Now()
	defer func() { metrics.IngestDuration.Observe(time.Since(start).Seconds()) }()

	parsed, err := s.Parse(ctx, fileName, data)
	if err != nil {
		return Report{FileName: fileName}, err
	}
	rep := Report{
		FileName:   fileName,
		Kind:       parsed.Kind,
		Strategy:   parsed.Strategy,
		ParsedRows: len(parsed.Rows),
		Dropped:    parsed.Dropped,
	}
	metrics.RowsParsed.WithLabelValues(labelOr(parsed.Strategy, "none")).Add(float64(len(parsed.Rows)))
	for _, d := range parsed.Dropped {
		metrics.RowsDropped.WithLabelValues(string(d.Reason)).Inc()
	}
	if len(parsed.Rows) == 0 {
		s.log.Info("upload yielded no rows", "file", fileName, "kind", parsed.Kind, "dropped", len(parsed.Dropped))
		return rep, ErrNoRows
	}

	res, err := s.writer.Write(ctx, parsed.Groups)
	rep.Updated = res.Entries
	rep.Documents = res.Documents
	rep.Batches = res.Batches
	if err != nil {
		s.log.Error("attendance write failed", "file", fileName, "committed_batches", res.Batches, "error", err)
		return rep, err
	}
	s.log.Info("attendance ingested",
		"file", fileName,
		"kind", parsed.Kind,
		"strategy", parsed.Strategy,
		"parsed", rep.ParsedRows,
		"dropped", len(rep.Dropped),
		"updated", rep.Updated,
		"documents", rep.Documents,
	)
	return rep, nil
}

func labelOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

// Document returns a single attendance document with its days in date order.
func (s *Service) Document(ctx context.Context, id string) (model.AttendanceDoc, error) {
	doc, err := s.store.AttendanceDoc(ctx, id)
	if err != nil {
		return model.AttendanceDoc{}, err
	}
	sort.SliceStable(doc.Attendance, func(i, j int) bool {
		return doc.Attendance[i].DayAndDate < doc.Attendance[j].DayAndDate
	})
	return doc, nil
}

// List summarises the attendance documents of a class, or of every class
// when class is empty.
func (s *Service) List(ctx context.Context, class string) ([]Summary, error) {
	docs, err := s.store.ListAttendance(ctx, class)
	if err != nil {
		return nil, err
	}
	out := make([]Summary, 0, len(docs))
	for _, doc := range docs {
		out = append(out, summarize(doc))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func summarize(doc model.AttendanceDoc) Summary {
	sum := Summary{ID: doc.ID, Name: doc.Name, Class: doc.Class}
	days := doc.Days()
	sum.PresentDays = len(days)
	for day := range days {
		if sum.FirstDay == "" || day < sum.FirstDay {
			sum.FirstDay = day
		}
		if day > sum.LastDay {
			sum.LastDay = day
		}
	}
	return sum
}
