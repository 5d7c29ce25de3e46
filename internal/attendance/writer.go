package attendance

import (
	"context"
	"fmt"

	"schoolattend/internal/ingest"
	"schoolattend/internal/model"
)

const (
	// LookupChunk is the most document IDs a single "in" query may carry.
	LookupChunk = 10
	// BatchLimit keeps each write batch below the 500 operation ceiling.
	BatchLimit = 450
)

// DocStore is the storage the writer merges into.
type DocStore interface {
	// AttendanceDocs returns the existing documents among ids; it is called
	// with at most LookupChunk ids.
	AttendanceDocs(ctx context.Context, ids []string) (map[string]model.AttendanceDoc, error)
	// CommitAttendance applies one batch of writes atomically.
	CommitAttendance(ctx context.Context, writes []model.AttendanceWrite) error
}

// WriteResult counts what a merge committed.
type WriteResult struct {
	Documents int `json:"documents"`
	Entries   int `json:"entries"`
	Batches   int `json:"batches"`
}

// Writer merges grouped entries into attendance documents.
type Writer struct {
	store     DocStore
	chunk     int
	batchSize int
	onBatch   func(entries int)
}

// NewWriter creates a writer with the default chunk and batch limits.
func NewWriter(store DocStore) *Writer {
	return &Writer{store: store, chunk: LookupChunk, batchSize: BatchLimit}
}

// OnBatch registers a callback run after each committed batch.
func (w *Writer) OnBatch(fn func(entries int)) { w.onBatch = fn }

// Write appends every day not yet present in the target documents. Batches are
// committed one after another; when a batch fails the counts of the batches
// already committed are returned alongside the error.
func (w *Writer) Write(ctx context.Context, groups []ingest.Group) (WriteResult, error) {
	var res WriteResult
	if len(groups) == 0 {
		return res, nil
	}

	existing, err := w.existing(ctx, groups)
	if err != nil {
		return res, err
	}

	var writes []model.AttendanceWrite
	for _, g := range groups {
		doc, found := existing[g.Key]
		present := doc.Days()
		var fresh []model.AttendanceRecord
		for _, rec := range g.Records {
			if _, ok := present[rec.DayAndDate]; ok {
				continue
			}
			present[rec.DayAndDate] = struct{}{}
			fresh = append(fresh, rec)
		}
		if len(fresh) == 0 {
			continue
		}
		writes = append(writes, model.AttendanceWrite{
			ID:      g.Key,
			Name:    g.Name,
			Class:   g.Class,
			Create:  !found,
			Entries: fresh,
		})
	}

	for start := 0; start < len(writes); start += w.batchSize {
		end := min(start+w.batchSize, len(writes))
		batch := writes[start:end]
		if err := w.store.CommitAttendance(ctx, batch); err != nil {
			return res, fmt.Errorf("commit batch %d: %w", res.Batches+1, err)
		}
		entries := 0
		for _, wr := range batch {
			entries += len(wr.Entries)
		}
		res.Batches++
		res.Documents += len(batch)
		res.Entries += entries
		if w.onBatch != nil {
			w.onBatch(entries)
		}
	}
	return res, nil
}

func (w *Writer) existing(ctx context.Context, groups []ingest.Group) (map[string]model.AttendanceDoc, error) {
	ids := make([]string, 0, len(groups))
	seen := make(map[string]struct{}, len(groups))
	for _, g := range groups {
		if _, ok := seen[g.Key]; ok {
			continue
		}
		seen[g.Key] = struct{}{}
		ids = append(ids, g.Key)
	}
	out := make(map[string]model.AttendanceDoc, len(ids))
	for start := 0; start < len(ids); start += w.chunk {
		end := min(start+w.chunk, len(ids))
		docs, err := w.store.AttendanceDocs(ctx, ids[start:end])
		if err != nil {
			return nil, fmt.Errorf("read existing attendance: %w", err)
		}
		for id, doc := range docs {
			out[id] = doc
		}
	}
	return out, nil
}
