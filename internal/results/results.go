// Package results records exam marks and ranks students by them.
package results

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"schoolattend/internal/model"
)

// ErrInvalidResult is returned for incomplete or out-of-range marks.
var ErrInvalidResult = errors.New("invalid result")

// Store is the subset of the backend results need.
type Store interface {
	InsertResult(ctx context.Context, r model.Result) (model.Result, error)
	ListResults(ctx context.Context, class string) ([]model.Result, error)
}

// Standing is one row of a leaderboard.
type Standing struct {
	Rank       int     `json:"rank"`
	Name       string  `json:"name"`
	Class      string  `json:"Class"`
	Marks      float64 `json:"marks"`
	MaxMarks   float64 `json:"maxMarks"`
	Percentage float64 `json:"percentage"`
	Subjects   int     `json:"subjects"`
}

// Leaderboard totals each student's marks and ranks them by percentage,
// highest first. Equal percentages share a rank and the next rank skips
// accordingly (1, 1, 3). Ties are listed by name. An empty class ranks
// everyone together.
func Leaderboard(results []model.Result, class string) []Standing {
	type key struct{ name, class string }
	totals := make(map[key]*Standing)
	var order []key
	for _, r := range results {
		if class != "" && r.Class != class {
			continue
		}
		k := key{r.Name, r.Class}
		s, ok := totals[k]
		if !ok {
			s = &Standing{Name: r.Name, Class: r.Class}
			totals[k] = s
			order = append(order, k)
		}
		s.Marks += r.Marks
		s.MaxMarks += r.MaxMarks
		s.Subjects++
	}

	out := make([]Standing, 0, len(order))
	for _, k := range order {
		s := totals[k]
		if s.MaxMarks > 0 {
			s.Percentage = math.Round(s.Marks/s.MaxMarks*10000) / 100
		}
		out = append(out, *s)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Percentage != out[j].Percentage {
			return out[i].Percentage > out[j].Percentage
		}
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Class < out[j].Class
	})
	for i := range out {
		if i > 0 && out[i].Percentage == out[i-1].Percentage {
			out[i].Rank = out[i-1].Rank
		} else {
			out[i].Rank = i + 1
		}
	}
	return out
}

// Service records results and serves leaderboards.
type Service struct {
	store Store
}

// NewService creates a results service.
func NewService(s Store) *Service {
	return &Service{store: s}
}

// Record validates and stores a result.
func (s *Service) Record(ctx context.Context, r model.Result) (model.Result, error) {
	r.Name = strings.TrimSpace(r.Name)
	r.Class = strings.TrimSpace(r.Class)
	r.Subject = strings.TrimSpace(r.Subject)
	switch {
	case r.Name == "" || r.Class == "" || r.Subject == "":
		return model.Result{}, fmt.Errorf("%w: name, class and subject are required", ErrInvalidResult)
	case r.MaxMarks <= 0:
		return model.Result{}, fmt.Errorf("%w: maxMarks must be positive", ErrInvalidResult)
	case r.Marks < 0 || r.Marks > r.MaxMarks:
		return model.Result{}, fmt.Errorf("%w: marks must be between 0 and maxMarks", ErrInvalidResult)
	}
	return s.store.InsertResult(ctx, r)
}

// Leaderboard ranks the results of a class.
func (s *Service) Leaderboard(ctx context.Context, class string) ([]Standing, error) {
	rs, err := s.store.ListResults(ctx, class)
	if err != nil {
		return nil, err
	}
	return Leaderboard(rs, class), nil
}
