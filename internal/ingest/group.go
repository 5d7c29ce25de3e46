package ingest

import (
	"strings"

	"schoolattend/internal/model"
)

// Group is the set of new day entries bound for one attendance document.
type Group struct {
	Key     string
	Name    string
	Class   string
	Records []model.AttendanceRecord
}

// GroupRows buckets rows by document key in first-seen order. Within a bucket
// only the first entry for a given day is kept.
func GroupRows(rows []Row) []Group {
	var groups []Group
	index := make(map[string]int)
	days := make(map[string]map[string]struct{})
	for _, row := range rows {
		key := model.DocKey(row.Name, row.Class)
		gi, ok := index[key]
		if !ok {
			gi = len(groups)
			index[key] = gi
			days[key] = make(map[string]struct{})
			groups = append(groups, Group{Key: key, Name: row.Name, Class: row.Class})
		}
		if _, dup := days[key][row.DayAndDate]; dup {
			continue
		}
		days[key][row.DayAndDate] = struct{}{}
		groups[gi].Records = append(groups[gi].Records, model.AttendanceRecord{
			ClockIn:    normalizeClock(row.ClockIn),
			ClockOut:   normalizeClock(row.ClockOut),
			DayAndDate: row.DayAndDate,
		})
	}
	return groups
}

func normalizeClock(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || s == model.NoTime {
		return model.NoTime
	}
	return NormalizeTime(s)
}
