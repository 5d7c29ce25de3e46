package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"schoolattend/internal/model"
)

// Memory keeps every collection in process memory.
type Memory struct {
	mu          sync.RWMutex
	users       map[string]model.User
	attendance  map[string]model.AttendanceDoc
	results     map[string]model.Result
	submissions map[string]model.Submission
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		users:       make(map[string]model.User),
		attendance:  make(map[string]model.AttendanceDoc),
		results:     make(map[string]model.Result),
		submissions: make(map[string]model.Submission),
	}
}

func (m *Memory) CreateUser(_ context.Context, u model.User) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	m.users[u.ID] = u
	return u, nil
}

func (m *Memory) GetUser(_ context.Context, id string) (model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return model.User{}, ErrNotFound
	}
	return u, nil
}

func (m *Memory) UserByEmail(_ context.Context, email string) (model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Email != "" && strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return model.User{}, ErrNotFound
}

func (m *Memory) ListUsers(_ context.Context, role, class string) ([]model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.User
	for _, u := range m.users {
		if role != "" && u.Role != role {
			continue
		}
		if class != "" && u.Class != class {
			continue
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Memory) DeleteUser(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return ErrNotFound
	}
	delete(m.users, id)
	return nil
}

func (m *Memory) UserClass(_ context.Context, name string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var (
		first model.User
		found bool
	)
	for _, u := range m.users {
		if u.Name != name || u.Class == "" {
			continue
		}
		if !found || u.CreatedAt.Before(first.CreatedAt) ||
			(u.CreatedAt.Equal(first.CreatedAt) && u.ID < first.ID) {
			first, found = u, true
		}
	}
	return first.Class, found, nil
}

func (m *Memory) AttendanceClass(_ context.Context, name string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	firstID := ""
	for id, d := range m.attendance {
		if d.Name == name && d.Class != "" && (firstID == "" || id < firstID) {
			firstID = id
		}
	}
	if firstID == "" {
		return "", false, nil
	}
	return m.attendance[firstID].Class, true, nil
}

func (m *Memory) AttendanceDocs(_ context.Context, ids []string) (map[string]model.AttendanceDoc, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]model.AttendanceDoc, len(ids))
	for _, id := range ids {
		if d, ok := m.attendance[id]; ok {
			out[id] = copyDoc(d)
		}
	}
	return out, nil
}

func (m *Memory) CommitAttendance(_ context.Context, writes []model.AttendanceWrite) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, w := range writes {
		doc, ok := m.attendance[w.ID]
		if !ok {
			doc = model.AttendanceDoc{ID: w.ID, Name: w.Name, Class: w.Class}
		}
		doc.Attendance = append(append([]model.AttendanceRecord(nil), doc.Attendance...), w.Entries...)
		m.attendance[w.ID] = doc
	}
	return nil
}

func (m *Memory) AttendanceDoc(_ context.Context, id string) (model.AttendanceDoc, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.attendance[id]
	if !ok {
		return model.AttendanceDoc{}, ErrNotFound
	}
	return copyDoc(d), nil
}

func (m *Memory) ListAttendance(_ context.Context, class string) ([]model.AttendanceDoc, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.AttendanceDoc
	for _, d := range m.attendance {
		if class != "" && d.Class != class {
			continue
		}
		out = append(out, copyDoc(d))
	}
	return out, nil
}

func (m *Memory) DeleteAttendance(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.attendance, id)
	return nil
}

func (m *Memory) InsertResult(_ context.Context, r model.Result) (model.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	m.results[r.ID] = r
	return r, nil
}

func (m *Memory) ListResults(_ context.Context, class string) ([]model.Result, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.Result
	for _, r := range m.results {
		if class != "" && r.Class != class {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) InsertSubmission(_ context.Context, body map[string]any) (model.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := model.Submission{ID: uuid.NewString(), Body: body, CreatedAt: time.Now().UTC()}
	m.submissions[s.ID] = s
	return s, nil
}

// Submissions returns a copy of every stored submission.
func (m *Memory) Submissions() []model.Submission {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.Submission, 0, len(m.submissions))
	for _, s := range m.submissions {
		out = append(out, s)
	}
	return out
}

func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) Close() error { return nil }

func copyDoc(d model.AttendanceDoc) model.AttendanceDoc {
	d.Attendance = append([]model.AttendanceRecord(nil), d.Attendance...)
	return d
}
