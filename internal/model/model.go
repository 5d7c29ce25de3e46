package model

import (
	"strings"
	"time"
	"unicode"
)

// NoTime marks a day counted as present without a recorded clock time.
const NoTime = "--:--"

// Roles known to the user directory.
const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
	RoleAdmin   = "admin"
)

// AttendanceRecord is one day of a student's attendance.
type AttendanceRecord struct {
	ClockIn    string `json:"clockIn" firestore:"clockIn"`
	ClockOut   string `json:"clockOut" firestore:"clockOut"`
	DayAndDate string `json:"dayAndDate" firestore:"dayAndDate"`
}

// AttendanceDoc holds every recorded day for one (student, class) pair.
type AttendanceDoc struct {
	ID         string             `json:"id" firestore:"-"`
	Name       string             `json:"name" firestore:"name"`
	Class      string             `json:"Class" firestore:"Class"`
	Attendance []AttendanceRecord `json:"attendance" firestore:"attendance"`
}

// Days returns the set of dates already present in the document.
func (d AttendanceDoc) Days() map[string]struct{} {
	days := make(map[string]struct{}, len(d.Attendance))
	for _, rec := range d.Attendance {
		days[rec.DayAndDate] = struct{}{}
	}
	return days
}

// AttendanceWrite appends entries to a document, creating it when Create is set.
type AttendanceWrite struct {
	ID      string
	Name    string
	Class   string
	Create  bool
	Entries []AttendanceRecord
}

// DocKey derives the attendance document ID from a student name and class.
func DocKey(name, class string) string {
	return squash(name) + "_" + squash(class)
}

func squash(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, s)
}

// User is an entry of the school directory.
type User struct {
	ID           string    `json:"id" firestore:"-"`
	Name         string    `json:"name" firestore:"name"`
	Class        string    `json:"Class,omitempty" firestore:"Class"`
	Role         string    `json:"role" firestore:"role"`
	Email        string    `json:"email,omitempty" firestore:"email"`
	PasswordHash string    `json:"-" firestore:"passwordHash"`
	CreatedAt    time.Time `json:"createdAt" firestore:"createdAt"`
}

// Result is a single exam mark for a student.
type Result struct {
	ID        string    `json:"id" firestore:"-"`
	Name      string    `json:"name" firestore:"name"`
	Class     string    `json:"Class" firestore:"Class"`
	Subject   string    `json:"subject" firestore:"subject"`
	Exam      string    `json:"exam" firestore:"exam"`
	Marks     float64   `json:"marks" firestore:"marks"`
	MaxMarks  float64   `json:"maxMarks" firestore:"maxMarks"`
	CreatedAt time.Time `json:"createdAt" firestore:"createdAt"`
}

// Submission is a form payload stored as received.
type Submission struct {
	ID        string         `json:"id" firestore:"-"`
	Body      map[string]any `json:"body" firestore:"body"`
	CreatedAt time.Time      `json:"createdAt" firestore:"createdAt"`
}
