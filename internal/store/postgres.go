package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"schoolattend/internal/model"
)

// Postgres persists documents in JSONB-backed tables.
type Postgres struct {
	db *sql.DB
}

// NewPostgres creates a Postgres backend over an open pool.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Migrate creates the tables if they do not exist.
func (p *Postgres) Migrate(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `
	CREATE TABLE IF NOT EXISTS users (
		id            TEXT PRIMARY KEY,
		name          TEXT NOT NULL,
		class         TEXT NOT NULL DEFAULT '',
		role          TEXT NOT NULL,
		email         TEXT NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL DEFAULT '',
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS idx_users_name ON users(name);
	CREATE INDEX IF NOT EXISTS idx_users_email ON users(lower(email));

	CREATE TABLE IF NOT EXISTS student_attendance (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		class      TEXT NOT NULL,
		attendance JSONB NOT NULL DEFAULT '[]'::jsonb,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS idx_student_attendance_name ON student_attendance(name);
	CREATE INDEX IF NOT EXISTS idx_student_attendance_class ON student_attendance(class);

	CREATE TABLE IF NOT EXISTS results (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		class      TEXT NOT NULL,
		subject    TEXT NOT NULL,
		exam       TEXT NOT NULL DEFAULT '',
		marks      DOUBLE PRECISION NOT NULL,
		max_marks  DOUBLE PRECISION NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS idx_results_class ON results(class);

	CREATE TABLE IF NOT EXISTS form_submissions (
		id         TEXT PRIMARY KEY,
		body       JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	`)
	return err
}

const userColumns = `id, name, class, role, email, password_hash, created_at`

func scanUser(row interface{ Scan(...any) error }) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Name, &u.Class, &u.Role, &u.Email, &u.PasswordHash, &u.CreatedAt)
	return u, err
}

// CreateUser inserts a directory entry.
func (p *Postgres) CreateUser(ctx context.Context, u model.User) (model.User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO users (id, name, class, role, email, password_hash, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, u.ID, u.Name, u.Class, u.Role, u.Email, u.PasswordHash, u.CreatedAt)
	if err != nil {
		return model.User{}, err
	}
	return u, nil
}

// GetUser returns a single user by id.
func (p *Postgres) GetUser(ctx context.Context, id string) (model.User, error) {
	u, err := scanUser(p.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrNotFound
	}
	return u, err
}

// UserByEmail returns the user with the given email, ignoring case.
func (p *Postgres) UserByEmail(ctx context.Context, email string) (model.User, error) {
	u, err := scanUser(p.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1) AND email <> '' LIMIT 1`, email))
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrNotFound
	}
	return u, err
}

// ListUsers returns users with optional role and class filters.
func (p *Postgres) ListUsers(ctx context.Context, role, class string) ([]model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users`
	args := []any{}
	clauses := []string{}
	if role != "" {
		args = append(args, role)
		clauses = append(clauses, fmt.Sprintf("role = $%d", len(args)))
	}
	if class != "" {
		args = append(args, class)
		clauses = append(clauses, fmt.Sprintf("class = $%d", len(args)))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY name"

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, u)
	}
	return res, rows.Err()
}

// DeleteUser removes a user.
func (p *Postgres) DeleteUser(ctx context.Context, id string) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// UserClass finds the class of the earliest created user with exactly this name.
func (p *Postgres) UserClass(ctx context.Context, name string) (string, bool, error) {
	return p.classOf(ctx, `SELECT class FROM users WHERE name = $1 AND class <> '' ORDER BY created_at, id LIMIT 1`, name)
}

// AttendanceClass finds the class of an existing attendance document by student
// name, taking the lowest document id when several match.
func (p *Postgres) AttendanceClass(ctx context.Context, name string) (string, bool, error) {
	return p.classOf(ctx, `SELECT class FROM student_attendance WHERE name = $1 AND class <> '' ORDER BY id LIMIT 1`, name)
}

func (p *Postgres) classOf(ctx context.Context, query, name string) (string, bool, error) {
	var class string
	err := p.db.QueryRowContext(ctx, query, name).Scan(&class)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return class, true, nil
}

// AttendanceDocs loads the existing documents among ids.
func (p *Postgres) AttendanceDocs(ctx context.Context, ids []string) (map[string]model.AttendanceDoc, error) {
	out := make(map[string]model.AttendanceDoc, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := p.db.QueryContext(ctx,
		`SELECT id, name, class, attendance FROM student_attendance WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		doc, err := scanAttendance(rows)
		if err != nil {
			return nil, err
		}
		out[doc.ID] = doc
	}
	return out, rows.Err()
}

func scanAttendance(row interface{ Scan(...any) error }) (model.AttendanceDoc, error) {
	var (
		doc model.AttendanceDoc
		raw []byte
	)
	if err := row.Scan(&doc.ID, &doc.Name, &doc.Class, &raw); err != nil {
		return model.AttendanceDoc{}, err
	}
	if err := json.Unmarshal(raw, &doc.Attendance); err != nil {
		return model.AttendanceDoc{}, fmt.Errorf("decode attendance %s: %w", doc.ID, err)
	}
	return doc, nil
}

// CommitAttendance applies one batch in a single transaction. New entries are
// appended to the stored array; missing documents are created.
func (p *Postgres) CommitAttendance(ctx context.Context, writes []model.AttendanceWrite) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO student_attendance (id, name, class, attendance)
		VALUES ($1, $2, $3, $4::jsonb)
		ON CONFLICT (id) DO UPDATE SET
			attendance = student_attendance.attendance || EXCLUDED.attendance,
			updated_at = NOW()
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, w := range writes {
		entries, err := json.Marshal(w.Entries)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, w.ID, w.Name, w.Class, string(entries)); err != nil {
			return fmt.Errorf("write %s: %w", w.ID, err)
		}
	}
	return tx.Commit()
}

// AttendanceDoc returns a single attendance document.
func (p *Postgres) AttendanceDoc(ctx context.Context, id string) (model.AttendanceDoc, error) {
	doc, err := scanAttendance(p.db.QueryRowContext(ctx,
		`SELECT id, name, class, attendance FROM student_attendance WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.AttendanceDoc{}, ErrNotFound
	}
	return doc, err
}

// ListAttendance returns the documents of a class, or all of them.
func (p *Postgres) ListAttendance(ctx context.Context, class string) ([]model.AttendanceDoc, error) {
	query := `SELECT id, name, class, attendance FROM student_attendance`
	args := []any{}
	if class != "" {
		query += ` WHERE class = $1`
		args = append(args, class)
	}
	query += ` ORDER BY id`
	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []model.AttendanceDoc
	for rows.Next() {
		doc, err := scanAttendance(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, doc)
	}
	return res, rows.Err()
}

// DeleteAttendance removes an attendance document if present.
func (p *Postgres) DeleteAttendance(ctx context.Context, id string) error {
	_, err := p.db.ExecContext(ctx, `DELETE FROM student_attendance WHERE id = $1`, id)
	return err
}

// InsertResult stores an exam result.
func (p *Postgres) InsertResult(ctx context.Context, r model.Result) (model.Result, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO results (id, name, class, subject, exam, marks, max_marks, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, r.ID, r.Name, r.Class, r.Subject, r.Exam, r.Marks, r.MaxMarks, r.CreatedAt)
	if err != nil {
		return model.Result{}, err
	}
	return r, nil
}

// ListResults returns the results of a class, or all of them.
func (p *Postgres) ListResults(ctx context.Context, class string) ([]model.Result, error) {
	query := `SELECT id, name, class, subject, exam, marks, max_marks, created_at FROM results`
	args := []any{}
	if class != "" {
		query += ` WHERE class = $1`
		args = append(args, class)
	}
	query += ` ORDER BY created_at`
	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []model.Result
	for rows.Next() {
		var r model.Result
		if err := rows.Scan(&r.ID, &r.Name, &r.Class, &r.Subject, &r.Exam, &r.Marks, &r.MaxMarks, &r.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, r)
	}
	return res, rows.Err()
}

// InsertSubmission stores a form body verbatim.
func (p *Postgres) InsertSubmission(ctx context.Context, body map[string]any) (model.Submission, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return model.Submission{}, err
	}
	s := model.Submission{ID: uuid.NewString(), Body: body, CreatedAt: time.Now().UTC()}
	_, err = p.db.ExecContext(ctx,
		`INSERT INTO form_submissions (id, body, created_at) VALUES ($1, $2::jsonb, $3)`,
		s.ID, string(raw), s.CreatedAt)
	if err != nil {
		return model.Submission{}, err
	}
	return s, nil
}

// Ping checks the connection.
func (p *Postgres) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }

// Close closes the pool.
func (p *Postgres) Close() error { return p.db.Close() }
