// Package store implements the document backends the service can run on:
// Postgres (JSONB documents), Firestore and an in-memory store for
// development and tests.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"schoolattend/internal/model"
)

// ErrNotFound is returned when a document does not exist.
var ErrNotFound = errors.New("not found")

// Collection names, shared with the browser dashboard.
const (
	CollectionUsers       = "Users"
	CollectionAttendance  = "studentLeaves"
	CollectionResults     = "Results"
	CollectionSubmissions = "form-submissions"
)

// Backend is the full set of operations a storage backend provides.
type Backend interface {
	CreateUser(ctx context.Context, u model.User) (model.User, error)
	GetUser(ctx context.Context, id string) (model.User, error)
	UserByEmail(ctx context.Context, email string) (model.User, error)
	ListUsers(ctx context.Context, role, class string) ([]model.User, error)
	DeleteUser(ctx context.Context, id string) error
	UserClass(ctx context.Context, name string) (string, bool, error)

	AttendanceClass(ctx context.Context, name string) (string, bool, error)
	AttendanceDocs(ctx context.Context, ids []string) (map[string]model.AttendanceDoc, error)
	CommitAttendance(ctx context.Context, writes []model.AttendanceWrite) error
	AttendanceDoc(ctx context.Context, id string) (model.AttendanceDoc, error)
	ListAttendance(ctx context.Context, class string) ([]model.AttendanceDoc, error)
	DeleteAttendance(ctx context.Context, id string) error

	InsertResult(ctx context.Context, r model.Result) (model.Result, error)
	ListResults(ctx context.Context, class string) ([]model.Result, error)

	InsertSubmission(ctx context.Context, body map[string]any) (model.Submission, error)

	Ping(ctx context.Context) error
	Close() error
}

// Options selects and configures a backend.
type Options struct {
	Backend         string
	DatabaseURL     string
	CredentialsFile string
	ProjectID       string
	StartupRetries  uint
	Logger          *slog.Logger
}

// Open connects to the configured backend.
func Open(ctx context.Context, opts Options) (Backend, error) {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	switch opts.Backend {
	case "", "memory":
		log.Warn("using in-memory store; data is lost on restart")
		return NewMemory(), nil
	case "postgres":
		db, err := NewDB(ctx, opts.DatabaseURL, opts.StartupRetries, log)
		if err != nil {
			return nil, err
		}
		pg := NewPostgres(db.Client)
		if err := pg.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		return pg, nil
	case "firestore":
		fs, err := NewFirestore(ctx, opts.ProjectID, opts.CredentialsFile)
		if err != nil {
			return nil, err
		}
		return fs, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", opts.Backend)
	}
}
