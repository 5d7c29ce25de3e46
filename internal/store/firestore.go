package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"schoolattend/internal/model"
)

// Firestore stores documents in the collections the dashboard reads.
type Firestore struct {
	client *firestore.Client
}

// NewFirestore initialises a Firebase app and its Firestore client. An empty
// credentials file falls back to application default credentials.
func NewFirestore(ctx context.Context, projectID, credentialsFile string) (*Firestore, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	var conf *firebase.Config
	if projectID != "" {
		conf = &firebase.Config{ProjectID: projectID}
	}
	app, err := firebase.NewApp(ctx, conf, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase app: %w", err)
	}
	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("firestore client: %w", err)
	}
	return &Firestore{client: client}, nil
}

func (f *Firestore) users() *firestore.CollectionRef {
	return f.client.Collection(CollectionUsers)
}

func (f *Firestore) attendance() *firestore.CollectionRef {
	return f.client.Collection(CollectionAttendance)
}

func notFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

func (f *Firestore) CreateUser(ctx context.Context, u model.User) (model.User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	if _, err := f.users().Doc(u.ID).Set(ctx, u); err != nil {
		return model.User{}, err
	}
	return u, nil
}

func (f *Firestore) GetUser(ctx context.Context, id string) (model.User, error) {
	snap, err := f.users().Doc(id).Get(ctx)
	if notFound(err) {
		return model.User{}, ErrNotFound
	}
	if err != nil {
		return model.User{}, err
	}
	return userFrom(snap)
}

func userFrom(snap *firestore.DocumentSnapshot) (model.User, error) {
	var u model.User
	if err := snap.DataTo(&u); err != nil {
		return model.User{}, fmt.Errorf("decode user %s: %w", snap.Ref.ID, err)
	}
	u.ID = snap.Ref.ID
	return u, nil
}

// UserByEmail scans users for a case-insensitive email match; Firestore has
// no case-folding queries.
func (f *Firestore) UserByEmail(ctx context.Context, email string) (model.User, error) {
	iter := f.users().Where("email", "==", email).Limit(1).Documents(ctx)
	defer iter.Stop()
	snap, err := iter.Next()
	if err == nil {
		return userFrom(snap)
	}
	if !errors.Is(err, iterator.Done) {
		return model.User{}, err
	}
	all, err := f.ListUsers(ctx, "", "")
	if err != nil {
		return model.User{}, err
	}
	for _, u := range all {
		if u.Email != "" && strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return model.User{}, ErrNotFound
}

func (f *Firestore) ListUsers(ctx context.Context, role, class string) ([]model.User, error) {
	q := f.users().Query
	if role != "" {
		q = q.Where("role", "==", role)
	}
	if class != "" {
		q = q.Where("Class", "==", class)
	}
	iter := q.Documents(ctx)
	defer iter.Stop()
	var out []model.User
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, err
		}
		u, err := userFrom(snap)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *Firestore) DeleteUser(ctx context.Context, id string) error {
	ref := f.users().Doc(id)
	if _, err := ref.Get(ctx); err != nil {
		if notFound(err) {
			return ErrNotFound
		}
		return err
	}
	_, err := ref.Delete(ctx)
	return err
}

func (f *Firestore) UserClass(ctx context.Context, name string) (string, bool, error) {
	return classOf(ctx, f.users().Where("name", "==", name).OrderBy(firestore.DocumentID, firestore.Asc).Limit(5))
}

func (f *Firestore) AttendanceClass(ctx context.Context, name string) (string, bool, error) {
	return classOf(ctx, f.attendance().Where("name", "==", name).OrderBy(firestore.DocumentID, firestore.Asc).Limit(5))
}

func classOf(ctx context.Context, q firestore.Query) (string, bool, error) {
	iter := q.Documents(ctx)
	defer iter.Stop()
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			return "", false, nil
		}
		if err != nil {
			return "", false, err
		}
		if class, ok := snap.Data()["Class"].(string); ok && class != "" {
			return class, true, nil
		}
	}
}

func (f *Firestore) AttendanceDocs(ctx context.Context, ids []string) (map[string]model.AttendanceDoc, error) {
	out := make(map[string]model.AttendanceDoc, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	refs := make([]*firestore.DocumentRef, len(ids))
	for i, id := range ids {
		refs[i] = f.attendance().Doc(id)
	}
	iter := f.attendance().Where(firestore.DocumentID, "in", refs).Documents(ctx)
	defer iter.Stop()
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, err
		}
		doc, err := attendanceFrom(snap)
		if err != nil {
			return nil, err
		}
		out[doc.ID] = doc
	}
	return out, nil
}

func attendanceFrom(snap *firestore.DocumentSnapshot) (model.AttendanceDoc, error) {
	var doc model.AttendanceDoc
	if err := snap.DataTo(&doc); err != nil {
		return model.AttendanceDoc{}, fmt.Errorf("decode attendance %s: %w", snap.Ref.ID, err)
	}
	doc.ID = snap.Ref.ID
	return doc, nil
}

// CommitAttendance applies one write batch. Entries are merged with
// ArrayUnion so a document is created or extended in the same call.
func (f *Firestore) CommitAttendance(ctx context.Context, writes []model.AttendanceWrite) error {
	if len(writes) == 0 {
		return nil
	}
	batch := f.client.Batch()
	for _, w := range writes {
		entries := make([]any, len(w.Entries))
		for i, e := range w.Entries {
			entries[i] = e
		}
		data := map[string]any{"attendance": firestore.ArrayUnion(entries...)}
		if w.Create {
			data["name"] = w.Name
			data["Class"] = w.Class
		}
		batch.Set(f.attendance().Doc(w.ID), data, firestore.MergeAll)
	}
	_, err := batch.Commit(ctx)
	return err
}

func (f *Firestore) AttendanceDoc(ctx context.Context, id string) (model.AttendanceDoc, error) {
	snap, err := f.attendance().Doc(id).Get(ctx)
	if notFound(err) {
		return model.AttendanceDoc{}, ErrNotFound
	}
	if err != nil {
		return model.AttendanceDoc{}, err
	}
	return attendanceFrom(snap)
}

func (f *Firestore) ListAttendance(ctx context.Context, class string) ([]model.AttendanceDoc, error) {
	q := f.attendance().Query
	if class != "" {
		q = q.Where("Class", "==", class)
	}
	iter := q.Documents(ctx)
	defer iter.Stop()
	var out []model.AttendanceDoc
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, err
		}
		doc, err := attendanceFrom(snap)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, nil
}

func (f *Firestore) DeleteAttendance(ctx context.Context, id string) error {
	_, err := f.attendance().Doc(id).Delete(ctx)
	return err
}

func (f *Firestore) InsertResult(ctx context.Context, r model.Result) (model.Result, error) {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	ref := f.client.Collection(CollectionResults).NewDoc()
	if r.ID != "" {
		ref = f.client.Collection(CollectionResults).Doc(r.ID)
	}
	if _, err := ref.Set(ctx, r); err != nil {
		return model.Result{}, err
	}
	r.ID = ref.ID
	return r, nil
}

func (f *Firestore) ListResults(ctx context.Context, class string) ([]model.Result, error) {
	q := f.client.Collection(CollectionResults).Query
	if class != "" {
		q = q.Where("Class", "==", class)
	}
	iter := q.Documents(ctx)
	defer iter.Stop()
	var out []model.Result
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, err
		}
		var r model.Result
		if err := snap.DataTo(&r); err != nil {
			return nil, fmt.Errorf("decode result %s: %w", snap.Ref.ID, err)
		}
		r.ID = snap.Ref.ID
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (f *Firestore) InsertSubmission(ctx context.Context, body map[string]any) (model.Submission, error) {
	s := model.Submission{Body: body, CreatedAt: time.Now().UTC()}
	ref, _, err := f.client.Collection(CollectionSubmissions).Add(ctx, body)
	if err != nil {
		return model.Submission{}, err
	}
	s.ID = ref.ID
	return s, nil
}

// Ping reads a missing document; only transport errors count as failures.
func (f *Firestore) Ping(ctx context.Context) error {
	_, err := f.client.Collection(CollectionUsers).Doc("_ping").Get(ctx)
	if err != nil && !notFound(err) {
		return err
	}
	return nil
}

func (f *Firestore) Close() error { return f.client.Close() }
