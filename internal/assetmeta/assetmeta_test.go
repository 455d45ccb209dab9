package assetmeta

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type fakeInserter struct {
	table string
	row   any
}

func (f *fakeInserter) Insert(_ context.Context, table string, row any) (json.RawMessage, error) {
	f.table, f.row = table, row
	return json.RawMessage(`{"id":1}`), nil
}

func TestNewOptionalColumns(t *testing.T) {
	m := NewPending("u/1-a.png", "a.png", "u", "", 0, "tok")
	if m.ContentType != nil || m.SizeBytes != nil {
		t.Errorf("zero values should be nil: %+v", m)
	}
	if m.UploadToken == nil || *m.UploadToken != "tok" || m.Status != StatusPendingUpload {
		t.Errorf("m = %+v", m)
	}

	b, _ := json.Marshal(m)
	var got map[string]any
	_ = json.Unmarshal(b, &got)
	want := map[string]any{
		"path": "u/1-a.png", "filename": "a.png", "user_id": "u",
		"content_type": nil, "size_bytes": nil, "upload_token": "tok", "status": "pending_upload",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("wire row (-want +got):\n%s", diff)
	}
}

func TestRESTDefaultsTable(t *testing.T) {
	f := &fakeInserter{}
	s := NewREST(f, "")
	raw, err := s.Insert(context.Background(), NewPending("p", "f", "u", "image/png", 3, ""))
	if err != nil {
		t.Fatal(err)
	}
	if f.table != "assets" || string(raw) != `{"id":1}` {
		t.Errorf("table=%q raw=%s", f.table, raw)
	}
	if m, ok := f.row.(Metadata); !ok || m.Path != "p" {
		t.Errorf("row = %#v", f.row)
	}
}

type fakeRow struct {
	id  int64
	at  time.Time
	err error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*dest[0].(*int64) = r.id
	*dest[1].(*time.Time) = r.at
	return nil
}

type fakeDB struct {
	row    fakeRow
	args   []any
	execed string
}

func (d *fakeDB) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	d.execed = sql
	return pgconn.CommandTag{}, nil
}

func (d *fakeDB) QueryRow(_ context.Context, _ string, args ...any) pgx.Row {
	d.args = args
	return d.row
}

func TestPostgresInsert(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	db := &fakeDB{row: fakeRow{id: 42, at: at}}
	s := NewPostgres(db)

	if err := s.EnsureSchema(context.Background()); err != nil || db.execed != schemaSQL {
		t.Fatalf("EnsureSchema: %v", err)
	}

	raw, err := s.Insert(context.Background(), NewPending("u/1-a.png", "a.png", "u", "image/png", 10, "tok"))
	if err != nil {
		t.Fatal(err)
	}
	if len(db.args) != 7 || db.args[6] != StatusPendingUpload {
		t.Errorf("args = %v", db.args)
	}
	var got struct {
		ID        int64  `json:"id"`
		Path      string `json:"path"`
		CreatedAt string `json:"created_at"`
	}
	_ = json.Unmarshal(raw, &got)
	if got.ID != 42 || got.Path != "u/1-a.png" || got.CreatedAt != "2026-01-02T03:04:05Z" {
		t.Errorf("row = %+v", got)
	}
}

func TestPostgresInsertError(t *testing.T) {
	s := NewPostgres(&fakeDB{row: fakeRow{err: pgx.ErrNoRows}})
	_, err := s.Insert(context.Background(), Metadata{})
	if !errors.Is(err, pgx.ErrNoRows) {
		t.Errorf("err = %v", err)
	}
}

// TestPostgresLive runs against a real database when one is configured.
func TestPostgresLive(t *testing.T) {
	dsn := os.Getenv("MENUBOARD_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("MENUBOARD_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()
	pool, err := OpenPool(ctx, dsn)
	if err != nil {
		t.Fatal(err)
	}
	defer pool.Close()

	s := NewPostgres(pool)
	if err := s.EnsureSchema(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Insert(ctx, NewPending("test/1-a.png", "a.png", "test", "", 0, "")); err != nil {
		t.Fatal(err)
	}
}
