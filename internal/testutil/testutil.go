// Package testutil provides shared test helpers for stores, loggers and tokens.
package testutil

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/golang-jwt/jwt/v4"

	"github.com/starford/menuboard/internal/localstore"
)

// TestStores opens a temporary SQLite store and blob directory that are
// cleaned up with the test.
func TestStores(t *testing.T) (*localstore.DB, *localstore.BlobDir) {
	t.Helper()
	dir := t.TempDir()
	db, err := localstore.Open(filepath.Join(dir, "store.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	blobs, err := localstore.NewBlobDir(filepath.Join(dir, "blobs"))
	if err != nil {
		t.Fatal(err)
	}
	return db, blobs
}

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// SignedToken returns an HS256 token over claims, signed with a throwaway
// key. Servers that cannot verify it see only its claims.
func SignedToken(t *testing.T, claims map[string]any) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims(claims)).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatal(err)
	}
	return s
}
