package repo

import (
	"context"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	return conn
}

func TestBaseDBBindsContext(t *testing.T) {
	base := NewBase(newTestDB(t))

	ctx := context.WithValue(context.Background(), struct{}{}, "value")
	bound := base.DB(ctx)
	if bound == nil || bound.Statement == nil {
		t.Fatalf("expected bound connection with statement")
	}
	if bound.Statement.Context != ctx {
		t.Fatalf("expected request context to flow through")
	}
}

func TestBaseDBNilContext(t *testing.T) {
	db := newTestDB(t)
	base := NewBase(db)

	if base.DB(nil) != db {
		t.Fatalf("expected nil context to return the raw connection")
	}
}
