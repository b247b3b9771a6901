package repo

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	return conn
}

func TestNewBaseStoresConnection(t *testing.T) {
	db := newTestDB(t)
	base := NewBase(db)

	if base.db != db {
		t.Fatalf("expected base db to match provided connection")
	}
}

func TestBaseDB_BindsContext(t *testing.T) {
	db := newTestDB(t)
	base := NewBase(db)

	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "value")
	withCtx := base.DB(ctx)

	if withCtx == nil {
		t.Fatalf("expected non-nil DB when context provided")
	}
	if withCtx.Statement == nil {
		t.Fatalf("expected statement created after WithContext")
	}
	if withCtx.Statement.Context != ctx {
		t.Fatalf("expected context to flow through, got %v", withCtx.Statement.Context)
	}

	withoutCtx := base.DB(nil)
	if withoutCtx != db {
		t.Fatalf("expected nil context to return raw connection")
	}
}

func TestBaseWithTx(t *testing.T) {
	db := newTestDB(t)
	base := NewBase(db)

	if got := base.WithTx(nil); got.db != db {
		t.Fatalf("nil tx should keep the original connection")
	}
	tx := db.Session(&gorm.Session{})
	if got := base.WithTx(tx); got.db != tx {
		t.Fatalf("expected tx connection to be bound")
	}
}

func TestEnsureID(t *testing.T) {
	var id uuid.UUID
	EnsureID(&id)
	if id == uuid.Nil {
		t.Fatal("expected id to be generated")
	}
	fixed := id
	EnsureID(&id)
	if id != fixed {
		t.Fatal("existing id should be kept")
	}
}
