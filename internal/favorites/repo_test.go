package favorites

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	schema, err := os.ReadFile("../../docs/schema.sql")
	if err != nil {
		t.Fatalf("read schema: %v", err)
	}
	if _, err := db.Exec(string(schema)); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
	return db
}

func seed(t *testing.T, db *sql.DB) {
	t.Helper()
	stmts := []string{
		`INSERT INTO users (id, nome, email, password_hash) VALUES ('u1', 'Ana', 'ana@example.com', 'x')`,
		`INSERT INTO properties (codigo, tipo_imovel, cidade, estado, valor, latitude, longitude)
		 VALUES ('AA0001', 'Casa', 'São Paulo', 'SP', 250000, -23.55, -46.63)`,
		`INSERT INTO properties (codigo, tipo_imovel, cidade, estado, valor, latitude, longitude)
		 VALUES ('BB0002', 'Apartamento', 'São Paulo', 'SP', 480000, -23.60, -46.66)`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
}

func TestToggleAddsThenRemoves(t *testing.T) {
	db := openTestDB(t)
	seed(t, db)
	repo := NewRepo(db)
	ctx := context.Background()

	action, err := repo.Toggle(ctx, "u1", "AA0001")
	if err != nil {
		t.Fatalf("first toggle: %v", err)
	}
	if action != ActionAdded {
		t.Errorf("action = %s, want added", action)
	}
	fav, err := repo.IsFavorite(ctx, "u1", "AA0001")
	if err != nil || !fav {
		t.Fatalf("IsFavorite = %v, %v", fav, err)
	}

	action, err = repo.Toggle(ctx, "u1", "AA0001")
	if err != nil {
		t.Fatalf("second toggle: %v", err)
	}
	if action != ActionRemoved {
		t.Errorf("action = %s, want removed", action)
	}
	fav, err = repo.IsFavorite(ctx, "u1", "AA0001")
	if err != nil || fav {
		t.Fatalf("IsFavorite after remove = %v, %v", fav, err)
	}
}

func TestToggleUnknownPropertyFails(t *testing.T) {
	db := openTestDB(t)
	seed(t, db)
	repo := NewRepo(db)

	_, err := repo.Toggle(context.Background(), "u1", "ZZ9999")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("err = %v, want sql.ErrNoRows", err)
	}
}

func TestListForUserReturnsFullRows(t *testing.T) {
	db := openTestDB(t)
	seed(t, db)
	repo := NewRepo(db)
	ctx := context.Background()

	if _, err := repo.Toggle(ctx, "u1", "AA0001"); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if _, err := repo.Toggle(ctx, "u1", "BB0002"); err != nil {
		t.Fatalf("toggle: %v", err)
	}

	got, err := repo.ListForUser(ctx, "u1")
	if err != nil {
		t.Fatalf("ListForUser: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	for _, l := range got {
		if l.Cidade != "São Paulo" || l.Valor == 0 {
			t.Errorf("joined row incomplete: %+v", l)
		}
	}

	other, err := repo.ListForUser(ctx, "u2")
	if err != nil {
		t.Fatalf("ListForUser u2: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("other user sees %d favorites", len(other))
	}
}
