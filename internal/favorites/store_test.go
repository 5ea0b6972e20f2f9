package favorites

import (
	"context"
	"testing"

	"imovelmap/pkg/models"
)

func TestLocalStoreRoundTrip(t *testing.T) {
	db := openTestDB(t)
	store := NewLocalStore(db)
	ctx := context.Background()

	snap := Snapshot{
		Codes: map[string]struct{}{"AA0001": {}, "BB0002": {}},
		Snapshots: map[string]models.Listing{
			"AA0001": {Codigo: "AA0001", Cidade: "São Paulo", Valor: 250000},
			"BB0002": {Codigo: "BB0002", Cidade: "Campinas", Valor: 480000},
		},
	}
	if err := store.SaveAll(ctx, snap); err != nil {
		t.Fatalf("SaveAll: %v", err)
	}

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got.Codes) != 2 || len(got.Snapshots) != 2 {
		t.Fatalf("loaded %d codes, %d snapshots", len(got.Codes), len(got.Snapshots))
	}
	if got.Snapshots["AA0001"].Valor != 250000 {
		t.Errorf("snapshot = %+v", got.Snapshots["AA0001"])
	}
}

func TestSaveAllReplacesPriorContents(t *testing.T) {
	db := openTestDB(t)
	store := NewLocalStore(db)
	ctx := context.Background()

	first := Snapshot{
		Codes:     map[string]struct{}{"AA0001": {}},
		Snapshots: map[string]models.Listing{"AA0001": {Codigo: "AA0001"}},
	}
	if err := store.SaveAll(ctx, first); err != nil {
		t.Fatalf("SaveAll: %v", err)
	}

	second := Snapshot{
		Codes:     map[string]struct{}{"BB0002": {}},
		Snapshots: map[string]models.Listing{"BB0002": {Codigo: "BB0002"}},
	}
	if err := store.SaveAll(ctx, second); err != nil {
		t.Fatalf("SaveAll: %v", err)
	}

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, ok := got.Codes["AA0001"]; ok {
		t.Error("replaced favorite still present")
	}
	if _, ok := got.Codes["BB0002"]; !ok {
		t.Error("new favorite missing")
	}
}

func TestLoadSkipsCorruptRows(t *testing.T) {
	db := openTestDB(t)
	store := NewLocalStore(db)
	ctx := context.Background()

	if _, err := db.Exec(`INSERT INTO local_favorites (codigo, listing) VALUES ('BAD999', 'not json')`); err != nil {
		t.Fatalf("insert corrupt row: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO local_favorites (codigo, listing) VALUES ('AA0001', '{"codigo":"AA0001"}')`); err != nil {
		t.Fatalf("insert good row: %v", err)
	}

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, ok := got.Codes["BAD999"]; ok {
		t.Error("corrupt row loaded")
	}
	if _, ok := got.Codes["AA0001"]; !ok {
		t.Error("good row lost")
	}
}

func TestSaveAllRejectsCodeWithoutSnapshot(t *testing.T) {
	db := openTestDB(t)
	store := NewLocalStore(db)

	broken := Snapshot{
		Codes:     map[string]struct{}{"AA0001": {}},
		Snapshots: map[string]models.Listing{},
	}
	if err := store.SaveAll(context.Background(), broken); err == nil {
		t.Error("snapshot-less code should be rejected")
	}
}
