package favorites

import (
	"context"
	"errors"
	"net"
	"reflect"
	"testing"

	"imovelmap/pkg/apierr"
	"imovelmap/pkg/models"
)

type fakeBackend struct {
	toggleErr error
	listErr   error
	listings  []models.Listing
	toggles   []string
	entered   chan struct{} // when set, signals each ToggleFavorite call
	blocked   chan struct{} // when set, ToggleFavorite waits for it
}

func (f *fakeBackend) ListFavorites(ctx context.Context) ([]models.Listing, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.listings, nil
}

func (f *fakeBackend) ToggleFavorite(ctx context.Context, code string) (models.ToggleResult, error) {
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.blocked != nil {
		<-f.blocked
	}
	f.toggles = append(f.toggles, code)
	if f.toggleErr != nil {
		return models.ToggleResult{}, f.toggleErr
	}
	return models.ToggleResult{Status: "success", Action: ActionAdded}, nil
}

type memStore struct {
	snap  Snapshot
	saves int
}

func (m *memStore) SaveAll(ctx context.Context, snap Snapshot) error {
	m.snap = snap
	m.saves++
	return nil
}

func (m *memStore) Load(ctx context.Context) (Snapshot, error) {
	if m.snap.Codes == nil {
		return Snapshot{
			Codes:     make(map[string]struct{}),
			Snapshots: make(map[string]models.Listing),
		}, nil
	}
	return m.snap, nil
}

func listing(code string) models.Listing {
	return models.Listing{
		Codigo:     code,
		TipoImovel: "Casa",
		Cidade:     "São Paulo",
		Estado:     "SP",
		Valor:      250000,
		Latitude:   -23.55,
		Longitude:  -46.63,
	}
}

func newSynchronizer(backend Backend, authed bool) (*Synchronizer, *memStore) {
	store := &memStore{}
	s := NewSynchronizer(NewRegistry(), backend, store, func() bool { return authed })
	return s, store
}

func TestToggleTwiceReturnsToOriginalState(t *testing.T) {
	s, _ := newSynchronizer(&fakeBackend{}, true)
	l := listing("AB1234")

	action, err := s.Toggle(context.Background(), l.Codigo, &l)
	if err != nil {
		t.Fatalf("first toggle: %v", err)
	}
	if action != ActionAdded || !s.IsFavorite(l.Codigo) {
		t.Fatalf("first toggle action=%s favorite=%v", action, s.IsFavorite(l.Codigo))
	}

	action, err = s.Toggle(context.Background(), l.Codigo, &l)
	if err != nil {
		t.Fatalf("second toggle: %v", err)
	}
	if action != ActionRemoved || s.IsFavorite(l.Codigo) {
		t.Fatalf("second toggle action=%s favorite=%v", action, s.IsFavorite(l.Codigo))
	}
	if s.Registry.Len() != 0 {
		t.Errorf("registry not back to empty: %v", s.Registry.Codes())
	}
}

func TestFailedToggleRestoresExactPriorState(t *testing.T) {
	backend := &fakeBackend{toggleErr: apierr.New(apierr.KindServer, "500")}
	s, _ := newSynchronizer(backend, true)

	existing := listing("XY9999")
	s.Registry.Add(existing.Codigo, existing)
	before := s.Registry.Take()

	l := listing("AB1234")
	if _, err := s.Toggle(context.Background(), l.Codigo, &l); err == nil {
		t.Fatal("toggle should fail")
	}

	after := s.Registry.Take()
	if !reflect.DeepEqual(before.Codes, after.Codes) {
		t.Errorf("codes changed: %v vs %v", before.Codes, after.Codes)
	}
	if !reflect.DeepEqual(before.Snapshots, after.Snapshots) {
		t.Errorf("snapshots changed: %v vs %v", before.Snapshots, after.Snapshots)
	}
}

func TestOfflineToggleSurfacesNetworkErrorAndKeepsState(t *testing.T) {
	backend := &fakeBackend{
		toggleErr: apierr.Network(&net.OpError{Op: "dial", Err: errors.New("connection refused")}),
	}
	s, _ := newSynchronizer(backend, true)

	l := listing("AB1234")
	wasFavorite := s.IsFavorite("AB1234")

	_, err := s.Toggle(context.Background(), "AB1234", &l)
	if !apierr.IsKind(err, apierr.KindNetwork) {
		t.Fatalf("error = %v, want network kind", err)
	}
	if s.IsFavorite("AB1234") != wasFavorite {
		t.Errorf("favorite state changed after failed toggle")
	}
}

func TestToggleErrorKindsPassThrough(t *testing.T) {
	kinds := []apierr.Kind{apierr.KindUnauthorized, apierr.KindNotFound, apierr.KindServer}
	for _, kind := range kinds {
		backend := &fakeBackend{toggleErr: apierr.New(kind, kind.String())}
		s, _ := newSynchronizer(backend, true)
		l := listing("AB1234")
		_, err := s.Toggle(context.Background(), l.Codigo, &l)
		if !apierr.IsKind(err, kind) {
			t.Errorf("error = %v, want kind %v", err, kind)
		}
	}
}

func TestSecondToggleWhilePendingIsRejected(t *testing.T) {
	backend := &fakeBackend{entered: make(chan struct{}, 2), blocked: make(chan struct{})}
	s, _ := newSynchronizer(backend, true)
	l := listing("AB1234")

	firstDone := make(chan error, 1)
	go func() {
		_, err := s.Toggle(context.Background(), l.Codigo, &l)
		firstDone <- err
	}()

	// Wait until the first toggle is parked inside the backend call.
	<-backend.entered

	if _, err := s.Toggle(context.Background(), l.Codigo, &l); !errors.Is(err, ErrMutationPending) {
		t.Errorf("second toggle err = %v, want ErrMutationPending", err)
	}

	close(backend.blocked)
	if err := <-firstDone; err != nil {
		t.Fatalf("first toggle: %v", err)
	}

	// Resolved mutation releases the guard.
	if _, err := s.Toggle(context.Background(), l.Codigo, nil); err != nil {
		t.Errorf("toggle after resolution: %v", err)
	}
}

func TestUnauthenticatedTogglePersistsLocallyWithoutNetwork(t *testing.T) {
	backend := &fakeBackend{}
	s, store := newSynchronizer(backend, false)
	l := listing("AB1234")

	action, err := s.Toggle(context.Background(), l.Codigo, &l)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if action != ActionAdded {
		t.Errorf("action = %s, want added", action)
	}
	if len(backend.toggles) != 0 {
		t.Error("unauthenticated toggle hit the network")
	}
	if store.saves == 0 {
		t.Error("unauthenticated toggle did not persist locally")
	}
	if _, ok := store.snap.Codes[l.Codigo]; !ok {
		t.Error("persisted snapshot missing toggled code")
	}
}

func TestLoadUnauthorizedReadsAsNoFavorites(t *testing.T) {
	backend := &fakeBackend{listErr: apierr.New(apierr.KindUnauthorized, "401")}
	s, _ := newSynchronizer(backend, true)
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Registry.Len() != 0 {
		t.Errorf("registry = %v, want empty", s.Registry.Codes())
	}
}

func TestLoadFailureLeavesPriorStateUntouched(t *testing.T) {
	backend := &fakeBackend{listErr: apierr.New(apierr.KindServer, "503")}
	s, _ := newSynchronizer(backend, true)
	existing := listing("KEEP01")
	s.Registry.Add(existing.Codigo, existing)

	if err := s.Load(context.Background()); err == nil {
		t.Fatal("Load should fail")
	}
	if !s.IsFavorite("KEEP01") {
		t.Error("failed read cleared prior state")
	}
}

func TestLoadFromBackendMirrorsToStore(t *testing.T) {
	backend := &fakeBackend{listings: []models.Listing{listing("AA0001"), listing("BB0002")}}
	s, store := newSynchronizer(backend, true)

	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := s.Registry.Codes(); !reflect.DeepEqual(got, []string{"AA0001", "BB0002"}) {
		t.Errorf("codes = %v", got)
	}
	if store.saves != 1 {
		t.Errorf("store saves = %d, want 1", store.saves)
	}
}

func TestAddWithoutSnapshotRejected(t *testing.T) {
	s, _ := newSynchronizer(&fakeBackend{}, true)
	if _, err := s.Toggle(context.Background(), "AB1234", nil); err == nil {
		t.Error("adding without a snapshot should fail")
	}
	if s.Registry.Len() != 0 {
		t.Error("rejected add left registry dirty")
	}
}
