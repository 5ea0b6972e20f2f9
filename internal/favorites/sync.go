package favorites

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"imovelmap/pkg/apierr"
	"imovelmap/pkg/models"
)

// Toggle actions, mirroring the API response.
const (
	ActionAdded   = "added"
	ActionRemoved = "removed"
)

// ErrMutationPending rejects a second toggle for a code whose first toggle
// has not resolved yet. Callers disable the trigger control until the
// pending mutation completes; hitting this error means that guard slipped.
var ErrMutationPending = errors.New("favorite mutation already pending for this code")

// Backend is the authoritative favorites API.
type Backend interface {
	ListFavorites(ctx context.Context) ([]models.Listing, error)
	ToggleFavorite(ctx context.Context, code string) (models.ToggleResult, error)
}

// Fallback is the durable local store used without a session.
type Fallback interface {
	SaveAll(ctx context.Context, snap Snapshot) error
	Load(ctx context.Context) (Snapshot, error)
}

// Synchronizer applies favorite toggles optimistically: the registry changes
// and publishes before the network round-trip, and a failed round-trip
// restores the exact pre-mutation snapshot.
type Synchronizer struct {
	Registry *Registry

	backend Backend
	store   Fallback
	// authed reports whether a server session exists. Unauthenticated
	// sessions persist straight to the fallback store.
	authed func() bool

	mu      sync.Mutex
	pending map[string]struct{}
}

func NewSynchronizer(reg *Registry, backend Backend, store Fallback, authed func() bool) *Synchronizer {
	return &Synchronizer{
		Registry: reg,
		backend:  backend,
		store:    store,
		authed:   authed,
		pending:  make(map[string]struct{}),
	}
}

// Load populates the registry: from the server when authenticated (a missing
// session reads as "no favorites"), otherwise from the durable store. On a
// read failure the prior registry state is left untouched.
func (s *Synchronizer) Load(ctx context.Context) error {
	if !s.authed() {
		snap, err := s.store.Load(ctx)
		if err != nil {
			return fmt.Errorf("load local favorites: %w", err)
		}
		s.Registry.Restore(snap)
		return nil
	}

	listings, err := s.backend.ListFavorites(ctx)
	if err != nil {
		if apierr.IsKind(err, apierr.KindUnauthorized) {
			s.Registry.Replace(nil)
			return nil
		}
		return err
	}
	s.Registry.Replace(listings)
	if err := s.store.SaveAll(ctx, s.Registry.Take()); err != nil {
		log.Printf("[favorites] mirror to local store failed: %v", err)
	}
	return nil
}

// IsFavorite reports current membership.
func (s *Synchronizer) IsFavorite(code string) bool {
	return s.Registry.IsFavorite(code)
}

// Toggle flips the favorite status of code. The known snapshot is required
// when adding a listing that is not already in the registry, so favorites
// can later render without a fetch.
//
// Authenticated flow: snapshot the registry, apply and publish immediately,
// send the mutation, persist the confirmed registry on success, restore the
// snapshot verbatim and surface a typed error on failure. Unauthenticated
// flow: apply and persist locally, no network, no rollback.
func (s *Synchronizer) Toggle(ctx context.Context, code string, known *models.Listing) (string, error) {
	if code == "" {
		return "", errors.New("toggle: empty listing code")
	}

	s.mu.Lock()
	if _, busy := s.pending[code]; busy {
		s.mu.Unlock()
		return "", ErrMutationPending
	}
	s.pending[code] = struct{}{}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.pending, code)
		s.mu.Unlock()
	}()

	pre := s.Registry.Take()

	var action string
	if s.Registry.IsFavorite(code) {
		s.Registry.Remove(code)
		action = ActionRemoved
	} else {
		if known == nil {
			return "", fmt.Errorf("toggle %s: listing snapshot required to add", code)
		}
		s.Registry.Add(code, *known)
		action = ActionAdded
	}

	if !s.authed() {
		if err := s.store.SaveAll(ctx, s.Registry.Take()); err != nil {
			return action, fmt.Errorf("persist local favorites: %w", err)
		}
		return action, nil
	}

	if _, err := s.backend.ToggleFavorite(ctx, code); err != nil {
		s.Registry.Restore(pre)
		return "", err
	}

	if err := s.store.SaveAll(ctx, s.Registry.Take()); err != nil {
		// The server confirmed the mutation; a stale mirror only matters
		// for the next logged-out session.
		log.Printf("[favorites] mirror to local store failed: %v", err)
	}
	return action, nil
}
