// Package cart implements the shopping-cart aggregate: line mutation, order
// pricing and best-effort persistence of the line list.
package cart

import (
	"context"
	"encoding/json"
	"sync"

	domain "github.com/gazexpress/gazexpress/internal/app/domain/cart"
	"github.com/gazexpress/gazexpress/internal/app/domain/catalog"
	"github.com/gazexpress/gazexpress/internal/app/storage"
	"github.com/gazexpress/gazexpress/pkg/logger"
)

// Service owns the in-memory cart state. The memory copy is authoritative
// for the running session; the store holds a best-effort cache of the line
// list so the cart survives restarts. Zone, address and coordinates are
// deliberately not persisted and reset with the process.
type Service struct {
	kv  storage.KV
	log *logger.Logger

	mu          sync.Mutex
	lines       []domain.Line
	zone        *catalog.Zone
	address     string
	coordinates *domain.Coordinates
}

// New constructs an empty cart backed by the given store.
func New(kv storage.KV, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("cart")
	}
	return &Service{
		kv:  kv,
		log: log,
	}
}

// Load hydrates the line list from the store. A missing or unparsable entry
// leaves the cart empty; either way Load never fails the caller.
func (s *Service) Load(ctx context.Context) {
	raw, err := s.kv.Get(ctx, storage.CartKey)
	if err != nil {
		if err != storage.ErrNotFound {
			s.log.WithError(err).Warn("load persisted cart")
		}
		return
	}

	var lines []domain.Line
	if err := json.Unmarshal([]byte(raw), &lines); err != nil {
		s.log.WithError(err).Warn("decode persisted cart, starting empty")
		return
	}

	s.mu.Lock()
	s.lines = lines
	s.mu.Unlock()
}

// AddItem merges quantity into the existing line for the bouteille, or
// appends a new line. Stock limits are the caller's concern.
func (s *Service) AddItem(ctx context.Context, b catalog.Bouteille, quantite int64) {
	if quantite <= 0 {
		quantite = 1
	}

	s.mu.Lock()
	merged := false
	for i := range s.lines {
		if s.lines[i].Bouteille.ID == b.ID {
			s.lines[i].Quantite += quantite
			merged = true
			break
		}
	}
	if !merged {
		s.lines = append(s.lines, domain.Line{Bouteille: b, Quantite: quantite})
	}
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.persist(ctx, snapshot)
}

// RemoveItem drops the line for the bouteille; absent lines are a no-op.
func (s *Service) RemoveItem(ctx context.Context, bouteilleID int64) {
	s.mu.Lock()
	kept := s.lines[:0]
	for _, line := range s.lines {
		if line.Bouteille.ID != bouteilleID {
			kept = append(kept, line)
		}
	}
	s.lines = kept
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.persist(ctx, snapshot)
}

// UpdateQuantity overwrites the line's quantity. A quantity of zero or less
// removes the line.
func (s *Service) UpdateQuantity(ctx context.Context, bouteilleID, quantite int64) {
	if quantite <= 0 {
		s.RemoveItem(ctx, bouteilleID)
		return
	}

	s.mu.Lock()
	for i := range s.lines {
		if s.lines[i].Bouteille.ID == bouteilleID {
			s.lines[i].Quantite = quantite
			break
		}
	}
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.persist(ctx, snapshot)
}

// Clear resets every field and deletes the persisted entry outright, so no
// stale cart can resurface from an eventually consistent store.
func (s *Service) Clear(ctx context.Context) {
	s.mu.Lock()
	s.lines = nil
	s.zone = nil
	s.address = ""
	s.coordinates = nil
	s.mu.Unlock()

	if err := s.kv.Delete(ctx, storage.CartKey); err != nil {
		s.log.WithError(err).Warn("delete persisted cart")
	}
}

// SetDeliveryZone selects the zone whose flat fee enters the total.
func (s *Service) SetDeliveryZone(zone catalog.Zone) {
	s.mu.Lock()
	z := zone
	s.zone = &z
	s.mu.Unlock()
}

// SetDeliveryAddress records the free-text drop-off address.
func (s *Service) SetDeliveryAddress(address string) {
	s.mu.Lock()
	s.address = address
	s.mu.Unlock()
}

// SetDeliveryCoordinates records the drop-off point; nil clears it.
func (s *Service) SetDeliveryCoordinates(coords *domain.Coordinates) {
	s.mu.Lock()
	if coords == nil {
		s.coordinates = nil
	} else {
		c := *coords
		s.coordinates = &c
	}
	s.mu.Unlock()
}

// Lines returns a copy of the current line list.
func (s *Service) Lines() []domain.Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// SelectedZone returns the selected delivery zone, or nil.
func (s *Service) SelectedZone() *catalog.Zone {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.zone == nil {
		return nil
	}
	z := *s.zone
	return &z
}

// DeliveryAddress returns the recorded drop-off address.
func (s *Service) DeliveryAddress() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.address
}

// DeliveryCoordinates returns the recorded drop-off point, or nil.
func (s *Service) DeliveryCoordinates() *domain.Coordinates {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.coordinates == nil {
		return nil
	}
	c := *s.coordinates
	return &c
}

// Subtotal sums unit price times quantity over all lines. Integer
// arithmetic throughout: prices are in the smallest currency unit.
func (s *Service) Subtotal() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	var sum int64
	for _, line := range s.lines {
		sum += line.Bouteille.Prix * line.Quantite
	}
	return sum
}

// DeliveryFee is the selected zone's flat fee, or zero without a zone.
func (s *Service) DeliveryFee() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.zone == nil {
		return 0
	}
	return s.zone.FraisLivraison
}

// Total is subtotal plus delivery fee.
func (s *Service) Total() int64 {
	return s.Subtotal() + s.DeliveryFee()
}

// ItemCount sums line quantities. Recomputed on every call, never cached.
func (s *Service) ItemCount() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int64
	for _, line := range s.lines {
		count += line.Quantite
	}
	return count
}

func (s *Service) snapshotLocked() []domain.Line {
	return append([]domain.Line(nil), s.lines...)
}

// persist writes the line list to the store. Failures are logged and
// swallowed: the in-memory cart is the source of truth for the session and
// a mutation must never fail because the cache write did.
func (s *Service) persist(ctx context.Context, lines []domain.Line) {
	encoded, err := json.Marshal(lines)
	if err != nil {
		s.log.WithError(err).Warn("encode cart for persistence")
		return
	}
	if err := s.kv.Set(ctx, storage.CartKey, string(encoded)); err != nil {
		s.log.WithError(err).Warn("persist cart")
	}
}
