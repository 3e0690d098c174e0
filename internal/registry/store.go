// Package registry implements the vehicle record store. The store owns the
// in-memory collection and mirrors it to the persistent key-value store as a
// full JSON snapshot after every successful mutation. All write paths — the
// HTTP handlers and the voice assistant's tool calls alike — go through the
// same entry points, so the access policy and persistence are never bypassed.
package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"autotrack/internal/models"
	"autotrack/internal/policy"
	"autotrack/internal/storage"

	"github.com/google/uuid"
)

var (
	// ErrDenied is returned when the caller's role lacks the capability.
	// The store never mutates on a denied call.
	ErrDenied = errors.New("operation not permitted for role")
	// ErrNotFound is returned when no record matches the given id.
	ErrNotFound = errors.New("vehicle not found")
)

// MaxImageBytes caps the encoded photo accepted on create and update.
const MaxImageBytes = 1 << 20

// Payload carries the caller-supplied fields of a vehicle record. ID and
// LastUpdated have no place here: the store owns both.
type Payload struct {
	Plate   string             `json:"plate"`
	VIN     string             `json:"vin"`
	Type    models.VehicleType `json:"type"`
	Model   string             `json:"model"`
	Year    string             `json:"year"`
	Color   string             `json:"color"`
	Owner   string             `json:"owner"`
	History string             `json:"history"`
	Image   string             `json:"image,omitempty"`
}

// Store holds the record collection in insertion order.
type Store struct {
	mu       sync.Mutex
	vehicles []models.Vehicle

	kv     storage.KV
	policy policy.Policy

	now   func() time.Time
	newID func() string
}

// Option overrides a Store dependency, mainly for tests.
type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

// New builds a store backed by kv. The collection is rehydrated from the
// persisted snapshot if one exists, otherwise seeded with the default
// dataset (which is persisted immediately).
func New(ctx context.Context, kv storage.KV, pol policy.Policy, opts ...Option) (*Store, error) {
	s := &Store{
		kv:     kv,
		policy: pol,
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}

	raw, err := kv.Get(ctx, storage.KeyData)
	if err != nil {
		return nil, fmt.Errorf("failed to load vehicle data: %w", err)
	}

	if raw == nil {
		s.vehicles = seedVehicles(s.now())
		if err := s.persist(ctx); err != nil {
			return nil, err
		}
		return s, nil
	}

	if err := json.Unmarshal(raw, &s.vehicles); err != nil {
		return nil, fmt.Errorf("failed to decode vehicle data: %w", err)
	}
	return s, nil
}

// persist rewrites the full snapshot. Callers must hold s.mu or be the only
// goroutine with a reference (construction time).
func (s *Store) persist(ctx context.Context) error {
	raw, err := json.Marshal(s.vehicles)
	if err != nil {
		return fmt.Errorf("failed to encode vehicle data: %w", err)
	}
	if err := s.kv.Set(ctx, storage.KeyData, raw); err != nil {
		return fmt.Errorf("failed to persist vehicle data: %w", err)
	}
	return nil
}

// List returns a snapshot copy of the collection in insertion order.
func (s *Store) List(role models.UserRole) ([]models.Vehicle, error) {
	if !s.policy.CanList(role) {
		return nil, ErrDenied
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Vehicle, len(s.vehicles))
	copy(out, s.vehicles)
	return out, nil
}

// Count returns the number of records. Available to any authenticated role.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.vehicles)
}

func validatePayload(p Payload) error {
	if strings.TrimSpace(p.Plate) == "" {
		return errors.New("plate is required")
	}
	if strings.TrimSpace(p.VIN) == "" {
		return errors.New("vin is required")
	}
	if !models.ValidVehicleType(p.Type) {
		return fmt.Errorf("unknown vehicle type %q", p.Type)
	}
	if len(p.Image) > MaxImageBytes {
		return fmt.Errorf("image exceeds %d bytes", MaxImageBytes)
	}
	return nil
}

// Create appends a new record. The id and timestamp are generated by the
// store regardless of anything present in the payload.
func (s *Store) Create(ctx context.Context, role models.UserRole, p Payload) (models.Vehicle, error) {
	if !s.policy.CanWrite(role) {
		return models.Vehicle{}, ErrDenied
	}
	if err := validatePayload(p); err != nil {
		return models.Vehicle{}, err
	}

	v := models.Vehicle{
		ID:          s.newID(),
		Plate:       strings.TrimSpace(p.Plate),
		VIN:         strings.TrimSpace(p.VIN),
		Type:        p.Type,
		Model:       p.Model,
		Year:        p.Year,
		Color:       p.Color,
		Owner:       p.Owner,
		History:     p.History,
		Image:       p.Image,
		LastUpdated: s.now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.vehicles = append(s.vehicles, v)
	if err := s.persist(ctx); err != nil {
		// roll back the append so memory and disk stay in step
		s.vehicles = s.vehicles[:len(s.vehicles)-1]
		return models.Vehicle{}, err
	}
	return v, nil
}

// Update replaces the record matching id with the merged payload, keeping
// the id and re-stamping LastUpdated.
func (s *Store) Update(ctx context.Context, role models.UserRole, id string, p Payload) (models.Vehicle, error) {
	if !s.policy.CanWrite(role) {
		return models.Vehicle{}, ErrDenied
	}
	if err := validatePayload(p); err != nil {
		return models.Vehicle{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.vehicles {
		if s.vehicles[i].ID != id {
			continue
		}
		prev := s.vehicles[i]
		s.vehicles[i] = models.Vehicle{
			ID:          prev.ID,
			Plate:       strings.TrimSpace(p.Plate),
			VIN:         strings.TrimSpace(p.VIN),
			Type:        p.Type,
			Model:       p.Model,
			Year:        p.Year,
			Color:       p.Color,
			Owner:       p.Owner,
			History:     p.History,
			Image:       p.Image,
			LastUpdated: s.now(),
		}
		if err := s.persist(ctx); err != nil {
			s.vehicles[i] = prev
			return models.Vehicle{}, err
		}
		return s.vehicles[i], nil
	}
	return models.Vehicle{}, ErrNotFound
}

// Delete removes the record matching id. The explicit user confirmation step
// is the caller's concern; by the time Delete runs it is assumed given.
func (s *Store) Delete(ctx context.Context, role models.UserRole, id string) error {
	if !s.policy.CanWrite(role) {
		return ErrDenied
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.vehicles {
		if s.vehicles[i].ID != id {
			continue
		}
		removed := s.vehicles[i]
		s.vehicles = append(s.vehicles[:i], s.vehicles[i+1:]...)
		if err := s.persist(ctx); err != nil {
			s.vehicles = append(s.vehicles[:i], append([]models.Vehicle{removed}, s.vehicles[i:]...)...)
			return err
		}
		return nil
	}
	return ErrNotFound
}

// Export serializes the full collection as indented JSON for download.
func (s *Store) Export(role models.UserRole) ([]byte, error) {
	if !s.policy.CanExport(role) {
		return nil, ErrDenied
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, err := json.MarshalIndent(s.vehicles, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode export: %w", err)
	}
	return raw, nil
}

// Policy exposes the store's access policy for callers that need to gate
// read-side views.
func (s *Store) Policy() policy.Policy { return s.policy }
