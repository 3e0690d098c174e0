package registry

import (
	"strings"

	"autotrack/internal/models"
)

// normalizeKey prepares a plate or VIN for comparison: surrounding
// whitespace stripped, uppercased.
func normalizeKey(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// FindByPlate returns the first record whose plate matches query after
// normalization on both sides. Exact match only; the second return value is
// false when nothing matches.
func (s *Store) FindByPlate(query string) (models.Vehicle, bool) {
	q := normalizeKey(query)
	if q == "" {
		return models.Vehicle{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.vehicles {
		if normalizeKey(v.Plate) == q {
			return v, true
		}
	}
	return models.Vehicle{}, false
}

// FindByVIN is the VIN counterpart of FindByPlate, used by the restricted
// viewer verification flow.
func (s *Store) FindByVIN(query string) (models.Vehicle, bool) {
	q := normalizeKey(query)
	if q == "" {
		return models.Vehicle{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.vehicles {
		if normalizeKey(v.VIN) == q {
			return v, true
		}
	}
	return models.Vehicle{}, false
}

// Verify matches query against plates first, then VINs. One record at a
// time is all this flow ever discloses.
func (s *Store) Verify(query string) (models.Vehicle, bool) {
	if v, ok := s.FindByPlate(query); ok {
		return v, true
	}
	return s.FindByVIN(query)
}
