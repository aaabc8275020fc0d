// Package memory provides an in-process preset repository for tests and
// stateless deployments.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/ewilliams-labs/chordlens/internal/core/domain"
)

// PresetStore implements ports.PresetRepository in memory.
type PresetStore struct {
	mu      sync.RWMutex
	presets map[string]domain.Preset
}

func NewPresetStore() *PresetStore {
	return &PresetStore{presets: make(map[string]domain.Preset)}
}

func (s *PresetStore) GetByID(ctx context.Context, id string) (domain.Preset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.presets[id]
	if !ok {
		return domain.Preset{}, domain.ErrNotFound
	}
	return clone(p), nil
}

// List returns every preset, newest first.
func (s *PresetStore) List(ctx context.Context) ([]domain.Preset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Preset, 0, len(s.presets))
	for _, p := range s.presets {
		out = append(out, clone(p))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *PresetStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.presets), nil
}

func (s *PresetStore) Create(ctx context.Context, p domain.Preset, limit int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.presets) >= limit {
		return domain.ErrPresetLimit
	}
	if _, ok := s.presets[p.ID]; ok {
		return fmt.Errorf("memory: preset %s already exists", p.ID)
	}
	s.presets[p.ID] = clone(p)
	return nil
}

func (s *PresetStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.presets[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.presets, id)
	return nil
}

func clone(p domain.Preset) domain.Preset {
	p.Pitches = append([]string{}, p.Pitches...)
	return p
}
