package sqlite

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ewilliams-labs/chordlens/internal/core/domain"
)

func newTestAdapter(t *testing.T) *Adapter {
	t.Helper()
	a, err := NewAdapter(":memory:")
	if err != nil {
		t.Fatalf("new adapter: %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

func TestAdapter_GetByID(t *testing.T) {
	tests := []struct {
		name        string
		setup       func(t *testing.T, a *Adapter) string
		wantErr     error
		wantName    string
		wantRoot    string
		wantPitches []string
	}{
		{
			name: "not found",
			setup: func(t *testing.T, a *Adapter) string {
				return "missing"
			},
			wantErr: domain.ErrNotFound,
		},
		{
			name: "returns preset with ordered pitches",
			setup: func(t *testing.T, a *Adapter) string {
				p := domain.Preset{
					ID:        "p-1",
					Name:      "Dominant",
					Pitches:   []string{"G3", "B3", "D4", "F4"},
					Root:      "G3",
					CreatedAt: time.Date(2024, 3, 1, 10, 0, 0, 123, time.UTC),
				}
				if err := a.Create(context.Background(), p, domain.MaxPresets); err != nil {
					t.Fatalf("create preset: %v", err)
				}
				return p.ID
			},
			wantName:    "Dominant",
			wantRoot:    "G3",
			wantPitches: []string{"G3", "B3", "D4", "F4"},
		},
		{
			name: "duplicate id keeps the first preset",
			setup: func(t *testing.T, a *Adapter) string {
				p := domain.Preset{ID: "p-2", Name: "First", Pitches: []string{"C4", "E4", "G4"}, CreatedAt: time.Unix(10, 0)}
				if err := a.Create(context.Background(), p, domain.MaxPresets); err != nil {
					t.Fatalf("create preset: %v", err)
				}
				p.Name = "Second"
				p.Pitches = []string{"A3", "C4"}
				if err := a.Create(context.Background(), p, domain.MaxPresets); err == nil {
					t.Fatalf("expected duplicate id to fail")
				}
				return p.ID
			},
			wantName:    "First",
			wantPitches: []string{"C4", "E4", "G4"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestAdapter(t)

			id := tt.setup(t, a)
			got, err := a.GetByID(context.Background(), id)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected error %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.ID != id || got.Name != tt.wantName || got.Root != tt.wantRoot {
				t.Fatalf("unexpected preset %+v", got)
			}
			if len(got.Pitches) != len(tt.wantPitches) {
				t.Fatalf("expected pitches %v, got %v", tt.wantPitches, got.Pitches)
			}
			for i := range tt.wantPitches {
				if got.Pitches[i] != tt.wantPitches[i] {
					t.Fatalf("expected pitches %v, got %v", tt.wantPitches, got.Pitches)
				}
			}
		})
	}
}

func TestAdapter_CreatedAtRoundTrip(t *testing.T) {
	a := newTestAdapter(t)
	ctx := context.Background()
	at := time.Date(2024, 3, 1, 10, 0, 0, 123456789, time.UTC)
	if err := a.Create(ctx, domain.Preset{ID: "p", Name: "x", Pitches: []string{"C4"}, CreatedAt: at}, domain.MaxPresets); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := a.GetByID(ctx, "p")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.CreatedAt.Equal(at) {
		t.Fatalf("expected %v, got %v", at, got.CreatedAt)
	}
}

func TestAdapter_ListCountDelete(t *testing.T) {
	a := newTestAdapter(t)
	ctx := context.Background()

	list, err := a.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if list == nil || len(list) != 0 {
		t.Fatalf("expected empty non-nil list, got %#v", list)
	}

	for i, id := range []string{"old", "mid", "new"} {
		p := domain.Preset{
			ID:        id,
			Name:      id,
			Pitches:   []string{"C4", "E4"},
			CreatedAt: time.Unix(int64(100*(i+1)), 0),
		}
		if err := a.Create(ctx, p, domain.MaxPresets); err != nil {
			t.Fatalf("save %s: %v", id, err)
		}
	}

	n, err := a.Count(ctx)
	if err != nil || n != 3 {
		t.Fatalf("expected 3 presets, got %d (%v)", n, err)
	}

	list, err = a.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []string{"new", "mid", "old"}
	for i, p := range list {
		if p.ID != want[i] {
			t.Fatalf("expected order %v, got %s at %d", want, p.ID, i)
		}
		if len(p.Pitches) != 2 {
			t.Fatalf("%s: expected 2 pitches, got %v", p.ID, p.Pitches)
		}
	}

	if err := a.Delete(ctx, "mid"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := a.Delete(ctx, "mid"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := a.GetByID(ctx, "mid"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if n, _ := a.Count(ctx); n != 2 {
		t.Fatalf("expected 2 presets after delete, got %d", n)
	}
}

func TestNewAdapter_ReopenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presets.db")
	a, err := NewAdapter(path)
	if err != nil {
		t.Fatalf("new adapter: %v", err)
	}
	ctx := context.Background()
	if err := a.Create(ctx, domain.Preset{ID: "keep", Name: "Keep", Pitches: []string{"A4"}, CreatedAt: time.Unix(1, 0)}, domain.MaxPresets); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	// Migration must be idempotent on an existing schema.
	b, err := NewAdapter(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer b.Close()
	got, err := b.GetByID(ctx, "keep")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "Keep" || len(got.Pitches) != 1 {
		t.Fatalf("unexpected preset %+v", got)
	}
}

func TestAdapter_CreateConcurrentLimit(t *testing.T) {
	a, err := NewAdapter(filepath.Join(t.TempDir(), "presets.db"))
	if err != nil {
		t.Fatalf("new adapter: %v", err)
	}
	defer a.Close()
	ctx := context.Background()

	const callers = 2 * domain.MaxPresets
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = a.Create(ctx, domain.Preset{
				ID:        fmt.Sprintf("p-%02d", i),
				Name:      fmt.Sprintf("Set %d", i),
				Pitches:   []string{"C4", "G4"},
				CreatedAt: time.Unix(int64(i), 0),
			}, domain.MaxPresets)
		}(i)
	}
	wg.Wait()

	var created, limited int
	for _, err := range errs {
		switch {
		case err == nil:
			created++
		case errors.Is(err, domain.ErrPresetLimit):
			limited++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	n, err := a.Count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if created != domain.MaxPresets || limited != callers-domain.MaxPresets || n != domain.MaxPresets {
		t.Fatalf("expected %d stored, got created=%d limited=%d count=%d", domain.MaxPresets, created, limited, n)
	}
}
