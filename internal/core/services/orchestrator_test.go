package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/ewilliams-labs/chordlens/internal/adapters/memory"
	"github.com/ewilliams-labs/chordlens/internal/core/analysis"
	"github.com/ewilliams-labs/chordlens/internal/core/domain"
)

// TestOrchestrator_Analyze verifies how requests and presets reach the engine.
func TestOrchestrator_Analyze(t *testing.T) {
	stored := domain.Preset{ID: "p1", Name: "C major", Pitches: []string{"C4", "E4", "G4"}, Root: "C4"}

	tests := []struct {
		name        string
		req         AnalyzeRequest
		repo        mockRepo
		wantErr     error
		wantPitches []string
		wantCalled  bool
	}{
		{
			name:        "pitches from request",
			req:         AnalyzeRequest{Audio: []byte("x"), SampleRate: 44100, Pitches: []string{"A4"}},
			wantPitches: []string{"A4"},
			wantCalled:  true,
		},
		{
			name:        "nil pitch list becomes empty",
			req:         AnalyzeRequest{Audio: []byte("x"), SampleRate: 44100},
			wantPitches: []string{},
			wantCalled:  true,
		},
		{
			name:        "pitches from preset",
			req:         AnalyzeRequest{Audio: []byte("x"), SampleRate: 44100, PresetID: "p1"},
			repo:        mockRepo{presets: map[string]domain.Preset{"p1": stored}},
			wantPitches: []string{"C4", "E4", "G4"},
			wantCalled:  true,
		},
		{
			name:        "request overrides preset pitches",
			req:         AnalyzeRequest{Audio: []byte("x"), SampleRate: 44100, PresetID: "p1", Pitches: []string{"D4"}},
			repo:        mockRepo{presets: map[string]domain.Preset{"p1": stored}},
			wantPitches: []string{"D4"},
			wantCalled:  true,
		},
		{
			name:    "missing preset",
			req:     AnalyzeRequest{Audio: []byte("x"), SampleRate: 44100, PresetID: "nope"},
			wantErr: domain.ErrNotFound,
		},
	}

	for _, tc := range tests {
		tc := tc // capture range variable
		t.Run(tc.name, func(t *testing.T) {
			engine := &mockAnalyzer{}
			o := NewOrchestrator(engine, &tc.repo, 0)

			_, err := o.Analyze(context.Background(), tc.req)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
				if engine.called {
					t.Fatalf("engine must not run on error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if engine.called != tc.wantCalled {
				t.Fatalf("engine called = %v", engine.called)
			}
			if engine.pitches == nil || len(engine.pitches) != len(tc.wantPitches) {
				t.Fatalf("expected pitches %v, got %#v", tc.wantPitches, engine.pitches)
			}
			for i := range tc.wantPitches {
				if engine.pitches[i] != tc.wantPitches[i] {
					t.Fatalf("expected pitches %v, got %v", tc.wantPitches, engine.pitches)
				}
			}
			if engine.rate != tc.req.SampleRate {
				t.Fatalf("expected declared rate %d, got %d", tc.req.SampleRate, engine.rate)
			}
		})
	}
}

func TestOrchestrator_Analyze_PassesEngineErrors(t *testing.T) {
	want := &domain.AnalysisError{Kind: domain.KindDecode, Err: domain.ErrDecode}
	o := NewOrchestrator(&mockAnalyzer{err: want}, &mockRepo{}, 0)
	_, err := o.Analyze(context.Background(), AnalyzeRequest{Audio: []byte("x")})
	var aerr *domain.AnalysisError
	if !errors.As(err, &aerr) || aerr.Kind != domain.KindDecode {
		t.Fatalf("expected decode AnalysisError, got %v", err)
	}
}

func TestOrchestrator_Reference(t *testing.T) {
	o := NewOrchestrator(&mockAnalyzer{}, &mockRepo{}, 440)

	table, err := o.Reference([]string{"C4", "E4", "X9", "G4"}, "", 0)
	if err != nil {
		t.Fatalf("reference: %v", err)
	}
	if table.Root != "C4" || table.A4 != 440 {
		t.Fatalf("unexpected header: root %q a4 %g", table.Root, table.A4)
	}
	if len(table.Rows) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(table.Rows))
	}
	if table.Rows[2].Status != domain.StatusUnknownPitch || !math.IsNaN(table.Rows[2].JustHz) {
		t.Fatalf("expected unknown row, got %+v", table.Rows[2])
	}
	if got := table.Rows[1].OffsetCents; math.Abs(got+13.686) > 0.01 {
		t.Fatalf("E4 offset: expected -13.686, got %g", got)
	}
	if math.Abs(table.Rows[0].JustHz-table.Rows[0].EqualHz) > 1e-9 {
		t.Fatalf("tonic must sound equal tempered: %+v", table.Rows[0])
	}

	if _, err := o.Reference([]string{"C4"}, "Q", 0); !errors.Is(err, domain.ErrUnknownPitch) {
		t.Fatalf("expected ErrUnknownPitch for bad root, got %v", err)
	}

	table, err = o.Reference([]string{"nope"}, "", 0)
	if err != nil {
		t.Fatalf("reference: %v", err)
	}
	if table.Root != "" || table.Rows[0].Status != domain.StatusUnknownPitch {
		t.Fatalf("expected rootless table, got %+v", table)
	}
}

// TestOrchestrator_CreatePreset verifies preset validation and persistence.
func TestOrchestrator_CreatePreset(t *testing.T) {
	full := map[string]domain.Preset{}
	for i := 0; i < domain.MaxPresets; i++ {
		id := string(rune('a' + i))
		full[id] = domain.Preset{ID: id}
	}

	tests := []struct {
		name      string
		repo      mockRepo
		preset    string
		pitches   []string
		root      string
		wantErr   error
		wantSaved bool
	}{
		{name: "Happy Path", preset: "Triad", pitches: []string{"C4", "E4", "G4"}, root: "C4", wantSaved: true},
		{name: "blank name", preset: "   ", pitches: []string{"C4"}, wantErr: domain.ErrInvalidPreset},
		{name: "no pitches", preset: "Empty", wantErr: domain.ErrInvalidPreset},
		{name: "duplicate pitch", preset: "Dup", pitches: []string{"C#4", "Db4"}, wantErr: domain.ErrDuplicatePitch},
		{name: "bad pitch", preset: "Bad", pitches: []string{"C4", "H2"}, wantErr: domain.ErrUnknownPitch},
		{name: "bad root", preset: "Root", pitches: []string{"C4"}, root: "??", wantErr: domain.ErrUnknownPitch},
		{name: "limit reached", repo: mockRepo{presets: full}, preset: "One more", pitches: []string{"C4"}, wantErr: domain.ErrPresetLimit},
		{name: "repository save error", repo: mockRepo{saveErr: errors.New("disk full")}, preset: "Triad", pitches: []string{"C4"}},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			o := NewOrchestrator(&mockAnalyzer{}, &tc.repo, 0)
			o.newID = func() string { return "fixed-id" }
			o.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }

			p, err := o.CreatePreset(context.Background(), tc.preset, tc.pitches, tc.root)
			switch {
			case tc.wantErr != nil:
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
			case tc.repo.saveErr != nil:
				if err == nil {
					t.Fatalf("expected save error")
				}
			case err != nil:
				t.Fatalf("unexpected error: %v", err)
			}

			if !tc.wantSaved {
				if tc.repo.saved != nil && tc.repo.saveErr == nil {
					t.Fatalf("did not expect Create to be called")
				}
				return
			}
			if tc.repo.saved == nil {
				t.Fatalf("expected preset to be saved, but Create was not called")
			}
			if p.ID != "fixed-id" || tc.repo.saved.ID != "fixed-id" {
				t.Fatalf("unexpected id %q", p.ID)
			}
			if len(p.Pitches) != len(tc.pitches) || p.Root != tc.root || p.CreatedAt.IsZero() {
				t.Fatalf("unexpected preset %+v", p)
			}
		})
	}
}

func TestOrchestrator_CreatePreset_ConcurrentLimit(t *testing.T) {
	repo := memory.NewPresetStore()
	o := NewOrchestrator(&mockAnalyzer{}, repo, 0)
	ctx := context.Background()

	const callers = 2 * domain.MaxPresets
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
		limited int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := o.CreatePreset(ctx, fmt.Sprintf("Set %d", i), []string{"C4", "E4"}, "")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case errors.Is(err, domain.ErrPresetLimit):
				limited++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if created != domain.MaxPresets || limited != callers-domain.MaxPresets {
		t.Fatalf("expected %d created and %d limited, got %d and %d", domain.MaxPresets, callers-domain.MaxPresets, created, limited)
	}
	n, err := o.PresetCount(ctx)
	if err != nil || n != domain.MaxPresets {
		t.Fatalf("expected %d stored presets, got %d (%v)", domain.MaxPresets, n, err)
	}
}

func TestOrchestrator_PresetLookup(t *testing.T) {
	repo := &mockRepo{presets: map[string]domain.Preset{
		"old": {ID: "old", CreatedAt: time.Unix(100, 0)},
		"new": {ID: "new", CreatedAt: time.Unix(200, 0)},
	}}
	o := NewOrchestrator(&mockAnalyzer{}, repo, 0)
	ctx := context.Background()

	list, err := o.ListPresets(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].ID != "new" {
		t.Fatalf("expected newest first, got %+v", list)
	}

	if _, err := o.GetPreset(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := o.DeletePreset(ctx, "old"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := o.DeletePreset(ctx, "old"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

// --- Mocks ---

type mockAnalyzer struct {
	err error

	called  bool
	rate    int
	pitches []string
}

func (m *mockAnalyzer) Analyze(ctx context.Context, raw []byte, declaredSampleRate int, pitchNames []string, opts ...analysis.Option) (domain.Report, error) {
	m.called = true
	m.rate = declaredSampleRate
	m.pitches = pitchNames
	if m.err != nil {
		return domain.Report{}, m.err
	}
	return domain.Report{Deviations: make([]float64, len(pitchNames))}, nil
}

// mockRepo is a minimal map-backed PresetRepository.
type mockRepo struct {
	presets map[string]domain.Preset
	saveErr error

	saved *domain.Preset
}

func (m *mockRepo) GetByID(ctx context.Context, id string) (domain.Preset, error) {
	p, ok := m.presets[id]
	if !ok {
		return domain.Preset{}, domain.ErrNotFound
	}
	return p, nil
}

func (m *mockRepo) List(ctx context.Context) ([]domain.Preset, error) {
	out := make([]domain.Preset, 0, len(m.presets))
	for _, p := range m.presets {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *mockRepo) Count(ctx context.Context) (int, error) {
	return len(m.presets), nil
}

func (m *mockRepo) Create(ctx context.Context, p domain.Preset, limit int) error {
	if len(m.presets) >= limit {
		return domain.ErrPresetLimit
	}
	if m.saveErr != nil {
		return m.saveErr
	}
	if m.presets == nil {
		m.presets = map[string]domain.Preset{}
	}
	m.presets[p.ID] = p
	m.saved = &p
	return nil
}

func (m *mockRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.presets[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.presets, id)
	return nil
}
