package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/ewilliams-labs/chordlens/internal/core/analysis"
	"github.com/ewilliams-labs/chordlens/internal/core/domain"
	"github.com/ewilliams-labs/chordlens/internal/core/ports"
	"github.com/ewilliams-labs/chordlens/internal/core/tuning"
)

// Analyzer is the slice of *analysis.Engine the orchestrator needs.
type Analyzer interface {
	Analyze(ctx context.Context, raw []byte, declaredSampleRate int, pitchNames []string, opts ...analysis.Option) (domain.Report, error)
}

// AnalyzeRequest is one clip plus the pitches to check. When PresetID is set
// the preset supplies Pitches and Root unless the request overrides them.
type AnalyzeRequest struct {
	Audio      []byte
	SampleRate int
	Pitches    []string
	Root       string
	A4         float64
	PresetID   string
}

// ReferenceRow is one line of a just-vs-equal reference table.
type ReferenceRow struct {
	Pitch       string
	Status      domain.EntryStatus
	JustHz      float64
	EqualHz     float64
	OffsetCents float64
}

// ReferenceTable lists the reference frequencies for a pitch set.
type ReferenceTable struct {
	Root        string
	TonicSource tuning.TonicSource
	A4          float64
	Rows        []ReferenceRow
}

// Orchestrator coordinates the analysis engine and the preset repository.
type Orchestrator struct {
	engine Analyzer
	repo   ports.PresetRepository
	a4     float64
	now    func() time.Time
	newID  func() string
}

// NewOrchestrator constructs an Orchestrator. a4 is the default concert pitch
// for reference tables; a non-positive value falls back to tuning.DefaultA4.
func NewOrchestrator(engine Analyzer, repo ports.PresetRepository, a4 float64) *Orchestrator {
	if !(a4 > 0) {
		a4 = tuning.DefaultA4
	}
	return &Orchestrator{
		engine: engine,
		repo:   repo,
		a4:     a4,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// Analyze resolves the request's pitch set and runs the engine.
func (o *Orchestrator) Analyze(ctx context.Context, req AnalyzeRequest) (domain.Report, error) {
	pitches, root := req.Pitches, req.Root
	if req.PresetID != "" {
		p, err := o.repo.GetByID(ctx, req.PresetID)
		if err != nil {
			return domain.Report{}, fmt.Errorf("service: load preset %s: %w", req.PresetID, err)
		}
		if len(pitches) == 0 {
			pitches = p.Pitches
		}
		if root == "" {
			root = p.Root
		}
	}
	if pitches == nil {
		pitches = []string{}
	}

	var opts []analysis.Option
	if root != "" {
		opts = append(opts, analysis.WithRoot(root))
	}
	if req.A4 != 0 {
		opts = append(opts, analysis.WithA4(req.A4))
	}
	return o.engine.Analyze(ctx, req.Audio, req.SampleRate, pitches, opts...)
}

// Reference builds the just and equal-tempered frequencies of names. Names
// that do not parse get an unknown_pitch row; an unparsable root fails.
func (o *Orchestrator) Reference(names []string, root string, a4 float64) (ReferenceTable, error) {
	if a4 == 0 {
		a4 = o.a4
	}
	table := ReferenceTable{A4: a4, Rows: make([]ReferenceRow, 0, len(names))}

	tonic, source, ok, err := tuning.ChooseTonic(names, root)
	if err != nil {
		return ReferenceTable{}, fmt.Errorf("service: %w", err)
	}
	if !ok {
		for _, n := range names {
			table.Rows = append(table.Rows, unknownRow(n))
		}
		return table, nil
	}
	ref, err := tuning.NewReference(a4, tonic)
	if err != nil {
		return ReferenceTable{}, fmt.Errorf("service: %w", err)
	}
	table.Root = tonic.String()
	table.TonicSource = source

	for _, n := range names {
		just, err := ref.Resolve(n)
		if err != nil {
			table.Rows = append(table.Rows, unknownRow(n))
			continue
		}
		equal, _ := ref.EqualTempered(n)
		offset, _ := ref.JustOffsetCents(n)
		table.Rows = append(table.Rows, ReferenceRow{
			Pitch:       n,
			Status:      domain.StatusOK,
			JustHz:      just,
			EqualHz:     equal,
			OffsetCents: offset,
		})
	}
	return table, nil
}

func unknownRow(name string) ReferenceRow {
	return ReferenceRow{
		Pitch:       name,
		Status:      domain.StatusUnknownPitch,
		JustHz:      math.NaN(),
		EqualHz:     math.NaN(),
		OffsetCents: math.NaN(),
	}
}

// CreatePreset validates and stores a new pitch set. The repository enforces
// domain.MaxPresets atomically with the insert.
func (o *Orchestrator) CreatePreset(ctx context.Context, name string, pitches []string, root string) (domain.Preset, error) {
	p, err := domain.NewPreset(o.newID(), name)
	if err != nil {
		return domain.Preset{}, fmt.Errorf("service: domain rule violation: %w", err)
	}
	if len(pitches) == 0 {
		return domain.Preset{}, fmt.Errorf("service: preset needs at least one pitch: %w", domain.ErrInvalidPreset)
	}
	for _, n := range pitches {
		if err := p.AddPitch(n); err != nil {
			return domain.Preset{}, fmt.Errorf("service: pitch %q: %w", n, err)
		}
	}
	if err := p.SetRoot(root); err != nil {
		return domain.Preset{}, fmt.Errorf("service: root %q: %w", root, err)
	}
	p.CreatedAt = o.now().UTC()

	if err := o.repo.Create(ctx, *p, domain.MaxPresets); err != nil {
		if errors.Is(err, domain.ErrPresetLimit) {
			return domain.Preset{}, fmt.Errorf("service: %d presets stored: %w", domain.MaxPresets, err)
		}
		return domain.Preset{}, fmt.Errorf("service: failed to save preset: %w", err)
	}
	return *p, nil
}

// ListPresets returns every preset, newest first.
func (o *Orchestrator) ListPresets(ctx context.Context) ([]domain.Preset, error) {
	presets, err := o.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list presets: %w", err)
	}
	return presets, nil
}

// PresetCount reports how many presets are stored.
func (o *Orchestrator) PresetCount(ctx context.Context) (int, error) {
	n, err := o.repo.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("service: failed to count presets: %w", err)
	}
	return n, nil
}

func (o *Orchestrator) GetPreset(ctx context.Context, id string) (domain.Preset, error) {
	p, err := o.repo.GetByID(ctx, id)
	if err != nil {
		return domain.Preset{}, fmt.Errorf("service: failed to load preset: %w", err)
	}
	return p, nil
}

func (o *Orchestrator) DeletePreset(ctx context.Context, id string) error {
	if err := o.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("service: preset %s: %w", id, err)
		}
		return fmt.Errorf("service: failed to delete preset: %w", err)
	}
	return nil
}
