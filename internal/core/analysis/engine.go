package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ewilliams-labs/chordlens/internal/core/domain"
	"github.com/ewilliams-labs/chordlens/internal/core/ports"
	"github.com/ewilliams-labs/chordlens/internal/core/tuning"
)

// Config holds the tunables of the analysis engine.
type Config struct {
	WindowSize   int
	Overlap      float64
	A4           float64
	SearchCents  float64
	MinPeakRatio float64
}

func DefaultConfig() Config {
	return Config{
		WindowSize:   DefaultWindowSize,
		Overlap:      DefaultOverlap,
		A4:           tuning.DefaultA4,
		SearchCents:  DefaultSearchCents,
		MinPeakRatio: DefaultMinPeakRatio,
	}
}

// Engine turns a clip and a list of pitch names into per-pitch deviations.
// It keeps no per-call state; concurrent calls are independent.
type Engine struct {
	source      ports.WaveformSource
	transformer *Transformer
	estimator   Estimator
	a4          float64
	logger      *slog.Logger
}

// NewEngine validates cfg and wires the engine. source may be nil when only
// AnalyzeWaveform and Evaluate are used.
func NewEngine(source ports.WaveformSource, cfg Config, logger *slog.Logger) (*Engine, error) {
	t, err := NewTransformer(cfg.WindowSize, cfg.Overlap)
	if err != nil {
		return nil, err
	}
	if !domain.ValidFrequency(cfg.A4) {
		return nil, fmt.Errorf("analysis: a4 %g: %w", cfg.A4, domain.ErrInvalidFrequency)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{
		source:      source,
		transformer: t,
		estimator:   NewEstimator(cfg.SearchCents, cfg.MinPeakRatio),
		a4:          cfg.A4,
		logger:      logger,
	}, nil
}

type callOptions struct {
	root string
	a4   float64
}

// Option customizes a single analysis call.
type Option func(*callOptions)

// WithRoot fixes the tonic instead of estimating it from the pitch list.
func WithRoot(name string) Option {
	return func(o *callOptions) { o.root = name }
}

// WithA4 overrides the engine's concert pitch for one call.
func WithA4(hz float64) Option {
	return func(o *callOptions) { o.a4 = hz }
}

// Analyze decodes raw, transforms it once and evaluates every pitch name.
// Whole-input failures return *domain.AnalysisError; per-pitch failures are
// reported on the entry and leave NaN in Report.Deviations.
func (e *Engine) Analyze(ctx context.Context, raw []byte, declaredSampleRate int, pitchNames []string, opts ...Option) (domain.Report, error) {
	if e.source == nil {
		return domain.Report{}, errors.New("analysis: engine has no waveform source")
	}
	w, err := e.source.Load(ctx, raw, declaredSampleRate)
	if err != nil {
		if ctx.Err() != nil {
			return domain.Report{}, ctx.Err()
		}
		return domain.Report{}, domain.NewAnalysisError(err)
	}
	return e.AnalyzeWaveform(ctx, w, pitchNames, opts...)
}

// AnalyzeWaveform is Analyze for an already decoded clip.
func (e *Engine) AnalyzeWaveform(ctx context.Context, w domain.Waveform, pitchNames []string, opts ...Option) (domain.Report, error) {
	started := time.Now()
	spec, err := e.transformer.Transform(ctx, w)
	if err != nil {
		if ctx.Err() != nil {
			return domain.Report{}, ctx.Err()
		}
		return domain.Report{}, domain.NewAnalysisError(err)
	}

	var diagnostics []string
	if w.RateMismatch() {
		msg := fmt.Sprintf("declared sample rate %d Hz differs from decoded %d Hz; using decoded rate", w.DeclaredSampleRate, w.SampleRate)
		diagnostics = append(diagnostics, msg)
		e.logger.Warn("sample rate mismatch",
			slog.Int("declared_hz", w.DeclaredSampleRate),
			slog.Int("decoded_hz", w.SampleRate))
	}

	report, err := e.Evaluate(ctx, spec, pitchNames, opts...)
	if err != nil {
		return domain.Report{}, err
	}
	report.DeclaredSampleRate = w.DeclaredSampleRate
	report.Diagnostics = append(diagnostics, report.Diagnostics...)

	e.logger.Debug("analysis complete",
		slog.Int("samples", len(w.Samples)),
		slog.Int("sample_rate", w.SampleRate),
		slog.Int("frames", len(spec.Frames)),
		slog.Int("pitches", len(pitchNames)),
		slog.Duration("elapsed", time.Since(started)))
	return report, nil
}

// Evaluate runs the per-pitch steps against a spectrogram, which may come
// from Transform or from domain.NewSpectrogram.
func (e *Engine) Evaluate(ctx context.Context, spec domain.Spectrogram, pitchNames []string, opts ...Option) (domain.Report, error) {
	o := callOptions{a4: e.a4}
	for _, opt := range opts {
		opt(&o)
	}
	if !domain.ValidFrequency(o.a4) {
		return domain.Report{}, fmt.Errorf("analysis: a4 %g: %w", o.a4, domain.ErrInvalidFrequency)
	}
	if len(spec.Frames) == 0 || spec.Bins() < 3 || !(spec.BinWidth > 0) {
		return domain.Report{}, domain.NewAnalysisError(fmt.Errorf("analysis: empty spectrogram: %w", domain.ErrTransform))
	}
	if err := spec.Validate(); err != nil {
		return domain.Report{}, domain.NewAnalysisError(fmt.Errorf("analysis: %w", err))
	}

	report := domain.Report{
		Deviations:         make([]float64, len(pitchNames)),
		Entries:            make([]domain.EntryResult, len(pitchNames)),
		SampleRate:         spec.SampleRate,
		DeclaredSampleRate: spec.SampleRate,
	}

	tonic, _, ok, err := tuning.ChooseTonic(pitchNames, o.root)
	if err != nil {
		return domain.Report{}, domain.NewAnalysisError(err)
	}
	var ref *tuning.Reference
	if ok {
		ref, err = tuning.NewReference(o.a4, tonic)
		if err != nil {
			return domain.Report{}, err
		}
		report.Root = tonic.String()
	}

	targets := e.targets(ref, pitchNames)
	spectrum := NewSpectrum(spec)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, name := range pitchNames {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			entry := e.evaluateEntry(spectrum, name, ref, targets[i])
			report.Entries[i] = entry
			report.Deviations[i] = entry.Cents
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return domain.Report{}, err
	}
	return report, nil
}

// target is the resolved reference of one requested pitch plus the search
// band it may claim.
type target struct {
	pitch     domain.Pitch
	ok        bool
	hz        float64
	bandCents float64
}

// targets resolves every name and narrows each search band to half the
// distance to the nearest other requested pitch, so neighbouring chord tones
// never compete for the same peak.
func (e *Engine) targets(ref *tuning.Reference, names []string) []target {
	out := make([]target, len(names))
	if ref == nil {
		return out
	}
	for i, n := range names {
		p, err := domain.ParsePitch(n)
		if err != nil {
			continue
		}
		out[i] = target{pitch: p, ok: true, hz: ref.JustHz(p), bandCents: e.estimator.SearchCents}
	}
	for i := range out {
		if !out[i].ok {
			continue
		}
		for j := range out {
			if i == j || !out[j].ok || out[j].pitch == out[i].pitch {
				continue
			}
			dist := math.Abs(1200 * math.Log2(out[j].hz/out[i].hz))
			if dist/2 < out[i].bandCents {
				out[i].bandCents = dist / 2
			}
		}
	}
	return out
}

func (e *Engine) evaluateEntry(spectrum Spectrum, name string, ref *tuning.Reference, t target) domain.EntryResult {
	entry := domain.EntryResult{
		Pitch:            name,
		Status:           domain.StatusUnknownPitch,
		ReferenceHz:      domain.NoResult(),
		EqualOffsetCents: domain.NoResult(),
		ObservedHz:       domain.NoResult(),
		Cents:            domain.NoResult(),
	}
	if !t.ok {
		return entry
	}

	entry.Status = domain.StatusNotDetected
	entry.ReferenceHz = t.hz
	entry.EqualOffsetCents = 1200 * math.Log2(t.hz/tuning.EqualTemperedHz(ref.A4(), t.pitch))

	observed, found := e.estimator.EstimateBand(spectrum, t.hz, t.bandCents)
	if !found {
		return entry
	}
	cents, err := Deviation(observed, t.hz)
	if err != nil {
		return entry
	}
	entry.Status = domain.StatusOK
	entry.ObservedHz = observed
	entry.Cents = cents
	return entry
}
