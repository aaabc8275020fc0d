package ports

import (
	"context"

	"github.com/ewilliams-labs/chordlens/internal/core/domain"
)

type PresetRepository interface {
	GetByID(ctx context.Context, id string) (domain.Preset, error)
	List(ctx context.Context) ([]domain.Preset, error)
	Count(ctx context.Context) (int, error)
	// Create inserts a new preset unless limit presets are already stored,
	// in which case it returns domain.ErrPresetLimit. The check and the
	// insert are atomic.
	Create(ctx context.Context, p domain.Preset, limit int) error
	Delete(ctx context.Context, id string) error
}
