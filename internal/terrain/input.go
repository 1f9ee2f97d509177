package terrain

import (
	"errors"
	"fmt"
	"math"

	"go.uber.org/multierr"

	"github.com/Faultbox/depthmesh/internal/terrain/elevation"
)

var (
	// ErrNotBuilt is returned by operations that need the mesh grid before Build.
	ErrNotBuilt = errors.New("terrain: model not built")
	// ErrInvalidInput is returned for malformed rasters and setter arguments.
	ErrInvalidInput = errors.New("terrain: invalid input")
)

// Input is a decoded elevation raster with its metadata.
type Input struct {
	Elevation   []float64  // Row-major, row 0 north
	Width       int        // Columns
	Height      int        // Rows
	GeoBounds   [4]float64 // minX, minY, maxX, maxY in projected units
	NoDataValue *float64   // Optional explicit sentinel

	// Detail is an optional higher-resolution grid used only for the normal
	// raster. It shares GeoBounds and NoDataValue with Elevation.
	Detail *elevation.Grid
}

// Validate checks dimensions and bounds. Every problem is reported.
func (in Input) Validate() error {
	var errs error
	if in.Width < 2 || in.Height < 2 {
		errs = multierr.Append(errs, fmt.Errorf("raster must be at least 2x2, got %dx%d", in.Width, in.Height))
	} else if len(in.Elevation) != in.Width*in.Height {
		errs = multierr.Append(errs, fmt.Errorf("elevation has %d samples, expected %d", len(in.Elevation), in.Width*in.Height))
	}
	for i, b := range in.GeoBounds {
		if math.IsNaN(b) || math.IsInf(b, 0) {
			errs = multierr.Append(errs, fmt.Errorf("geo bound %d is not finite", i))
		}
	}
	if d := in.Detail; d != nil {
		if d.Width < 2 || d.Height < 2 {
			errs = multierr.Append(errs, fmt.Errorf("detail grid must be at least 2x2, got %dx%d", d.Width, d.Height))
		} else if len(d.Data) != d.Width*d.Height {
			errs = multierr.Append(errs, fmt.Errorf("detail grid has %d samples, expected %d", len(d.Data), d.Width*d.Height))
		}
	}
	if errs != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, errs)
	}
	return nil
}

// bounds returns GeoBounds, or the raster's own pixel extent when the bounds
// have no area.
func (in Input) bounds() [4]float64 {
	b := in.GeoBounds
	if b[2] > b[0] && b[3] > b[1] {
		return b
	}
	return [4]float64{0, 0, float64(in.Width - 1), float64(in.Height - 1)}
}
