package terrain

import (
	"context"
	"fmt"
	"image"

	"go.uber.org/zap"

	"github.com/Faultbox/depthmesh/internal/logger"
	"github.com/Faultbox/depthmesh/internal/terrain/elevation"
	"github.com/Faultbox/depthmesh/internal/terrain/normals"
)

// NormalRaster generates the lighting normal raster. It uses the detail grid
// when the input has one, downsampled to the configured maximum dimension.
// The mesh need not be built.
func (m *Model) NormalRaster(ctx context.Context) (*image.NRGBA, error) {
	src := m.sampler.Grid()
	if m.input.Detail != nil {
		src = m.input.Detail
	}
	// Downsampling replaces the sampler's grid, so work on a private sampler
	s := elevation.NewSampler(src, m.input.NoDataValue)
	if s.DownsampleToLimit(m.opts.NormalMaxDim) {
		logger.Debug("normal source downsampled",
			zap.Int("from_width", src.Width),
			zap.Int("from_height", src.Height),
			zap.Int("width", s.Width()),
			zap.Int("height", s.Height()))
	}

	b := m.bounds
	p := normals.Params{
		CellSizeX: (b[2] - b[0]) / float64(s.Width()-1),
		CellSizeY: (b[3] - b[1]) / float64(s.Height()-1),
		Strength:  m.opts.NormalStrength,
		RowChunk:  m.opts.RowChunk,
	}
	img, err := normals.Generate(ctx, s, p, m.opts.Progress)
	if err != nil {
		return nil, fmt.Errorf("generate normal raster: %w", err)
	}
	return img, nil
}
