package config

import (
	"fmt"

	"go.uber.org/multierr"
)

// Validate checks the config for values the pipeline cannot run with.
// Every problem is reported, not just the first.
func (c *Config) Validate() error {
	var err error

	if c.Mesh.ModelSize <= 0 {
		err = multierr.Append(err, fmt.Errorf("mesh.model_size must be positive, got %v", c.Mesh.ModelSize))
	}
	if c.Mesh.TargetPolygons < 2 {
		err = multierr.Append(err, fmt.Errorf("mesh.target_polygons must be at least 2, got %d", c.Mesh.TargetPolygons))
	}
	if c.Terrain.ZExaggeration <= 0 {
		err = multierr.Append(err, fmt.Errorf("terrain.z_exaggeration must be positive, got %v", c.Terrain.ZExaggeration))
	}
	if c.Contours.Interval <= 0 {
		err = multierr.Append(err, fmt.Errorf("contours.interval must be positive, got %v", c.Contours.Interval))
	}
	if c.Contours.MaxVertices <= 0 {
		err = multierr.Append(err, fmt.Errorf("contours.max_vertices must be positive, got %d", c.Contours.MaxVertices))
	}
	if c.Contours.SimplifyTolerance < 0 {
		err = multierr.Append(err, fmt.Errorf("contours.simplify_tolerance must not be negative, got %v", c.Contours.SimplifyTolerance))
	}
	if c.Contours.HeightOffset < 0 {
		err = multierr.Append(err, fmt.Errorf("contours.height_offset must not be negative, got %v", c.Contours.HeightOffset))
	}
	if c.Contours.GridDivisor < 1 {
		err = multierr.Append(err, fmt.Errorf("contours.grid_divisor must be at least 1, got %d", c.Contours.GridDivisor))
	}
	if c.Normals.MaxDim < 2 {
		err = multierr.Append(err, fmt.Errorf("normals.max_dim must be at least 2, got %d", c.Normals.MaxDim))
	}
	switch c.Normals.Format {
	case "png", "bmp", "tiff":
	default:
		err = multierr.Append(err, fmt.Errorf("normals.format must be png, bmp or tiff, got %q", c.Normals.Format))
	}
	if c.Work.VertexChunk <= 0 || c.Work.TriangleChunk <= 0 || c.Work.RowChunk <= 0 {
		err = multierr.Append(err, fmt.Errorf("work chunk sizes must be positive, got %+v", c.Work))
	}

	return err
}
