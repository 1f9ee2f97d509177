// Package config handles terrain pipeline configuration loading and management.
package config

// Config holds all pipeline settings.
type Config struct {
	Mesh     MeshConfig    `yaml:"mesh"`
	Terrain  TerrainConfig `yaml:"terrain"`
	Contours ContourConfig `yaml:"contours"`
	Normals  NormalsConfig `yaml:"normals"`
	Work     WorkConfig    `yaml:"work"`
	Logging  LoggingConfig `yaml:"logging"`
	Output   OutputConfig  `yaml:"output"`
}

// MeshConfig holds mesh sizing settings.
type MeshConfig struct {
	ModelSize       float64 `yaml:"model_size"`       // Longer side of the model rectangle
	TargetPolygons  int     `yaml:"target_polygons"`  // Triangle budget before filtering
	CPUDisplacement bool    `yaml:"cpu_displacement"` // Displace vertices on the CPU instead of in a shader
}

// TerrainConfig holds the vertical settings of the model.
type TerrainConfig struct {
	// ReferenceElevation overrides the default waterline (max valid elevation).
	ReferenceElevation *float64 `yaml:"reference_elevation,omitempty"`
	ZExaggeration      float64  `yaml:"z_exaggeration"`
}

// ContourConfig holds contour extraction settings.
type ContourConfig struct {
	Enabled           bool    `yaml:"enabled"`
	Interval          float64 `yaml:"interval"`           // Elevation step between contour lines
	MaxVertices       int     `yaml:"max_vertices"`       // Global vertex budget
	SimplifyTolerance float64 `yaml:"simplify_tolerance"` // Douglas-Peucker tolerance in model units
	HeightOffset      float64 `yaml:"height_offset"`      // Lift along the surface normal
	GridDivisor       int     `yaml:"grid_divisor"`       // Contour grid = mesh grid / divisor
	KeepInSync        bool    `yaml:"keep_in_sync"`       // Regenerate on reference/exaggeration change
}

// NormalsConfig holds normal raster settings.
type NormalsConfig struct {
	Strength float64 `yaml:"strength"`
	MaxDim   int     `yaml:"max_dim"` // Detail grids larger than this are downsampled
	Format   string  `yaml:"format"`  // png, bmp or tiff
}

// WorkConfig holds chunk sizes for cooperative scans.
type WorkConfig struct {
	VertexChunk   int `yaml:"vertex_chunk"`
	TriangleChunk int `yaml:"triangle_chunk"`
	RowChunk      int `yaml:"row_chunk"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// OutputConfig holds CLI output settings.
type OutputConfig struct {
	Dir string `yaml:"dir"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Mesh: MeshConfig{
			ModelSize:       1.0,
			TargetPolygons:  400_000,
			CPUDisplacement: false,
		},
		Terrain: TerrainConfig{
			ZExaggeration: 1.0,
		},
		Contours: ContourConfig{
			Enabled:           true,
			Interval:          10,
			MaxVertices:       200_000,
			SimplifyTolerance: 0.0005,
			HeightOffset:      0.001,
			GridDivisor:       2,
			KeepInSync:        true,
		},
		Normals: NormalsConfig{
			Strength: 1.0,
			MaxDim:   2048,
			Format:   "png",
		},
		Work: WorkConfig{
			VertexChunk:   20_000,
			TriangleChunk: 40_000,
			RowChunk:      64,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
		Output: OutputConfig{
			Dir: ".",
		},
	}
}
