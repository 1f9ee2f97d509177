// terrainmesh builds colored terrain meshes, contour lines and normal rasters
// from ESRI ASCII elevation grids.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/depthmesh/internal/config"
	"github.com/Faultbox/depthmesh/internal/dem"
	"github.com/Faultbox/depthmesh/internal/logger"
	"github.com/Faultbox/depthmesh/internal/terrain"
	"github.com/Faultbox/depthmesh/internal/terrain/elevation"
	"github.com/Faultbox/depthmesh/internal/terrain/mesh"
	"github.com/Faultbox/depthmesh/internal/terrain/normals"
	"github.com/Faultbox/depthmesh/internal/terrain/work"
)

func main() {
	config.ParseFlags()
	args := config.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	command, rest := args[0], args[1:]
	switch command {
	case "info":
		err = cmdInfo(cfg, rest)
	case "mesh":
		err = cmdMesh(ctx, cfg, rest)
	case "contours":
		err = cmdContours(ctx, cfg, rest)
	case "normals":
		err = cmdNormals(ctx, cfg, rest)
	case "config":
		err = cmdConfig(cfg, rest)
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		logger.Error("command failed", zap.String("command", command), zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`terrainmesh - elevation grid to terrain mesh and contours

Usage:
  terrainmesh [flags] <command> <file.asc> [detail.asc]

Commands:
  info <file.asc>                 Show raster statistics and the planned grid
  mesh <file.asc>                 Write the displaced, colored mesh as OBJ
  contours <file.asc>             Write contour line segments as OBJ
  normals <file.asc> [detail.asc] Write the normal raster (png, bmp or tiff)
  config [path]                   Write the effective config as YAML

Flags:
  -config <path>         Config file
  -debug                 Debug logging
  -interval <n>          Contour interval
  -reference <n>         Reference elevation (defaults to the highest sample)
  -exaggeration <n>      Vertical exaggeration, 1 to 10
  -target-polygons <n>   Mesh triangle budget
  -out <dir>             Output directory

Examples:
  terrainmesh info bathymetry.asc
  terrainmesh -interval 5 contours bathymetry.asc
  terrainmesh -reference 0 -exaggeration 3 mesh bathymetry.asc`)
}

// loadModel reads the grid at path, plus an optional detail grid for normals.
func loadModel(cfg *config.Config, path, detailPath string) (*terrain.Model, *dem.EsriASCIIRaster, error) {
	raster, err := dem.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}

	in := terrain.Input{
		Elevation:   raster.Data,
		Width:       raster.Ncols,
		Height:      raster.Nrows,
		GeoBounds:   raster.Bounds(),
		NoDataValue: raster.NoDataValue,
	}
	if detailPath != "" {
		detail, err := dem.ReadFile(detailPath)
		if err != nil {
			return nil, nil, err
		}
		in.Detail = &elevation.Grid{Width: detail.Ncols, Height: detail.Nrows, Data: detail.Data}
	}

	opts := terrain.OptionsFromConfig(cfg)
	opts.Progress = logProgress()
	model, err := terrain.New(in, opts)
	if err != nil {
		return nil, nil, err
	}
	return model, raster, nil
}

// logProgress logs each stage at every tenth of its progress. An
// indeterminate event starts a new run of its stage.
func logProgress() work.ProgressFunc {
	last := make(map[work.Stage]int)
	return work.Synchronized(func(ev work.Event) {
		if !ev.Known {
			delete(last, ev.Stage)
			logger.Sugar.Debugf("%s: working", ev.Stage)
			return
		}
		step := int(ev.Fraction * 10)
		if prev, ok := last[ev.Stage]; ok && step <= prev {
			return
		}
		last[ev.Stage] = step
		logger.Sugar.Debugf("%s: %3.0f%%", ev.Stage, ev.Fraction*100)
	})
}

func outputPath(cfg *config.Config, input, suffix string) string {
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	return filepath.Join(cfg.Output.Dir, base+suffix)
}

func cmdInfo(cfg *config.Config, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: terrainmesh info <file.asc>")
	}
	model, raster, err := loadModel(cfg, args[0], "")
	if err != nil {
		return err
	}

	st := model.Stats()
	gw, gh := mesh.PlanGrid(raster.Ncols, raster.Nrows, st.ValidFraction(), cfg.Mesh.TargetPolygons)
	b := raster.Bounds()
	w, d := model.ModelExtent()

	fmt.Printf("Raster:     %s\n", args[0])
	fmt.Printf("Size:       %d x %d (cell %g)\n", raster.Ncols, raster.Nrows, raster.CellSize)
	fmt.Printf("Bounds:     %.3f, %.3f - %.3f, %.3f\n", b[0], b[1], b[2], b[3])
	fmt.Printf("Valid:      %d of %d (%.1f%%)\n", st.Valid, st.Total, st.ValidFraction()*100)
	fmt.Printf("Elevation:  %.3f to %.3f\n", st.Min, st.Max)
	fmt.Printf("Reference:  %.3f\n", model.ReferenceElevation())
	fmt.Printf("Max depth:  %.0f\n", model.DepthRange().Max)
	fmt.Printf("Model:      %.4f x %.4f (scale 1:%.1f)\n", w, d, model.RealWorldScale())
	fmt.Printf("Mesh grid:  %d x %d (%d triangles)\n", gw, gh, 2*(gw-1)*(gh-1))
	return nil
}

func cmdMesh(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: terrainmesh mesh <file.asc>")
	}
	// OBJ has no shader to displace vertices
	cfg.Mesh.CPUDisplacement = true
	model, _, err := loadModel(cfg, args[0], "")
	if err != nil {
		return err
	}
	if err := model.Build(ctx); err != nil {
		return err
	}

	buf, err := model.Buffers()
	if err != nil {
		return err
	}
	st, err := model.MeshStats()
	if err != nil {
		return err
	}

	path := outputPath(cfg, args[0], ".obj")
	if err := writeMeshOBJ(path, buf); err != nil {
		return err
	}

	logger.Info("mesh written",
		zap.String("path", path),
		zap.Int("vertices", st.Vertices),
		zap.Int("triangles", st.Triangles),
		zap.Int("visible", st.VisibleTriangles))
	fmt.Printf("Grid:       %d x %d\n", st.GridWidth, st.GridHeight)
	fmt.Printf("Triangles:  %d visible of %d\n", st.VisibleTriangles, st.Triangles)
	fmt.Printf("Bounds:     %v - %v\n", st.Bounds.Min, st.Bounds.Max)
	fmt.Printf("Output:     %s\n", path)
	return nil
}

func cmdContours(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: terrainmesh contours <file.asc>")
	}
	cfg.Contours.Enabled = false
	model, _, err := loadModel(cfg, args[0], "")
	if err != nil {
		return err
	}
	if err := model.Build(ctx); err != nil {
		return err
	}

	res, err := model.GenerateContours(ctx)
	if err != nil {
		return err
	}
	if res.Aborted {
		return fmt.Errorf("contour vertex budget of %d exceeded after %d thresholds, use a larger -interval",
			cfg.Contours.MaxVertices, res.Thresholds)
	}

	path := outputPath(cfg, args[0], "_contours.obj")
	if err := writeContoursOBJ(path, res.Segments); err != nil {
		return err
	}

	fmt.Printf("Interval:   %g\n", model.ContourInterval())
	fmt.Printf("Thresholds: %d\n", res.Thresholds)
	fmt.Printf("Vertices:   %d\n", res.VertexCount)
	fmt.Printf("Output:     %s\n", path)
	return nil
}

func cmdNormals(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: terrainmesh normals <file.asc> [detail.asc]")
	}
	detail := ""
	if len(args) > 1 {
		detail = args[1]
	}
	model, _, err := loadModel(cfg, args[0], detail)
	if err != nil {
		return err
	}

	img, err := model.NormalRaster(ctx)
	if err != nil {
		return err
	}

	path := outputPath(cfg, args[0], "_normals."+cfg.Normals.Format)
	if err := normals.WriteFile(path, img, cfg.Normals.Format); err != nil {
		return err
	}
	fmt.Printf("Raster:     %d x %d\n", img.Bounds().Dx(), img.Bounds().Dy())
	fmt.Printf("Output:     %s\n", path)
	return nil
}

func cmdConfig(cfg *config.Config, args []string) error {
	if len(args) > 0 {
		return cfg.SaveTo(args[0])
	}
	if err := cfg.Save(); err != nil {
		return err
	}
	fmt.Printf("Config saved to %s\n", filepath.Join(config.ConfigDir(), "config.yaml"))
	return nil
}
