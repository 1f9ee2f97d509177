package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Faultbox/depthmesh/internal/terrain"
)

// writeMeshOBJ writes visible triangles with per-vertex colors, the common
// "v x y z r g b" OBJ extension. Indices are 1-based.
func writeMeshOBJ(path string, buf terrain.Buffers) error {
	return writeFile(path, func(w *bufio.Writer) {
		fmt.Fprintln(w, "# terrainmesh")
		for i := 0; i+2 < len(buf.Positions); i += 3 {
			fmt.Fprintf(w, "v %g %g %g %.4f %.4f %.4f\n",
				buf.Positions[i], buf.Positions[i+1], buf.Positions[i+2],
				buf.Colors[i], buf.Colors[i+1], buf.Colors[i+2])
		}
		for i := 0; i+1 < len(buf.UVs); i += 2 {
			fmt.Fprintf(w, "vt %g %g\n", buf.UVs[i], buf.UVs[i+1])
		}
		for i := 0; i+2 < len(buf.Normals); i += 3 {
			fmt.Fprintf(w, "vn %g %g %g\n", buf.Normals[i], buf.Normals[i+1], buf.Normals[i+2])
		}
		face := "f %[1]d/%[1]d %[2]d/%[2]d %[3]d/%[3]d\n"
		if len(buf.Normals) > 0 {
			face = "f %[1]d/%[1]d/%[1]d %[2]d/%[2]d/%[2]d %[3]d/%[3]d/%[3]d\n"
		}
		for i := 0; i+2 < len(buf.Indices); i += 3 {
			fmt.Fprintf(w, face, buf.Indices[i]+1, buf.Indices[i+1]+1, buf.Indices[i+2]+1)
		}
	})
}

// writeContoursOBJ writes each segment pair as an OBJ line element.
func writeContoursOBJ(path string, segments []float32) error {
	return writeFile(path, func(w *bufio.Writer) {
		fmt.Fprintln(w, "# terrainmesh contours")
		for i := 0; i+2 < len(segments); i += 3 {
			fmt.Fprintf(w, "v %g %g %g\n", segments[i], segments[i+1], segments[i+2])
		}
		for v := 1; v+1 <= len(segments)/3; v += 2 {
			fmt.Fprintf(w, "l %d %d\n", v, v+1)
		}
	})
}

func writeFile(path string, body func(w *bufio.Writer)) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	body(w)
	if err := w.Flush(); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return file.Close()
}
