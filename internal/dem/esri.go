// Package dem reads elevation rasters for the command-line tool.
package dem

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

var (
	ErrMissingHeader = errors.New("dem: missing header field")
	ErrTruncatedData = errors.New("dem: truncated grid data")
)

// EsriASCIIRaster is an ESRI ASCII grid. Data is row-major with row 0 north.
type EsriASCIIRaster struct {
	Ncols, Nrows     int
	Xcorner, Ycorner float64 // Lower-left corner of the lower-left cell
	CellSize         float64
	NoDataValue      *float64
	Data             []float64
}

// Dims returns the dimensions of the grid.
func (r *EsriASCIIRaster) Dims() (c, rows int) {
	return r.Ncols, r.Nrows
}

// Z returns the value at column c, row row.
// It will panic if c or row are out of bounds for the grid.
func (r *EsriASCIIRaster) Z(c, row int) float64 {
	if c < 0 || c >= r.Ncols {
		panic("dem: column out of range")
	}
	return r.Data[row*r.Ncols+c]
}

// X returns the coordinate of the center of column c.
func (r *EsriASCIIRaster) X(c int) float64 {
	return r.Xcorner + (float64(c)+0.5)*r.CellSize
}

// Y returns the coordinate of the center of row row.
func (r *EsriASCIIRaster) Y(row int) float64 {
	return r.Ycorner + (float64(r.Nrows-row)-0.5)*r.CellSize
}

// Bounds returns minX, minY, maxX, maxY spanned by the cell centers.
func (r *EsriASCIIRaster) Bounds() [4]float64 {
	return [4]float64{r.X(0), r.Y(r.Nrows - 1), r.X(r.Ncols - 1), r.Y(0)}
}

// ReadFile parses the ESRI ASCII grid at path.
func ReadFile(path string) (*EsriASCIIRaster, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	raster, err := ParseEsriASCII(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return raster, nil
}

// ParseEsriASCII reads a grid. Header keys are case-insensitive; both the
// corner and center forms of the origin are accepted, and NODATA_value is
// optional.
func ParseEsriASCII(r io.Reader) (*EsriASCIIRaster, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	sc.Split(bufio.ScanWords)

	header := make(map[string]float64)
	var first string
	for sc.Scan() {
		key := strings.ToLower(sc.Text())
		if _, err := strconv.ParseFloat(key, 64); err == nil {
			first = key
			break
		}
		if !sc.Scan() {
			return nil, fmt.Errorf("%w: no value for %q", ErrMissingHeader, key)
		}
		v, err := strconv.ParseFloat(sc.Text(), 64)
		if err != nil {
			return nil, fmt.Errorf("dem: header %s: %w", key, err)
		}
		header[key] = v
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	raster := &EsriASCIIRaster{}
	for _, key := range []string{"ncols", "nrows", "cellsize"} {
		if _, ok := header[key]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingHeader, key)
		}
	}
	raster.Ncols = int(header["ncols"])
	raster.Nrows = int(header["nrows"])
	raster.CellSize = header["cellsize"]
	if raster.Ncols < 1 || raster.Nrows < 1 || !(raster.CellSize > 0) {
		return nil, fmt.Errorf("dem: invalid grid %dx%d with cell size %v", raster.Ncols, raster.Nrows, raster.CellSize)
	}

	var err error
	if raster.Xcorner, err = origin(header, "xllcorner", "xllcenter", raster.CellSize); err != nil {
		return nil, err
	}
	if raster.Ycorner, err = origin(header, "yllcorner", "yllcenter", raster.CellSize); err != nil {
		return nil, err
	}
	if nd, ok := header["nodata_value"]; ok {
		raster.NoDataValue = &nd
	}

	n := raster.Ncols * raster.Nrows
	raster.Data = make([]float64, 0, n)
	next := first
	for next != "" && len(raster.Data) < n {
		v, err := strconv.ParseFloat(next, 64)
		if err != nil {
			return nil, fmt.Errorf("dem: sample %d: %w", len(raster.Data), err)
		}
		raster.Data = append(raster.Data, v)

		next = ""
		if sc.Scan() {
			next = sc.Text()
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(raster.Data) < n {
		return nil, fmt.Errorf("%w: got %d of %d samples", ErrTruncatedData, len(raster.Data), n)
	}
	return raster, nil
}

func origin(header map[string]float64, corner, center string, cellSize float64) (float64, error) {
	if v, ok := header[corner]; ok {
		return v, nil
	}
	if v, ok := header[center]; ok {
		return v - cellSize/2, nil
	}
	return 0, fmt.Errorf("%w: %s or %s", ErrMissingHeader, corner, center)
}
