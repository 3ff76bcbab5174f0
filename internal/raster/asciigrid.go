package raster

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// defaultNoData matches the common ESRI convention when a grid omits the
// nodata_value header.
const defaultNoData = -9999

// OpenASCIIGrid reads an ESRI ASCII grid (.asc) file into an in-memory
// Grid. The header accepts either corner (xllcorner/yllcorner) or center
// (xllcenter/yllcenter) registration; center coordinates are shifted by
// half a cell to the corner form used internally. Data rows run top to
// bottom.
func OpenASCIIGrid(path string) (*Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open raster: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	hdr := map[string]float64{"nodata_value": defaultNoData}
	centerRegistered := false

	// Header: keyword/value lines until the first data row.
	var firstDataLine string
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		parts := strings.Fields(line)
		key := strings.ToLower(parts[0])
		switch key {
		case "ncols", "nrows", "xllcorner", "yllcorner", "xllcenter", "yllcenter", "cellsize", "nodata_value":
			if len(parts) != 2 {
				return nil, fmt.Errorf("parse raster %s: malformed header line %q", path, line)
			}
			v, err := strconv.ParseFloat(parts[1], 64)
			if err != nil {
				return nil, fmt.Errorf("parse raster %s: header %s: %w", path, key, err)
			}
			if key == "xllcenter" || key == "yllcenter" {
				centerRegistered = true
				key = strings.Replace(key, "center", "corner", 1)
			}
			hdr[key] = v
		default:
			firstDataLine = line
		}
		if firstDataLine != "" {
			break
		}
	}

	for _, required := range []string{"ncols", "nrows", "xllcorner", "yllcorner", "cellsize"} {
		if _, ok := hdr[required]; !ok {
			return nil, fmt.Errorf("parse raster %s: missing header %s", path, required)
		}
	}

	cols := int(hdr["ncols"])
	rows := int(hdr["nrows"])
	cellSize := hdr["cellsize"]
	if cols <= 0 || rows <= 0 || cellSize <= 0 {
		return nil, fmt.Errorf("parse raster %s: invalid dimensions %dx%d cell %g", path, cols, rows, cellSize)
	}

	xll, yll := hdr["xllcorner"], hdr["yllcorner"]
	if centerRegistered {
		xll -= cellSize / 2
		yll -= cellSize / 2
	}

	data := make([]float64, 0, cols*rows)
	appendRow := func(line string) error {
		for _, tok := range strings.Fields(line) {
			v, err := strconv.ParseFloat(tok, 64)
			if err != nil {
				return fmt.Errorf("parse raster %s: cell value %q: %w", path, tok, err)
			}
			data = append(data, v)
		}
		return nil
	}

	if firstDataLine != "" {
		if err := appendRow(firstDataLine); err != nil {
			return nil, err
		}
	}
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := appendRow(line); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read raster %s: %w", path, err)
	}

	if len(data) != cols*rows {
		return nil, fmt.Errorf("parse raster %s: expected %d cells, got %d", path, cols*rows, len(data))
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return NewGrid(name, cols, rows, xll, yll, cellSize, hdr["nodata_value"], data), nil
}
