package csvio

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ListRasters returns the raster file names (not paths) available in dir,
// sorted. Only ESRI ASCII grids (*.asc) are recognized.
func ListRasters(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("scan raster dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".asc") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}
