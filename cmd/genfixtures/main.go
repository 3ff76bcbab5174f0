// Command genfixtures writes a small coherent fixture set for manual runs
// and examples: a building inventory CSV, a uniform ASCII depth grid
// covering the inventory's extent, and a RES1 lookup table. It evaluates
// the curve through the actual domain package so the printed expectations
// match real pipeline behavior.
//
// Usage:
//
//	go run ./cmd/genfixtures -out testdata/fixtures
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/Niyamit/hazus/internal/domain"
)

const (
	gridCols     = 10
	gridRows     = 10
	gridCellSize = 10.0
	gridDepth    = 2.0
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "directory to write fixtures into")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}

	lookupDir := filepath.Join(*out, "lookuptables")
	rasterDir := filepath.Join(*out, "rasters")
	for _, dir := range []string{*out, lookupDir, rasterDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	curve, err := res1Curve()
	if err != nil {
		return err
	}

	inventoryPath := filepath.Join(*out, "buildings.csv")
	if err := writeInventory(inventoryPath); err != nil {
		return fmt.Errorf("writing inventory: %w", err)
	}
	log.Printf("wrote inventory: %s", inventoryPath)

	gridPath := filepath.Join(rasterDir, "depth10yr.asc")
	if err := writeGrid(gridPath); err != nil {
		return fmt.Errorf("writing depth grid: %w", err)
	}
	log.Printf("wrote depth grid: %s", gridPath)

	lookupPath := filepath.Join(lookupDir, "res1.csv")
	if err := writeLookup(lookupPath, curve); err != nil {
		return fmt.Errorf("writing lookup table: %w", err)
	}
	log.Printf("wrote lookup table: %s", lookupPath)

	fmt.Println("\n=== Expected values for these fixtures ===")
	fmt.Printf("Uniform depth: %g ft\n", gridDepth)
	fmt.Printf("RES1 damage at %g ft: %g\n", gridDepth, curve.Evaluate(gridDepth))
	fmt.Printf("RES1 damage with 1 ft first floor: %g\n", curve.Evaluate(gridDepth-1))
	return nil
}

// writeInventory emits points spread inside the grid's extent, using the
// default column aliases so no field overrides are needed.
func writeInventory(path string) error {
	rows := [][]string{
		{"UserDefinedFltyId", "X", "Y", "Category", "FirstFloorHt", "Cost"},
		{"b1", "5", "5", "RES1", "0", "100000"},
		{"b2", "45", "45", "RES1", "1", "250000"},
		{"b3", "85", "15", "RES1", "0", "175000"},
		{"b4", "15", "85", "RES1", "2", "320000"},
	}
	return writeCSV(path, rows)
}

func writeGrid(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	fmt.Fprintf(f, "ncols %d\n", gridCols)
	fmt.Fprintf(f, "nrows %d\n", gridRows)
	fmt.Fprintln(f, "xllcorner 0")
	fmt.Fprintln(f, "yllcorner 0")
	fmt.Fprintf(f, "cellsize %g\n", gridCellSize)
	fmt.Fprintln(f, "NODATA_value -9999")
	for r := 0; r < gridRows; r++ {
		for c := 0; c < gridCols; c++ {
			if c > 0 {
				fmt.Fprint(f, " ")
			}
			fmt.Fprintf(f, "%g", gridDepth)
		}
		fmt.Fprintln(f)
	}
	return f.Close()
}

func res1Curve() (domain.DDFCurve, error) {
	return domain.BuildCurve("RES1", []domain.CurvePoint{
		{Depth: 0, Damage: 0},
		{Depth: 2, Damage: 500},
		{Depth: 4, Damage: 1000},
	})
}

func writeLookup(path string, curve domain.DDFCurve) error {
	rows := [][]string{{"Category", "Depth", "Damage"}}
	for _, p := range curve.Points {
		rows = append(rows, []string{
			curve.Key,
			strconv.FormatFloat(p.Depth, 'f', -1, 64),
			strconv.FormatFloat(p.Damage, 'f', -1, 64),
		})
	}
	return writeCSV(path, rows)
}

func writeCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	return f.Close()
}
