package csvio

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Niyamit/hazus/internal/domain"
)

// WriteTable writes headers and records to path atomically: the rows go to
// a temporary file in the destination directory which is renamed into
// place only after a successful flush, so an interrupted run never leaves
// a partial output file behind.
func WriteTable(path string, headers []string, records []domain.Record) (err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".floodloss-*.csv")
	if err != nil {
		return fmt.Errorf("create temp output: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	w := csv.NewWriter(tmp)
	if err = w.Write(headers); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, rec := range records {
		if err = w.Write(rec.Values()); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
	}
	w.Flush()
	if err = w.Error(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close temp output: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("commit output: %w", err)
	}
	return nil
}

// OutputPath derives the output file location from the input file and grid
// name: <input_dir>/<input_basename>_<gridname>.csv.
func OutputPath(inputPath, gridName string) string {
	dir := filepath.Dir(inputPath)
	base := filepath.Base(inputPath)
	if ext := filepath.Ext(base); ext != "" {
		base = base[:len(base)-len(ext)]
	}
	return filepath.Join(dir, base+"_"+gridName+".csv")
}
