// Command ddfcheck validates a depth damage function lookup-table folder
// before it is deployed next to an inventory. It loads the folder through
// the same adapter the pipeline uses, then checks curve shape: point
// counts, monotonic damage, and depth coverage.
//
// Usage:
//
//	go run ./cmd/ddfcheck -lookup-dir lookuptables
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/Niyamit/hazus/internal/adapter/csvio"
	"github.com/Niyamit/hazus/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
	warns  []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) warnf(format string, args ...any) {
	p.warns = append(p.warns, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	lookupDir := flag.String("lookup-dir", "", "directory of DDF lookup tables to validate")
	flag.Parse()

	if *lookupDir == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*lookupDir); code != 0 {
		os.Exit(code)
	}
}

func run(lookupDir string) int {
	fmt.Println("=== DDF Lookup Table Validation ===")
	fmt.Println()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	table, err := csvio.LoadLookupDir(lookupDir, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load lookup dir: %v\n", err)
		return 1
	}

	keys := table.Keys()
	fmt.Printf("Loaded %d curves from %s\n", len(keys), lookupDir)

	phases := []*phase{
		validatePresence(table, keys),
		validateShape(table, keys),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "PASS"
		if !p.passed() {
			status = "FAIL"
			allPassed = false
		}
		fmt.Printf("[%s] %s\n", status, p.name)
		for _, w := range p.warns {
			fmt.Printf("       warn: %s\n", w)
		}
		for _, e := range p.errors {
			fmt.Printf("       %s\n", e)
		}
	}

	if !allPassed {
		return 1
	}
	fmt.Println("\nAll checks passed.")
	return 0
}

func validatePresence(table *domain.DDFTable, keys []string) *phase {
	p := &phase{name: "curve presence"}
	if len(keys) == 0 {
		p.errorf("no curves loaded; pipeline runs against this folder would fail every lookup")
		return p
	}
	for _, key := range keys {
		curve, ok := table.Curve(key)
		if !ok {
			p.errorf("curve %q listed but not retrievable", key)
			continue
		}
		if len(curve.Points) < 2 {
			p.warnf("curve %q has a single point; every depth maps to %g", key, curve.Points[0].Damage)
		}
	}
	return p
}

func validateShape(table *domain.DDFTable, keys []string) *phase {
	p := &phase{name: "curve shape"}
	for _, key := range keys {
		curve, ok := table.Curve(key)
		if !ok {
			continue
		}
		pts := curve.Points
		for i := 1; i < len(pts); i++ {
			if pts[i].Damage < pts[i-1].Damage {
				p.warnf("curve %q damage decreases at depth %g (%g -> %g)",
					key, pts[i].Depth, pts[i-1].Damage, pts[i].Damage)
			}
		}
		if len(pts) > 0 && pts[len(pts)-1].Depth < 1 {
			p.warnf("curve %q tops out below 1 ft of depth", key)
		}
	}
	return p
}
