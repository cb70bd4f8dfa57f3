package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/inference-sim/warehouse-sim/sim"
)

// printReport writes the global results and, optionally, per-item results.
func printReport(w io.Writer, s *sim.Simulator, items bool) {
	fmt.Fprintln(w, "=== Simulation Results ===")
	printResults(w, func() (sim.Results, error) { return s.EvaluateGlobally() })
	if !items {
		return
	}
	for _, id := range s.Warehouse.ItemIDs() {
		fmt.Fprintf(w, "--- Item %d ---\n", id)
		printResults(w, func() (sim.Results, error) { return s.EvaluateItem(id) })
	}
}

func printResults(w io.Writer, eval func() (sim.Results, error)) {
	r, err := eval()
	if errors.Is(err, sim.ErrNoDemand) {
		fmt.Fprintln(w, "(no demand observed)")
	} else if err != nil {
		fmt.Fprintf(w, "error: %v\n", err)
		return
	}
	r.Print(w)
}
