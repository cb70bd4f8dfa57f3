package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inference-sim/warehouse-sim/sim/workload"
)

// loadScenario reads the scenario file at path, or builds the named preset
// when path is empty.
func loadScenario(path, name string) (*workload.ScenarioSpec, error) {
	if path != "" {
		spec, err := workload.LoadScenarioSpec(path)
		if err != nil {
			return nil, err
		}
		logrus.Infof("Loaded scenario %q from %s", spec.Name, path)
		return spec, nil
	}
	build, ok := workload.Scenarios[name]
	if !ok {
		names := make([]string, 0, len(workload.Scenarios))
		for n := range workload.Scenarios {
			names = append(names, n)
		}
		sort.Strings(names)
		return nil, fmt.Errorf("unknown scenario %q; valid: %s", name, strings.Join(names, ", "))
	}
	return build(seed, days), nil
}

// applyOverrides copies explicitly set flags onto the scenario. Flags left
// at their defaults never override a scenario file.
func applyOverrides(cmd *cobra.Command, spec *workload.ScenarioSpec) {
	flags := cmd.Flags()
	if flags.Changed("seed") {
		v := seed
		spec.Seed = &v
	}
	if flags.Changed("days") {
		spec.Days = days
	}
	if flags.Changed("start-date") {
		spec.StartDate = startDate
	}
	if flags.Changed("output") {
		spec.Output = outputDir
	}
}
