package workload

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/warehouse-sim/sim/inventory"
	"github.com/inference-sim/warehouse-sim/sim/order"
)

const validScenario = `
name: two-items
start_date: "2025-03-03"
days: 30
seed: 7
mean_daily_demand: 20
std_daily_demand: 5
delivery_split_centre: 3
delivery_split_std: 1
items:
  - id: 0
    rop: 100
    z_score: 1.65
    order_base_cost: 50
    holding_cost: 2
    inventory: 200
    kpi: order_completion
    delivery_func: linear
  - id: 1
    rop: 40
    z_score: 1.28
    order_base_cost: 20
    holding_cost: 1
    inventory: 80
    kpi: item_distribution_mean
    delivery_func: "2.5"
    mean_daily_demand: 8
    delivery_split_centre: 5
    demand_distribution:
      type: poisson
      params:
        lambda: 8
`

func TestLoadScenarioSpec_ValidYAML_LoadsCorrectly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validScenario), 0o644))

	spec, err := LoadScenarioSpec(path)
	require.NoError(t, err)
	require.NoError(t, spec.Validate())

	assert.Equal(t, "two-items", spec.Name)
	assert.Equal(t, 30, spec.Days)
	require.NotNil(t, spec.Seed)
	assert.Equal(t, int64(7), *spec.Seed)
	require.Len(t, spec.Items, 2)
	assert.Equal(t, "poisson", spec.Items[1].Demand.Type)

	start, err := spec.Start()
	require.NoError(t, err)
	assert.Equal(t, "2025-03-03", start.Format(DateLayout))
}

func TestLoadScenarioSpec_UnknownField_Rejected(t *testing.T) {
	// GIVEN a scenario with a typo in an item field
	data := strings.Replace(validScenario, "z_score: 1.65", "zscore: 1.65", 1)

	// WHEN parsed
	_, err := ParseScenarioSpec([]byte(data))

	// THEN strict decoding rejects it
	require.Error(t, err)
	assert.Contains(t, err.Error(), "zscore")
}

func TestLoadScenarioSpec_MissingFile(t *testing.T) {
	_, err := LoadScenarioSpec(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestScenarioSpec_ItemConfig_AppliesDefaults(t *testing.T) {
	spec, err := ParseScenarioSpec([]byte(validScenario))
	require.NoError(t, err)

	first, err := spec.ItemConfig(spec.Items[0])
	require.NoError(t, err)
	assert.Equal(t, order.ItemID(0), first.ID)
	assert.Equal(t, 0, first.EOQ, "absent eoq starts at zero")
	assert.Equal(t, 3.0, first.SplitCentre, "scenario default")
	assert.Equal(t, 1.0, first.SplitStd)

	second, err := spec.ItemConfig(spec.Items[1])
	require.NoError(t, err)
	assert.Equal(t, 5.0, second.SplitCentre, "item override")
	assert.Equal(t, inventory.KPIItemDistributionMean, second.KPI)
}

func TestParseScenarioSpec_AbsentRequiredKeys_Rejected(t *testing.T) {
	// GIVEN an item that sets only id and holding_cost
	spec, err := ParseScenarioSpec([]byte(`
start_date: "2025-03-03"
days: 10
seed: 1
mean_daily_demand: 5
std_daily_demand: 1
delivery_split_centre: 3
delivery_split_std: 1
items: [{id: 0, holding_cost: 2}]
`))
	require.NoError(t, err)

	// WHEN validated
	err = spec.Validate()

	// THEN every absent policy key is named rather than defaulted
	require.Error(t, err)
	for _, key := range []string{"rop", "z_score", "order_base_cost", "inventory", "kpi", "delivery_func"} {
		assert.Contains(t, err.Error(), key)
	}
	_, err = spec.ItemConfig(spec.Items[0])
	assert.Error(t, err)
}

func TestScenarioSpec_ExplicitZeros_Accepted(t *testing.T) {
	// GIVEN required keys present with zero values
	spec, err := ParseScenarioSpec([]byte(`
start_date: "2025-03-03"
days: 10
seed: 0
mean_daily_demand: 0
std_daily_demand: 0
delivery_split_centre: 1
delivery_split_std: 0
items:
  - {id: 0, rop: 0, z_score: 0, order_base_cost: 0, holding_cost: 1, inventory: 0, kpi: order_completion, delivery_func: constant}
`))
	require.NoError(t, err)

	// THEN presence, not value, satisfies the requirement
	assert.NoError(t, spec.Validate())
}

func TestScenarioSpec_Validate_MissingKeys(t *testing.T) {
	tests := []struct {
		name   string
		key    string
		mutate func(s *ScenarioSpec)
	}{
		{"no seed", "seed", func(s *ScenarioSpec) { s.Seed = nil }},
		{"no id", "id", func(s *ScenarioSpec) { s.Items[0].ID = nil }},
		{"no rop", "rop", func(s *ScenarioSpec) { s.Items[0].ROP = nil }},
		{"no inventory", "inventory", func(s *ScenarioSpec) { s.Items[0].Inventory = nil }},
		{"empty kpi", "kpi", func(s *ScenarioSpec) { s.Items[0].KPI = "" }},
		{"empty delivery func", "delivery_func", func(s *ScenarioSpec) { s.Items[0].DeliveryFunc = " " }},
		{"no demand model", "mean_daily_demand", func(s *ScenarioSpec) { s.MeanDailyDemand = nil }},
		{"no split std", "delivery_split_std", func(s *ScenarioSpec) { s.DeliverySplitStd = nil }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			spec := ScenarioDefault(1, 10)
			tc.mutate(spec)
			err := spec.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.key)
		})
	}
}

func TestScenarioSpec_Validate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(s *ScenarioSpec)
	}{
		{"bad start date", func(s *ScenarioSpec) { s.StartDate = "03/03/2025" }},
		{"zero days", func(s *ScenarioSpec) { s.Days = 0 }},
		{"no items", func(s *ScenarioSpec) { s.Items = nil }},
		{"duplicate ids", func(s *ScenarioSpec) { s.Items[1].ID = ptr(*s.Items[0].ID) }},
		{"unknown kpi", func(s *ScenarioSpec) { s.Items[0].KPI = "fastest" }},
		{"unknown delivery func", func(s *ScenarioSpec) { s.Items[0].DeliveryFunc = "sin(x)" }},
		{"zero holding cost", func(s *ScenarioSpec) { s.Items[0].HoldingCost = ptr(0.0) }},
		{"negative mean demand", func(s *ScenarioSpec) { s.MeanDailyDemand = ptr(-1.0) }},
		{"negative rop", func(s *ScenarioSpec) { s.Items[0].ROP = ptr(-5.0) }},
		{"negative item std", func(s *ScenarioSpec) { s.Items[1].StdDailyDemand = ptr(-2.0) }},
		{"unknown demand distribution", func(s *ScenarioSpec) {
			s.Items[0].Demand = &DistSpec{Type: "gamma"}
		}},
		{"incomplete demand distribution", func(s *ScenarioSpec) {
			s.Items[0].Demand = &DistSpec{Type: "poisson"}
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			spec := ScenarioDefault(1, 10)
			tc.mutate(spec)
			assert.Error(t, spec.Validate())
		})
	}
}

func TestScenarios_AllPresetsValid(t *testing.T) {
	for name, build := range Scenarios {
		t.Run(name, func(t *testing.T) {
			spec := build(42, 20)
			assert.NoError(t, spec.Validate())
			for _, it := range spec.Items {
				_, err := spec.DemandSampler(it)
				assert.NoError(t, err)
			}
		})
	}
}
