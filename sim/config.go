package sim

import (
	"fmt"
	"time"

	"github.com/inference-sim/warehouse-sim/sim/inventory"
	"github.com/inference-sim/warehouse-sim/sim/workload"
)

// ItemSetup groups the policy configuration of one item with its demand
// model.
type ItemSetup struct {
	inventory.ItemConfig
	Demand workload.QuantitySampler
}

// Config is a fully resolved simulation configuration.
type Config struct {
	Name  string
	Start time.Time // first simulated day, midnight UTC
	Days  int
	Seed  int64
	Items []ItemSetup
}

// NewConfig validates a scenario and resolves it into a Config.
func NewConfig(spec *workload.ScenarioSpec) (Config, error) {
	if err := spec.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid scenario: %w", err)
	}
	start, _ := spec.Start()
	cfg := Config{Name: spec.Name, Start: start, Days: spec.Days, Seed: *spec.Seed}
	for _, it := range spec.Items {
		ic, err := spec.ItemConfig(it)
		if err != nil {
			return Config{}, err
		}
		demand, err := spec.DemandSampler(it)
		if err != nil {
			return Config{}, fmt.Errorf("item %d: %w", ic.ID, err)
		}
		cfg.Items = append(cfg.Items, ItemSetup{ItemConfig: ic, Demand: demand})
	}
	return cfg, nil
}

// Validate checks the invariants NewSimulator relies on. Item policy
// parameters are checked by the warehouse.
func (c Config) Validate() error {
	if c.Days <= 0 {
		return fmt.Errorf("days must be positive, got %d", c.Days)
	}
	if c.Start.IsZero() {
		return fmt.Errorf("start date is required")
	}
	if len(c.Items) == 0 {
		return fmt.Errorf("at least one item required")
	}
	for _, it := range c.Items {
		if it.Demand == nil {
			return fmt.Errorf("item %d: no demand model", it.ID)
		}
	}
	return nil
}

func (c Config) itemConfigs() []inventory.ItemConfig {
	out := make([]inventory.ItemConfig, len(c.Items))
	for i, it := range c.Items {
		out[i] = it.ItemConfig
	}
	return out
}
