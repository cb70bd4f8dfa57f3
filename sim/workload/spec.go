// Package workload describes what a warehouse run faces: the scenario file
// (items, policy parameters, demand) and the samplers that turn it into
// daily demand and delivery-day counts.
package workload

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/inference-sim/warehouse-sim/sim/inventory"
	"github.com/inference-sim/warehouse-sim/sim/order"
)

// DateLayout is the format of start_date.
const DateLayout = time.DateOnly

// ScenarioSpec is the top-level scenario configuration.
// Loaded from YAML via LoadScenarioSpec(path).
//
// Pointer fields distinguish an absent key from an explicit zero: every
// required key must be present, none is defaulted.
type ScenarioSpec struct {
	Name      string `yaml:"name,omitempty"`
	StartDate string `yaml:"start_date"`
	Days      int    `yaml:"days"`
	Seed      *int64 `yaml:"seed"`
	Output    string `yaml:"output,omitempty"` // trace directory; empty keeps traces in memory

	// Shared by items that do not set their own.
	MeanDailyDemand     *float64 `yaml:"mean_daily_demand,omitempty"`
	StdDailyDemand      *float64 `yaml:"std_daily_demand,omitempty"`
	DeliverySplitCentre *float64 `yaml:"delivery_split_centre,omitempty"`
	DeliverySplitStd    *float64 `yaml:"delivery_split_std,omitempty"`

	Items []ItemSpec `yaml:"items"`
}

// ItemSpec defines one stocked item and its replenishment policy.
type ItemSpec struct {
	ID            *int     `yaml:"id"`
	ROP           *float64 `yaml:"rop"`
	EOQ           *int     `yaml:"eoq,omitempty"` // recomputed before every order; absent starts at 0
	ZScore        *float64 `yaml:"z_score"`
	OrderBaseCost *float64 `yaml:"order_base_cost"`
	HoldingCost   *float64 `yaml:"holding_cost"`
	Inventory     *int     `yaml:"inventory"`
	KPI           string   `yaml:"kpi"`
	DeliveryFunc  string   `yaml:"delivery_func"`

	MeanDailyDemand     *float64  `yaml:"mean_daily_demand,omitempty"`
	StdDailyDemand      *float64  `yaml:"std_daily_demand,omitempty"`
	DeliverySplitCentre *float64  `yaml:"delivery_split_centre,omitempty"`
	DeliverySplitStd    *float64  `yaml:"delivery_split_std,omitempty"`
	Demand              *DistSpec `yaml:"demand_distribution,omitempty"` // replaces the normal demand model
}

// DistSpec parameterizes a daily demand distribution.
type DistSpec struct {
	Type   string             `yaml:"type"`
	Params map[string]float64 `yaml:"params,omitempty"`
}

var validDistTypes = map[string]bool{
	"normal": true, "poisson": true, "empirical": true, "constant": true,
}

// LoadScenarioSpec reads and parses a YAML scenario file.
// Uses strict parsing: unrecognized keys (typos) are rejected.
func LoadScenarioSpec(path string) (*ScenarioSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}
	return ParseScenarioSpec(data)
}

// ParseScenarioSpec decodes a YAML scenario strictly.
func ParseScenarioSpec(data []byte) (*ScenarioSpec, error) {
	var spec ScenarioSpec
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&spec); err != nil {
		return nil, fmt.Errorf("parsing scenario: %w", err)
	}
	logrus.Debugf("parsed scenario %q with %d items", spec.Name, len(spec.Items))
	return &spec, nil
}

// Validate checks that all fields in the spec are valid.
func (s *ScenarioSpec) Validate() error {
	if _, err := s.Start(); err != nil {
		return err
	}
	if s.Days <= 0 {
		return fmt.Errorf("days must be positive, got %d", s.Days)
	}
	if s.Seed == nil {
		return fmt.Errorf("seed is required")
	}
	if len(s.Items) == 0 {
		return fmt.Errorf("at least one item required")
	}
	for name, val := range map[string]*float64{
		"mean_daily_demand":     s.MeanDailyDemand,
		"std_daily_demand":      s.StdDailyDemand,
		"delivery_split_centre": s.DeliverySplitCentre,
		"delivery_split_std":    s.DeliverySplitStd,
	} {
		if val == nil {
			continue
		}
		if err := validateFiniteNonNegative(name, *val); err != nil {
			return err
		}
	}
	seen := make(map[int]bool, len(s.Items))
	for i := range s.Items {
		it := &s.Items[i]
		if err := s.validateItem(i, it); err != nil {
			return err
		}
		if seen[*it.ID] {
			return fmt.Errorf("duplicate item id %d", *it.ID)
		}
		seen[*it.ID] = true
	}
	return nil
}

func (s *ScenarioSpec) validateItem(i int, it *ItemSpec) error {
	prefix := fmt.Sprintf("items[%d]", i)
	if missing := s.missingKeys(it); len(missing) > 0 {
		return fmt.Errorf("%s: missing required keys: %s", prefix, strings.Join(missing, ", "))
	}
	for name, val := range map[string]*float64{
		"rop":                   it.ROP,
		"mean_daily_demand":     it.MeanDailyDemand,
		"std_daily_demand":      it.StdDailyDemand,
		"delivery_split_centre": it.DeliverySplitCentre,
		"delivery_split_std":    it.DeliverySplitStd,
	} {
		if val == nil {
			continue
		}
		if err := validateFiniteNonNegative(prefix+"."+name, *val); err != nil {
			return err
		}
	}
	if it.Demand != nil {
		if !validDistTypes[it.Demand.Type] {
			return fmt.Errorf("%s.demand_distribution: unknown type %q; valid: normal, poisson, empirical, constant", prefix, it.Demand.Type)
		}
		for name, val := range it.Demand.Params {
			if math.IsNaN(val) || math.IsInf(val, 0) {
				return fmt.Errorf("%s.demand_distribution.params.%s must be a finite number, got %f", prefix, name, val)
			}
		}
		if _, err := NewQuantitySampler(*it.Demand); err != nil {
			return fmt.Errorf("%s.demand_distribution: %w", prefix, err)
		}
	}
	cfg, err := s.ItemConfig(*it)
	if err != nil {
		return err
	}
	return cfg.Validate()
}

// missingKeys lists the required keys an item neither sets itself nor
// inherits from the scenario, in file order.
func (s *ScenarioSpec) missingKeys(it *ItemSpec) []string {
	var missing []string
	need := func(name string, present bool) {
		if !present {
			missing = append(missing, name)
		}
	}
	need("id", it.ID != nil)
	need("rop", it.ROP != nil)
	need("z_score", it.ZScore != nil)
	need("order_base_cost", it.OrderBaseCost != nil)
	need("holding_cost", it.HoldingCost != nil)
	need("inventory", it.Inventory != nil)
	need("kpi", strings.TrimSpace(it.KPI) != "")
	need("delivery_func", strings.TrimSpace(it.DeliveryFunc) != "")
	if it.Demand == nil {
		need("mean_daily_demand", it.MeanDailyDemand != nil || s.MeanDailyDemand != nil)
		need("std_daily_demand", it.StdDailyDemand != nil || s.StdDailyDemand != nil)
	}
	need("delivery_split_centre", it.DeliverySplitCentre != nil || s.DeliverySplitCentre != nil)
	need("delivery_split_std", it.DeliverySplitStd != nil || s.DeliverySplitStd != nil)
	return missing
}

// Start parses StartDate.
func (s *ScenarioSpec) Start() (time.Time, error) {
	t, err := time.Parse(DateLayout, s.StartDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("start_date %q: expected YYYY-MM-DD: %w", s.StartDate, err)
	}
	return t, nil
}

// ItemConfig resolves the policy configuration of an item, taking split
// parameters from the scenario when the item does not set them. Absent
// required keys are an error.
func (s *ScenarioSpec) ItemConfig(it ItemSpec) (inventory.ItemConfig, error) {
	if missing := s.missingKeys(&it); len(missing) > 0 {
		return inventory.ItemConfig{}, fmt.Errorf("item: missing required keys: %s", strings.Join(missing, ", "))
	}
	eoq := 0
	if it.EOQ != nil {
		eoq = *it.EOQ
	}
	return inventory.ItemConfig{
		ID:            order.ItemID(*it.ID),
		ROP:           *it.ROP,
		EOQ:           eoq,
		ZScore:        *it.ZScore,
		OrderBaseCost: *it.OrderBaseCost,
		HoldingCost:   *it.HoldingCost,
		Inventory:     *it.Inventory,
		KPI:           it.KPI,
		DeliveryFunc:  it.DeliveryFunc,
		SplitCentre:   resolve(it.DeliverySplitCentre, s.DeliverySplitCentre),
		SplitStd:      resolve(it.DeliverySplitStd, s.DeliverySplitStd),
	}, nil
}

// DemandSampler resolves an item's daily demand model.
func (s *ScenarioSpec) DemandSampler(it ItemSpec) (QuantitySampler, error) {
	if it.Demand != nil {
		return NewQuantitySampler(*it.Demand)
	}
	if it.MeanDailyDemand == nil && s.MeanDailyDemand == nil {
		return nil, fmt.Errorf("mean_daily_demand is required without demand_distribution")
	}
	if it.StdDailyDemand == nil && s.StdDailyDemand == nil {
		return nil, fmt.Errorf("std_daily_demand is required without demand_distribution")
	}
	return NewDemandSampler(resolve(it.MeanDailyDemand, s.MeanDailyDemand),
		resolve(it.StdDailyDemand, s.StdDailyDemand)), nil
}

// resolve prefers the item's value over the scenario's. Callers check
// presence first.
func resolve(item, scenario *float64) float64 {
	if item != nil {
		return *item
	}
	if scenario != nil {
		return *scenario
	}
	return 0
}

func validateFiniteNonNegative(name string, val float64) error {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return fmt.Errorf("%s must be a finite number, got %f", name, val)
	}
	if val < 0 {
		return fmt.Errorf("%s must be non-negative, got %f", name, val)
	}
	return nil
}
