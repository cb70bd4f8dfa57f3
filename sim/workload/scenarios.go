package workload

// Built-in scenario presets.
// Each returns a valid ScenarioSpec ready for use with sim.NewConfig.

func ptr[T any](v T) *T { return &v }

// ScenarioDefault is a two-item warehouse with normally distributed demand,
// used when no scenario file is given.
func ScenarioDefault(seed int64, days int) *ScenarioSpec {
	return &ScenarioSpec{
		Name: "default", StartDate: "2025-01-06", Days: days, Seed: ptr(seed),
		MeanDailyDemand: ptr(20.0), StdDailyDemand: ptr(5.0),
		DeliverySplitCentre: ptr(3.0), DeliverySplitStd: ptr(1.0),
		Items: []ItemSpec{
			{ID: ptr(0), ROP: ptr(150.0), ZScore: ptr(1.65), OrderBaseCost: ptr(50.0), HoldingCost: ptr(2.0), Inventory: ptr(300),
				KPI: "order_completion", DeliveryFunc: "constant"},
			{ID: ptr(1), ROP: ptr(80.0), ZScore: ptr(1.28), OrderBaseCost: ptr(30.0), HoldingCost: ptr(1.5), Inventory: ptr(200),
				KPI: "item_completion", DeliveryFunc: "linear",
				MeanDailyDemand: ptr(12.0), StdDailyDemand: ptr(4.0)},
		},
	}
}

// ScenarioNoDemand is a single item that never sees demand and so never
// reorders.
func ScenarioNoDemand(seed int64, days int) *ScenarioSpec {
	return &ScenarioSpec{
		Name: "no-demand", StartDate: "2025-01-06", Days: days, Seed: ptr(seed),
		MeanDailyDemand: ptr(0.0), StdDailyDemand: ptr(0.0),
		DeliverySplitCentre: ptr(3.0), DeliverySplitStd: ptr(1.0),
		Items: []ItemSpec{{ID: ptr(0), ROP: ptr(500.0), ZScore: ptr(1.65), OrderBaseCost: ptr(50.0), HoldingCost: ptr(2.0), Inventory: ptr(500),
			KPI: "order_completion", DeliveryFunc: "constant"}},
	}
}

// ScenarioStockOut is a single item whose fixed demand exceeds its
// opening stock on day one.
func ScenarioStockOut(seed int64, days int) *ScenarioSpec {
	return &ScenarioSpec{
		Name: "stock-out", StartDate: "2025-01-06", Days: days, Seed: ptr(seed),
		DeliverySplitCentre: ptr(3.0), DeliverySplitStd: ptr(1.0),
		Items: []ItemSpec{{ID: ptr(0), ROP: ptr(500.0), ZScore: ptr(1.65), OrderBaseCost: ptr(50.0), HoldingCost: ptr(2.0), Inventory: ptr(500),
			KPI: "order_completion", DeliveryFunc: "constant",
			Demand: &DistSpec{Type: "constant", Params: map[string]float64{"value": 600}}}},
	}
}

// ScenarioKPIComparison stocks two identical items that differ only in how
// lead times are attributed.
func ScenarioKPIComparison(seed int64, days int) *ScenarioSpec {
	item := ItemSpec{ID: ptr(0), ROP: ptr(60.0), ZScore: ptr(1.65), OrderBaseCost: ptr(40.0), HoldingCost: ptr(2.0), Inventory: ptr(120),
		KPI: "order_completion", DeliveryFunc: "linear"}
	other := item
	other.ID, other.KPI = ptr(1), "item_completion"
	return &ScenarioSpec{
		Name: "kpi-comparison", StartDate: "2025-01-06", Days: days, Seed: ptr(seed),
		MeanDailyDemand: ptr(15.0), StdDailyDemand: ptr(4.0),
		DeliverySplitCentre: ptr(4.0), DeliverySplitStd: ptr(1.0),
		Items: []ItemSpec{item, other},
	}
}

// Scenarios maps preset names to constructors.
var Scenarios = map[string]func(seed int64, days int) *ScenarioSpec{
	"default":        ScenarioDefault,
	"no-demand":      ScenarioNoDemand,
	"stock-out":      ScenarioStockOut,
	"kpi-comparison": ScenarioKPIComparison,
}
