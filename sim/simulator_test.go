package sim

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/warehouse-sim/sim/inventory"
	"github.com/inference-sim/warehouse-sim/sim/order"
	"github.com/inference-sim/warehouse-sim/sim/workload"
)

// seqSampler replays a fixed demand series and repeats its last value.
type seqSampler struct {
	vals []int
	i    int
}

func (s *seqSampler) Sample(_ *rand.Rand) int {
	v := s.vals[min(s.i, len(s.vals)-1)]
	s.i++
	return v
}

func mustConfig(t *testing.T, spec *workload.ScenarioSpec) Config {
	t.Helper()
	cfg, err := NewConfig(spec)
	require.NoError(t, err)
	return cfg
}

func mustRun(t *testing.T, cfg Config) *Simulator {
	t.Helper()
	s, err := NewSimulator(cfg, NewMemoryStore())
	require.NoError(t, err)
	require.NoError(t, s.Run())
	return s
}

func singleItemConfig(kpi string, demand workload.QuantitySampler, days int) Config {
	start, _ := (&workload.ScenarioSpec{StartDate: "2025-01-06"}).Start()
	return Config{
		Name: "single", Start: start, Days: days, Seed: 99,
		Items: []ItemSetup{{
			ItemConfig: inventory.ItemConfig{
				ID: 0, ROP: 500, ZScore: 1.65, OrderBaseCost: 50, HoldingCost: 2, Inventory: 500,
				KPI: kpi, DeliveryFunc: "linear", SplitCentre: 4, SplitStd: 0,
			},
			Demand: demand,
		}},
	}
}

func TestSimulator_NoDemand_NeverReorders(t *testing.T) {
	for _, days := range []int{1, 30, 200} {
		// GIVEN a single item at its reorder point with zero daily demand
		s := mustRun(t, mustConfig(t, workload.ScenarioNoDemand(1, days)))

		// THEN nothing is ordered and the service level stays 1
		res, err := s.EvaluateGlobally()
		assert.ErrorIs(t, err, ErrNoDemand)
		assert.Equal(t, 1.0, res[KeyServiceLevel])
		assert.Equal(t, 0.0, res[KeyOrdersPlaced])
		assert.Equal(t, 0.0, res[KeyStockOuts])
		assert.Equal(t, float64(500*days), res[KeyTotalInventoryOnHand])
		assert.Equal(t, 0, s.PendingShipments())
	}
}

func TestSimulator_StockOut_OrdersEOQAndReceivesItExactly(t *testing.T) {
	// GIVEN 500 units on hand, 600 demanded on day 0 and nothing afterwards
	cfg := singleItemConfig(inventory.KPIOrderCompletion, &seqSampler{vals: []int{600, 0}}, 1)
	s, err := NewSimulator(cfg, NewMemoryStore())
	require.NoError(t, err)

	// WHEN day 0 runs
	require.NoError(t, s.Step())

	// THEN 100 units are backordered and an EOQ sized from the single observation is ordered
	it := s.Warehouse.Item(0)
	assert.Equal(t, 0, it.Inventory)
	assert.Equal(t, 100, it.Backorders)
	assert.Equal(t, 1, it.StockOutDays)
	// floor(sqrt(2*365*600*50/2))
	const eoq = 3309
	assert.Equal(t, eoq, it.EOQ)
	assert.Equal(t, []int{eoq}, it.OrderSizes)
	assert.Equal(t, eoq, it.InTransit)
	assert.Positive(t, s.PendingShipments())

	// WHEN the simulation continues until every package arrived
	for s.PendingShipments() > 0 {
		require.NoError(t, s.Step())
		require.Less(t, s.Day, 120, "deliveries never arrived")
	}

	// THEN exactly EOQ units arrived, on hand equals EOQ and nothing is in transit
	assert.Equal(t, eoq, sumInts(s.Metrics.Received))
	assert.Equal(t, eoq, it.Inventory)
	assert.Equal(t, 0, it.InTransit)
	assert.False(t, it.InFlight())
	assert.Len(t, it.LeadTimes, 1)
	assert.Empty(t, s.Warehouse.OpenOrders())
}

func TestSimulator_KPIModes_DivergeAfterFirstCompletedOrder(t *testing.T) {
	// GIVEN identical items, seeds and demand that differ only in KPI mode
	run := func(kpi string) *Simulator {
		return mustRun(t, singleItemConfig(kpi, &seqSampler{vals: []int{120}}, 90))
	}
	byOrder := run(inventory.KPIOrderCompletion)
	byItem := run(inventory.KPIItemCompletion)

	// THEN the ROP trajectories agree until the first completion and then differ
	a, b := byOrder.Metrics.Items[0].ROP, byItem.Metrics.Items[0].ROP
	require.Len(t, b, len(a))
	first := -1
	for d := range a {
		if a[d] != b[d] {
			first = d
			break
		}
	}
	require.NotEqual(t, -1, first, "ROP trajectories never diverged")
	assert.Equal(t, a[:first], b[:first])
	require.NotEmpty(t, byOrder.Warehouse.Item(0).LeadTimes)
	// item completion averages over shipments, so it is never later than order completion
	assert.Less(t, byItem.Warehouse.Item(0).LeadTimes[0], byOrder.Warehouse.Item(0).LeadTimes[0])
}

func TestSimulator_DemandConservation(t *testing.T) {
	s := mustRun(t, mustConfig(t, workload.ScenarioDefault(7, 120)))

	m := s.Metrics
	assert.Equal(t, m.TotalDemand, m.FulfilledDemand+m.Backorders)
	perItem := 0
	for _, id := range s.Warehouse.ItemIDs() {
		it := s.Warehouse.Item(id)
		assert.Equal(t, it.TotalDemand, it.FulfilledDemand+it.Backorders, "item %d", id)
		assert.GreaterOrEqual(t, it.Inventory, 0)
		assert.GreaterOrEqual(t, it.InTransit, 0)
		perItem += it.TotalDemand
	}
	assert.Equal(t, m.TotalDemand, perItem)
	assert.Len(t, m.OnHand, 120)
	assert.Positive(t, s.Warehouse.OrdersPlaced())
}

func TestSimulator_Evaluation_Idempotent(t *testing.T) {
	s := mustRun(t, mustConfig(t, workload.ScenarioDefault(3, 60)))

	first, err := s.EvaluateGlobally()
	require.NoError(t, err)
	second, err := s.EvaluateGlobally()
	require.NoError(t, err)
	assert.Equal(t, first, second)

	for _, id := range s.Warehouse.ItemIDs() {
		a, err := s.EvaluateItem(id)
		require.NoError(t, err)
		b, _ := s.EvaluateItem(id)
		assert.Equal(t, a, b)
		assert.NotContains(t, a, KeyOrdersPlaced)
		assert.InDelta(t, a[KeyFulfilledDemand]/a[KeyTotalDemand], a[KeyServiceLevel], 1e-12)
	}
	_, err = s.EvaluateItem(order.ItemID(42))
	assert.Error(t, err)
}

func TestSimulator_GlobalHoldingCostIsSumOfItems(t *testing.T) {
	s := mustRun(t, mustConfig(t, workload.ScenarioDefault(5, 60)))

	global, _ := s.EvaluateGlobally()
	sum := 0.0
	for _, id := range s.Warehouse.ItemIDs() {
		r, _ := s.EvaluateItem(id)
		sum += r[KeyTotalHoldingCosts]
	}
	assert.InDelta(t, global[KeyTotalHoldingCosts], sum, 1e-6)
}

func TestSimulator_SameSeed_Reproducible(t *testing.T) {
	a := mustRun(t, mustConfig(t, workload.ScenarioDefault(11, 90)))
	b := mustRun(t, mustConfig(t, workload.ScenarioDefault(11, 90)))

	ra, _ := a.EvaluateGlobally()
	rb, _ := b.EvaluateGlobally()
	assert.Equal(t, ra, rb)
	assert.Equal(t, a.Metrics.OnHand, b.Metrics.OnHand)
	assert.Equal(t, a.Metrics.Received, b.Metrics.Received)
}

func TestSimulator_DifferentSeed_DifferentDemand(t *testing.T) {
	a := mustRun(t, mustConfig(t, workload.ScenarioDefault(1, 30)))
	b := mustRun(t, mustConfig(t, workload.ScenarioDefault(2, 30)))
	assert.NotEqual(t, a.Metrics.OnHand, b.Metrics.OnHand)
}

func TestSimulator_DirStore_WritesDocumentsAndTables(t *testing.T) {
	// GIVEN an output directory holding a previous run and an unrelated file
	dir := t.TempDir()
	stale := filepath.Join(dir, "OrderProcess_99_2020-01-01.json")
	require.NoError(t, os.WriteFile(stale, []byte("{}"), 0o644))
	staleTable := filepath.Join(dir, DirConvergence, "99_2020-01-01.csv")
	require.NoError(t, os.MkdirAll(filepath.Dir(staleTable), 0o755))
	require.NoError(t, os.WriteFile(staleTable, []byte("x\n"), 0o644))
	keep := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(keep, []byte("mine"), 0o644))
	store, err := NewDirStore(dir)
	require.NoError(t, err)

	// WHEN a run places orders
	s, err := NewSimulator(mustConfig(t, workload.ScenarioDefault(4, 60)), store)
	require.NoError(t, err)
	require.NoError(t, s.Run())

	// THEN the previous run is gone, the unrelated file survives, and each
	// order has a document plus three tables
	_, err = os.Stat(stale)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(staleTable)
	assert.True(t, os.IsNotExist(err))
	mine, err := os.ReadFile(keep)
	require.NoError(t, err)
	assert.Equal(t, "mine", string(mine))
	docs, err := filepath.Glob(filepath.Join(dir, "OrderProcess_*.json"))
	require.NoError(t, err)
	assert.Len(t, docs, s.Warehouse.OrdersPlaced())
	for _, sub := range []string{DirDivergenceItems, DirDivergenceOrder, DirConvergence} {
		tables, err := filepath.Glob(filepath.Join(dir, sub, "*.csv"))
		require.NoError(t, err)
		assert.Len(t, tables, len(docs), sub)
	}
}

func TestNewSimulator_Errors(t *testing.T) {
	good := mustConfig(t, workload.ScenarioDefault(1, 10))

	_, err := NewSimulator(good, nil)
	assert.Error(t, err, "nil store")

	noDays := good
	noDays.Days = 0
	_, err = NewSimulator(noDays, NewMemoryStore())
	assert.Error(t, err)

	dup := good
	dup.Items = append([]ItemSetup{}, good.Items...)
	dup.Items[1].ID = dup.Items[0].ID
	_, err = NewSimulator(dup, NewMemoryStore())
	assert.Error(t, err)

	noDemand := good
	noDemand.Items = []ItemSetup{{ItemConfig: good.Items[0].ItemConfig}}
	_, err = NewSimulator(noDemand, NewMemoryStore())
	assert.Error(t, err)
}
