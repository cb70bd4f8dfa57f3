package sim

import (
	"container/heap"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/warehouse-sim/sim/order"
	"github.com/inference-sim/warehouse-sim/sim/trace"
	"github.com/inference-sim/warehouse-sim/sim/workload"
)

func TestTraceKey_FileName(t *testing.T) {
	k := TraceKey{OrderID: 12, Placed: time.Date(2025, 2, 3, 8, 41, 0, 0, time.UTC)}
	assert.Equal(t, "OrderProcess_12_2025-02-03.json", k.FileName())
}

func TestMemoryStore_RoundTrip(t *testing.T) {
	// GIVEN a generated trace saved to memory
	res, err := trace.NewGenerator(rand.New(rand.NewSource(1))).Generate(trace.Request{
		Start:   time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC),
		OrderID: 0,
		Items:   []trace.ItemRequest{{MaterialID: 2, Quantity: 30, DeliveryDays: 3}},
	})
	require.NoError(t, err)
	store := NewMemoryStore()
	key := TraceKey{OrderID: 0, Placed: res.Placed}
	require.NoError(t, store.Save(key, res))

	// WHEN it is loaded
	log, err := store.Load(key)
	require.NoError(t, err)

	// THEN the deliveries survive the encoding
	got, err := trace.ExtractDeliveries(log)
	require.NoError(t, err)
	require.Len(t, got, len(res.Deliveries))
	for i := range got {
		assert.True(t, got[i].Time.Equal(res.Deliveries[i].Time))
		assert.Equal(t, res.Deliveries[i].Goods, got[i].Goods)
	}
	assert.Equal(t, []string{key.FileName()}, store.Names())

	_, err = store.Load(TraceKey{OrderID: 5, Placed: res.Placed})
	assert.Error(t, err)
}

func TestShipmentQueue_PopDue_ByCalendarDay(t *testing.T) {
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	q := &ShipmentQueue{}
	heap.Init(q)
	for i, at := range []time.Time{
		day.AddDate(0, 0, 2).Add(9 * time.Hour),
		day.Add(15 * time.Hour),
		day.Add(11 * time.Hour),
		day.AddDate(0, 0, 1),
	} {
		heap.Push(q, order.NewShipment(i, 0, map[order.ItemID]int{0: 1}, at))
	}

	due := q.popDue(day.Add(8 * time.Hour))
	require.Len(t, due, 2, "both shipments of the day are due regardless of time of day")
	assert.Equal(t, 2, due[0].ID)
	assert.Equal(t, 1, due[1].ID)

	assert.Len(t, q.popDue(day.AddDate(0, 0, 1)), 1)
	assert.Equal(t, 1, q.Len())
}

func TestNewConfig_ResolvesScenario(t *testing.T) {
	cfg, err := NewConfig(workload.ScenarioDefault(3, 45))
	require.NoError(t, err)
	assert.Equal(t, 45, cfg.Days)
	assert.Equal(t, int64(3), cfg.Seed)
	assert.Equal(t, "2025-01-06", cfg.Start.Format(time.DateOnly))
	require.Len(t, cfg.Items, 2)
	for _, it := range cfg.Items {
		assert.NotNil(t, it.Demand)
	}

	bad := workload.ScenarioDefault(3, 45)
	bad.Items[0].KPI = "unknown"
	_, err = NewConfig(bad)
	assert.Error(t, err)
}

func TestNewConfig_PartialItem_NotDefaulted(t *testing.T) {
	// GIVEN a scenario file whose item omits its policy keys
	spec, err := workload.ParseScenarioSpec([]byte(`
start_date: "2025-01-06"
days: 5
seed: 1
mean_daily_demand: 4
std_daily_demand: 1
delivery_split_centre: 2
delivery_split_std: 1
items: [{id: 0, holding_cost: 2}]
`))
	require.NoError(t, err)

	// WHEN resolved into a run configuration
	_, err = NewConfig(spec)

	// THEN resolution fails instead of starting on zero-valued parameters
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kpi")
	assert.Contains(t, err.Error(), "rop")
}
