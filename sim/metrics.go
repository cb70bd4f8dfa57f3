// Tracks warehouse-wide and per-item statistics over a run and turns them
// into evaluation results.

package sim

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/inference-sim/warehouse-sim/sim/order"
)

// ErrNoDemand is returned by evaluation when no demand has been observed,
// so the service level is undefined.
var ErrNoDemand = errors.New("no demand observed: service level undefined")

// Result keys.
const (
	KeyServiceLevel         = "service_level"
	KeyTotalDemand          = "total_demand"
	KeyFulfilledDemand      = "fulfilled_demand"
	KeyBackorders           = "backorders"
	KeyStockOuts            = "stock_outs"
	KeyOrdersPlaced         = "orders_placed"
	KeyTotalHoldingCosts    = "total_holding_costs"
	KeyTotalInventoryOnHand = "total_inventory_on_hand"
)

// Results is a flat evaluation report.
type Results map[string]float64

// Metrics aggregates warehouse-wide statistics for final reporting.
type Metrics struct {
	TotalDemand       int
	FulfilledDemand   int
	Backorders        int
	StockOutDays      int // days on which total on-hand stock was zero
	TotalHoldingCosts decimal.Decimal

	OnHand    []int // per day, after demand
	InTransit []int
	Received  []int // units delivered per day

	Items map[order.ItemID]*ItemMetrics
}

// ItemMetrics holds the per-day trajectory of one item.
type ItemMetrics struct {
	OnHand      []int
	InTransit   []int
	ROP         []float64
	EOQ         []int
	SafetyStock []float64
}

// NewMetrics creates empty metrics for the given items.
func NewMetrics(ids []order.ItemID) *Metrics {
	m := &Metrics{TotalHoldingCosts: decimal.Zero, Items: make(map[order.ItemID]*ItemMetrics, len(ids))}
	for _, id := range ids {
		m.Items[id] = &ItemMetrics{}
	}
	return m
}

// TotalOnHand sums the daily on-hand series.
func (m *Metrics) TotalOnHand() int {
	return sumInts(m.OnHand)
}

// TotalOnHand sums the item's daily on-hand series.
func (im *ItemMetrics) TotalOnHand() int {
	return sumInts(im.OnHand)
}

func sumInts(xs []int) int {
	n := 0
	for _, x := range xs {
		n += x
	}
	return n
}

func serviceLevel(fulfilled, demand int) (float64, error) {
	if demand == 0 {
		return 0, ErrNoDemand
	}
	return float64(fulfilled) / float64(demand), nil
}

// Print writes results in key order.
func (r Results) Print(w io.Writer) {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "%-24s: %.4f\n", k, r[k])
	}
}
