// Package inventory implements the continuous-review replenishment policy:
// per-item reorder point, economic order quantity and safety stock, and
// the warehouse that owns the items and their open orders.
package inventory

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"

	"github.com/inference-sim/warehouse-sim/sim/order"
	"github.com/inference-sim/warehouse-sim/sim/shape"
)

var daysPerYear = decimal.NewFromInt(365)

// ItemConfig is the validated starting state and policy of one item.
type ItemConfig struct {
	ID            order.ItemID
	ROP           float64 // initial reorder point
	EOQ           int     // initial order quantity; recomputed before every order
	ZScore        float64 // service-level target for safety stock
	OrderBaseCost float64 // fixed cost per order
	HoldingCost   float64 // annual holding cost rate per unit
	Inventory     int     // initial on-hand stock
	KPI           string
	DeliveryFunc  string  // shaping function name or numeric constant
	SplitCentre   float64 // mean number of delivery days per order
	SplitStd      float64 // standard deviation of delivery days
}

// Validate checks the config and resolves its KPI and shaping function.
func (c ItemConfig) Validate() error {
	prefix := fmt.Sprintf("item[%d]", c.ID)
	if _, err := ParseKPI(c.KPI); err != nil {
		return fmt.Errorf("%s: %w", prefix, err)
	}
	if _, err := shape.Parse(c.DeliveryFunc); err != nil {
		return fmt.Errorf("%s: %w", prefix, err)
	}
	if c.HoldingCost <= 0 || math.IsNaN(c.HoldingCost) || math.IsInf(c.HoldingCost, 0) {
		return fmt.Errorf("%s: holding_cost must be a positive finite number, got %f", prefix, c.HoldingCost)
	}
	if c.OrderBaseCost < 0 {
		return fmt.Errorf("%s: order_base_cost must be non-negative, got %f", prefix, c.OrderBaseCost)
	}
	if c.Inventory < 0 {
		return fmt.Errorf("%s: inventory must be non-negative, got %d", prefix, c.Inventory)
	}
	if c.EOQ < 0 {
		return fmt.Errorf("%s: eoq must be non-negative, got %d", prefix, c.EOQ)
	}
	if c.ZScore < 0 {
		return fmt.Errorf("%s: z_score must be non-negative, got %f", prefix, c.ZScore)
	}
	if c.SplitStd < 0 {
		return fmt.Errorf("%s: delivery_split_std must be non-negative, got %f", prefix, c.SplitStd)
	}
	return nil
}

// Trigger requests a replenishment order for one item.
type Trigger struct {
	ItemID      order.ItemID
	Quantity    int
	Shape       shape.Func
	SplitCentre float64
	SplitStd    float64
}

// Item is the stock state and replenishment policy of one SKU.
type Item struct {
	ID          order.ItemID
	Inventory   int
	InTransit   int
	ROP         float64
	EOQ         int
	SafetyStock float64

	ZScore        float64
	OrderBaseCost float64
	HoldingCost   float64
	KPI           KPI
	Shape         shape.Func
	SplitCentre   float64
	SplitStd      float64

	DemandHistory []float64
	LeadTimes     []float64 // one observation per completed order
	OrderSizes    []int

	TotalDemand       int
	FulfilledDemand   int
	Backorders        int
	StockOutDays      int
	TotalHoldingCosts decimal.Decimal

	inFlight bool
}

// NewItem builds an Item from a config; the config must be valid.
func NewItem(c ItemConfig) (*Item, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	kpi, _ := ParseKPI(c.KPI)
	fn, _ := shape.Parse(c.DeliveryFunc)
	return &Item{
		ID:                c.ID,
		Inventory:         c.Inventory,
		ROP:               c.ROP,
		EOQ:               c.EOQ,
		ZScore:            c.ZScore,
		OrderBaseCost:     c.OrderBaseCost,
		HoldingCost:       c.HoldingCost,
		KPI:               kpi,
		Shape:             fn,
		SplitCentre:       c.SplitCentre,
		SplitStd:          c.SplitStd,
		TotalHoldingCosts: decimal.Zero,
	}, nil
}

// CurrentHoldingCost is one day's holding cost at the current stock level.
func (it *Item) CurrentHoldingCost() decimal.Decimal {
	return decimal.NewFromInt(int64(it.Inventory)).
		Mul(decimal.NewFromFloat(it.HoldingCost)).
		Div(daysPerYear)
}

// InFlight reports whether a replenishment order is outstanding.
func (it *Item) InFlight() bool { return it.inFlight }

// ConsumeDemand serves quantity from stock. Unserved demand is counted as
// backordered and dropped; it is not carried to later days.
func (it *Item) ConsumeDemand(date time.Time, quantity int) (fulfilled, backordered int) {
	it.DemandHistory = append(it.DemandHistory, float64(quantity))

	fulfilled = min(it.Inventory, quantity)
	backordered = quantity - fulfilled
	it.Inventory -= fulfilled

	it.TotalDemand += quantity
	it.FulfilledDemand += fulfilled
	it.Backorders += backordered
	it.TotalHoldingCosts = it.TotalHoldingCosts.Add(it.CurrentHoldingCost())

	if it.Inventory == 0 {
		it.StockOutDays++
	}
	if backordered > 0 {
		logrus.Debugf("[%s] item %d short by %d", date.Format(time.DateOnly), it.ID, backordered)
	}
	return fulfilled, backordered
}

// CheckReplenishment fires a trigger when stock is at or below the reorder
// point and no order is in flight. A zero order quantity fires nothing.
func (it *Item) CheckReplenishment() (Trigger, bool) {
	if it.inFlight || float64(it.Inventory) > it.ROP {
		return Trigger{}, false
	}
	it.updateEOQ()
	if it.EOQ <= 0 {
		return Trigger{}, false
	}
	it.inFlight = true
	it.OrderSizes = append(it.OrderSizes, it.EOQ)
	it.InTransit = it.EOQ
	return Trigger{
		ItemID:      it.ID,
		Quantity:    it.EOQ,
		Shape:       it.Shape,
		SplitCentre: it.SplitCentre,
		SplitStd:    it.SplitStd,
	}, true
}

// ReceiveShipment books a delivery into stock. When it completes the
// order-item, the policy is re-evaluated first.
func (it *Item) ReceiveShipment(s *order.Shipment, oi *order.OrderItem) error {
	if err := it.CanReceive(s); err != nil {
		return err
	}
	qty := s.Quantity(it.ID)
	if oi.Complete {
		it.evaluateOrder(oi)
	}
	it.Inventory += qty
	it.InTransit -= qty
	return nil
}

// CanReceive reports whether the shipment fits the item's in-transit stock.
func (it *Item) CanReceive(s *order.Shipment) error {
	if qty := s.Quantity(it.ID); qty > it.InTransit {
		return fmt.Errorf("item %d: shipment %d delivers %d but only %d in transit", it.ID, s.ID, qty, it.InTransit)
	}
	return nil
}

func (it *Item) evaluateOrder(oi *order.OrderItem) {
	lt := it.KPI.LeadTime(oi)
	it.LeadTimes = append(it.LeadTimes, lt)
	it.updateSafetyStock()
	it.updateROP()
	it.updateEOQ()
	it.inFlight = false
	logrus.Debugf("item %d: %s lead time %.2f days -> rop=%.2f eoq=%d ss=%.2f",
		it.ID, it.KPI.Name(), lt, it.ROP, it.EOQ, it.SafetyStock)
}

func (it *Item) updateSafetyStock() {
	if len(it.LeadTimes) < 2 {
		return
	}
	sdDemand := sampleStdDev(it.DemandHistory)
	sdLead := sampleStdDev(it.LeadTimes)
	it.SafetyStock = it.ZScore * math.Sqrt(
		stat.Mean(it.LeadTimes, nil)*sdDemand*sdDemand+
			stat.Mean(it.DemandHistory, nil)*sdLead*sdLead)
}

func (it *Item) updateEOQ() {
	if len(it.DemandHistory) == 0 {
		it.EOQ = 0
		return
	}
	it.EOQ = int(math.Sqrt(2 * 365 * stat.Mean(it.DemandHistory, nil) * it.OrderBaseCost / it.HoldingCost))
}

func (it *Item) updateROP() {
	it.ROP = stat.Mean(it.LeadTimes, nil)*stat.Mean(it.DemandHistory, nil) + it.SafetyStock
}

// sampleStdDev is the n-1 standard deviation, 0 below two observations.
func sampleStdDev(x []float64) float64 {
	if len(x) < 2 {
		return 0
	}
	return stat.StdDev(x, nil)
}
