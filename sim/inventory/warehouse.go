package inventory

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/inference-sim/warehouse-sim/sim/order"
)

// Warehouse owns the items and the replenishment orders still open.
//
// Thread-safety: NOT thread-safe. Must be called from a single goroutine.
type Warehouse struct {
	items        map[order.ItemID]*Item
	ids          []order.ItemID // ascending; fixes iteration order
	open         []*order.Order
	ordersPlaced int
}

// NewWarehouse validates every item config and builds the warehouse.
func NewWarehouse(configs []ItemConfig) (*Warehouse, error) {
	if len(configs) == 0 {
		return nil, fmt.Errorf("warehouse needs at least one item")
	}
	w := &Warehouse{items: make(map[order.ItemID]*Item, len(configs))}
	for _, c := range configs {
		if _, dup := w.items[c.ID]; dup {
			return nil, fmt.Errorf("duplicate item id %d", c.ID)
		}
		it, err := NewItem(c)
		if err != nil {
			return nil, err
		}
		w.items[c.ID] = it
		w.ids = append(w.ids, c.ID)
	}
	sort.Slice(w.ids, func(i, j int) bool { return w.ids[i] < w.ids[j] })
	return w, nil
}

// Item returns the item with the given id, or nil.
func (w *Warehouse) Item(id order.ItemID) *Item { return w.items[id] }

// ItemIDs returns item ids in ascending order.
func (w *Warehouse) ItemIDs() []order.ItemID {
	return append([]order.ItemID(nil), w.ids...)
}

// OpenOrders returns the orders not yet fully delivered.
func (w *Warehouse) OpenOrders() []*order.Order { return w.open }

// OrdersPlaced is the number of orders opened so far; also the next order id.
func (w *Warehouse) OrdersPlaced() int { return w.ordersPlaced }

// Inventory is total on-hand stock.
func (w *Warehouse) Inventory() int {
	total := 0
	for _, it := range w.items {
		total += it.Inventory
	}
	return total
}

// InTransit is total stock ordered but not yet received.
func (w *Warehouse) InTransit() int {
	total := 0
	for _, it := range w.items {
		total += it.InTransit
	}
	return total
}

// CurrentHoldingCost is one day's holding cost across all items.
func (w *Warehouse) CurrentHoldingCost() decimal.Decimal {
	total := decimal.Zero
	for _, id := range w.ids {
		total = total.Add(w.items[id].CurrentHoldingCost())
	}
	return total
}

// MonitorInventory runs the reorder check on every item and opens a single
// order covering all triggering items. Returns nil when nothing triggered.
func (w *Warehouse) MonitorInventory(date time.Time) (*order.Order, []Trigger) {
	var triggers []Trigger
	for _, id := range w.ids {
		if t, ok := w.items[id].CheckReplenishment(); ok {
			triggers = append(triggers, t)
		}
	}
	if len(triggers) == 0 {
		return nil, nil
	}
	quantities := make(map[order.ItemID]int, len(triggers))
	for _, t := range triggers {
		quantities[t.ItemID] = t.Quantity
	}
	o := order.NewOrder(w.ordersPlaced, date, quantities)
	w.open = append(w.open, o)
	w.ordersPlaced++
	logrus.Infof("[%s] placed order %d for %v", date.Format(time.DateOnly), o.ID, quantities)
	return o, triggers
}

// ConsumeInventory serves each item's demand and returns the totals.
func (w *Warehouse) ConsumeInventory(date time.Time, demand map[order.ItemID]int) (fulfilled, backordered int, err error) {
	for id := range demand {
		if _, ok := w.items[id]; !ok {
			return 0, 0, fmt.Errorf("demand for unknown item %d", id)
		}
	}
	for _, id := range w.ids {
		qty, ok := demand[id]
		if !ok {
			continue
		}
		f, b := w.items[id].ConsumeDemand(date, qty)
		fulfilled += f
		backordered += b
	}
	return fulfilled, backordered, nil
}

// ReceiveShipment applies a delivery to its open order and to the stock of
// every item it carries. The order is closed once fully delivered.
func (w *Warehouse) ReceiveShipment(s *order.Shipment) error {
	idx := -1
	for i, o := range w.open {
		if o.ID == s.OrderID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("shipment %d references order %d which is not open", s.ID, s.OrderID)
	}
	o := w.open[idx]
	for _, id := range s.ItemIDs() {
		it, ok := w.items[id]
		if !ok {
			return fmt.Errorf("shipment %d carries unknown item %d", s.ID, id)
		}
		if err := it.CanReceive(s); err != nil {
			return err
		}
	}
	// Validated up front so a rejected shipment changes neither the ledger
	// nor the stock.
	if err := o.Check(s); err != nil {
		return err
	}
	if err := o.Apply(s); err != nil {
		return err
	}
	for _, id := range s.ItemIDs() {
		if err := w.items[id].ReceiveShipment(s, o.Items[id]); err != nil {
			return err
		}
	}
	if o.Complete {
		w.open = append(w.open[:idx], w.open[idx+1:]...)
	}
	return nil
}
