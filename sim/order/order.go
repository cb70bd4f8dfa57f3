// Package order is the replenishment ledger: placed orders, their per-item
// records, and the shipments that partially fulfill them.
// This package has no dependencies on sim/ or its other subpackages.
package order

import (
	"fmt"
	"sort"
	"time"
)

// ItemID identifies a stock-keeping unit.
type ItemID int

// Shipment is a single delivery against an order. Shipments are created
// once and never mutated; Goods is copied on construction.
type Shipment struct {
	ID           int
	OrderID      int
	Goods        map[ItemID]int
	DeliveryDate time.Time
}

// NewShipment creates a Shipment owning a copy of goods.
func NewShipment(id, orderID int, goods map[ItemID]int, deliveryDate time.Time) *Shipment {
	g := make(map[ItemID]int, len(goods))
	for k, v := range goods {
		g[k] = v
	}
	return &Shipment{ID: id, OrderID: orderID, Goods: g, DeliveryDate: deliveryDate}
}

// Quantity returns the delivered quantity for item (0 if absent).
func (s *Shipment) Quantity(item ItemID) int {
	return s.Goods[item]
}

// ItemIDs returns the shipment's items in ascending order.
func (s *Shipment) ItemIDs() []ItemID {
	ids := make([]ItemID, 0, len(s.Goods))
	for id := range s.Goods {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// OrderItem tracks fulfillment of one item within an order.
type OrderItem struct {
	ItemID    ItemID
	Placed    time.Time
	Quantity  int
	Delivered int
	Shipments []*Shipment
	Complete  bool
	Completed time.Time
}

// Check reports whether the shipment can be applied to the item without
// changing it.
func (oi *OrderItem) Check(s *Shipment) error {
	qty, ok := s.Goods[oi.ItemID]
	if !ok {
		return fmt.Errorf("shipment %d carries no goods for item %d", s.ID, oi.ItemID)
	}
	if oi.Complete {
		return fmt.Errorf("item %d already complete, rejecting shipment %d", oi.ItemID, s.ID)
	}
	if oi.Delivered+qty > oi.Quantity {
		return fmt.Errorf("shipment %d over-delivers item %d: %d + %d > %d",
			s.ID, oi.ItemID, oi.Delivered, qty, oi.Quantity)
	}
	return nil
}

// Apply records a shipment against the item. Once Complete is set it never
// reverts; further shipments for a complete item are rejected.
func (oi *OrderItem) Apply(s *Shipment) error {
	if err := oi.Check(s); err != nil {
		return err
	}
	qty := s.Goods[oi.ItemID]
	oi.Shipments = append(oi.Shipments, s)
	oi.Delivered += qty
	if oi.Delivered == oi.Quantity {
		oi.Complete = true
		oi.Completed = s.DeliveryDate
	}
	return nil
}

// Remaining is the quantity still outstanding.
func (oi *OrderItem) Remaining() int {
	return oi.Quantity - oi.Delivered
}

// Order is a replenishment order spanning one or more items.
type Order struct {
	ID       int
	Placed   time.Time
	Items    map[ItemID]*OrderItem
	Complete bool
}

// NewOrder creates an order with one record per requested item.
func NewOrder(id int, placed time.Time, quantities map[ItemID]int) *Order {
	o := &Order{
		ID:     id,
		Placed: placed,
		Items:  make(map[ItemID]*OrderItem, len(quantities)),
	}
	for item, qty := range quantities {
		o.Items[item] = &OrderItem{ItemID: item, Placed: placed, Quantity: qty}
	}
	return o
}

// Check validates the shipment against every item it carries without
// changing the order.
func (o *Order) Check(s *Shipment) error {
	if s.OrderID != o.ID {
		return fmt.Errorf("shipment %d belongs to order %d, not %d", s.ID, s.OrderID, o.ID)
	}
	for _, item := range s.ItemIDs() {
		oi, ok := o.Items[item]
		if !ok {
			return fmt.Errorf("order %d has no item %d", o.ID, item)
		}
		if err := oi.Check(s); err != nil {
			return fmt.Errorf("order %d: %w", o.ID, err)
		}
	}
	return nil
}

// Apply records a shipment against every item it carries and refreshes
// the order's completion flag. A shipment that fails Check leaves the
// order untouched.
func (o *Order) Apply(s *Shipment) error {
	if err := o.Check(s); err != nil {
		return err
	}
	for _, item := range s.ItemIDs() {
		if err := o.Items[item].Apply(s); err != nil {
			return fmt.Errorf("order %d: %w", o.ID, err)
		}
	}
	o.Complete = o.allComplete()
	return nil
}

func (o *Order) allComplete() bool {
	for _, oi := range o.Items {
		if !oi.Complete {
			return false
		}
	}
	return true
}

// ItemIDs returns the order's items in ascending order.
func (o *Order) ItemIDs() []ItemID {
	ids := make([]ItemID, 0, len(o.Items))
	for id := range o.Items {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Quantities returns the requested quantity per item.
func (o *Order) Quantities() map[ItemID]int {
	q := make(map[ItemID]int, len(o.Items))
	for id, oi := range o.Items {
		q[id] = oi.Quantity
	}
	return q
}
