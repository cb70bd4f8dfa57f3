package sim

import (
	"container/heap"
	"time"

	"github.com/inference-sim/warehouse-sim/sim/order"
)

// ShipmentQueue is a min-heap of scheduled shipments by delivery time,
// ties broken by shipment id.
type ShipmentQueue []*order.Shipment

func (q ShipmentQueue) Len() int { return len(q) }
func (q ShipmentQueue) Less(i, j int) bool {
	if !q[i].DeliveryDate.Equal(q[j].DeliveryDate) {
		return q[i].DeliveryDate.Before(q[j].DeliveryDate)
	}
	return q[i].ID < q[j].ID
}
func (q ShipmentQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *ShipmentQueue) Push(x any) {
	*q = append(*q, x.(*order.Shipment))
}

func (q *ShipmentQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return item
}

// popDue removes and returns, in delivery order, every shipment whose
// delivery falls on or before the calendar day of date.
func (q *ShipmentQueue) popDue(date time.Time) []*order.Shipment {
	end := midnight(date).AddDate(0, 0, 1)
	var due []*order.Shipment
	for q.Len() > 0 && (*q)[0].DeliveryDate.Before(end) {
		due = append(due, heap.Pop(q).(*order.Shipment))
	}
	return due
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
