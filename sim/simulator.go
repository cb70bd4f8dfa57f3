package sim

import (
	"container/heap"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/inference-sim/warehouse-sim/sim/inventory"
	"github.com/inference-sim/warehouse-sim/sim/order"
	"github.com/inference-sim/warehouse-sim/sim/trace"
	"github.com/inference-sim/warehouse-sim/sim/workload"
)

// Simulator steps a warehouse through consecutive days: deliveries arrive,
// demand is consumed, replenishment orders are traced and their packages
// scheduled as shipments.
//
// Thread-safety: NOT thread-safe. Must be called from a single goroutine.
type Simulator struct {
	Day         int       // number of completed days
	CurrentDate time.Time // date of the next day to simulate
	Warehouse   *inventory.Warehouse
	Metrics     *Metrics

	cfg       Config
	store     TraceStore
	rng       *PartitionedRNG
	demand    map[order.ItemID]workload.QuantitySampler
	splitDays map[order.ItemID]workload.QuantitySampler
	generator *trace.Generator
	schedule  ShipmentQueue
	nextShip  int
}

// NewSimulator validates cfg and builds a simulator writing traces to store.
func NewSimulator(cfg Config, store TraceStore) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if store == nil {
		return nil, fmt.Errorf("trace store is required")
	}
	wh, err := inventory.NewWarehouse(cfg.itemConfigs())
	if err != nil {
		return nil, fmt.Errorf("building warehouse: %w", err)
	}
	rng := NewPartitionedRNG(NewSimulationKey(cfg.Seed))
	s := &Simulator{
		CurrentDate: midnight(cfg.Start),
		Warehouse:   wh,
		Metrics:     NewMetrics(wh.ItemIDs()),
		cfg:         cfg,
		store:       store,
		rng:         rng,
		demand:      make(map[order.ItemID]workload.QuantitySampler, len(cfg.Items)),
		splitDays:   make(map[order.ItemID]workload.QuantitySampler, len(cfg.Items)),
		generator:   trace.NewGenerator(rng.ForSubsystem(SubsystemTrace)),
	}
	for _, it := range cfg.Items {
		s.demand[it.ID] = it.Demand
		s.splitDays[it.ID] = workload.NewSplitDaysSampler(it.SplitCentre, it.SplitStd)
	}
	heap.Init(&s.schedule)
	return s, nil
}

// Run simulates every configured day.
func (s *Simulator) Run() error {
	logrus.Infof("Simulating %d days from %s with %d items (seed %d)",
		s.cfg.Days, s.CurrentDate.Format(time.DateOnly), len(s.cfg.Items), s.cfg.Seed)
	for s.Day < s.cfg.Days {
		if err := s.Step(); err != nil {
			return fmt.Errorf("day %d (%s): %w", s.Day, s.CurrentDate.Format(time.DateOnly), err)
		}
	}
	logrus.Infof("Simulation ended after %d days: %d orders placed, %d shipments pending",
		s.Day, s.Warehouse.OrdersPlaced(), s.schedule.Len())
	return nil
}

// Step simulates the current day and advances the date.
func (s *Simulator) Step() error {
	date := s.CurrentDate

	received, err := s.receiveDeliveries(date)
	if err != nil {
		return err
	}

	demand := make(map[order.ItemID]int, len(s.cfg.Items))
	total := 0
	for _, id := range s.Warehouse.ItemIDs() {
		demand[id] = s.demand[id].Sample(s.rng.ForSubsystem(SubsystemDemand))
		total += demand[id]
	}
	fulfilled, backordered, err := s.Warehouse.ConsumeInventory(date, demand)
	if err != nil {
		return err
	}

	if ord, triggers := s.Warehouse.MonitorInventory(date); ord != nil {
		if err := s.replenish(date, ord, triggers); err != nil {
			return err
		}
	}

	s.collect(total, fulfilled, backordered, received)
	s.Day++
	s.CurrentDate = date.AddDate(0, 0, 1)
	return nil
}

func (s *Simulator) receiveDeliveries(date time.Time) (int, error) {
	received := 0
	for _, sh := range s.schedule.popDue(date) {
		if err := s.Warehouse.ReceiveShipment(sh); err != nil {
			return received, fmt.Errorf("receiving shipment %d of order %d: %w", sh.ID, sh.OrderID, err)
		}
		for _, id := range sh.ItemIDs() {
			received += sh.Quantity(id)
		}
		logrus.Debugf("[%s] received shipment %d of order %d (%v)",
			date.Format(time.DateOnly), sh.ID, sh.OrderID, sh.Goods)
	}
	return received, nil
}

// replenish traces a new order, stores the trace, reads it back and
// schedules one shipment per delivered package.
func (s *Simulator) replenish(date time.Time, ord *order.Order, triggers []inventory.Trigger) error {
	req := trace.Request{Start: date, OrderID: ord.ID, Company: trace.DefaultCompany}
	for _, tr := range triggers {
		days := s.splitDays[tr.ItemID].Sample(s.rng.ForSubsystem(SubsystemSplit))
		req.Items = append(req.Items, trace.ItemRequest{
			MaterialID:   int(tr.ItemID),
			Quantity:     tr.Quantity,
			DeliveryDays: days,
			Shape:        tr.Shape,
		})
	}
	res, err := s.generator.Generate(req)
	if err != nil {
		return fmt.Errorf("tracing order %d: %w", ord.ID, err)
	}
	key := TraceKey{OrderID: ord.ID, Placed: res.Placed}
	if err := s.store.Save(key, res); err != nil {
		return fmt.Errorf("saving trace of order %d: %w", ord.ID, err)
	}
	log, err := s.store.Load(key)
	if err != nil {
		return fmt.Errorf("reading trace of order %d: %w", ord.ID, err)
	}
	deliveries, err := trace.ExtractDeliveries(log)
	if err != nil {
		return fmt.Errorf("extracting deliveries of order %d: %w", ord.ID, err)
	}
	for _, d := range deliveries {
		goods := make(map[order.ItemID]int, len(d.Goods))
		for m, q := range d.Goods {
			goods[order.ItemID(m)] = q
		}
		heap.Push(&s.schedule, order.NewShipment(s.nextShip, ord.ID, goods, d.Time))
		s.nextShip++
	}
	logrus.Debugf("[%s] order %d traced: %d packages, %d lineage splits",
		date.Format(time.DateOnly), ord.ID, len(deliveries), res.SplitCount)
	return nil
}

func (s *Simulator) collect(demand, fulfilled, backordered, received int) {
	m := s.Metrics
	m.TotalDemand += demand
	m.FulfilledDemand += fulfilled
	m.Backorders += backordered
	m.TotalHoldingCosts = m.TotalHoldingCosts.Add(s.Warehouse.CurrentHoldingCost())
	onHand := s.Warehouse.Inventory()
	m.OnHand = append(m.OnHand, onHand)
	m.InTransit = append(m.InTransit, s.Warehouse.InTransit())
	m.Received = append(m.Received, received)
	if onHand == 0 {
		m.StockOutDays++
	}
	for id, im := range m.Items {
		it := s.Warehouse.Item(id)
		im.OnHand = append(im.OnHand, it.Inventory)
		im.InTransit = append(im.InTransit, it.InTransit)
		im.ROP = append(im.ROP, it.ROP)
		im.EOQ = append(im.EOQ, it.EOQ)
		im.SafetyStock = append(im.SafetyStock, it.SafetyStock)
	}
}

// PendingShipments is the number of scheduled, undelivered shipments.
func (s *Simulator) PendingShipments() int { return s.schedule.Len() }

// EvaluateGlobally reports warehouse-wide results. When no demand was
// observed the results are still returned, with a service level of 1,
// together with ErrNoDemand.
func (s *Simulator) EvaluateGlobally() (Results, error) {
	m := s.Metrics
	hc, _ := m.TotalHoldingCosts.Float64()
	r := Results{
		KeyTotalDemand:          float64(m.TotalDemand),
		KeyFulfilledDemand:      float64(m.FulfilledDemand),
		KeyBackorders:           float64(m.Backorders),
		KeyStockOuts:            float64(m.StockOutDays),
		KeyOrdersPlaced:         float64(s.Warehouse.OrdersPlaced()),
		KeyTotalHoldingCosts:    hc,
		KeyTotalInventoryOnHand: float64(m.TotalOnHand()),
	}
	return withServiceLevel(r, m.FulfilledDemand, m.TotalDemand)
}

// EvaluateItem reports the results of one item, with the same no-demand
// behaviour as EvaluateGlobally.
func (s *Simulator) EvaluateItem(id order.ItemID) (Results, error) {
	it := s.Warehouse.Item(id)
	im, ok := s.Metrics.Items[id]
	if it == nil || !ok {
		return nil, fmt.Errorf("unknown item %d", id)
	}
	hc, _ := it.TotalHoldingCosts.Float64()
	r := Results{
		KeyTotalDemand:          float64(it.TotalDemand),
		KeyFulfilledDemand:      float64(it.FulfilledDemand),
		KeyBackorders:           float64(it.Backorders),
		KeyStockOuts:            float64(it.StockOutDays),
		KeyTotalHoldingCosts:    hc,
		KeyTotalInventoryOnHand: float64(im.TotalOnHand()),
	}
	return withServiceLevel(r, it.FulfilledDemand, it.TotalDemand)
}

func withServiceLevel(r Results, fulfilled, demand int) (Results, error) {
	sl, err := serviceLevel(fulfilled, demand)
	if err != nil {
		r[KeyServiceLevel] = 1
		return r, err
	}
	r[KeyServiceLevel] = sl
	return r, nil
}
