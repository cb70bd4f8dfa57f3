package trace

import (
	"fmt"
	"math/rand"
	"sort"
	"strconv"
	"time"

	"github.com/inference-sim/warehouse-sim/sim/shape"
)

// DefaultCompany is the ordering party recorded on business events.
const DefaultCompany = "company_1"

var (
	warehouseEmployees = []string{"J. Williams", "E. Davis", "D. Brown", "S. Wilson", "L. Moore", "O. Garcia"}
	shippingCompanies  = []string{"DHL", "UPS", "FedEx"}
	paymentMethods     = []string{"Credit Card", "PayPal", "Bank Transfer"}
)

// ItemRequest is one item of a replenishment order to be traced.
type ItemRequest struct {
	MaterialID   int
	Quantity     int
	DeliveryDays int        // clamped to Quantity so every day ships at least one unit
	Shape        shape.Func // nil means equal weights
}

// Request describes the order to trace.
type Request struct {
	Start   time.Time
	OrderID int
	Company string
	Items   []ItemRequest
}

// Delivery is the content of one Deliver Package event.
type Delivery struct {
	Time      time.Time
	PackageID string
	Goods     map[int]int // material id -> delivered quantity
}

// Total is the delivered quantity across materials.
func (d Delivery) Total() int {
	n := 0
	for _, q := range d.Goods {
		n += q
	}
	return n
}

// Result is a generated trace and its derived views.
type Result struct {
	Log             *Log
	Placed          time.Time
	DivergenceItems []Row // case = original item identity
	DivergenceOrder []Row // case = order
	Convergence     []Row // case = delivered lineage identity
	SplitCount      int   // lineage identities created by splits
	Deliveries      []Delivery
}

// Generator builds synthetic fulfillment traces. Schedule drives the
// batch-level timing of fulfillment events; Cosmetic drives everything
// else that is random.
//
// Thread-safety: NOT thread-safe. Must be called from a single goroutine.
type Generator struct {
	Schedule Scheduler
	Cosmetic *rand.Rand
	IDs      *IDAllocator
}

// NewGenerator returns a Generator with the hash scheduler and a fresh
// identifier allocator.
func NewGenerator(cosmetic *rand.Rand) *Generator {
	return &Generator{Schedule: HashScheduler{}, Cosmetic: cosmetic, IDs: NewIDAllocator()}
}

type itemState struct {
	ItemRequest
	plan    []int  // quantity per fulfillment day
	root    string // identity as ordered
	current string // lineage node still holding undelivered stock
	bound   string // lineage node shipped on the current day
	shipped int
	history []Row // rows copied into the convergence view
}

type builder struct {
	objects  map[string]*Object
	created  []string
	events   []Event
	divItems []Row
	divOrder []Row
	conv     []Row
}

func (b *builder) object(id, typ string) *Object {
	if o, ok := b.objects[id]; ok {
		return o
	}
	o := &Object{ID: id, Type: typ, Attributes: []ObjectAttribute{}, Relationships: []Relationship{}}
	b.objects[id] = o
	b.created = append(b.created, id)
	return o
}

func (b *builder) itemAttrs(id string, at time.Time, amount, material int) *Object {
	o := b.object(id, ObjectItem)
	ts := Timestamp{at}
	o.Attributes = append(o.Attributes,
		ObjectAttribute{Name: "amount", Time: ts, Value: amount},
		ObjectAttribute{Name: "material_id", Time: ts, Value: strconv.Itoa(material)},
	)
	return o
}

func (b *builder) event(id, typ string, at time.Time, attrs []EventAttribute, rels ...Relationship) {
	b.events = append(b.events, Event{ID: id, Type: typ, Time: Timestamp{at}, Attributes: attrs, Relationships: rels})
}

func attr(name string, value any) []EventAttribute {
	return []EventAttribute{{Name: name, Value: value}}
}

func rel(id, qualifier string) Relationship {
	return Relationship{ObjectID: id, Qualifier: qualifier}
}

func minutes(n int) time.Duration { return time.Duration(n) * time.Minute }

// Generate traces one replenishment order from placement to the last
// package delivery.
func (g *Generator) Generate(req Request) (*Result, error) {
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("order %d: no items to trace", req.OrderID)
	}
	company := req.Company
	if company == "" {
		company = DefaultCompany
	}
	c := clock{schedule: g.Schedule, cosmetic: g.Cosmetic}
	b := &builder{objects: make(map[string]*Object)}
	orderID := fmt.Sprintf("order_%d", req.OrderID)

	items := make([]*itemState, 0, len(req.Items))
	seen := make(map[int]bool)
	maxDays, orderTotal := 0, 0
	for _, ir := range req.Items {
		if ir.Quantity < 1 {
			return nil, fmt.Errorf("order %d: material %d quantity must be >= 1, got %d", req.OrderID, ir.MaterialID, ir.Quantity)
		}
		if ir.DeliveryDays < 1 {
			return nil, fmt.Errorf("order %d: material %d delivery days must be >= 1, got %d", req.OrderID, ir.MaterialID, ir.DeliveryDays)
		}
		if seen[ir.MaterialID] {
			return nil, fmt.Errorf("order %d: duplicate material %d", req.OrderID, ir.MaterialID)
		}
		seen[ir.MaterialID] = true
		days := min(ir.DeliveryDays, ir.Quantity)
		root := g.IDs.Root(req.OrderID, ir.MaterialID)
		items = append(items, &itemState{
			ItemRequest: ir,
			plan:        Distribute(ir.Shape, days, ir.Quantity),
			root:        root,
			current:     root,
		})
		maxDays = max(maxDays, days)
		orderTotal += ir.Quantity
	}
	sort.Slice(items, func(i, j int) bool { return items[i].MaterialID < items[j].MaterialID })

	// Business phase: placement, invoice, payment.
	s := req.Start
	start := time.Date(s.Year(), s.Month(), s.Day(), s.Hour(), s.Minute(), s.Second(), 0, time.UTC)
	placed := c.workingHours(start)
	invoiced := c.workingHours(placed.Add(c.businessDelta(1, 3)))
	paid := c.workingHours(invoiced.Add(c.businessDelta(1, 7)))

	orderObj := b.object(orderID, ObjectOrder)
	initial := []Relationship{rel(orderID, "Regular placement of order")}
	for _, it := range items {
		orderObj.Relationships = append(orderObj.Relationships, rel(it.root, "Item of Order"))
		b.itemAttrs(it.root, placed, it.Quantity, it.MaterialID)
		initial = append(initial, rel(it.root, "Initial item of order"))
	}
	for _, step := range []struct {
		activity string
		at       time.Time
	}{
		{ActivityPlaceOrder, placed},
		{ActivitySendInvoice, invoiced},
		{ActivityReceivePayment, paid},
	} {
		for _, it := range items {
			row := Row{CaseID: it.root, Timestamp: step.at, Activity: step.activity, Amount: it.Quantity}
			b.divItems = append(b.divItems, row)
			it.history = append(it.history, row)
		}
		b.divOrder = append(b.divOrder, Row{CaseID: orderID, Timestamp: step.at, Activity: step.activity, Amount: orderTotal})
	}
	b.event(fmt.Sprintf("e_%d_1_%s", req.OrderID, company), ActivityPlaceOrder, placed,
		attr("company", company), initial...)
	b.event(fmt.Sprintf("e_%d_2_%s", req.OrderID, company), ActivitySendInvoice, invoiced,
		attr("company", company), rel(orderID, "Regular placement of order"))
	b.event(fmt.Sprintf("e_%d_3_%s", req.OrderID, company), ActivityReceivePayment, paid,
		[]EventAttribute{{Name: "company", Value: company}, {Name: "payment_method", Value: c.pick(paymentMethods)}},
		rel(orderID, "Regular placement of order"))

	// Fulfillment phase: one availability check, split, pick and package per day.
	res := &Result{Placed: placed}
	lastCheck := placed
	for day := 0; day < maxDays; day++ {
		check := c.workingHours(lastCheck.Add(c.businessDelta(1, 7)))
		lastCheck = check
		splitDay := midnight(check).AddDate(0, 0, 1)
		splitAt := c.eventTime(splitDay.Add(7*time.Hour), ActivitySplitItem, -60, 60, splitDay, 0)
		pickAt := c.eventTime(splitAt, ActivityPickItem, 15, 60, splitDay, 5)
		packAt := c.eventTime(pickAt, ActivityPackItems, 17, 30, splitDay, 8)

		var active []*itemState
		for _, it := range items {
			if day < len(it.plan) {
				active = append(active, it)
			}
		}

		for _, it := range active {
			res.SplitCount += g.fulfill(b, c, req.OrderID, orderID, company, day, it, check, splitAt, pickAt)
		}

		pkg := PackageID(packAt)
		pkgObj := b.object(pkg, ObjectPackage)
		total := 0
		goods := make(map[int]int, len(active))
		packRels := make([]Relationship, 0, len(active)+1)
		for _, it := range active {
			pkgObj.Relationships = append(pkgObj.Relationships, rel(it.bound, QualifierPackageOfItem))
			packRels = append(packRels, rel(it.bound, "Regular pack of item"))
			total += it.plan[day]
			goods[it.MaterialID] += it.plan[day]
		}
		packRels = append(packRels, rel(pkg, "Package of items"))

		storeAt := c.eventTime(packAt, ActivityStorePackage, 5, 20, splitDay, 3)
		loadAt := c.eventTime(storeAt, ActivityLoadPackage, 30, 180, splitDay, 20)
		transit := loadAt.AddDate(0, 0, c.between(3, 6))
		deliverAt := midnight(transit).Add(12 * time.Hour).
			Add(minutes(g.Schedule.Offset(transit, "", -240, 240)))

		b.packageStep(active, day, orderID, total, ActivityPackItems, packAt)
		b.event(fmt.Sprintf("e_%d_%d_8_%s", req.OrderID, day, company), ActivityPackItems, packAt,
			attr("packer", c.pick(warehouseEmployees)), packRels...)
		b.packageStep(active, day, orderID, total, ActivityStorePackage, storeAt)
		b.event(fmt.Sprintf("e_%d_%d_9_%s", req.OrderID, day, company), ActivityStorePackage, storeAt,
			attr("storer", c.pick(warehouseEmployees)), rel(pkg, "Regular store of package"))
		b.packageStep(active, day, orderID, total, ActivityLoadPackage, loadAt)
		b.event(fmt.Sprintf("e_%d_%d_10_%s", req.OrderID, day, company), ActivityLoadPackage, loadAt,
			attr("loader", c.pick(warehouseEmployees)), rel(pkg, "Regular load of package"))
		b.packageStep(active, day, orderID, total, ActivityDeliverPackage, deliverAt)
		b.event(fmt.Sprintf("e_%d_%d_11_%s", req.OrderID, day, company), ActivityDeliverPackage, deliverAt,
			attr("logistics_company", c.pick(shippingCompanies)), rel(pkg, "Regular deliver of package"))

		res.Deliveries = append(res.Deliveries, Delivery{Time: deliverAt, PackageID: pkg, Goods: goods})
	}

	sort.SliceStable(b.events, func(i, j int) bool { return b.events[i].Time.Before(b.events[j].Time.Time) })
	// transit times vary, so a later day's package can arrive first
	sort.SliceStable(res.Deliveries, func(i, j int) bool { return res.Deliveries[i].Time.Before(res.Deliveries[j].Time) })
	log := &Log{ObjectTypes: objectTypes, EventTypes: eventTypes, Objects: make([]Object, 0, len(b.created)), Events: b.events}
	for _, id := range b.created {
		log.Objects = append(log.Objects, *b.objects[id])
	}
	res.Log = log
	res.DivergenceItems = b.divItems
	res.DivergenceOrder = b.divOrder
	res.Convergence = b.conv
	return res, nil
}

// fulfill records one item's check, optional split and pick for a day and
// returns the number of lineage identities the split created.
func (g *Generator) fulfill(b *builder, c clock, orderNum int, orderID, company string, day int,
	it *itemState, check, splitAt, pickAt time.Time) int {
	qty := it.plan[day]
	created := 0

	checkAt := check.Add(minutes(c.between(1, 10)))
	row := Row{CaseID: it.root, Timestamp: checkAt, Activity: ActivityCheckAvailability, Amount: it.Quantity - it.shipped}
	b.divItems = append(b.divItems, row)
	it.history = append(it.history, row)
	b.divOrder = append(b.divOrder, Row{CaseID: orderID, Timestamp: checkAt, Activity: row.Activity, Amount: row.Amount})
	b.event(fmt.Sprintf("e_%d_%d_4_%s_%d", orderNum, day, company, it.MaterialID), ActivityCheckAvailability, checkAt,
		attr("checker", c.pick(warehouseEmployees)), rel(it.current, "Regular availability check of items"))

	it.shipped += qty
	before := it.Quantity - it.shipped + qty
	itemSplitAt := splitAt.Add(minutes(c.between(1, 20)))
	pickID := fmt.Sprintf("e_%d_%d_7_%s_%d", orderNum, day, company, it.MaterialID)

	if it.shipped < it.Quantity {
		remain := g.IDs.Next(orderNum, it.MaterialID)
		deliver := g.IDs.Next(orderNum, it.MaterialID)
		created = 2

		src := b.itemAttrs(it.current, itemSplitAt, before, it.MaterialID)
		src.Relationships = append(src.Relationships, rel(remain, QualifierSplitRemain), rel(deliver, QualifierSplitDeliver))

		row := Row{CaseID: it.root, Timestamp: itemSplitAt, Activity: ActivitySplitItem, Amount: before}
		b.divItems = append(b.divItems, row)
		it.history = append(it.history, row)
		b.divOrder = append(b.divOrder, Row{CaseID: orderID, Timestamp: itemSplitAt, Activity: row.Activity, Amount: before})
		b.event(fmt.Sprintf("e_%d_%d_5_%s_%d", orderNum, day, company, it.MaterialID), ActivitySplitItem, itemSplitAt,
			attr("spliter", c.pick(warehouseEmployees)),
			rel(it.current, "Split of available items for delivery"),
			rel(remain, "Split item out of stock"),
			rel(deliver, "Split item for delivery"))

		del := b.itemAttrs(deliver, itemSplitAt, qty, it.MaterialID)
		del.Relationships = append(del.Relationships, rel(it.current, "Split out of item"), rel(remain, "Split item out of stock"))
		b.itemAttrs(remain, itemSplitAt, it.Quantity-it.shipped, it.MaterialID)

		it.bound = deliver
		it.current = remain
		pickID = fmt.Sprintf("e_%d_%d_6_%s_%d", orderNum, day, company, it.MaterialID)
	} else {
		b.itemAttrs(it.current, itemSplitAt, before, it.MaterialID)
		it.bound = it.current
	}

	itemPickAt := pickAt.Add(minutes(c.between(1, 14)))
	for _, h := range it.history {
		h.CaseID, h.Amount = it.bound, qty
		b.conv = append(b.conv, h)
	}
	b.divItems = append(b.divItems, Row{CaseID: it.root, Timestamp: itemPickAt, Activity: ActivityPickItem, Amount: qty})
	b.divOrder = append(b.divOrder, Row{CaseID: orderID, Timestamp: itemPickAt, Activity: ActivityPickItem, Amount: qty})
	b.conv = append(b.conv, Row{CaseID: it.bound, Timestamp: itemPickAt, Activity: ActivityPickItem, Amount: qty})
	b.event(pickID, ActivityPickItem, itemPickAt, attr("picker", c.pick(warehouseEmployees)),
		rel(it.bound, "Regular pick of item"))
	return created
}

// packageStep appends the table rows of a per-package activity.
func (b *builder) packageStep(active []*itemState, day int, orderID string, total int, activity string, at time.Time) {
	for _, it := range active {
		b.divItems = append(b.divItems, Row{CaseID: it.root, Timestamp: at, Activity: activity, Amount: it.plan[day]})
		b.conv = append(b.conv, Row{CaseID: it.bound, Timestamp: at, Activity: activity, Amount: it.plan[day]})
	}
	b.divOrder = append(b.divOrder, Row{CaseID: orderID, Timestamp: at, Activity: activity, Amount: total})
}
