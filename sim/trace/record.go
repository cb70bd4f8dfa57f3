// Package trace generates synthetic object-centric event logs of the
// order-fulfillment process and reads them back into delivery records.
// This package has no dependencies on sim/ or sim/inventory/.
package trace

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"
)

// TimeLayout is the timestamp format used throughout the document and
// the tabular exports.
const TimeLayout = "2006-01-02T15:04:05"

// Object types.
const (
	ObjectOrder   = "Order"
	ObjectItem    = "Item"
	ObjectPackage = "Package"
)

// Activities, in process order.
const (
	ActivityPlaceOrder        = "Place Order"
	ActivitySendInvoice       = "Send Invoice"
	ActivityReceivePayment    = "Receive Payment"
	ActivityCheckAvailability = "Check Availability"
	ActivitySplitItem         = "Split Item"
	ActivityPickItem          = "Pick Item"
	ActivityPackItems         = "Pack Items"
	ActivityStorePackage      = "Store Package"
	ActivityLoadPackage       = "Load Package"
	ActivityDeliverPackage    = "Deliver Package"
)

// Relationship qualifiers the reader depends on.
const (
	QualifierSplitRemain   = "Split item out stock"
	QualifierSplitDeliver  = "Split item deliver"
	QualifierPackageOfItem = "Package of item"
)

// Timestamp is a second-resolution wall-clock time without zone.
type Timestamp struct{ time.Time }

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Format(TimeLayout))
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := time.Parse(TimeLayout, s)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

// AttributeSchema declares one attribute of an object or event type.
type AttributeSchema struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// TypeSchema declares an object or event type.
type TypeSchema struct {
	Name       string            `json:"name"`
	Attributes []AttributeSchema `json:"attributes"`
}

// Relationship links an event or object to an object.
type Relationship struct {
	ObjectID  string `json:"objectId"`
	Qualifier string `json:"qualifier"`
}

// ObjectAttribute is one timed value of a time-varying object attribute.
type ObjectAttribute struct {
	Name  string    `json:"name"`
	Time  Timestamp `json:"time"`
	Value any       `json:"value"`
}

// EventAttribute is a value attached to an event.
type EventAttribute struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// Object is an object instance with its attribute history and outgoing
// object-to-object relationships.
type Object struct {
	ID            string            `json:"id"`
	Type          string            `json:"type"`
	Attributes    []ObjectAttribute `json:"attributes"`
	Relationships []Relationship    `json:"relationships"`
}

// Latest returns the most recent value of the named attribute. Ties on
// time resolve to the later entry.
func (o *Object) Latest(name string) (any, bool) {
	var (
		val   any
		found bool
		at    time.Time
	)
	for _, a := range o.Attributes {
		if a.Name != name {
			continue
		}
		if !found || !a.Time.Before(at) {
			val, at, found = a.Value, a.Time.Time, true
		}
	}
	return val, found
}

// Event is an event instance.
type Event struct {
	ID            string           `json:"id"`
	Type          string           `json:"type"`
	Time          Timestamp        `json:"time"`
	Attributes    []EventAttribute `json:"attributes"`
	Relationships []Relationship   `json:"relationships"`
}

// Log is the self-contained trace document for one order.
type Log struct {
	ObjectTypes []TypeSchema `json:"objectTypes"`
	EventTypes  []TypeSchema `json:"eventTypes"`
	Objects     []Object     `json:"objects"`
	Events      []Event      `json:"events"`
}

// WriteDocument encodes the log as indented JSON.
func WriteDocument(w io.Writer, log *Log) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	if err := enc.Encode(log); err != nil {
		return fmt.Errorf("encoding trace document: %w", err)
	}
	return nil
}

// ReadDocument decodes a log written by WriteDocument. Numeric attribute
// values decode as json.Number.
func ReadDocument(r io.Reader) (*Log, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var log Log
	if err := dec.Decode(&log); err != nil {
		return nil, fmt.Errorf("decoding trace document: %w", err)
	}
	return &log, nil
}

// intValue converts an attribute value, as produced by the generator or
// by ReadDocument, to an int.
func intValue(v any) (int, error) {
	switch x := v.(type) {
	case int:
		return x, nil
	case int64:
		return int(x), nil
	case float64:
		return int(x), nil
	case json.Number:
		n, err := x.Int64()
		if err != nil {
			return 0, err
		}
		return int(n), nil
	case string:
		return strconv.Atoi(x)
	}
	return 0, fmt.Errorf("unexpected attribute value %v (%T)", v, v)
}

var objectTypes = []TypeSchema{
	{Name: ObjectOrder, Attributes: []AttributeSchema{{Name: "id", Type: "string"}}},
	{Name: ObjectItem, Attributes: []AttributeSchema{
		{Name: "id", Type: "string"},
		{Name: "material_id", Type: "string"},
		{Name: "amount", Type: "int"},
	}},
	{Name: ObjectPackage, Attributes: []AttributeSchema{{Name: "id", Type: "string"}}},
}

var eventTypes = []TypeSchema{
	{Name: ActivityPlaceOrder, Attributes: []AttributeSchema{{Name: "company", Type: "string"}}},
	{Name: ActivitySendInvoice, Attributes: []AttributeSchema{{Name: "company", Type: "string"}}},
	{Name: ActivityReceivePayment, Attributes: []AttributeSchema{
		{Name: "company", Type: "string"},
		{Name: "payment_method", Type: "string"},
	}},
	{Name: ActivityCheckAvailability, Attributes: []AttributeSchema{{Name: "checker", Type: "string"}}},
	{Name: ActivitySplitItem, Attributes: []AttributeSchema{{Name: "spliter", Type: "string"}}},
	{Name: ActivityPickItem, Attributes: []AttributeSchema{{Name: "picker", Type: "string"}}},
	{Name: ActivityPackItems, Attributes: []AttributeSchema{{Name: "packer", Type: "string"}}},
	{Name: ActivityStorePackage, Attributes: []AttributeSchema{{Name: "storer", Type: "string"}}},
	{Name: ActivityLoadPackage, Attributes: []AttributeSchema{{Name: "loader", Type: "string"}}},
	{Name: ActivityDeliverPackage, Attributes: []AttributeSchema{{Name: "logistics_company", Type: "string"}}},
}
