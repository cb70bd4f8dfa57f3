package trace

import (
	"fmt"
	"io"
	"sort"
	"time"
)

// TraceSummary condenses a trace document for display.
type TraceSummary struct {
	Orders         int
	Packages       int
	LineageNodes   int // Item objects, originals included
	EventCounts    map[string]int
	First, Last    time.Time
	DeliveredTotal int
	Deliveries     []Delivery
}

// Summarize counts the objects and events of log. Delivery extraction
// failures leave Deliveries empty.
func Summarize(log *Log) *TraceSummary {
	s := &TraceSummary{EventCounts: make(map[string]int)}
	for _, o := range log.Objects {
		switch o.Type {
		case ObjectOrder:
			s.Orders++
		case ObjectPackage:
			s.Packages++
		case ObjectItem:
			s.LineageNodes++
		}
	}
	for i, ev := range log.Events {
		s.EventCounts[ev.Type]++
		if i == 0 || ev.Time.Before(s.First) {
			s.First = ev.Time.Time
		}
		if ev.Time.After(s.Last) {
			s.Last = ev.Time.Time
		}
	}
	if deliveries, err := ExtractDeliveries(log); err == nil {
		s.Deliveries = deliveries
		for _, d := range deliveries {
			s.DeliveredTotal += d.Total()
		}
	}
	return s
}

// Print writes a human-readable rendering of the summary.
func (s *TraceSummary) Print(w io.Writer) {
	fmt.Fprintf(w, "Orders: %d  Packages: %d  Lineage nodes: %d\n", s.Orders, s.Packages, s.LineageNodes)
	if !s.First.IsZero() {
		fmt.Fprintf(w, "Span: %s .. %s\n", s.First.Format(TimeLayout), s.Last.Format(TimeLayout))
	}
	activities := make([]string, 0, len(s.EventCounts))
	for a := range s.EventCounts {
		activities = append(activities, a)
	}
	sort.Strings(activities)
	for _, a := range activities {
		fmt.Fprintf(w, "  %-20s %d\n", a, s.EventCounts[a])
	}
	for _, d := range s.Deliveries {
		fmt.Fprintf(w, "  delivery %s %s: %d units\n", d.Time.Format(TimeLayout), d.PackageID, d.Total())
	}
	fmt.Fprintf(w, "Delivered total: %d\n", s.DeliveredTotal)
}
