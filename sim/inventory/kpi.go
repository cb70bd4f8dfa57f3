package inventory

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"

	"github.com/inference-sim/warehouse-sim/sim/leadtime"
	"github.com/inference-sim/warehouse-sim/sim/order"
)

// KPI names accepted in configuration.
const (
	KPIOrderCompletion      = "order_completion"
	KPIItemCompletion       = "item_completion"
	KPIItemDistributionMean = "item_distribution_mean"
)

// KPI attributes a lead-time observation (in days) to a completed
// order-item. The observation drives the policy recalculation.
type KPI interface {
	Name() string
	LeadTime(oi *order.OrderItem) float64
}

// OrderCompletion measures placement to the delivery that completed the item.
type OrderCompletion struct{}

func (OrderCompletion) Name() string { return KPIOrderCompletion }

func (OrderCompletion) LeadTime(oi *order.OrderItem) float64 {
	return float64(civilDays(oi.Placed, oi.Completed))
}

// ItemCompletion averages placement-to-delivery over every shipment.
type ItemCompletion struct{}

func (ItemCompletion) Name() string { return KPIItemCompletion }

func (ItemCompletion) LeadTime(oi *order.OrderItem) float64 {
	days := make([]float64, len(oi.Shipments))
	for i, s := range oi.Shipments {
		days[i] = float64(civilDays(oi.Placed, s.DeliveryDate))
	}
	return stat.Mean(days, nil)
}

// ItemDistributionMean fits a distribution over (days since placement,
// delivered quantity) and uses its conditional mean on the observed range.
type ItemDistributionMean struct{}

func (ItemDistributionMean) Name() string { return KPIItemDistributionMean }

func (ItemDistributionMean) LeadTime(oi *order.OrderItem) float64 {
	days := make([]float64, len(oi.Shipments))
	qty := make([]float64, len(oi.Shipments))
	for i, s := range oi.Shipments {
		days[i] = float64(civilDays(oi.Placed, s.DeliveryDate))
		qty[i] = float64(s.Quantity(oi.ItemID))
	}
	lt, fit := leadtime.ExpectedDay(days, qty)
	if fit != nil && fit.Best == nil {
		logrus.Warnf("item %d: no distribution fitted over %d shipments, using weighted mean day %.2f",
			oi.ItemID, len(days), lt)
	}
	return lt
}

// ParseKPI resolves a configured KPI name.
func ParseKPI(name string) (KPI, error) {
	switch name {
	case KPIOrderCompletion:
		return OrderCompletion{}, nil
	case KPIItemCompletion:
		return ItemCompletion{}, nil
	case KPIItemDistributionMean:
		return ItemDistributionMean{}, nil
	}
	return nil, fmt.Errorf("unknown kpi %q; valid: %s, %s, %s",
		name, KPIOrderCompletion, KPIItemCompletion, KPIItemDistributionMean)
}

// civilDays counts calendar days from a to b, ignoring time of day.
func civilDays(a, b time.Time) int {
	da := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	db := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}
