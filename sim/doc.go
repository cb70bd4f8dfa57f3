// Package sim provides the day-stepped warehouse replenishment simulator.
//
// # Reading Guide
//
// Start with these files to understand the driver:
//   - config.go: resolved run configuration (items, demand models, dates)
//   - simulator.go: the daily loop (deliveries, demand, replenishment, statistics)
//   - event.go: the shipment schedule, a min-heap by delivery time
//
// # Architecture
//
// The sim package wires leaf packages together:
//   - sim/order/: orders, order items and shipments (the ledger)
//   - sim/inventory/: per-item ROP/EOQ policy and the warehouse
//   - sim/leadtime/: distribution fitting for the item_distribution_mean KPI
//   - sim/shape/: delivery shaping functions
//   - sim/trace/: synthetic fulfillment traces and their documents
//   - sim/workload/: scenario files and demand samplers
//
// Every replenishment order is traced, written through a TraceStore and
// read back; shipments are derived from the stored document, never from
// the generator's in-memory result.
//
// # Randomness
//
// A PartitionedRNG gives each concern its own stream (demand, split, trace)
// so that, for example, a change in trace generation never shifts the
// demand series of a seed.
package sim
