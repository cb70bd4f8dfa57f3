package trace

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/rand"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Working hours for business-time events.
const (
	workdayStartHour = 8
	workdayEndHour   = 17
)

// Scheduler is the deterministic random source for fulfillment events.
// Offset must return the same value for the same (date, key, lo, hi) in
// every run; that is what lets all orders handled on one day share a
// batch schedule.
type Scheduler interface {
	Offset(date time.Time, key string, lo, hi int) int
}

// HashScheduler seeds a fresh generator from xxhash(date + key).
type HashScheduler struct{}

// Offset returns a value in [lo, hi].
func (HashScheduler) Offset(date time.Time, key string, lo, hi int) int {
	seed := xxhash.Sum64String(date.Format(time.DateOnly) + key)
	r := rand.New(rand.NewSource(int64(seed)))
	return lo + r.Intn(hi-lo+1)
}

// clock combines the deterministic schedule with the run's cosmetic
// source, which covers resources, per-item jitter and business-day gaps.
type clock struct {
	schedule Scheduler
	cosmetic *rand.Rand
}

// between returns a uniform int in [lo, hi).
func (c clock) between(lo, hi int) int {
	return lo + c.cosmetic.Intn(hi-lo)
}

func (c clock) pick(options []string) string {
	return options[c.cosmetic.Intn(len(options))]
}

// businessDelta is a gap of minDays..maxDays-1 days plus a working-hours
// sized number of hours and minutes.
func (c clock) businessDelta(minDays, maxDays int) time.Duration {
	days := c.between(minDays, maxDays)
	hours := c.between(workdayStartHour, workdayEndHour)
	minutes := c.between(0, 59)
	return time.Duration(days)*24*time.Hour + time.Duration(hours)*time.Hour + time.Duration(minutes)*time.Minute
}

// workingHours moves t off the weekend and into 08:00-17:00. Times before
// opening move to 08:mm the same day, times at or after closing to 08:mm
// on the next working day.
func (c clock) workingHours(t time.Time) time.Time {
	t = skipWeekend(t)
	switch {
	case t.Hour() < workdayStartHour:
		t = atHour(t, workdayStartHour, c.between(0, 59))
	case t.Hour() >= workdayEndHour:
		t = skipWeekend(t.AddDate(0, 0, 1))
		t = atHour(t, workdayStartHour, c.between(0, 59))
	}
	return t
}

// eventTime offsets base by the scheduled minutes for (seedDate, eventType)
// plus up to noise minutes of cosmetic jitter.
func (c clock) eventTime(base time.Time, eventType string, lo, hi int, seedDate time.Time, noise int) time.Time {
	offset := c.schedule.Offset(seedDate, eventType, lo, hi)
	if noise > 0 {
		offset += c.between(0, noise+1)
	}
	return base.Add(time.Duration(offset) * time.Minute)
}

func skipWeekend(t time.Time) time.Time {
	for t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		t = t.AddDate(0, 0, 1)
	}
	return t
}

func atHour(t time.Time, hour, minute int) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), hour, minute, 0, 0, t.Location())
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// PackageID is the shared package identity for everything packed on the
// same date.
func PackageID(date time.Time) string {
	d := date.Format(time.DateOnly)
	h := sha256.Sum256([]byte(d))
	return fmt.Sprintf("package_%s_%s", d, hex.EncodeToString(h[:])[:8])
}

// IDAllocator hands out lineage identities for one run. Ids are unique
// per allocator; separate runs use separate allocators.
type IDAllocator struct {
	next map[[2]int]int
}

// NewIDAllocator creates an empty allocator.
func NewIDAllocator() *IDAllocator {
	return &IDAllocator{next: make(map[[2]int]int)}
}

// Root is the identity of an item as originally ordered.
func (a *IDAllocator) Root(orderID, material int) string {
	return fmt.Sprintf("item_%d_%d", orderID, material)
}

// Next returns a fresh descendant identity of (orderID, material).
func (a *IDAllocator) Next(orderID, material int) string {
	key := [2]int{orderID, material}
	a.next[key]++
	return fmt.Sprintf("item_%d_%d_%d", orderID, material, a.next[key])
}

// Allocated is the number of descendant identities handed out.
func (a *IDAllocator) Allocated() int {
	n := 0
	for _, v := range a.next {
		n += v
	}
	return n
}
