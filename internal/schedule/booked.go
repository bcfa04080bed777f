package schedule

import (
	"github.com/dentalops/frontdesk-scheduling/internal/wallclock"
)

// Booking is the engine's view of a committed appointment: just the
// resources it occupies and when. Callers pass only appointments that
// still hold their resources (status Scheduled); completed, broken and
// cancelled appointments must never reach the index.
type Booking struct {
	AptNum          int64
	ProvNum         int64
	OpNum           int64
	Start           wallclock.DateTime
	DurationMinutes int
}

func (b Booking) End() wallclock.DateTime {
	return b.Start.AddMinutes(b.DurationMinutes)
}

type resourcePair struct {
	provNum int64
	opNum   int64
}

// BookedIndex maps each (provider, operatory) pair to the set of occupied
// 5-minute bucket keys. Keys are wall-clock strings, never UTC-normalized;
// the engine stays out of timezone math entirely so a booking can never
// drift across a day boundary.
type BookedIndex struct {
	occupied map[resourcePair]map[string]struct{}
}

// BuildBookedIndex indexes the given bookings. The bucket containing each
// start is marked, and for durations longer than a single slot additional
// buckets are marked at 30-minute increments until the duration is covered.
func BuildBookedIndex(bookings []Booking) *BookedIndex {
	idx := &BookedIndex{occupied: make(map[resourcePair]map[string]struct{})}
	for _, b := range bookings {
		pair := resourcePair{provNum: b.ProvNum, opNum: b.OpNum}
		buckets, ok := idx.occupied[pair]
		if !ok {
			buckets = make(map[string]struct{})
			idx.occupied[pair] = buckets
		}
		for offset := 0; offset < b.DurationMinutes; offset += SlotIncrementMinutes {
			buckets[b.Start.AddMinutes(offset).BucketKey()] = struct{}{}
		}
	}
	return idx
}

// Occupied reports whether the bucket containing t is taken for the pair.
func (idx *BookedIndex) Occupied(provNum, opNum int64, t wallclock.DateTime) bool {
	buckets, ok := idx.occupied[resourcePair{provNum: provNum, opNum: opNum}]
	if !ok {
		return false
	}
	_, taken := buckets[t.BucketKey()]
	return taken
}
