package schedule

import (
	"sort"

	"github.com/dentalops/frontdesk-scheduling/internal/wallclock"
)

// SlotIncrementMinutes is the stepping of the slot grid. Slots always
// start on this grid regardless of the requested length, so a 45-minute
// request still offers every half-hour start.
// TODO(product): confirm whether non-30-minute appointment lengths should
// get their own grid; current behavior matches the legacy front desk.
const SlotIncrementMinutes = 30

// DefaultSlotMinutes is the slot length used when the caller does not ask
// for a specific one.
const DefaultSlotMinutes = 30

// Slot is a computed, bookable window. Slots are never persisted; every
// availability query regenerates them from schedules and bookings.
type Slot struct {
	ProvNum       int64
	OpNum         int64
	Start         wallclock.DateTime
	End           wallclock.DateTime
	LengthMinutes int
}

// GenerateSlots walks every schedule entry and emits each free slot of
// lengthMinutes that fits entirely inside the entry's window. A slot is
// free when its starting bucket is unoccupied for the entry's
// provider/operatory pair. Output is sorted ascending by start time, then
// provider, then operatory, so results are stable for identical inputs.
func GenerateSlots(entries []Entry, idx *BookedIndex, lengthMinutes int) []Slot {
	if lengthMinutes <= 0 {
		lengthMinutes = DefaultSlotMinutes
	}

	var slots []Slot
	for _, e := range entries {
		if !e.Active {
			continue
		}
		windowStart, windowStop := e.Window()
		for t := windowStart; !t.AddMinutes(lengthMinutes).After(windowStop); t = t.AddMinutes(SlotIncrementMinutes) {
			if idx.Occupied(e.ProvNum, e.OpNum, t) {
				continue
			}
			slots = append(slots, Slot{
				ProvNum:       e.ProvNum,
				OpNum:         e.OpNum,
				Start:         t,
				End:           t.AddMinutes(lengthMinutes),
				LengthMinutes: lengthMinutes,
			})
		}
	}

	sort.Slice(slots, func(i, j int) bool {
		if !slots[i].Start.Equal(slots[j].Start) {
			return slots[i].Start.Before(slots[j].Start)
		}
		if slots[i].ProvNum != slots[j].ProvNum {
			return slots[i].ProvNum < slots[j].ProvNum
		}
		return slots[i].OpNum < slots[j].OpNum
	})

	return slots
}
