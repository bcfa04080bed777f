package schedule

import (
	"testing"
	"time"

	"github.com/dentalops/frontdesk-scheduling/internal/wallclock"
)

func entryOn(date wallclock.Date, provNum, opNum int64, startHour, stopHour int) Entry {
	return Entry{
		Date:      date,
		ProvNum:   provNum,
		OpNum:     opNum,
		StartTime: wallclock.NewClockTime(startHour, 0),
		StopTime:  wallclock.NewClockTime(stopHour, 0),
		Active:    true,
	}
}

// The reference scenario: 09:00-12:00 window, one 30-minute booking at
// 09:30, expect 09:00, 10:00, 10:30, 11:00, 11:30 in order.
func TestGenerateSlotsAroundBooking(t *testing.T) {
	date := wallclock.NewDate(2025, time.December, 16)
	entries := []Entry{entryOn(date, 1, 1, 9, 12)}
	idx := BuildBookedIndex([]Booking{
		{AptNum: 7, ProvNum: 1, OpNum: 1, Start: date.At(wallclock.NewClockTime(9, 30)), DurationMinutes: 30},
	})

	slots := GenerateSlots(entries, idx, 30)

	want := []string{
		"2025-12-16 09:00:00",
		"2025-12-16 10:00:00",
		"2025-12-16 10:30:00",
		"2025-12-16 11:00:00",
		"2025-12-16 11:30:00",
	}
	if len(slots) != len(want) {
		t.Fatalf("got %d slots, want %d", len(slots), len(want))
	}
	for i, w := range want {
		if got := slots[i].Start.String(); got != w {
			t.Errorf("slot[%d] = %s, want %s", i, got, w)
		}
	}
}

func TestGenerateSlotsNoOverhang(t *testing.T) {
	date := wallclock.NewDate(2025, time.December, 16)
	entries := []Entry{entryOn(date, 1, 1, 9, 10)}

	slots := GenerateSlots(entries, BuildBookedIndex(nil), 45)

	// Only 09:00-09:45 fits inside 09:00-10:00; 09:30+45m would overhang.
	if len(slots) != 1 {
		t.Fatalf("got %d slots, want 1", len(slots))
	}
	if got := slots[0].End.String(); got != "2025-12-16 09:45:00" {
		t.Errorf("slot end = %s", got)
	}
}

func TestGenerateSlotsStepsThirtyRegardlessOfLength(t *testing.T) {
	date := wallclock.NewDate(2025, time.December, 16)
	entries := []Entry{entryOn(date, 1, 1, 9, 11)}

	slots := GenerateSlots(entries, BuildBookedIndex(nil), 45)

	// 45-minute requests still start on every half hour; 10:30 is the
	// first start that would overhang the 11:00 stop.
	want := []string{
		"2025-12-16 09:00:00",
		"2025-12-16 09:30:00",
		"2025-12-16 10:00:00",
	}
	if len(slots) != len(want) {
		t.Fatalf("got %d slots, want %d", len(slots), len(want))
	}
	for i, w := range want {
		if got := slots[i].Start.String(); got != w {
			t.Errorf("slot[%d] = %s, want %s", i, got, w)
		}
	}
}

func TestGenerateSlotsSkipsInactiveEntries(t *testing.T) {
	date := wallclock.NewDate(2025, time.December, 16)
	inactive := entryOn(date, 1, 1, 9, 12)
	inactive.Active = false

	slots := GenerateSlots([]Entry{inactive}, BuildBookedIndex(nil), 30)
	if len(slots) != 0 {
		t.Errorf("inactive entry produced %d slots", len(slots))
	}
}

func TestGenerateSlotsDeterministicOrder(t *testing.T) {
	date := wallclock.NewDate(2025, time.December, 16)
	entries := []Entry{
		entryOn(date, 2, 2, 9, 10),
		entryOn(date, 1, 1, 9, 10),
	}

	slots := GenerateSlots(entries, BuildBookedIndex(nil), 30)

	if len(slots) != 4 {
		t.Fatalf("got %d slots, want 4", len(slots))
	}
	// Same start time sorts by provider.
	if slots[0].ProvNum != 1 || slots[1].ProvNum != 2 {
		t.Errorf("tie-break broken: prov order %d, %d", slots[0].ProvNum, slots[1].ProvNum)
	}
	for i := 1; i < len(slots); i++ {
		if slots[i].Start.Before(slots[i-1].Start) {
			t.Error("slots are not sorted ascending by start")
		}
	}
}

func TestGenerateSlotsDefaultsLength(t *testing.T) {
	date := wallclock.NewDate(2025, time.December, 16)
	entries := []Entry{entryOn(date, 1, 1, 9, 10)}

	slots := GenerateSlots(entries, BuildBookedIndex(nil), 0)
	if len(slots) != 2 {
		t.Fatalf("got %d slots, want 2", len(slots))
	}
	if slots[0].LengthMinutes != DefaultSlotMinutes {
		t.Errorf("length = %d", slots[0].LengthMinutes)
	}
}

func TestGenerateSlotsOtherResourceBookingDoesNotBlock(t *testing.T) {
	date := wallclock.NewDate(2025, time.December, 16)
	entries := []Entry{entryOn(date, 1, 1, 9, 10)}
	idx := BuildBookedIndex([]Booking{
		{AptNum: 3, ProvNum: 2, OpNum: 2, Start: date.At(wallclock.NewClockTime(9, 0)), DurationMinutes: 30},
	})

	slots := GenerateSlots(entries, idx, 30)
	if len(slots) != 2 {
		t.Errorf("unrelated booking blocked slots: got %d, want 2", len(slots))
	}
}
