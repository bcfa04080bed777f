package schedule

import (
	"strings"
	"testing"
	"time"

	"github.com/dentalops/frontdesk-scheduling/internal/wallclock"
)

func bookingAt(aptNum, provNum, opNum int64, hour, minute, duration int) Booking {
	return Booking{
		AptNum:          aptNum,
		ProvNum:         provNum,
		OpNum:           opNum,
		Start:           wallclock.NewDate(2025, time.December, 16).At(wallclock.NewClockTime(hour, minute)),
		DurationMinutes: duration,
	}
}

func TestFindConflictSharedProvider(t *testing.T) {
	existing := []Booking{bookingAt(10, 1, 1, 9, 0, 30)}
	cand := Candidate{
		ProvNum:         1,
		OpNum:           2, // different chair, same provider
		Start:           existing[0].Start.AddMinutes(15),
		DurationMinutes: 30,
	}

	c := FindConflict(cand, existing)
	if c == nil {
		t.Fatal("expected conflict on shared provider")
	}
	if !strings.Contains(c.Message, "provider 1") {
		t.Errorf("message should name the provider: %q", c.Message)
	}
}

func TestFindConflictSharedOperatory(t *testing.T) {
	existing := []Booking{bookingAt(10, 1, 1, 9, 0, 30)}
	cand := Candidate{
		ProvNum:         2, // different provider, same chair
		OpNum:           1,
		Start:           existing[0].Start,
		DurationMinutes: 30,
	}

	c := FindConflict(cand, existing)
	if c == nil {
		t.Fatal("expected conflict on shared operatory")
	}
	if !strings.Contains(c.Message, "operatory 1") {
		t.Errorf("message should name the operatory: %q", c.Message)
	}
}

func TestFindConflictHalfOpenBoundaries(t *testing.T) {
	existing := []Booking{bookingAt(10, 1, 1, 9, 0, 30)} // [09:00, 09:30)

	backToBack := Candidate{ProvNum: 1, OpNum: 1, Start: existing[0].End(), DurationMinutes: 30}
	if FindConflict(backToBack, existing) != nil {
		t.Error("appointment starting exactly at the previous end should not conflict")
	}

	endsAtStart := Candidate{
		ProvNum:         1,
		OpNum:           1,
		Start:           existing[0].Start.AddMinutes(-30),
		DurationMinutes: 30,
	}
	if FindConflict(endsAtStart, existing) != nil {
		t.Error("appointment ending exactly at the next start should not conflict")
	}

	oneMinuteIn := Candidate{
		ProvNum:         1,
		OpNum:           1,
		Start:           existing[0].Start.AddMinutes(29),
		DurationMinutes: 30,
	}
	if FindConflict(oneMinuteIn, existing) == nil {
		t.Error("one minute of overlap must conflict")
	}
}

func TestFindConflictExcludesSelf(t *testing.T) {
	existing := []Booking{bookingAt(10, 1, 1, 9, 0, 30)}
	cand := Candidate{
		ProvNum:         1,
		OpNum:           1,
		Start:           existing[0].Start,
		DurationMinutes: 60,
		ExcludeAptNum:   10,
	}

	if FindConflict(cand, existing) != nil {
		t.Error("moving an appointment must not conflict with itself")
	}
}

func TestFindConflictIgnoresUnrelatedResources(t *testing.T) {
	existing := []Booking{bookingAt(10, 2, 2, 9, 0, 30)}
	cand := Candidate{ProvNum: 1, OpNum: 1, Start: existing[0].Start, DurationMinutes: 30}

	if FindConflict(cand, existing) != nil {
		t.Error("disjoint provider and operatory should never conflict")
	}
}

func TestOverlaps(t *testing.T) {
	base := wallclock.NewDate(2025, time.December, 16).At(wallclock.NewClockTime(9, 0))
	cases := []struct {
		name           string
		aOff, aLen     int
		bOff, bLen     int
		want           bool
	}{
		{"identical", 0, 30, 0, 30, true},
		{"contained", 0, 60, 15, 15, true},
		{"partial", 0, 30, 15, 30, true},
		{"adjacent", 0, 30, 30, 30, false},
		{"disjoint", 0, 30, 60, 30, false},
	}
	for _, tc := range cases {
		aStart := base.AddMinutes(tc.aOff)
		bStart := base.AddMinutes(tc.bOff)
		got := Overlaps(aStart, aStart.AddMinutes(tc.aLen), bStart, bStart.AddMinutes(tc.bLen))
		if got != tc.want {
			t.Errorf("%s: Overlaps = %v, want %v", tc.name, got, tc.want)
		}
	}
}
