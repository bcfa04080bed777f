package schedule

import (
	"fmt"

	"github.com/dentalops/frontdesk-scheduling/internal/wallclock"
)

// Candidate is a proposed placement checked against existing bookings.
type Candidate struct {
	ProvNum         int64
	OpNum           int64
	Start           wallclock.DateTime
	DurationMinutes int
	ExcludeAptNum   int64 // ignore this booking (moving an appointment in place)
}

func (c Candidate) End() wallclock.DateTime {
	return c.Start.AddMinutes(c.DurationMinutes)
}

// Conflict describes the first booking that collides with a candidate.
type Conflict struct {
	With    Booking
	Message string
}

// Overlaps applies the half-open interval test shared by slot generation
// and conflict detection: [aStart, aEnd) and [bStart, bEnd) intersect.
func Overlaps(aStart, aEnd, bStart, bEnd wallclock.DateTime) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

// FindConflict returns the first existing booking that shares the
// candidate's provider or operatory and overlaps it in time, or nil.
// Bookings on other days or for unrelated resources are skipped, so
// callers may pass a broader set than strictly necessary.
func FindConflict(c Candidate, existing []Booking) *Conflict {
	candEnd := c.End()
	for _, b := range existing {
		if b.AptNum != 0 && b.AptNum == c.ExcludeAptNum {
			continue
		}
		if b.ProvNum != c.ProvNum && b.OpNum != c.OpNum {
			continue
		}
		if !Overlaps(c.Start, candEnd, b.Start, b.End()) {
			continue
		}

		resource := fmt.Sprintf("provider %d", b.ProvNum)
		if b.ProvNum != c.ProvNum {
			resource = fmt.Sprintf("operatory %d", b.OpNum)
		}
		return &Conflict{
			With: b,
			Message: fmt.Sprintf("time conflict: %s already has appointment %d from %s to %s",
				resource, b.AptNum, b.Start, b.End()),
		}
	}
	return nil
}
