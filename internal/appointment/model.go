package appointment

import (
	"fmt"
	"time"

	"github.com/dentalops/frontdesk-scheduling/internal/schedule"
	"github.com/dentalops/frontdesk-scheduling/internal/wallclock"
)

type Status string

const (
	StatusScheduled Status = "Scheduled"
	StatusCompleted Status = "Completed"
	StatusBroken    Status = "Broken"
	StatusCancelled Status = "Cancelled"
)

// OccupiesResources reports whether an appointment in this status still
// holds its provider and operatory. Completed, broken and cancelled
// appointments free their resources and are invisible to conflict checks.
func (s Status) OccupiesResources() bool {
	return s == StatusScheduled
}

func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusScheduled, StatusCompleted, StatusBroken, StatusCancelled:
		return Status(s), nil
	}
	return "", fmt.Errorf("unknown appointment status %q", s)
}

type Patient struct {
	PatNum    int64
	LName     string
	FName     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Provider struct {
	ProvNum   int64
	Abbr      string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Operatory struct {
	OpNum     int64
	OpName    string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Appointment struct {
	AptNum      int64
	PatNum      int64
	ProvNum     int64
	OpNum       int64
	AptDateTime wallclock.DateTime
	Pattern     string
	Status      Status
	Note        string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// DurationMinutes decodes the appointment's pattern.
func (a Appointment) DurationMinutes() (int, error) {
	return schedule.DecodePattern(a.Pattern)
}

// Booking converts the appointment into the engine's occupancy view.
// Only meaningful for appointments whose status occupies resources.
func (a Appointment) Booking() schedule.Booking {
	minutes, err := a.DurationMinutes()
	if err != nil {
		minutes = schedule.DefaultSlotMinutes
	}
	return schedule.Booking{
		AptNum:          a.AptNum,
		ProvNum:         a.ProvNum,
		OpNum:           a.OpNum,
		Start:           a.AptDateTime,
		DurationMinutes: minutes,
	}
}

// EventLog is an audit record of a lifecycle operation.
type EventLog struct {
	ID        int64
	EventType string
	AptNum    *int64
	Payload   []byte
	CreatedAt time.Time
}
