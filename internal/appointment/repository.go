package appointment

import (
	"context"

	"github.com/dentalops/frontdesk-scheduling/internal/schedule"
	"github.com/dentalops/frontdesk-scheduling/internal/wallclock"
)

// Repository contains all store interactions needed by the service.
// Implementations return *NotFoundError for missing rows and
// ErrBookingTaken when the (provider, operatory, start) uniqueness
// constraint rejects a write.
type Repository interface {
	GetPatient(ctx context.Context, patNum int64) (*Patient, error)
	GetProvider(ctx context.Context, provNum int64) (*Provider, error)
	GetOperatory(ctx context.Context, opNum int64) (*Operatory, error)

	// SchedulesFor returns active schedule entries in the date range,
	// optionally filtered by provider and/or operatory (0 = no filter).
	// Satisfies schedule.Catalog.
	SchedulesFor(ctx context.Context, dateStart, dateEnd wallclock.Date, provNum, opNum int64) ([]schedule.Entry, error)

	GetAppointment(ctx context.Context, aptNum int64) (*Appointment, error)

	// ListScheduled returns Scheduled appointments whose date falls in
	// [dateStart, dateEnd]. Used to build the occupancy index.
	ListScheduled(ctx context.Context, dateStart, dateEnd wallclock.Date) ([]Appointment, error)

	// ListScheduledForResources returns same-day Scheduled appointments
	// touching either the provider or the operatory. Conflict-check fetch.
	ListScheduledForResources(ctx context.Context, date wallclock.Date, provNum, opNum int64) ([]Appointment, error)

	InsertAppointment(ctx context.Context, apt *Appointment) (*Appointment, error)
	UpdateAppointment(ctx context.Context, apt *Appointment) (*Appointment, error)

	// UpdateStatus is a compare-and-set transition; it returns
	// *NotFoundError when no row matches both the id and the from status.
	UpdateStatus(ctx context.Context, aptNum int64, from, to Status) (*Appointment, error)

	DeleteAppointment(ctx context.Context, aptNum int64) error

	InsertEvent(ctx context.Context, ev EventLog) error
}

var _ schedule.Catalog = Repository(nil)
