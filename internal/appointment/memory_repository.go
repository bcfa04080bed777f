package appointment

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dentalops/frontdesk-scheduling/internal/schedule"
	"github.com/dentalops/frontdesk-scheduling/internal/wallclock"
)

// MemoryRepository is a map-backed Repository used by tests. It enforces
// the same uniqueness rule as the Postgres partial index: one Scheduled
// appointment per (provider, operatory, start).
type MemoryRepository struct {
	mu sync.Mutex

	patients    map[int64]Patient
	providers   map[int64]Provider
	operatories map[int64]Operatory
	schedules   []schedule.Entry

	appointments map[int64]Appointment
	events       []EventLog

	nextAptNum int64
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		patients:     make(map[int64]Patient),
		providers:    make(map[int64]Provider),
		operatories:  make(map[int64]Operatory),
		appointments: make(map[int64]Appointment),
		nextAptNum:   1,
	}
}

// Seed helpers

func (r *MemoryRepository) PutPatient(p Patient) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.patients[p.PatNum] = p
}

func (r *MemoryRepository) PutProvider(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.ProvNum] = p
}

func (r *MemoryRepository) PutOperatory(o Operatory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.operatories[o.OpNum] = o
}

func (r *MemoryRepository) PutSchedule(e schedule.Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.schedules = append(r.schedules, e)
}

// Events returns a copy of the audit log.
func (r *MemoryRepository) Events() []EventLog {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]EventLog, len(r.events))
	copy(out, r.events)
	return out
}

// Repository implementation

func (r *MemoryRepository) GetPatient(_ context.Context, patNum int64) (*Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.patients[patNum]
	if !ok {
		return nil, &NotFoundError{Resource: "patient", ID: patNum}
	}
	return &p, nil
}

func (r *MemoryRepository) GetProvider(_ context.Context, provNum int64) (*Provider, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.providers[provNum]
	if !ok {
		return nil, &NotFoundError{Resource: "provider", ID: provNum}
	}
	return &p, nil
}

func (r *MemoryRepository) GetOperatory(_ context.Context, opNum int64) (*Operatory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.operatories[opNum]
	if !ok {
		return nil, &NotFoundError{Resource: "operatory", ID: opNum}
	}
	return &o, nil
}

func (r *MemoryRepository) SchedulesFor(_ context.Context, dateStart, dateEnd wallclock.Date, provNum, opNum int64) ([]schedule.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var entries []schedule.Entry
	for _, e := range r.schedules {
		if !e.Active {
			continue
		}
		if e.Date.Before(dateStart) || e.Date.After(dateEnd) {
			continue
		}
		if provNum != 0 && e.ProvNum != provNum {
			continue
		}
		if opNum != 0 && e.OpNum != opNum {
			continue
		}
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].Date.Equal(entries[j].Date) {
			return entries[i].Date.Before(entries[j].Date)
		}
		if entries[i].ProvNum != entries[j].ProvNum {
			return entries[i].ProvNum < entries[j].ProvNum
		}
		return entries[i].OpNum < entries[j].OpNum
	})
	return entries, nil
}

func (r *MemoryRepository) GetAppointment(_ context.Context, aptNum int64) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.appointments[aptNum]
	if !ok {
		return nil, &NotFoundError{Resource: "appointment", ID: aptNum}
	}
	return &a, nil
}

func (r *MemoryRepository) ListScheduled(_ context.Context, dateStart, dateEnd wallclock.Date) ([]Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []Appointment
	for _, a := range r.appointments {
		if a.Status != StatusScheduled {
			continue
		}
		d := a.AptDateTime.Date()
		if d.Before(dateStart) || d.After(dateEnd) {
			continue
		}
		result = append(result, a)
	}
	sortAppointments(result)
	return result, nil
}

func (r *MemoryRepository) ListScheduledForResources(_ context.Context, date wallclock.Date, provNum, opNum int64) ([]Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []Appointment
	for _, a := range r.appointments {
		if a.Status != StatusScheduled {
			continue
		}
		if !a.AptDateTime.Date().Equal(date) {
			continue
		}
		if a.ProvNum != provNum && a.OpNum != opNum {
			continue
		}
		result = append(result, a)
	}
	sortAppointments(result)
	return result, nil
}

func (r *MemoryRepository) InsertAppointment(_ context.Context, apt *Appointment) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if apt.Status == StatusScheduled && r.bookingTakenLocked(apt.ProvNum, apt.OpNum, apt.AptDateTime, 0) {
		return nil, ErrBookingTaken
	}

	created := *apt
	created.AptNum = r.nextAptNum
	r.nextAptNum++
	now := time.Now()
	created.CreatedAt = now
	created.UpdatedAt = now
	r.appointments[created.AptNum] = created

	out := created
	return &out, nil
}

func (r *MemoryRepository) UpdateAppointment(_ context.Context, apt *Appointment) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.appointments[apt.AptNum]
	if !ok {
		return nil, &NotFoundError{Resource: "appointment", ID: apt.AptNum}
	}
	if apt.Status == StatusScheduled && r.bookingTakenLocked(apt.ProvNum, apt.OpNum, apt.AptDateTime, apt.AptNum) {
		return nil, ErrBookingTaken
	}

	updated := *apt
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = time.Now()
	r.appointments[updated.AptNum] = updated

	out := updated
	return &out, nil
}

func (r *MemoryRepository) UpdateStatus(_ context.Context, aptNum int64, from, to Status) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.appointments[aptNum]
	if !ok || a.Status != from {
		return nil, &NotFoundError{Resource: "appointment", ID: aptNum}
	}
	a.Status = to
	a.UpdatedAt = time.Now()
	r.appointments[aptNum] = a

	out := a
	return &out, nil
}

func (r *MemoryRepository) DeleteAppointment(_ context.Context, aptNum int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.appointments[aptNum]; !ok {
		return &NotFoundError{Resource: "appointment", ID: aptNum}
	}
	delete(r.appointments, aptNum)
	return nil
}

func (r *MemoryRepository) InsertEvent(_ context.Context, ev EventLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ev.ID = int64(len(r.events) + 1)
	r.events = append(r.events, ev)
	return nil
}

func (r *MemoryRepository) bookingTakenLocked(provNum, opNum int64, start wallclock.DateTime, excludeAptNum int64) bool {
	for _, a := range r.appointments {
		if a.AptNum == excludeAptNum {
			continue
		}
		if a.Status == StatusScheduled && a.ProvNum == provNum && a.OpNum == opNum && a.AptDateTime.Equal(start) {
			return true
		}
	}
	return false
}

func sortAppointments(appts []Appointment) {
	sort.Slice(appts, func(i, j int) bool {
		if !appts[i].AptDateTime.Equal(appts[j].AptDateTime) {
			return appts[i].AptDateTime.Before(appts[j].AptDateTime)
		}
		return appts[i].AptNum < appts[j].AptNum
	})
}
