package appointment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	redisclient "github.com/dentalops/frontdesk-scheduling/internal/redis"
	"github.com/dentalops/frontdesk-scheduling/internal/schedule"
	"github.com/dentalops/frontdesk-scheduling/internal/wallclock"
)

const (
	EventAppointmentCreated   = "APPOINTMENT_CREATED"
	EventAppointmentUpdated   = "APPOINTMENT_UPDATED"
	EventAppointmentBroken    = "APPOINTMENT_BROKEN"
	EventAppointmentCancelled = "APPOINTMENT_CANCELLED"
	EventAppointmentDeleted   = "APPOINTMENT_DELETED"
	EventIntegrityViolation   = "INTEGRITY_VIOLATION"
)

// Defaults is the injected booking configuration. Offices that route most
// bookings to one chair configure default provider/operatory ids here; a
// request omitting the field falls back to them before validation.
type Defaults struct {
	ProvNum     int64
	OpNum       int64
	SlotMinutes int
}

func (d Defaults) slotMinutes() int {
	if d.SlotMinutes > 0 {
		return d.SlotMinutes
	}
	return schedule.DefaultSlotMinutes
}

// Service is the appointment lifecycle: it validates references, runs the
// conflict pre-check before every create or move, and owns the status
// machine Scheduled -> {Completed, Broken, Cancelled}.
type Service struct {
	repo   Repository
	locker redisclient.Locker
	def    Defaults
	log    zerolog.Logger
}

func NewService(repo Repository, locker redisclient.Locker, def Defaults, log zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		locker: locker,
		def:    def,
		log:    log,
	}
}

// SlotQuery asks for free slots over an inclusive date range. Zero ProvNum
// and OpNum mean no filter; SearchAll skips the specific query entirely.
type SlotQuery struct {
	DateStart     wallclock.Date
	DateEnd       wallclock.Date
	ProvNum       int64
	OpNum         int64
	LengthMinutes int
	SearchAll     bool
}

// GetAvailableSlots enumerates bookable slots. An empty result is a normal
// business outcome (typically: office hours never configured), never an
// error.
func (s *Service) GetAvailableSlots(ctx context.Context, q SlotQuery) ([]schedule.Slot, error) {
	if q.DateStart.IsZero() {
		return nil, missingField("dateStart")
	}
	if q.DateEnd.IsZero() {
		return nil, missingField("dateEnd")
	}
	if q.DateEnd.Before(q.DateStart) {
		return nil, &ValidationError{Field: "dateEnd", Reason: "must not be before dateStart"}
	}

	length := q.LengthMinutes
	if length <= 0 {
		length = s.def.slotMinutes()
	}

	entries, err := schedule.ResolveEntries(ctx, s.repo, q.DateStart, q.DateEnd, q.ProvNum, q.OpNum, q.SearchAll)
	if err != nil {
		return nil, fmt.Errorf("load schedules: %w", err)
	}
	if len(entries) == 0 {
		s.log.Info().
			Str("date_start", q.DateStart.String()).
			Str("date_end", q.DateEnd.String()).
			Msg("no active schedules in range, returning zero slots")
		return []schedule.Slot{}, nil
	}

	appts, err := s.repo.ListScheduled(ctx, q.DateStart, q.DateEnd)
	if err != nil {
		return nil, fmt.Errorf("load scheduled appointments: %w", err)
	}

	idx := schedule.BuildBookedIndex(occupyingBookings(appts))
	return schedule.GenerateSlots(entries, idx, length), nil
}

// CreateRequest is the normalized create payload. Boundary aliasing
// (Op vs OpNum) is resolved before this struct is built.
type CreateRequest struct {
	PatNum      int64
	ProvNum     int64
	OpNum       int64
	AptDateTime wallclock.DateTime
	Pattern     string
	Note        string
	Status      Status
}

func (s *Service) CreateAppointment(ctx context.Context, req CreateRequest) (*Appointment, error) {
	if req.ProvNum == 0 {
		req.ProvNum = s.def.ProvNum
	}
	if req.OpNum == 0 {
		req.OpNum = s.def.OpNum
	}

	switch {
	case req.PatNum == 0:
		return nil, missingField("PatNum")
	case req.AptDateTime.IsZero():
		return nil, missingField("AptDateTime")
	case req.ProvNum == 0:
		return nil, missingField("ProvNum")
	case req.OpNum == 0:
		return nil, missingField("Op")
	}

	if req.Status == "" {
		req.Status = StatusScheduled
	}
	if req.Status != StatusScheduled {
		return nil, &ValidationError{Field: "AptStatus", Reason: "new appointments must be Scheduled"}
	}

	pattern := req.Pattern
	if pattern == "" {
		pattern = schedule.EncodePattern(s.def.slotMinutes())
	}
	duration, err := schedule.DecodePattern(pattern)
	if err != nil {
		return nil, &ValidationError{Field: "Pattern", Reason: err.Error()}
	}

	if _, err := s.repo.GetPatient(ctx, req.PatNum); err != nil {
		return nil, err
	}
	if err := s.checkProvider(ctx, req.ProvNum); err != nil {
		return nil, err
	}
	if err := s.checkOperatory(ctx, req.OpNum); err != nil {
		return nil, err
	}

	cand := schedule.Candidate{
		ProvNum:         req.ProvNum,
		OpNum:           req.OpNum,
		Start:           req.AptDateTime,
		DurationMinutes: duration,
	}

	var created *Appointment
	err = s.withBookingLock(ctx, cand, func(lockCtx context.Context) error {
		if err := s.checkConflict(lockCtx, cand); err != nil {
			return err
		}
		apt, err := s.repo.InsertAppointment(lockCtx, &Appointment{
			PatNum:      req.PatNum,
			ProvNum:     req.ProvNum,
			OpNum:       req.OpNum,
			AptDateTime: req.AptDateTime,
			Pattern:     pattern,
			Status:      StatusScheduled,
			Note:        req.Note,
		})
		if err != nil {
			return fmt.Errorf("insert appointment: %w", err)
		}
		created = apt
		return nil
	})
	if err != nil {
		return nil, s.asConflict(ctx, err, cand)
	}

	s.logEvent(ctx, created.AptNum, EventAppointmentCreated, map[string]any{
		"pat_num":      created.PatNum,
		"prov_num":     created.ProvNum,
		"op_num":       created.OpNum,
		"apt_datetime": created.AptDateTime.String(),
	})

	return created, nil
}

// UpdateRequest carries only the fields the caller wants changed.
type UpdateRequest struct {
	AptNum      int64
	AptDateTime *wallclock.DateTime
	ProvNum     *int64
	OpNum       *int64
	Status      *Status
	Note        *string
	Pattern     *string
}

func (s *Service) UpdateAppointment(ctx context.Context, req UpdateRequest) (*Appointment, error) {
	if req.AptNum == 0 {
		return nil, missingField("AptNum")
	}

	existing, err := s.repo.GetAppointment(ctx, req.AptNum)
	if err != nil {
		return nil, err
	}

	next := *existing

	if req.Pattern != nil {
		if _, err := schedule.DecodePattern(*req.Pattern); err != nil {
			return nil, &ValidationError{Field: "Pattern", Reason: err.Error()}
		}
		next.Pattern = *req.Pattern
	}
	if req.ProvNum != nil {
		if err := s.checkProvider(ctx, *req.ProvNum); err != nil {
			return nil, err
		}
		next.ProvNum = *req.ProvNum
	}
	if req.OpNum != nil {
		if err := s.checkOperatory(ctx, *req.OpNum); err != nil {
			return nil, err
		}
		next.OpNum = *req.OpNum
	}
	if req.AptDateTime != nil {
		next.AptDateTime = *req.AptDateTime
	}
	if req.Note != nil {
		next.Note = *req.Note
	}
	if req.Status != nil && *req.Status != existing.Status {
		// The only status move allowed through update is finishing a
		// visit; Broken and Cancelled go through BreakAppointment.
		if existing.Status != StatusScheduled || *req.Status != StatusCompleted {
			return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, existing.Status, *req.Status)
		}
		next.Status = StatusCompleted
	}

	moved := !next.AptDateTime.Equal(existing.AptDateTime) ||
		next.ProvNum != existing.ProvNum ||
		next.OpNum != existing.OpNum

	if !moved || !next.Status.OccupiesResources() {
		updated, err := s.repo.UpdateAppointment(ctx, &next)
		if err != nil {
			return nil, err
		}
		s.logEvent(ctx, updated.AptNum, EventAppointmentUpdated, map[string]any{"moved": false})
		return updated, nil
	}

	duration, err := next.DurationMinutes()
	if err != nil {
		return nil, &ValidationError{Field: "Pattern", Reason: err.Error()}
	}

	cand := schedule.Candidate{
		ProvNum:         next.ProvNum,
		OpNum:           next.OpNum,
		Start:           next.AptDateTime,
		DurationMinutes: duration,
		ExcludeAptNum:   existing.AptNum,
	}

	var updated *Appointment
	err = s.withBookingLock(ctx, cand, func(lockCtx context.Context) error {
		if err := s.checkConflict(lockCtx, cand); err != nil {
			return err
		}
		apt, err := s.repo.UpdateAppointment(lockCtx, &next)
		if err != nil {
			return fmt.Errorf("update appointment: %w", err)
		}
		updated = apt
		return nil
	})
	if err != nil {
		return nil, s.asConflict(ctx, err, cand)
	}

	s.logEvent(ctx, updated.AptNum, EventAppointmentUpdated, map[string]any{
		"moved":        true,
		"prov_num":     updated.ProvNum,
		"op_num":       updated.OpNum,
		"apt_datetime": updated.AptDateTime.String(),
	})

	return updated, nil
}

// BreakAppointment takes a Scheduled appointment off the book. With
// sendToUnscheduled the patient reappears on the unscheduled list
// (Broken); otherwise the appointment is Cancelled outright.
func (s *Service) BreakAppointment(ctx context.Context, aptNum int64, sendToUnscheduled bool) (*Appointment, error) {
	if aptNum == 0 {
		return nil, missingField("AptNum")
	}

	existing, err := s.repo.GetAppointment(ctx, aptNum)
	if err != nil {
		return nil, err
	}
	if existing.Status != StatusScheduled {
		return nil, fmt.Errorf("%w: cannot break appointment in status %s", ErrInvalidStatusTransition, existing.Status)
	}

	target := StatusCancelled
	event := EventAppointmentCancelled
	if sendToUnscheduled {
		target = StatusBroken
		event = EventAppointmentBroken
	}

	updated, err := s.repo.UpdateStatus(ctx, aptNum, StatusScheduled, target)
	if err != nil {
		var nf *NotFoundError
		if errors.As(err, &nf) {
			// Lost a race with another transition since the read above.
			return nil, fmt.Errorf("%w: appointment %d is no longer Scheduled", ErrInvalidStatusTransition, aptNum)
		}
		return nil, err
	}

	s.logEvent(ctx, aptNum, event, map[string]any{"send_to_unscheduled": sendToUnscheduled})
	return updated, nil
}

// DeleteAppointment physically removes the record regardless of status.
func (s *Service) DeleteAppointment(ctx context.Context, aptNum int64) error {
	if aptNum == 0 {
		return missingField("AptNum")
	}
	if err := s.repo.DeleteAppointment(ctx, aptNum); err != nil {
		return err
	}
	s.logEvent(ctx, aptNum, EventAppointmentDeleted, map[string]any{})
	return nil
}

func (s *Service) GetAppointment(ctx context.Context, aptNum int64) (*Appointment, error) {
	if aptNum == 0 {
		return nil, missingField("AptNum")
	}
	return s.repo.GetAppointment(ctx, aptNum)
}

// VerifyIntegrity scans Scheduled appointments in the range for pairwise
// overlaps on a shared provider or operatory. Violations can only appear
// through out-of-band writes; each one is recorded in the event log.
func (s *Service) VerifyIntegrity(ctx context.Context, dateStart, dateEnd wallclock.Date) ([]schedule.Conflict, error) {
	appts, err := s.repo.ListScheduled(ctx, dateStart, dateEnd)
	if err != nil {
		return nil, fmt.Errorf("load scheduled appointments: %w", err)
	}
	bookings := occupyingBookings(appts)

	var violations []schedule.Conflict
	for i, b := range bookings {
		cand := schedule.Candidate{
			ProvNum:         b.ProvNum,
			OpNum:           b.OpNum,
			Start:           b.Start,
			DurationMinutes: b.DurationMinutes,
		}
		if c := schedule.FindConflict(cand, bookings[i+1:]); c != nil {
			violations = append(violations, *c)
			s.logEvent(ctx, b.AptNum, EventIntegrityViolation, map[string]any{
				"other_apt_num": c.With.AptNum,
				"detail":        c.Message,
			})
		}
	}
	return violations, nil
}

// Helpers

func occupyingBookings(appts []Appointment) []schedule.Booking {
	bookings := make([]schedule.Booking, 0, len(appts))
	for _, a := range appts {
		if a.Status.OccupiesResources() {
			bookings = append(bookings, a.Booking())
		}
	}
	return bookings
}

func (s *Service) checkProvider(ctx context.Context, provNum int64) error {
	prov, err := s.repo.GetProvider(ctx, provNum)
	if err != nil {
		return err
	}
	if !prov.Active {
		return &InactiveResourceError{Resource: "provider", ID: provNum}
	}
	return nil
}

func (s *Service) checkOperatory(ctx context.Context, opNum int64) error {
	op, err := s.repo.GetOperatory(ctx, opNum)
	if err != nil {
		return err
	}
	if !op.Active {
		return &InactiveResourceError{Resource: "operatory", ID: opNum}
	}
	return nil
}

// checkConflict fetches same-day Scheduled appointments touching the
// candidate's provider or operatory and applies the shared overlap test.
func (s *Service) checkConflict(ctx context.Context, cand schedule.Candidate) error {
	appts, err := s.repo.ListScheduledForResources(ctx, cand.Start.Date(), cand.ProvNum, cand.OpNum)
	if err != nil {
		return fmt.Errorf("load appointments for conflict check: %w", err)
	}
	if c := schedule.FindConflict(cand, occupyingBookings(appts)); c != nil {
		return &ConflictError{Message: c.Message}
	}
	return nil
}

// withBookingLock serializes bookings for the same resource triple. The
// lock is best effort: the storage uniqueness constraint stays the
// authority, the lock just keeps honest racers from burning an insert.
func (s *Service) withBookingLock(ctx context.Context, cand schedule.Candidate, fn func(ctx context.Context) error) error {
	if s.locker == nil {
		return fn(ctx)
	}
	key := fmt.Sprintf("%d:%d:%s", cand.ProvNum, cand.OpNum, cand.Start)
	return s.locker.WithBookingLock(ctx, key, fn)
}

// asConflict translates storage uniqueness violations and lock contention
// into the same ConflictError shape the pre-check produces, re-running the
// conflict fetch so the message names the committed collider.
func (s *Service) asConflict(ctx context.Context, err error, cand schedule.Candidate) error {
	var conflict *ConflictError
	if errors.As(err, &conflict) {
		return conflict
	}
	if !errors.Is(err, ErrBookingTaken) && !errors.Is(err, redisclient.ErrLockNotAcquired) {
		return err
	}
	if checkErr := s.checkConflict(ctx, cand); checkErr != nil {
		if errors.As(checkErr, &conflict) {
			return conflict
		}
	}
	return &ConflictError{Message: fmt.Sprintf(
		"time conflict: provider %d or operatory %d is already being booked at %s",
		cand.ProvNum, cand.OpNum, cand.Start)}
}

func (s *Service) logEvent(ctx context.Context, aptNum int64, eventType string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.log.Error().Err(err).Str("event", eventType).Msg("marshal event payload")
		data = nil
	}

	ev := EventLog{
		EventType: eventType,
		AptNum:    &aptNum,
		Payload:   data,
		CreatedAt: time.Now(),
	}

	if err := s.repo.InsertEvent(ctx, ev); err != nil {
		s.log.Error().Err(err).Str("event", eventType).Int64("apt_num", aptNum).Msg("insert event log")
	}
}
