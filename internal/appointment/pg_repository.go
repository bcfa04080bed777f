package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dentalops/frontdesk-scheduling/internal/schedule"
	"github.com/dentalops/frontdesk-scheduling/internal/wallclock"
)

const pgUniqueViolation = "23505"

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Helpers

func scanPatient(row pgx.Row, patNum int64) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.PatNum, &p.LName, &p.FName, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Resource: "patient", ID: patNum}
		}
		return nil, err
	}
	return &p, nil
}

func scanProvider(row pgx.Row, provNum int64) (*Provider, error) {
	var p Provider
	err := row.Scan(&p.ProvNum, &p.Abbr, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Resource: "provider", ID: provNum}
		}
		return nil, err
	}
	return &p, nil
}

func scanOperatory(row pgx.Row, opNum int64) (*Operatory, error) {
	var o Operatory
	err := row.Scan(&o.OpNum, &o.OpName, &o.Active, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Resource: "operatory", ID: opNum}
		}
		return nil, err
	}
	return &o, nil
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var (
		a      Appointment
		start  time.Time
		status string
	)
	err := row.Scan(
		&a.AptNum,
		&a.PatNum,
		&a.ProvNum,
		&a.OpNum,
		&start,
		&a.Pattern,
		&status,
		&a.Note,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Resource: "appointment"}
		}
		return nil, err
	}
	a.AptDateTime = wallclock.FromTime(start)
	a.Status = Status(status)
	return &a, nil
}

func clockToPg(c wallclock.ClockTime) pgtype.Time {
	return pgtype.Time{Microseconds: int64(c) * 1_000_000, Valid: true}
}

func pgToClock(t pgtype.Time) wallclock.ClockTime {
	return wallclock.ClockTime(t.Microseconds / 1_000_000)
}

const appointmentColumns = `apt_num, pat_num, prov_num, op_num, apt_datetime, pattern, status, note, created_at, updated_at`

// Interface methods

func (r *PgRepository) GetPatient(ctx context.Context, patNum int64) (*Patient, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT pat_num, l_name, f_name, created_at, updated_at
		FROM patients
		WHERE pat_num = $1
	`, patNum)
	return scanPatient(row, patNum)
}

func (r *PgRepository) GetProvider(ctx context.Context, provNum int64) (*Provider, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT prov_num, abbr, active, created_at, updated_at
		FROM providers
		WHERE prov_num = $1
	`, provNum)
	return scanProvider(row, provNum)
}

func (r *PgRepository) GetOperatory(ctx context.Context, opNum int64) (*Operatory, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT op_num, op_name, active, created_at, updated_at
		FROM operatories
		WHERE op_num = $1
	`, opNum)
	return scanOperatory(row, opNum)
}

func (r *PgRepository) SchedulesFor(ctx context.Context, dateStart, dateEnd wallclock.Date, provNum, opNum int64) ([]schedule.Entry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT schedule_num, sched_date, prov_num, op_num, start_time, stop_time, active
		FROM schedules
		WHERE active
		  AND sched_date >= $1
		  AND sched_date <= $2
		  AND ($3::bigint = 0 OR prov_num = $3)
		  AND ($4::bigint = 0 OR op_num = $4)
		ORDER BY sched_date, prov_num, op_num
	`, dateStart.Time(), dateEnd.Time(), provNum, opNum)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []schedule.Entry
	for rows.Next() {
		var (
			e          schedule.Entry
			schedDate  time.Time
			start, end pgtype.Time
		)
		if err := rows.Scan(&e.ScheduleNum, &schedDate, &e.ProvNum, &e.OpNum, &start, &end, &e.Active); err != nil {
			return nil, err
		}
		e.Date = wallclock.DateOf(schedDate)
		e.StartTime = pgToClock(start)
		e.StopTime = pgToClock(end)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *PgRepository) GetAppointment(ctx context.Context, aptNum int64) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE apt_num = $1
	`, aptNum)
	apt, err := scanAppointment(row)
	if err != nil {
		var nf *NotFoundError
		if errors.As(err, &nf) {
			nf.ID = aptNum
		}
		return nil, err
	}
	return apt, nil
}

func (r *PgRepository) ListScheduled(ctx context.Context, dateStart, dateEnd wallclock.Date) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE status = 'Scheduled'
		  AND apt_datetime >= $1
		  AND apt_datetime < $2
		ORDER BY apt_datetime
	`, dateStart.Time(), dateEnd.AddDays(1).Time())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAppointments(rows)
}

func (r *PgRepository) ListScheduledForResources(ctx context.Context, date wallclock.Date, provNum, opNum int64) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE status = 'Scheduled'
		  AND apt_datetime >= $1
		  AND apt_datetime < $2
		  AND (prov_num = $3 OR op_num = $4)
		ORDER BY apt_datetime
	`, date.Time(), date.AddDays(1).Time(), provNum, opNum)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAppointments(rows)
}

func collectAppointments(rows pgx.Rows) ([]Appointment, error) {
	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	return result, rows.Err()
}

func (r *PgRepository) InsertAppointment(ctx context.Context, apt *Appointment) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO appointments (pat_num, prov_num, op_num, apt_datetime, pattern, status, note, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
		RETURNING `+appointmentColumns+`
	`, apt.PatNum, apt.ProvNum, apt.OpNum, apt.AptDateTime.Time(), apt.Pattern, string(apt.Status), apt.Note)

	created, err := scanAppointment(row)
	if err != nil {
		return nil, translateUnique(err)
	}
	return created, nil
}

func (r *PgRepository) UpdateAppointment(ctx context.Context, apt *Appointment) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET pat_num = $2,
		    prov_num = $3,
		    op_num = $4,
		    apt_datetime = $5,
		    pattern = $6,
		    status = $7,
		    note = $8,
		    updated_at = now()
		WHERE apt_num = $1
		RETURNING `+appointmentColumns+`
	`, apt.AptNum, apt.PatNum, apt.ProvNum, apt.OpNum, apt.AptDateTime.Time(), apt.Pattern, string(apt.Status), apt.Note)

	updated, err := scanAppointment(row)
	if err != nil {
		var nf *NotFoundError
		if errors.As(err, &nf) {
			nf.ID = apt.AptNum
			return nil, err
		}
		return nil, translateUnique(err)
	}
	return updated, nil
}

func (r *PgRepository) UpdateStatus(ctx context.Context, aptNum int64, from, to Status) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2,
		    updated_at = now()
		WHERE apt_num = $1
		  AND status = $3
		RETURNING `+appointmentColumns+`
	`, aptNum, string(to), string(from))

	updated, err := scanAppointment(row)
	if err != nil {
		var nf *NotFoundError
		if errors.As(err, &nf) {
			nf.ID = aptNum
		}
		return nil, err
	}
	return updated, nil
}

func (r *PgRepository) DeleteAppointment(ctx context.Context, aptNum int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM appointments WHERE apt_num = $1`, aptNum)
	if err != nil {
		return fmt.Errorf("delete appointment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &NotFoundError{Resource: "appointment", ID: aptNum}
	}
	return nil
}

func (r *PgRepository) InsertEvent(ctx context.Context, ev EventLog) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO event_logs (event_type, apt_num, payload, created_at)
		VALUES ($1, $2, $3, COALESCE($4, now()))
	`, ev.EventType, ev.AptNum, ev.Payload, nullableTime(ev.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert event log: %w", err)
	}
	return nil
}

// translateUnique maps the partial unique index on
// (prov_num, op_num, apt_datetime) WHERE status = 'Scheduled' onto
// ErrBookingTaken for the service to re-raise as a ConflictError.
func translateUnique(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return ErrBookingTaken
	}
	return err
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
