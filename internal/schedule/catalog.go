package schedule

import (
	"context"

	"github.com/dentalops/frontdesk-scheduling/internal/wallclock"
)

// Entry is one provider/operatory working window on one calendar date.
// Entries are maintained by office administration; the engine only reads
// them. StartTime < StopTime always holds for active entries.
type Entry struct {
	ScheduleNum int64
	Date        wallclock.Date
	ProvNum     int64
	OpNum       int64
	StartTime   wallclock.ClockTime
	StopTime    wallclock.ClockTime
	Active      bool
}

// Window returns the entry's working window as wall-clock datetimes.
func (e Entry) Window() (start, stop wallclock.DateTime) {
	return e.Date.At(e.StartTime), e.Date.At(e.StopTime)
}

// Catalog is the read-only source of active schedule entries. A zero
// provNum or opNum means "no filter on that dimension".
type Catalog interface {
	SchedulesFor(ctx context.Context, dateStart, dateEnd wallclock.Date, provNum, opNum int64) ([]Entry, error)
}

// ResolveEntries applies the search-all fallback: when a specific
// provider/operatory filter yields nothing and the caller has not already
// asked for everything, the query widens to the full active set. Offices
// rarely know in advance which provider has configured hours, so an empty
// filtered read is treated as "show me what is bookable" rather than
// "nothing is bookable".
func ResolveEntries(ctx context.Context, cat Catalog, dateStart, dateEnd wallclock.Date, provNum, opNum int64, searchAll bool) ([]Entry, error) {
	if searchAll {
		return cat.SchedulesFor(ctx, dateStart, dateEnd, 0, 0)
	}

	entries, err := cat.SchedulesFor(ctx, dateStart, dateEnd, provNum, opNum)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 && (provNum != 0 || opNum != 0) {
		return cat.SchedulesFor(ctx, dateStart, dateEnd, 0, 0)
	}
	return entries, nil
}
