package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/dentalops/frontdesk-scheduling/internal/wallclock"
)

// fakeCatalog records queries so fallback behavior can be asserted.
type fakeCatalog struct {
	entries []Entry
	queries []catalogQuery
}

type catalogQuery struct {
	provNum int64
	opNum   int64
}

func (f *fakeCatalog) SchedulesFor(_ context.Context, dateStart, dateEnd wallclock.Date, provNum, opNum int64) ([]Entry, error) {
	f.queries = append(f.queries, catalogQuery{provNum: provNum, opNum: opNum})

	var out []Entry
	for _, e := range f.entries {
		if !e.Active || e.Date.Before(dateStart) || e.Date.After(dateEnd) {
			continue
		}
		if provNum != 0 && e.ProvNum != provNum {
			continue
		}
		if opNum != 0 && e.OpNum != opNum {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func TestResolveEntriesDirectHit(t *testing.T) {
	date := wallclock.NewDate(2025, time.December, 16)
	cat := &fakeCatalog{entries: []Entry{entryOn(date, 1, 1, 9, 12)}}

	entries, err := ResolveEntries(context.Background(), cat, date, date, 1, 1, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	if len(cat.queries) != 1 {
		t.Errorf("expected a single query, got %d", len(cat.queries))
	}
}

// Provider B has hours, the caller asks for provider A: the query must
// widen to the full active set instead of returning nothing.
func TestResolveEntriesFallsBackToSearchAll(t *testing.T) {
	date := wallclock.NewDate(2025, time.December, 16)
	cat := &fakeCatalog{entries: []Entry{entryOn(date, 2, 2, 9, 12)}}

	entries, err := ResolveEntries(context.Background(), cat, date, date, 1, 0, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 1 || entries[0].ProvNum != 2 {
		t.Fatalf("fallback should surface provider 2's schedule, got %+v", entries)
	}
	if len(cat.queries) != 2 {
		t.Fatalf("expected filtered query then fallback, got %d queries", len(cat.queries))
	}
	if cat.queries[1].provNum != 0 || cat.queries[1].opNum != 0 {
		t.Error("fallback query should be unfiltered")
	}
}

func TestResolveEntriesSearchAllSkipsFilteredQuery(t *testing.T) {
	date := wallclock.NewDate(2025, time.December, 16)
	cat := &fakeCatalog{entries: []Entry{entryOn(date, 2, 2, 9, 12)}}

	if _, err := ResolveEntries(context.Background(), cat, date, date, 1, 1, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cat.queries) != 1 {
		t.Fatalf("searchAll should query once, got %d", len(cat.queries))
	}
	if cat.queries[0].provNum != 0 || cat.queries[0].opNum != 0 {
		t.Error("searchAll query should be unfiltered")
	}
}

func TestResolveEntriesUnfilteredEmptyIsEmpty(t *testing.T) {
	date := wallclock.NewDate(2025, time.December, 16)
	cat := &fakeCatalog{}

	entries, err := ResolveEntries(context.Background(), cat, date, date, 0, 0, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("got %d entries, want 0", len(entries))
	}
	// No provider/operatory filter was set, so there is nothing to widen.
	if len(cat.queries) != 1 {
		t.Errorf("expected a single query, got %d", len(cat.queries))
	}
}
