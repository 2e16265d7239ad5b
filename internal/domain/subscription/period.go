package subscription

import (
	"fmt"
	"time"

	"github.com/docsphere/docsphere/internal/shared/biztime"
)

// Period is a half-open billing window [Start, End) of calendar dates.
type Period struct {
	Start time.Time
	End   time.Time
}

// NewPeriod computes the window that begins on start for the given cycle.
// Month arithmetic clamps to the end of the target month.
func NewPeriod(start time.Time, cycle BillingCycle) (Period, error) {
	start = biztime.DateOf(start)
	var end time.Time
	switch cycle {
	case BillingCycleMonthly:
		end = biztime.AddMonths(start, 1)
	case BillingCycleAnnual:
		end = biztime.AddYears(start, 1)
	default:
		return Period{}, ErrInvalidBillingCycle
	}
	return Period{Start: start, End: end}, nil
}

// ReconstructPeriod rebuilds a stored period, enforcing Start < End.
func ReconstructPeriod(start, end time.Time) (Period, error) {
	p := Period{Start: start.UTC(), End: end.UTC()}
	if !p.Start.Before(p.End) {
		return Period{}, fmt.Errorf("%w: start=%s end=%s", ErrInvalidPeriod,
			biztime.FormatDate(p.Start), biztime.FormatDate(p.End))
	}
	return p, nil
}

// Contains reports whether the calendar date d lies in [Start, End).
func (p Period) Contains(d time.Time) bool {
	return !d.Before(p.Start) && d.Before(p.End)
}

func (p Period) String() string {
	return fmt.Sprintf("[%s, %s)", biztime.FormatDate(p.Start), biztime.FormatDate(p.End))
}
