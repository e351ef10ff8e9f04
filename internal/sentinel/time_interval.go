package sentinel

import (
	"fmt"
	"time"
)

const DateLayout = "2006-01-02"

// TimeInterval is a closed range of calendar days in UTC.
type TimeInterval struct {
	Start time.Time
	End   time.Time
}

func NewTimeInterval(start, end time.Time) (TimeInterval, error) {
	ti := TimeInterval{Start: truncateDay(start), End: truncateDay(end)}
	if ti.End.Before(ti.Start) {
		return TimeInterval{}, fmt.Errorf("interval end %s is before start %s", ti.End.Format(DateLayout), ti.Start.Format(DateLayout))
	}
	return ti, nil
}

// ParseTimeInterval reads two YYYY-MM-DD dates.
func ParseTimeInterval(start, end string) (TimeInterval, error) {
	s, err := time.Parse(DateLayout, start)
	if err != nil {
		return TimeInterval{}, fmt.Errorf("invalid start date %q: %w", start, err)
	}
	e, err := time.Parse(DateLayout, end)
	if err != nil {
		return TimeInterval{}, fmt.Errorf("invalid end date %q: %w", end, err)
	}
	return NewTimeInterval(s, e)
}

// Datetime renders the interval the way the catalog expects it, the end day included.
func (ti TimeInterval) Datetime() string {
	return fmt.Sprintf("%s/%s", ti.Start.Format(time.RFC3339), ti.endOfDay().Format(time.RFC3339))
}

func (ti TimeInterval) Contains(t time.Time) bool {
	return !t.Before(ti.Start) && !t.After(ti.endOfDay())
}

func (ti TimeInterval) String() string {
	return fmt.Sprintf("%s..%s", ti.Start.Format(DateLayout), ti.End.Format(DateLayout))
}

func (ti TimeInterval) endOfDay() time.Time {
	return ti.End.Add(24*time.Hour - time.Second)
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
