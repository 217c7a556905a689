package booking

import (
	"errors"
	"time"
)

// MaxStayDays bounds a single booking's span.
const MaxStayDays = 365

const dateLayout = "2006-01-02"

var (
	ErrInvalidDateOrder = errors.New("start date must be before end date")
	ErrStayTooLong      = errors.New("booking span exceeds maximum stay")
	ErrUnparsableDate   = errors.New("unparsable date")
)

// DateRange is a half-open calendar interval [start, end). Dates are
// timezone-naive; both ends are normalized to UTC midnight.
type DateRange struct {
	start time.Time
	end   time.Time
}

func NewDateRange(start, end time.Time) (DateRange, error) {
	start = truncateToDate(start)
	end = truncateToDate(end)

	if !start.Before(end) {
		return DateRange{}, ErrInvalidDateOrder
	}
	if end.Sub(start) > MaxStayDays*24*time.Hour {
		return DateRange{}, ErrStayTooLong
	}

	return DateRange{start: start, end: end}, nil
}

func ParseDateRange(start, end string) (DateRange, error) {
	s, err := time.ParseInLocation(dateLayout, start, time.UTC)
	if err != nil {
		return DateRange{}, ErrUnparsableDate
	}
	e, err := time.ParseInLocation(dateLayout, end, time.UTC)
	if err != nil {
		return DateRange{}, ErrUnparsableDate
	}
	return NewDateRange(s, e)
}

func (d DateRange) Start() time.Time {
	return d.start
}

func (d DateRange) End() time.Time {
	return d.end
}

// Nights is the integer day count between the two calendar dates.
func (d DateRange) Nights() int {
	return int(d.end.Sub(d.start).Hours() / 24)
}

func (d DateRange) Overlaps(o DateRange) bool {
	return d.start.Before(o.end) && o.start.Before(d.end)
}

// Ended reports whether the stay is over as of the given calendar date.
func (d DateRange) Ended(today time.Time) bool {
	return !truncateToDate(today).Before(d.end)
}

func (d DateRange) StartString() string {
	return d.start.Format(dateLayout)
}

func (d DateRange) EndString() string {
	return d.end.Format(dateLayout)
}

func truncateToDate(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
