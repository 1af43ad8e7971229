package interpreters

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/biocache/opdk"
	"github.com/biocache/opdk/records"
	"github.com/pkg/errors"
)

// EarliestLikelyYear is the first year an event date is believed in.
const EarliestLikelyYear = 1600

// Date is a possibly partial calendar date.
type Date struct {
	Year  int
	Month int // 0 when unknown
	Day   int // 0 when unknown
}

// String formats d as yyyy, yyyy-MM or yyyy-MM-dd.
func (d Date) String() string {
	switch {
	case d.Month == 0:
		return fmt.Sprintf("%04d", d.Year)
	case d.Day == 0:
		return fmt.Sprintf("%04d-%02d", d.Year, d.Month)
	default:
		return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
	}
}

// start returns the first instant d may refer to.
func (d Date) start() time.Time {
	m, day := d.Month, d.Day
	if m == 0 {
		m = 1
	}
	if day == 0 {
		day = 1
	}
	return time.Date(d.Year, time.Month(m), day, 0, 0, 0, 0, time.UTC)
}

// dateStrategy tries to read a date from s.
type dateStrategy func(s string) (Date, bool)

func layout(l string, precision int) dateStrategy {
	return func(s string) (Date, bool) {
		t, err := time.Parse(l, s)
		if err != nil {
			return Date{}, false
		}
		d := Date{Year: t.Year()}
		if precision > 0 {
			d.Month = int(t.Month())
		}
		if precision > 1 {
			d.Day = t.Day()
		}
		return d, true
	}
}

var yearOnly = regexp.MustCompile(`^\d{4}$`)

// dateStrategies are tried in order; the first that succeeds wins.
var dateStrategies = []dateStrategy{
	layout(time.RFC3339, 2),
	layout("2006-01-02T15:04:05", 2),
	layout("2006-01-02T15:04", 2),
	layout("2006-01-02 15:04:05", 2),
	layout("2006-01-02", 2),
	layout("2006-002", 2),
	layout("2006-01", 1),
	func(s string) (Date, bool) {
		if !yearOnly.MatchString(s) {
			return Date{}, false
		}
		d, ok := layout("2006", 0)(s)
		return d, ok
	},
	layout("02/01/2006", 2),
	layout("2006/01/02", 2),
}

// ParseDate reads a date from raw using the known strategies. A range
// "a/b" yields its start when both ends are dates.
func ParseDate(raw string) (Date, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Date{}, errors.New("empty date")
	}
	for _, strategy := range dateStrategies {
		if d, ok := strategy(s); ok {
			return d, nil
		}
	}
	if parts := strings.Split(s, "/"); len(parts) == 2 {
		start, err := ParseDate(parts[0])
		if err != nil {
			return Date{}, errors.Wrap(err, "range start")
		}
		end, err := ParseDate(parts[1])
		if err != nil {
			return Date{}, errors.Wrap(err, "range end")
		}
		if end.start().Before(start.start()) {
			return Date{}, errors.Errorf("range '%s' ends before it starts", s)
		}
		return start, nil
	}
	return Date{}, errors.Errorf("unrecognised date format '%s'", s)
}

// InterpretEventDate parses raw and checks the date is plausible: not
// before EarliestLikelyYear and not after now.
func InterpretEventDate(raw string, now time.Time) opdk.Result[Date] {
	if isNull(raw) {
		return nulled[Date](opdk.RecordedDateInvalid, "eventDate", "is null")
	}
	d, err := ParseDate(raw)
	if err != nil {
		return nulled[Date](opdk.RecordedDateInvalid, "eventDate", err.Error())
	}
	if err := checkLikely(d, now); err != nil {
		return nulled[Date](opdk.RecordedDateUnlikely, "eventDate", err.Error())
	}
	return opdk.Ok(d)
}

func checkLikely(d Date, now time.Time) error {
	if d.Year < EarliestLikelyYear {
		return errors.Errorf("year %d is before %d", d.Year, EarliestLikelyYear)
	}
	if d.start().After(now) {
		return errors.Errorf("%s is in the future", d)
	}
	return nil
}

// InterpretYearMonthDay assembles a date from separate year, month and day
// values. month and day may be blank.
func InterpretYearMonthDay(year, month, day string, now time.Time) opdk.Result[Date] {
	y, err := parseInt32(year)
	if err != nil {
		return nulled[Date](opdk.RecordedDateInvalid, "year", fmt.Sprintf("'%s' is not a year", year))
	}
	d := Date{Year: int(y)}
	if !isNull(month) {
		m, err := parseInt32(month)
		if err != nil || m < 1 || m > 12 {
			return nulled[Date](opdk.RecordedDateInvalid, "month", fmt.Sprintf("'%s' is not a month", month))
		}
		d.Month = int(m)
		if !isNull(day) {
			dd, err := parseInt32(day)
			last := time.Date(d.Year, time.Month(d.Month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
			if err != nil || dd < 1 || int(dd) > last {
				return nulled[Date](opdk.RecordedDateInvalid, "day", fmt.Sprintf("'%s' is not a day of %s", day, d))
			}
			d.Day = int(dd)
		}
	}
	if err := checkLikely(d, now); err != nil {
		return nulled[Date](opdk.RecordedDateUnlikely, "year", err.Error())
	}
	return opdk.Ok(d)
}

// InterpretDayOfYear parses a day of the year, 1 to 366.
func InterpretDayOfYear(raw string) opdk.Result[int32] {
	if isNull(raw) {
		return nulled[int32](opdk.DayOfYearInvalid, "day of year", "is null")
	}
	d, err := parseInt32(raw)
	if err != nil {
		return nulled[int32](opdk.DayOfYearInvalid, "day of year", fmt.Sprintf("'%s' is not an integer", strings.TrimSpace(raw)))
	}
	if d < 1 || d > 366 {
		return nulled[int32](opdk.DayOfYearInvalid, "day of year", fmt.Sprintf("%d is outside 1-366", d))
	}
	return opdk.Ok(d)
}

func setDate(tr *records.TemporalRecord, d Date) {
	tr.EventDate = d.String()
	tr.Year = ptr(int32(d.Year))
	tr.Month, tr.Day = nil, nil
	if d.Month != 0 {
		tr.Month = ptr(int32(d.Month))
	}
	if d.Day != 0 {
		tr.Day = ptr(int32(d.Day))
	}
}

// EventDate returns the step setting the event date of a temporal record.
// When the record has no eventDate, the date is assembled from its year,
// month and day terms instead. now bounds likely dates.
func EventDate(now func() time.Time) opdk.Step[*opdk.VerbatimRecord, *records.TemporalRecord] {
	return func(er *opdk.VerbatimRecord, tr *records.TemporalRecord) opdk.Interpretation[struct{}] {
		if _, ok := er.NullAwareValue(opdk.DwcEventDate); ok {
			return apply(er, opdk.DwcEventDate, func(raw string) opdk.Result[Date] {
				return InterpretEventDate(raw, now())
			}, func(d Date) { setDate(tr, d) })
		}
		year, ok := er.NullAwareValue(opdk.DwcYear)
		if !ok {
			return opdk.Done()
		}
		month, day := er.Value(opdk.DwcMonth), er.Value(opdk.DwcDay)
		dropped := opdk.Done()
		if isNull(month) && !isNull(day) {
			// a day means nothing without its month; keep the year
			dropped = nulled[struct{}](opdk.RecordedDateInvalid, "day", fmt.Sprintf("'%s' has no month", strings.TrimSpace(day))).
				Interpretation(opdk.DwcDay.SimpleName())
			day = ""
		}
		res := InterpretYearMonthDay(year, month, day, now())
		if d, ok := res.Get(); ok {
			setDate(tr, d)
			return dropped
		}
		return opdk.Then(dropped, opdk.Discard(res.Interpretation(opdk.DwcYear.SimpleName())))
	}
}

// StartDayOfYear sets the start day of year of a temporal record.
func StartDayOfYear(er *opdk.VerbatimRecord, tr *records.TemporalRecord) opdk.Interpretation[struct{}] {
	return apply(er, opdk.DwcStartDayOfYear, InterpretDayOfYear, func(d int32) { tr.StartDayOfYear = &d })
}

// EndDayOfYear sets the end day of year of a temporal record.
func EndDayOfYear(er *opdk.VerbatimRecord, tr *records.TemporalRecord) opdk.Interpretation[struct{}] {
	return apply(er, opdk.DwcEndDayOfYear, InterpretDayOfYear, func(d int32) { tr.EndDayOfYear = &d })
}
