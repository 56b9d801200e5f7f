package schedule

import "time"

// Day reduces t to its calendar date in t's location, encoded as a UTC
// midnight. The canonical encoding survives database round-trips unchanged
// whatever the server timezone is, so date equality stays instant equality.
func Day(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// NextDue returns the next date at or after anchor whose weekday is in the
// set. Deterministic: depends only on the arguments, never on the wall
// clock. The anchor must already be in the caller's local calendar.
func NextDue(f Frequency, anchor time.Time) (time.Time, error) {
	if f.IsEmpty() {
		return time.Time{}, ErrEmptyFrequency
	}
	day := Day(anchor)
	for i := 0; i < 7; i++ {
		if f.Contains(fromTime(day.Weekday())) {
			return day, nil
		}
		day = day.AddDate(0, 0, 1)
	}
	return time.Time{}, ErrEmptyFrequency
}

// PrevDue returns the latest generated date strictly before the given date.
func PrevDue(f Frequency, date time.Time) (time.Time, error) {
	if f.IsEmpty() {
		return time.Time{}, ErrEmptyFrequency
	}
	day := Day(date).AddDate(0, 0, -1)
	for i := 0; i < 7; i++ {
		if f.Contains(fromTime(day.Weekday())) {
			return day, nil
		}
		day = day.AddDate(0, 0, -1)
	}
	return time.Time{}, ErrEmptyFrequency
}

// Iterator walks the due dates of a frequency in ascending order within a
// window. It is cheap to create, so callers can restart traversal by
// building a fresh one.
type Iterator struct {
	freq Frequency
	next time.Time
	to   time.Time
	done bool
}

// Iterate positions an iterator at the first due date at or after from.
// The window end is inclusive.
func Iterate(f Frequency, from, to time.Time) (*Iterator, error) {
	first, err := NextDue(f, from)
	if err != nil {
		return nil, err
	}
	return &Iterator{freq: f, next: first, to: Day(to)}, nil
}

// Next yields the following due date, or false once the window is exhausted.
func (it *Iterator) Next() (time.Time, bool) {
	if it.done || it.next.After(it.to) {
		it.done = true
		return time.Time{}, false
	}
	current := it.next
	next, err := NextDue(it.freq, current.AddDate(0, 0, 1))
	if err != nil {
		it.done = true
	} else {
		it.next = next
	}
	return current, true
}

// Generate collects every due date in [from, to], strictly increasing, one
// per matching weekday per week. If from is not itself a matching weekday
// the sequence starts at the next matching one.
func Generate(f Frequency, from, to time.Time) ([]time.Time, error) {
	it, err := Iterate(f, from, to)
	if err != nil {
		return nil, err
	}
	var dates []time.Time
	for {
		date, ok := it.Next()
		if !ok {
			return dates, nil
		}
		dates = append(dates, date)
	}
}
