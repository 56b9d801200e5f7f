package schedule

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrEmptyFrequency is returned when a frequency contains no weekdays.
var ErrEmptyFrequency = errors.New("frequency must contain at least one weekday")

// Weekday is a day of the week, Monday-first (mon=0 .. sun=6).
type Weekday int

const (
	Monday Weekday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var weekdayTags = [7]string{"mon", "tue", "wed", "thu", "fri", "sat", "sun"}

// ParseWeekday maps a tag like "mon" or "fri" to a Weekday.
func ParseWeekday(tag string) (Weekday, error) {
	normalized := strings.ToLower(strings.TrimSpace(tag))
	for i, name := range weekdayTags {
		if name == normalized {
			return Weekday(i), nil
		}
	}
	return 0, fmt.Errorf("invalid weekday %q, must be one of: %s", tag, strings.Join(weekdayTags[:], ", "))
}

func (d Weekday) String() string {
	if d < Monday || d > Sunday {
		return fmt.Sprintf("weekday(%d)", int(d))
	}
	return weekdayTags[d]
}

// Time converts to the stdlib weekday numbering (Sunday=0).
func (d Weekday) Time() time.Weekday {
	return time.Weekday((int(d) + 1) % 7)
}

func fromTime(w time.Weekday) Weekday {
	return Weekday((int(w) + 6) % 7)
}

// Frequency is a set of weekdays a task repeats on, stored as a bitmask.
// The zero value is the empty set and is rejected by the generator.
type Frequency uint8

// NewFrequency builds a frequency from the given weekdays.
func NewFrequency(days ...Weekday) Frequency {
	var f Frequency
	for _, d := range days {
		f |= 1 << uint(d)
	}
	return f
}

// ParseFrequency parses a list of weekday tags into a frequency.
// The set must be non-empty; duplicates are allowed and collapse.
func ParseFrequency(tags []string) (Frequency, error) {
	var f Frequency
	for _, tag := range tags {
		day, err := ParseWeekday(tag)
		if err != nil {
			return 0, err
		}
		f |= 1 << uint(day)
	}
	if f == 0 {
		return 0, ErrEmptyFrequency
	}
	return f, nil
}

func (f Frequency) Contains(d Weekday) bool {
	return f&(1<<uint(d)) != 0
}

func (f Frequency) IsEmpty() bool {
	return f == 0
}

// Days lists the weekdays in the set in mon..sun order.
func (f Frequency) Days() []Weekday {
	days := make([]Weekday, 0, 7)
	for d := Monday; d <= Sunday; d++ {
		if f.Contains(d) {
			days = append(days, d)
		}
	}
	return days
}

// String renders the canonical comma-joined form, e.g. "mon,wed,fri".
func (f Frequency) String() string {
	days := f.Days()
	tags := make([]string, len(days))
	for i, d := range days {
		tags[i] = d.String()
	}
	return strings.Join(tags, ",")
}

// Value stores the frequency as its canonical text form.
func (f Frequency) Value() (driver.Value, error) {
	return f.String(), nil
}

// Scan restores a frequency from its text column.
func (f *Frequency) Scan(src interface{}) error {
	var raw string
	switch v := src.(type) {
	case string:
		raw = v
	case []byte:
		raw = string(v)
	case nil:
		*f = 0
		return nil
	default:
		return fmt.Errorf("scan frequency: unsupported type %T", src)
	}
	if strings.TrimSpace(raw) == "" {
		*f = 0
		return nil
	}
	parsed, err := ParseFrequency(strings.Split(raw, ","))
	if err != nil {
		return fmt.Errorf("scan frequency: %w", err)
	}
	*f = parsed
	return nil
}

// MarshalJSON renders the set as a JSON array of tags.
func (f Frequency) MarshalJSON() ([]byte, error) {
	days := f.Days()
	tags := make([]string, len(days))
	for i, d := range days {
		tags[i] = d.String()
	}
	return json.Marshal(tags)
}

func (f *Frequency) UnmarshalJSON(data []byte) error {
	var tags []string
	if err := json.Unmarshal(data, &tags); err != nil {
		return err
	}
	parsed, err := ParseFrequency(tags)
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}
