package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFrequency_Canonical(t *testing.T) {
	freq, err := ParseFrequency([]string{"fri", "MON", " wed "})
	require.NoError(t, err)

	assert.Equal(t, "mon,wed,fri", freq.String())
	assert.True(t, freq.Contains(Monday))
	assert.True(t, freq.Contains(Wednesday))
	assert.True(t, freq.Contains(Friday))
	assert.False(t, freq.Contains(Sunday))
}

func TestParseFrequency_DuplicatesCollapse(t *testing.T) {
	freq, err := ParseFrequency([]string{"tue", "tue", "tue"})
	require.NoError(t, err)
	assert.Equal(t, []Weekday{Tuesday}, freq.Days())
}

func TestParseFrequency_EmptyRejected(t *testing.T) {
	_, err := ParseFrequency(nil)
	assert.ErrorIs(t, err, ErrEmptyFrequency)

	_, err = ParseFrequency([]string{})
	assert.ErrorIs(t, err, ErrEmptyFrequency)
}

func TestParseFrequency_UnknownTagRejected(t *testing.T) {
	_, err := ParseFrequency([]string{"mon", "funday"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "funday")
}

func TestWeekday_TimeConversion(t *testing.T) {
	assert.Equal(t, time.Monday, Monday.Time())
	assert.Equal(t, time.Sunday, Sunday.Time())
	assert.Equal(t, time.Saturday, Saturday.Time())
}

func TestFrequency_SQLRoundTrip(t *testing.T) {
	freq := NewFrequency(Tuesday, Saturday)

	value, err := freq.Value()
	require.NoError(t, err)
	assert.Equal(t, "tue,sat", value)

	var restored Frequency
	require.NoError(t, restored.Scan("tue,sat"))
	assert.Equal(t, freq, restored)

	require.NoError(t, restored.Scan([]byte("sun")))
	assert.Equal(t, NewFrequency(Sunday), restored)
}

func TestFrequency_ScanEmpty(t *testing.T) {
	var freq Frequency
	require.NoError(t, freq.Scan(""))
	assert.True(t, freq.IsEmpty())

	require.NoError(t, freq.Scan(nil))
	assert.True(t, freq.IsEmpty())
}

func TestFrequency_JSONRoundTrip(t *testing.T) {
	freq := NewFrequency(Monday, Sunday)

	data, err := freq.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `["mon","sun"]`, string(data))

	var restored Frequency
	require.NoError(t, restored.UnmarshalJSON(data))
	assert.Equal(t, freq, restored)
}

func TestFrequency_UnmarshalEmptyRejected(t *testing.T) {
	var freq Frequency
	err := freq.UnmarshalJSON([]byte(`[]`))
	assert.ErrorIs(t, err, ErrEmptyFrequency)
}
