package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateJSON(t *testing.T) {
	var b Booking
	err := json.Unmarshal([]byte(`{"start_date":"2024-01-10","end_date":"2024-01-12"}`), &b)
	require.NoError(t, err)
	assert.Equal(t, NewDate(2024, time.January, 10), b.StartDate)
	assert.Equal(t, NewDate(2024, time.January, 12), b.EndDate)

	out, err := json.Marshal(b.StartDate)
	require.NoError(t, err)
	assert.Equal(t, `"2024-01-10"`, string(out))
}

func TestDateJSON_Rejects(t *testing.T) {
	for _, raw := range []string{`"2024-13-01"`, `"10/01/2024"`, `20240110`, `"2024-01-10T00:00:00Z"`} {
		var d Date
		assert.Error(t, json.Unmarshal([]byte(raw), &d), raw)
	}
}

func TestDateScan(t *testing.T) {
	var d Date
	require.NoError(t, d.Scan(time.Date(2024, time.March, 5, 23, 0, 0, 0, time.UTC)))
	assert.Equal(t, NewDate(2024, time.March, 5), d)

	require.NoError(t, d.Scan([]byte("2023-12-31")))
	assert.Equal(t, NewDate(2023, time.December, 31), d)

	assert.Error(t, d.Scan(42))
}

func TestDaysSince(t *testing.T) {
	tests := []struct {
		name string
		from Date
		to   Date
		want int
	}{
		{"same day", NewDate(2024, 1, 1), NewDate(2024, 1, 1), 0},
		{"two days", NewDate(2024, 1, 10), NewDate(2024, 1, 12), 2},
		{"leap year", NewDate(2024, 1, 1), NewDate(2025, 1, 1), 366},
		{"backwards", NewDate(2024, 1, 12), NewDate(2024, 1, 10), -2},
		{"four centuries", NewDate(1700, 1, 1), NewDate(2100, 1, 1), 146097},
		{"whole calendar", NewDate(0, 1, 1), NewDate(9999, 12, 31), 3652424},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.to.DaysSince(tt.from))
		})
	}
}
