package model

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		raw  string
		want time.Time
	}{
		{"2024-03-05 14:07:00", time.Date(2024, 3, 5, 14, 7, 0, 0, time.UTC)},
		{"2024-03-05T14:07:00+05:30", time.Date(2024, 3, 5, 8, 37, 0, 0, time.UTC)},
		{"2024-03-05", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)},
		{"02/01/2024 10:30", time.Date(2024, 2, 1, 10, 30, 0, 0, time.UTC)},
		{"02/01/2024", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)},
		{"25/01/2024 10:30", time.Date(2024, 1, 25, 10, 30, 0, 0, time.UTC)},
		{"  2024-03-05 14:07:00 ", time.Date(2024, 3, 5, 14, 7, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.True(t, tt.want.Equal(ParseTimestamp(tt.raw)), "got %v", ParseTimestamp(tt.raw))
		})
	}

	for _, raw := range []string{"", "yesterday", "31/31/2024"} {
		assert.True(t, ParseTimestamp(raw).IsZero(), raw)
	}
}

func TestParseScore(t *testing.T) {
	assert.Equal(t, 0.85, ParseScore(" 0.85 "))
	assert.True(t, math.IsNaN(ParseScore("")))
	assert.True(t, math.IsNaN(ParseScore("high")))
	assert.Equal(t, "", FormatScore(math.NaN()))
	assert.Equal(t, "0.5", FormatScore(0.5))
}
