package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLabelRoundTrip(t *testing.T) {
	tests := []struct {
		label string
		min   int
	}{
		{"00:00", 0},
		{"07:30", 450},
		{"13:40", 820},
		{"23:50", 1430},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			min, err := LabelToMinutes(tt.label)
			assert.NoError(t, err)
			assert.Equal(t, tt.min, min)
			assert.Equal(t, tt.label, MinutesToLabel(tt.min))
		})
	}
}

func TestLabelToMinutesRejectsGarbage(t *testing.T) {
	for _, label := range []string{"", "7:3", "25:00", "aa:bb", "07:30:00"} {
		if _, err := LabelToMinutes(label); err == nil {
			t.Fatalf("expected error for %q", label)
		}
	}
}

func TestWindowContainsIsHalfOpen(t *testing.T) {
	w := Window{StartMin: 450, EndMin: 690} // 07:30-11:30

	assert.True(t, w.Contains(450))
	assert.True(t, w.Contains(689))
	assert.False(t, w.Contains(690))
	assert.False(t, w.Contains(449))
}

func TestMonthKey(t *testing.T) {
	day := time.Date(2026, time.March, 5, 14, 0, 0, 0, time.UTC)
	assert.Equal(t, "2026-03", MonthKey(day))
}
