package availability

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/clinicdesk/clinic-booking/internal/schedule"
)

func TestLabelsHalfOpenWindow(t *testing.T) {
	w := schedule.Window{StartMin: 450, EndMin: 690} // 07:30-11:30

	labels := Labels(w, 10)

	assert.Len(t, labels, 24)
	assert.Equal(t, "07:30", labels[0])
	assert.Equal(t, "11:20", labels[len(labels)-1])
	assert.NotContains(t, labels, "11:30")
}

func TestLabelsDegenerateInputs(t *testing.T) {
	assert.Nil(t, Labels(schedule.Window{StartMin: 600, EndMin: 600}, 10))
	assert.Nil(t, Labels(schedule.Window{StartMin: 700, EndMin: 600}, 10))
	assert.Nil(t, Labels(schedule.Window{StartMin: 450, EndMin: 690}, 0))
}

func TestSubtractPreservesOrder(t *testing.T) {
	labels := []string{"07:30", "07:40", "07:50", "08:00"}

	free := Subtract(labels, []string{"07:40", "08:00"})
	assert.Equal(t, []string{"07:30", "07:50"}, free)

	// nothing booked: untouched
	assert.Equal(t, labels, Subtract(labels, nil))
}

func TestSubtractAllBooked(t *testing.T) {
	labels := []string{"07:30", "07:40"}
	free := Subtract(labels, []string{"07:30", "07:40"})
	assert.Empty(t, free)
}

func TestClipBeforeDropsElapsedLabels(t *testing.T) {
	labels := []string{"07:30", "07:40", "07:50", "08:00"}

	// clock at exactly 07:40: that label is gone too
	free := ClipBefore(labels, 460)
	assert.Equal(t, []string{"07:50", "08:00"}, free)

	assert.Empty(t, ClipBefore(labels, 480))
	assert.Equal(t, labels, ClipBefore(labels, 0))
}
