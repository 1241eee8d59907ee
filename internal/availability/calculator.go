package availability

import (
	"github.com/clinicdesk/clinic-booking/internal/schedule"
)

// Labels generates every bookable time label in a shift window at the given
// sub-interval, half-open: the window's end label is not bookable. A
// 07:30-11:30 window at 10 minutes yields 24 labels. Pure function, no
// hidden state.
func Labels(w schedule.Window, stepMinutes int) []string {
	if stepMinutes <= 0 || w.EndMin <= w.StartMin {
		return nil
	}

	labels := make([]string, 0, (w.EndMin-w.StartMin)/stepMinutes)
	for min := w.StartMin; min < w.EndMin; min += stepMinutes {
		labels = append(labels, schedule.MinutesToLabel(min))
	}
	return labels
}

// Subtract removes booked labels from the generated set, preserving order.
func Subtract(labels, booked []string) []string {
	if len(booked) == 0 {
		return labels
	}

	taken := make(map[string]struct{}, len(booked))
	for _, b := range booked {
		taken[b] = struct{}{}
	}

	free := make([]string, 0, len(labels))
	for _, l := range labels {
		if _, ok := taken[l]; !ok {
			free = append(free, l)
		}
	}
	return free
}

// ClipBefore drops labels at or before the given minute of day, used for
// same-day walk-ins where only the shift's remaining clock time is bookable.
func ClipBefore(labels []string, nowMin int) []string {
	free := make([]string, 0, len(labels))
	for _, l := range labels {
		min, err := schedule.LabelToMinutes(l)
		if err != nil {
			continue
		}
		if min > nowMin {
			free = append(free, l)
		}
	}
	return free
}
