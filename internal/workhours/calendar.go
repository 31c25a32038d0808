// Package workhours computes how much of a time interval falls inside a
// configured business-hours window.
package workhours

import "time"

// Window describes the weekly business-hours window. Open and Close are
// offsets from local midnight; Close is exclusive. Days outside the
// weekday set contribute nothing.
type Window struct {
	Weekdays map[time.Weekday]bool
	Open     time.Duration
	Close    time.Duration
}

// DefaultWindow returns the standard Mon-Fri 09:00-17:00 window.
func DefaultWindow() Window {
	return Window{
		Weekdays: map[time.Weekday]bool{
			time.Monday:    true,
			time.Tuesday:   true,
			time.Wednesday: true,
			time.Thursday:  true,
			time.Friday:    true,
		},
		Open:  9 * time.Hour,
		Close: 17 * time.Hour,
	}
}

// DailySeconds returns the length of one full working day in seconds.
func (w Window) DailySeconds() int64 {
	if w.Close <= w.Open {
		return 0
	}
	return int64((w.Close - w.Open) / time.Second)
}

// WorkSeconds returns the number of seconds of [start, end) that fall
// inside the window, evaluated in start's location. It walks every
// calendar day the interval touches, so spans of any length are summed
// correctly. A malformed interval (end before start) counts as zero;
// noisy upstream logs are expected and not reportable errors.
func (w Window) WorkSeconds(start, end time.Time) int64 {
	if !end.After(start) {
		return 0
	}

	end = end.In(start.Location())
	var total time.Duration

	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
	for day.Before(end) {
		next := day.AddDate(0, 0, 1)
		if w.Weekdays[day.Weekday()] {
			open := day.Add(w.Open)
			close := day.Add(w.Close)

			from := start
			if open.After(from) {
				from = open
			}
			to := end
			if close.Before(to) {
				to = close
			}
			if to.After(from) {
				total += to.Sub(from)
			}
		}
		day = next
	}

	return int64(total / time.Second)
}
