package pricing

import "time"

// WindowState classifies a discount window relative to an instant.
type WindowState string

const (
	WindowPending WindowState = "pending"
	WindowActive  WindowState = "active"
	WindowExpired WindowState = "expired"
)

// WindowStatus is pending before start, active on [start, end] inclusive and
// expired after end.
func WindowStatus(now, start, end time.Time) WindowState {
	switch {
	case now.Before(start):
		return WindowPending
	case now.After(end):
		return WindowExpired
	default:
		return WindowActive
	}
}
