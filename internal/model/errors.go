package model

import "errors"

// Error kinds. Callers wrap these with fmt.Errorf("%w: ...") and match them
// with errors.Is.
var (
	// ErrConfiguration covers missing or conflicting location flags and
	// malformed coordinate or override strings.
	ErrConfiguration = errors.New("configuration error")
	// ErrLookup means a city is absent from the bundled dataset.
	ErrLookup = errors.New("lookup error")
	// ErrCalculation means the provider could not produce a schedule.
	ErrCalculation = errors.New("calculation error")
	// ErrAmbiguousLocalTime means a wall-clock time falls into a daylight
	// saving gap or overlap.
	ErrAmbiguousLocalTime = errors.New("ambiguous local time")
	// ErrNotification means delivery of an alert failed. It is the only
	// recoverable kind.
	ErrNotification = errors.New("notification error")
)

// IsRecoverable reports whether err should be logged and skipped rather than
// terminate the process.
func IsRecoverable(err error) bool {
	return errors.Is(err, ErrNotification)
}
