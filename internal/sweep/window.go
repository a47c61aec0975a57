package sweep

import "fmt"

// MinPointCount is the smallest number of spots a laser calibration can be
// estimated from.
const MinPointCount = 2

// Window selects the point counts reported by a sweep: Start <= n < End.
type Window struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// DefaultWindow covers every point count from MinPointCount up to stepCount.
func DefaultWindow(stepCount int) Window {
	return Window{Start: MinPointCount, End: stepCount}
}

// Validate rejects empty or inverted windows.
func (w Window) Validate() error {
	if w.Start < 0 || w.End <= w.Start {
		return fmt.Errorf("%w: [%d, %d)", ErrInvalidWindow, w.Start, w.End)
	}
	return nil
}

// Contains reports whether n falls inside the window.
func (w Window) Contains(n int) bool {
	return n >= w.Start && n < w.End
}
