// Package button counts clicks on a push button sampled by a polling loop.
// Time is injected, so the counter is deterministic under test.
package button

import "time"

// Default timings.
const (
	DefaultDebounce   = 20 * time.Millisecond
	DefaultMultiClick = 250 * time.Millisecond
	DefaultLongClick  = 1000 * time.Millisecond
)

// Counter turns debounced press/release samples into click counts.
//
// A gesture is reported once, on the tick it completes: a positive count
// after the button has stayed released for the multi-click window, or a
// negative count when the button is held past the long-click time.
type Counter struct {
	debounce   time.Duration
	multiClick time.Duration
	longClick  time.Duration

	lastState  bool
	depressed  bool
	lastBounce time.Time
	count      int
	clicks     int
}

// NewCounter creates a counter with the default timings.
func NewCounter(now time.Time) *Counter {
	return NewCounterWithTimings(now, DefaultDebounce, DefaultMultiClick, DefaultLongClick)
}

// NewCounterWithTimings creates a counter with explicit timings.
func NewCounterWithTimings(now time.Time, debounce, multiClick, longClick time.Duration) *Counter {
	return &Counter{
		debounce:   debounce,
		multiClick: multiClick,
		longClick:  longClick,
		lastBounce: now,
	}
}

// Update takes a sample (true = pressed) and returns the click count of a
// gesture completed on this tick, or 0.
func (c *Counter) Update(pressed bool, now time.Time) int {
	c.clicks = 0

	if pressed != c.lastState {
		c.lastBounce = now
	}
	stable := now.Sub(c.lastBounce)

	if stable > c.debounce && pressed != c.depressed {
		c.depressed = pressed
		if c.depressed {
			c.count++
		}
	}

	if !c.depressed && stable > c.multiClick {
		c.clicks = c.count
		c.count = 0
	}

	if c.depressed && stable > c.longClick {
		c.clicks = -c.count
		c.count = 0
	}

	c.lastState = pressed
	return c.clicks
}
