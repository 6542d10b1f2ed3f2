package core

import "time"

// Clock measures wall-clock time between frames. The animator's playback
// position is advanced by the delta it reports, never read from it
// directly, which keeps pose evaluation a pure function of time.
type Clock struct {
	startTime  time.Time
	lastUpdate time.Time
	elapsed    float64
	delta      float64
}

func NewClock() *Clock {
	return &Clock{}
}

// Starts the provided clock. Resets elapsed time.
func (c *Clock) Start() {
	c.startTime = time.Now()
	c.lastUpdate = c.startTime
	c.elapsed = 0
	c.delta = 0
}

// Updates the provided clock. Should be called once per frame, just before
// checking elapsed or delta time. Has no effect on non-started clocks.
func (c *Clock) Update() {
	if c.startTime.IsZero() {
		return
	}
	now := time.Now()
	c.delta = now.Sub(c.lastUpdate).Seconds()
	c.elapsed = now.Sub(c.startTime).Seconds()
	c.lastUpdate = now
}

// Stops the provided clock. Does not reset elapsed time.
func (c *Clock) Stop() {
	c.startTime = time.Time{}
	c.delta = 0
}

// Elapsed returns seconds since Start.
func (c *Clock) Elapsed() float64 {
	return c.elapsed
}

// Delta returns seconds between the last two Update calls.
func (c *Clock) Delta() float64 {
	return c.delta
}
