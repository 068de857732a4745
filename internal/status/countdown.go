package status

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Countdown derives the remaining payment time from an expiry timestamp. It
// never touches the transaction; it only reports expiry through onExpire.
type Countdown struct {
	deadline time.Time
	clock    Clock
	onExpire func()
	onTick   func(string)

	mu    sync.Mutex
	fired bool
}

// CountdownOption configures a Countdown.
type CountdownOption func(*Countdown)

func WithCountdownClock(c Clock) CountdownOption {
	return func(cd *Countdown) { cd.clock = c }
}

// WithTickHandler receives the HH:MM:SS display after every tick.
func WithTickHandler(fn func(string)) CountdownOption {
	return func(cd *Countdown) { cd.onTick = fn }
}

func NewCountdown(deadline time.Time, onExpire func(), opts ...CountdownOption) *Countdown {
	cd := &Countdown{
		deadline: deadline,
		clock:    SystemClock{},
		onExpire: onExpire,
	}
	for _, opt := range opts {
		opt(cd)
	}
	return cd
}

func (c *Countdown) Deadline() time.Time { return c.deadline }

// Remaining is the time left at now, never negative.
func (c *Countdown) Remaining(now time.Time) time.Duration {
	d := c.deadline.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// Expired reports whether onExpire has fired.
func (c *Countdown) Expired() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fired
}

// Tick recomputes the display for now. The first tick at or past the
// deadline fires onExpire; later ticks keep showing 00:00:00.
func (c *Countdown) Tick(now time.Time) string {
	remaining := c.Remaining(now)

	if remaining == 0 {
		c.mu.Lock()
		first := !c.fired
		c.fired = true
		c.mu.Unlock()
		if first && c.onExpire != nil {
			c.onExpire()
		}
	}

	display := FormatRemaining(remaining)
	if c.onTick != nil {
		c.onTick(display)
	}
	return display
}

// Run ticks once per second until ctx is done.
func (c *Countdown) Run(ctx context.Context) {
	c.Tick(c.clock.Now())

	ticker := c.clock.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			c.Tick(c.clock.Now())
		}
	}
}

// FormatRemaining renders d as HH:MM:SS, rounding partial seconds up so
// 00:00:00 only shows once the deadline has passed. Hours are not wrapped at 24.
func FormatRemaining(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64((d + time.Second - 1) / time.Second)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
