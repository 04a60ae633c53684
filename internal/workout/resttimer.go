package workout

import (
	"context"
	"sync"
	"time"
)

// adjustStepSeconds is the increment the rest timer can be nudged by.
const adjustStepSeconds = 15

// countdown is the pure state of a rest timer. Separated from the ticking
// goroutine so the arithmetic is testable without sleeping.
type countdown struct {
	totalSeconds     int
	remainingSeconds int
}

func newCountdown(seconds int) countdown {
	return countdown{totalSeconds: seconds, remainingSeconds: seconds}
}

// tick advances the countdown by one second and reports whether it expired.
func (c *countdown) tick() bool {
	if c.remainingSeconds > 0 {
		c.remainingSeconds--
	}
	return c.remainingSeconds <= 0
}

// adjust nudges the remaining time. Remaining floors at zero and the total
// floors at one so percentage-complete math never divides by zero.
func (c *countdown) adjust(deltaSeconds int) {
	c.remainingSeconds += deltaSeconds
	if c.remainingSeconds < 0 {
		c.remainingSeconds = 0
	}
	c.totalSeconds += deltaSeconds
	if c.totalSeconds < 1 {
		c.totalSeconds = 1
	}
}

// RestTimerStatus is a snapshot of the running rest timer for display.
type RestTimerStatus struct {
	RemainingSeconds int
	TotalSeconds     int
	Running          bool
}

// restTimer counts down between sets. Expiry fires the callback once; skip
// and expiry are both terminal and neither blocks further set logging.
type restTimer struct {
	mu      sync.Mutex
	state   countdown
	done    bool
	cancel  chan struct{}
	expired func()
}

// startRestTimer launches a rest timer ticking once per second. The expired
// callback runs on the timer's goroutine.
func startRestTimer(ctx context.Context, seconds int, expired func()) *restTimer {
	t := &restTimer{
		state:   newCountdown(seconds),
		cancel:  make(chan struct{}),
		expired: expired,
	}
	go t.run(ctx)
	return t
}

func (t *restTimer) run(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.cancel:
			return
		case <-ticker.C:
			if t.tickOnce() {
				if t.expired != nil {
					t.expired()
				}
				return
			}
		}
	}
}

func (t *restTimer) tickOnce() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return false
	}
	if t.state.tick() {
		t.done = true
		return true
	}
	return false
}

// Adjust nudges the remaining rest by the given number of seconds, normally
// a multiple of the 15-second step.
func (t *restTimer) Adjust(deltaSeconds int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return
	}
	t.state.adjust(deltaSeconds)
}

// Skip ends the timer immediately without firing the expiry callback.
func (t *restTimer) Skip() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return
	}
	t.done = true
	close(t.cancel)
}

// Status reports the current countdown state.
func (t *restTimer) Status() RestTimerStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	return RestTimerStatus{
		RemainingSeconds: t.state.remainingSeconds,
		TotalSeconds:     t.state.totalSeconds,
		Running:          !t.done,
	}
}
