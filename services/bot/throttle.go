package bot

import (
	"sync"
	"time"
)

// throttle drops messages from users typing faster than the configured
// interval. State is an explicit map keyed by Telegram ID with an
// injected clock, so tests drive it deterministically.
type throttle struct {
	interval time.Duration
	now      func() time.Time

	mutex sync.Mutex
	last  map[int64]time.Time
}

func newThrottle(interval time.Duration) *throttle {
	return &throttle{
		interval: interval,
		now:      time.Now,
		last:     make(map[int64]time.Time),
	}
}

// allow reports whether a message from the user may be handled now, and
// stamps the attempt either way.
func (t *throttle) allow(telegramID int64) bool {
	if t.interval <= 0 {
		return true
	}
	t.mutex.Lock()
	defer t.mutex.Unlock()

	now := t.now()
	last, seen := t.last[telegramID]
	t.last[telegramID] = now
	return !seen || now.Sub(last) >= t.interval
}
