package bot

import (
	"testing"
	"time"
)

func Test_throttle(t *testing.T) {
	th := newThrottle(time.Second)
	now := time.Date(2023, time.September, 7, 12, 0, 0, 0, time.UTC)
	th.now = func() time.Time { return now }

	if !th.allow(1) {
		t.Error("first message must pass")
	}
	now = now.Add(300 * time.Millisecond)
	if th.allow(1) {
		t.Error("rapid second message must be dropped")
	}
	// other users are not affected
	if !th.allow(2) {
		t.Error("other user must pass")
	}
	now = now.Add(time.Second)
	if !th.allow(1) {
		t.Error("message after the interval must pass")
	}
}

func Test_throttle_disabled(t *testing.T) {
	th := newThrottle(0)
	for i := 0; i < 3; i++ {
		if !th.allow(1) {
			t.Fatal("zero interval must never drop")
		}
	}
}
