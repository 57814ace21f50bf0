package cooldown

import (
	"testing"
	"time"
)

type fakeClock struct{ now time.Time }

func (f fakeClock) Now() time.Time { return f.now }

func TestCheckRejectsWithinWindow(t *testing.T) {
	ledger := NewLedger()
	start := time.Unix(0, 0)
	ledger.WithClock(fakeClock{now: start})

	if res := ledger.Check("clear", "u1", 10*time.Second, false); !res.Allowed {
		t.Fatalf("first invocation must be allowed")
	}

	ledger.WithClock(fakeClock{now: start.Add(4 * time.Second)})
	res := ledger.Check("clear", "u1", 10*time.Second, false)
	if res.Allowed {
		t.Fatalf("second invocation within window must be rejected")
	}
	if res.Remaining != 6*time.Second {
		t.Fatalf("expected 6s remaining, got %v", res.Remaining)
	}
}

func TestRejectionDoesNotResetWindow(t *testing.T) {
	ledger := NewLedger()
	start := time.Unix(0, 0)
	ledger.WithClock(fakeClock{now: start})
	ledger.Check("clear", "u1", 10*time.Second, false)

	ledger.WithClock(fakeClock{now: start.Add(9 * time.Second)})
	if res := ledger.Check("clear", "u1", 10*time.Second, false); res.Allowed {
		t.Fatalf("expected rejection at 9s")
	}

	// The rejection at 9s must not have pushed the window start forward.
	ledger.WithClock(fakeClock{now: start.Add(11 * time.Second)})
	if res := ledger.Check("clear", "u1", 10*time.Second, false); !res.Allowed {
		t.Fatalf("expected allowance after original window elapsed")
	}
}

func TestWindowResetsOnAllowedInvocation(t *testing.T) {
	ledger := NewLedger()
	start := time.Unix(0, 0)
	ledger.WithClock(fakeClock{now: start})
	ledger.Check("clear", "u1", 10*time.Second, false)

	ledger.WithClock(fakeClock{now: start.Add(11 * time.Second)})
	ledger.Check("clear", "u1", 10*time.Second, false)

	ledger.WithClock(fakeClock{now: start.Add(12 * time.Second)})
	if res := ledger.Check("clear", "u1", 10*time.Second, false); res.Allowed {
		t.Fatalf("expected rejection inside the fresh window")
	}
}

func TestBypassNeverRecords(t *testing.T) {
	ledger := NewLedger()
	start := time.Unix(0, 0)
	ledger.WithClock(fakeClock{now: start})

	if res := ledger.Check("clear", "owner", 10*time.Second, true); !res.Allowed {
		t.Fatalf("bypass must be allowed")
	}
	if res := ledger.Check("clear", "owner", 10*time.Second, true); !res.Allowed {
		t.Fatalf("bypass must be allowed repeatedly")
	}
	if ledger.Len() != 0 {
		t.Fatalf("bypassed checks must not record entries, got %d", ledger.Len())
	}
}

func TestUsersAndCommandsAreIndependent(t *testing.T) {
	ledger := NewLedger()
	start := time.Unix(0, 0)
	ledger.WithClock(fakeClock{now: start})

	ledger.Check("clear", "u1", 10*time.Second, false)
	if res := ledger.Check("clear", "u2", 10*time.Second, false); !res.Allowed {
		t.Fatalf("different user must not share the window")
	}
	if res := ledger.Check("restore", "u1", 10*time.Second, false); !res.Allowed {
		t.Fatalf("different command must not share the window")
	}
}
