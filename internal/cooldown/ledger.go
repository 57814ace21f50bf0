package cooldown

import (
	"sync"
	"time"
)

type entry struct {
	lastUsed time.Time
	window   time.Duration
}

// Ledger tracks the last successful invocation per (command, user) pair.
// Entries are evicted lazily on lookup and by a deferred timer; correctness
// never depends on eviction because every check compares timestamp deltas.
type Ledger struct {
	mu      sync.Mutex
	clock   Clock
	entries map[string]*entry
}

type Result struct {
	Allowed   bool
	Remaining time.Duration
}

type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func NewLedger() *Ledger {
	return &Ledger{
		clock:   realClock{},
		entries: make(map[string]*entry),
	}
}

func (l *Ledger) WithClock(clock Clock) {
	l.clock = clock
}

// Check applies the cooldown window for one invocation. A bypassed check is
// always allowed and never records a timestamp. A rejected check does not
// reset the window start.
func (l *Ledger) Check(commandName, userID string, window time.Duration, bypass bool) Result {
	if bypass || window <= 0 {
		return Result{Allowed: true}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	key := commandName + ":" + userID
	now := l.clock.Now()

	if item := l.entries[key]; item != nil {
		elapsed := now.Sub(item.lastUsed)
		if elapsed < item.window {
			return Result{Allowed: false, Remaining: item.window - elapsed}
		}
	}

	l.entries[key] = &entry{lastUsed: now, window: window}
	l.scheduleEviction(key, window)
	return Result{Allowed: true}
}

func (l *Ledger) scheduleEviction(key string, window time.Duration) {
	time.AfterFunc(window, func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		item := l.entries[key]
		if item == nil {
			return
		}
		if l.clock.Now().Sub(item.lastUsed) >= item.window {
			delete(l.entries, key)
		}
	})
}

func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
