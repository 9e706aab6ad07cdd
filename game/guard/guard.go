package guard

import (
	"sync"
	"time"
)

// DefaultTimeout is how long a transition holds the lock when nothing
// signals completion
const DefaultTimeout = 500 * time.Millisecond

// Navigator is anything that can start a scene
type Navigator interface {
	Start(target string, data any)
}

// Option configures a TransitionGuard
type Option func(*TransitionGuard)

// WithTimeout sets the unlock timeout. Non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(g *TransitionGuard) {
		if d > 0 {
			g.timeout = d
		}
	}
}

// WithClock replaces the wall clock, mostly for tests
func WithClock(c Clock) Option {
	return func(g *TransitionGuard) {
		if c != nil {
			g.clock = c
		}
	}
}

// WithDropHook registers a function called once for every dropped trigger
func WithDropHook(fn func()) Option {
	return func(g *TransitionGuard) {
		g.onDrop = fn
	}
}

// TransitionGuard lets at most one scene transition run at a time
type TransitionGuard struct {
	mu       sync.Mutex
	timeout  time.Duration
	clock    Clock
	onDrop   func()
	locked   bool
	gen      uint64
	lockedAt time.Time
	timer    Timer
	dropped  int64
}

// New creates an idle guard
func New(opts ...Option) *TransitionGuard {
	g := &TransitionGuard{
		timeout: DefaultTimeout,
		clock:   SystemClock(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// IsInTransition reports whether the guard is locked
func (g *TransitionGuard) IsInTransition() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.locked
}

// LockedAt returns when the current lock was taken, or the zero time when idle
func (g *TransitionGuard) LockedAt() time.Time {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.locked {
		return time.Time{}
	}
	return g.lockedAt
}

// Dropped returns how many triggers were ignored since the guard was created
func (g *TransitionGuard) Dropped() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.dropped
}

// Timeout returns the configured unlock timeout
func (g *TransitionGuard) Timeout() time.Duration {
	return g.timeout
}

// Reset forces the guard back to idle. Pending done functions and timers from
// the cancelled lock become no-ops.
func (g *TransitionGuard) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.unlockLocked()
	g.gen++
}

// GuardAsync wraps fn so that only one invocation runs per lock. fn receives a
// done function that releases the lock; if done is never called the lock is
// released after the timeout. The returned function reports whether fn ran.
func (g *TransitionGuard) GuardAsync(fn func(done func())) func() bool {
	return func() bool {
		done, ok := g.acquire()
		if !ok {
			return false
		}
		fn(done)
		return true
	}
}

// Guard wraps fn so that only one invocation runs per lock. The lock is
// released only by the timeout.
func (g *TransitionGuard) Guard(fn func()) func() bool {
	return g.GuardAsync(func(func()) {
		fn()
	})
}

// Wrap guards a callback that takes an argument and returns a result. When the
// trigger is dropped the zero R and false are returned.
func Wrap[A, R any](g *TransitionGuard, fn func(A) R) func(A) (R, bool) {
	return func(arg A) (R, bool) {
		var result R
		ran := g.Guard(func() {
			result = fn(arg)
		})()
		return result, ran
	}
}

// GuardSceneTransition returns a guarded trigger that starts target on nav
func (g *TransitionGuard) GuardSceneTransition(nav Navigator, target string, data any) func() bool {
	return g.Guard(func() {
		nav.Start(target, data)
	})
}

func (g *TransitionGuard) acquire() (func(), bool) {
	g.mu.Lock()
	if g.locked {
		g.dropped++
		hook := g.onDrop
		g.mu.Unlock()
		if hook != nil {
			hook()
		}
		return nil, false
	}

	g.gen++
	gen := g.gen
	g.locked = true
	g.lockedAt = g.clock.Now()
	g.timer = g.clock.AfterFunc(g.timeout, func() {
		g.release(gen)
	})
	g.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { g.release(gen) })
	}, true
}

// release unlocks only if gen still owns the lock
func (g *TransitionGuard) release(gen uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.locked || g.gen != gen {
		return
	}
	g.unlockLocked()
}

func (g *TransitionGuard) unlockLocked() {
	if g.timer != nil {
		g.timer.Stop()
		g.timer = nil
	}
	g.locked = false
	g.lockedAt = time.Time{}
}
