// Package guard provides a single-flight guard for scene-advancing callbacks.
//
// A TransitionGuard has two states, idle and locked. The first trigger takes
// the lock and runs its callback; every trigger that arrives while the guard
// is locked is dropped without running. The lock is released when the
// callback's completion signal fires or when the timeout elapses, whichever
// comes first.
//
// Usage:
//
//	g := guard.New(guard.WithTimeout(500 * time.Millisecond))
//
//	onClick := g.GuardAsync(func(done func()) {
//		fadeOut(func() {
//			nav.Start("pickup", nil)
//			done()
//		})
//	})
//
//	onClick() // runs
//	onClick() // dropped, returns false
//
// Guard wraps a callback that has no completion signal; it unlocks on the
// timer only. Wrap does the same for callbacks that take an argument and
// return a value.
//
// Each game owns exactly one guard. A guard is safe for concurrent use.
package guard
