// Package engine provides the deterministic day state for the Anomaly Bus game.
//
// The engine package implements:
//   - A mulberry32 seeded stream (SeededStream) that reproduces the same
//     sequence for the same seed on every platform
//   - RunState, the per-day object holding the roster snapshot, the hidden
//     anomaly, the dropoff order and the player's guess
//   - The day-transition policy (NextDay, Resolve)
//   - Scenario loading and validation
//
// Determinism:
//
// Each day's seed is BaseSeed + day. Initialize draws the anomaly first and
// then shuffles the dropoff order from the same stream, so a day number and a
// roster always produce the same anomaly and the same dropoff order.
//
// Usage:
//
//	scenario, err := engine.LoadScenarioByName("classic")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	run, err := engine.NewDay(2, scenario.Passengers)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	run.SetGuess("kid")
//	next, outcome, err := engine.Resolve(run, scenario.Passengers)
//
// Game Rules:
//
// Day 1 never has an anomaly; the correct play is to trust everyone
// (NoAnomalyGuess). From day 2 on exactly one passenger is the anomaly. A
// correct guess advances the day up to MaxDay and then wraps to day 1; a wrong
// guess sends the player back to day 1.
package engine
