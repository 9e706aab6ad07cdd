// Package session keeps track of running bus routes.
//
// Manager owns the in-memory set of service.Session values, keyed by a
// case-insensitive ID of 1-32 letters, digits, '-' or '_'. Blank IDs get a
// random 4-character hex ID. Every session carries its own transition guard,
// built from the options passed to SetGuardOptions.
//
// Persistence is optional. A SessionPersistence backend stores the route's
// scenario, day, scene and remaining dropoff order but never the anomaly or
// seed; both are re-derived from the day when a session is loaded, so a
// stored file cannot leak the answer. Three backends are provided:
//
//	session.NewFilePersistence("sessions")              // one JSON file per session
//	session.NewSQLitePersistence("data/sessions.db")    // modernc.org/sqlite
//	session.NewRedisPersistence("localhost:6379", "", 0, 24*time.Hour)
//
// Usage:
//
//	store, _ := session.NewFilePersistence("sessions")
//	manager := session.NewManagerWithPersistence(store)
//	manager.SetGuardOptions(guard.WithTimeout(500 * time.Millisecond))
//	sess, err := manager.Create("", "classic", scenario)
//
// Sessions missing from memory are loaded from the backend on Get.
package session
