// Package service runs the bus route loop on top of the engine.
//
// GameService is the one entry point every transport (REST, WebSocket, MCP)
// goes through. It moves a session through the scenes of a day:
//
//	day_splash -> pickup -> investigation -> driver_return -> dropoff
//
// and, once the last passenger leaves the bus, resolves the day: a correct
// guess advances the day counter, a wrong one resets it to day 1.
//
// Scene changes run through the session's guard.TransitionGuard. While a
// transition is in flight further triggers are dropped and reported with
// TransitionResult.Ignored; nothing about the run changes for a dropped
// trigger. Clients that finish their animation early call CompleteTransition
// to release the lock before the guard's timeout.
//
// Every operation that looks a session up takes the service-wide lock
// exclusively, since the lookup stamps the last access time. Only
// ListSessions shares it. A session never sees two operations interleave.
//
// Usage:
//
//	svc := service.NewGameService(sessionManager, configManager,
//		service.WithMetrics(metrics.New()))
//
//	info, _ := svc.CreateSession(ctx, "classic")
//	svc.Advance(ctx, info.ID)               // day_splash -> pickup
//	svc.Advance(ctx, info.ID)               // pickup -> investigation
//	svc.Accuse(ctx, info.ID, "kid")         // investigation -> driver_return
//	svc.Advance(ctx, info.ID)               // driver_return -> dropoff
//	for {
//		res, _ := svc.Dropoff(ctx, info.ID)
//		if res.Resolved {
//			break
//		}
//	}
package service
