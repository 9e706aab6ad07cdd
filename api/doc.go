// Package api exposes the game service over HTTP.
//
// Endpoints:
//
// Sessions:
//   - POST   /api/sessions                          {"scenario_id":"classic"} (optional)
//   - GET    /api/sessions?sort=created|accessed&order=asc|desc&limit=N
//   - GET    /api/sessions/{id}
//   - DELETE /api/sessions/{id}
//
// Scene flow:
//   - GET  /api/sessions/{id}/state                 current RunView
//   - POST /api/sessions/{id}/advance               day_splash, pickup and driver_return
//   - POST /api/sessions/{id}/interrogate           {"passenger_id":"kid"}, investigation only
//   - POST /api/sessions/{id}/accuse                {"passenger_id":"kid"} or "NONE" (day 1: NONE only)
//   - POST /api/sessions/{id}/dropoff               one passenger per call
//   - POST /api/sessions/{id}/transition/complete   the client finished animating
//   - POST /api/sessions/{id}/transition/reset      release a stuck guard
//
// Scenarios:
//   - GET  /api/scenarios
//   - GET  /api/scenarios/{name}
//   - POST /api/scenarios                           {"scenario_id":"...","scenario":{...}}
//
// Other:
//   - GET /ws?session={id}   live updates, see package websocket
//   - GET /metrics           Prometheus exposition
//   - GET /healthz
//
// A trigger dropped by the transition guard is not an error: the response is
// 200 with "ignored": true and the session is unchanged.
//
// Errors are returned as {"error": "..."} with:
//   - 400 for unknown passengers, invalid scenarios and malformed bodies
//   - 404 for unknown sessions and scenarios
//   - 409 for operations the current scene does not allow, and for naming a
//     passenger on day 1
package api
