// Package websocket pushes live session updates to browser and bot clients.
//
// A Hub keeps the connected clients grouped by session ID. After every
// operation that changes a session the API calls BroadcastToSession with the
// session's RunView and the events the operation produced:
//
//	{"session_id":"ab12","event":"state_update","view":{...},"events":[...]}
//
// Clients connect with /ws?session=ab12 and may send actions back:
//
//	{"type":"transition_complete"}
//	{"type":"accuse","payload":{"passenger_id":"kid"}}
//
// Actions go to the ActionHandler installed with SetActionHandler; the API
// server routes them to the game service. transition_complete is how a
// renderer tells the server its scene animation has finished.
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run(ctx)
//	router.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
//		hub.ServeWS(w, r, r.URL.Query().Get("session"))
//	})
//
// Client bookkeeping only happens on the Run goroutine. Broadcasts are queued
// and never block the caller; when the queue is full updates are dropped.
package websocket
