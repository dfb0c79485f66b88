// Package websocket pushes live session updates to browser clients.
//
// A single Hub owns the registry of connections, keyed by session ID. Every
// registration, removal and broadcast is serialized through the Run loop, so
// the registry needs no lock. Each connection gets its own read and write
// goroutines.
//
// Clients connect with ?session=<id>. The server sends the current state on
// connect and then one "state_update" frame after every change to the
// session, carrying the new GameState and the level events that produced it:
//
//	{"type":"state_update","session_id":"ab12","game_state":{...},
//	 "events":[{"type":"move-started",...},{"type":"move-ended",...}]}
//
// Usage:
//
//	hub := websocket.NewHub(logger)
//	go hub.Run()
//	defer hub.Stop()
//
//	hub.ServeWS(w, r, sessionID, state)
//	hub.BroadcastToSession(sessionID, state, events)
package websocket
