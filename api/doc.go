// Package api provides the HTTP REST API over service.GameService.
//
// Endpoints:
//
// Sessions:
//   - POST   /api/sessions              {"pack_id": "classic", "level": 0}
//   - GET    /api/sessions              ?sort=created|accessed&order=asc|desc&limit=N
//   - GET    /api/sessions/{id}
//   - DELETE /api/sessions/{id}
//
// Play:
//   - GET  /api/sessions/{id}/state
//   - POST /api/sessions/{id}/move       {"direction": "up", "reset": false}
//   - POST /api/sessions/{id}/bulk-move  {"moves": ["u","r","R"], "reset": false}
//   - POST /api/sessions/{id}/reset
//   - GET  /api/sessions/{id}/history    ?page=1&limit=20&order=desc
//
// Levels:
//   - POST /api/sessions/{id}/level      {"index": 2}
//   - POST /api/sessions/{id}/next
//   - POST /api/sessions/{id}/previous
//
// Level packs:
//   - GET  /api/packs
//   - GET  /api/packs/{name}
//   - POST /api/packs                    {"pack_id": "mine", "name": "...", "levels": [...]}
//
// Other:
//   - GET /ws?session={id}  websocket feed of state updates
//   - GET /healthz
//
// A blocked move is not an error: the response carries success=false and
// attempted_to naming the blocker. Errors are JSON with a status code:
//
//	{"error": "session not found: ...", "code": 404}
//
// Unknown sessions and packs map to 404, out-of-range level indices and
// invalid packs or bodies to 400, anything else to 500.
package api
