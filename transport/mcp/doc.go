// Package mcp exposes the game to AI agents over the Model Context Protocol.
//
// Client registers one MCP tool per game operation and forwards each call to
// the REST API, so the agent sees exactly what HTTP clients see:
//   - create_session, get_session, list_sessions
//   - game_state, move, bulk_move, reset_level
//   - select_level, next_level, previous_level
//   - move_history, list_packs, game_instructions, describe_cell
//
// Results are rendered as plain text: the board in Sokoban symbols, the
// counters, the LURD record of the current attempt and any level events.
//
// The server runs either over stdio or behind the /mcp HTTP endpoint:
//
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
package mcp
