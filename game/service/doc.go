// Package service provides the business logic layer for the Storekeeper server.
//
// The service package implements:
//   - Multi-session game management
//   - Move and bulk-move processing with per-step traces
//   - Level navigation inside a session's level pack
//   - Move history pagination
//   - Level pack listing, loading and saving
//
// Core Interfaces:
//
// GameService is the facade used by every transport (REST, WebSocket, MCP).
// SessionManager stores sessions; PackManager loads level packs.
//
// Architecture:
//
// The service layer sits between the transports and the engine. Each
// session owns an engine.GameEngine; the service serializes access to it
// and drains the engine's notifications after every call, returning them
// as GameEvent values so transports can forward them to clients.
//
// Usage:
//
//	packs, _ := config.NewManager("levels", logger)
//	sessions := session.NewManager(logger)
//	gameService := service.NewGameService(sessions, packs, logger)
//
//	info, err := gameService.CreateSession(ctx, "classic", 0)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := gameService.Move(ctx, info.ID, "up", false)
//
// Bulk Moves:
//
// BulkMove executes at most engine.MaxBulkMoves moves and stops at the
// first move that leaves the worker in place or at the move that solves
// the level. StopReasonCode is one of blocked_wall, blocked_box,
// blocked_boundary, invalid_direction or completed.
package service
