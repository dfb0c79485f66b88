// Package session provides session management for the Storekeeper server.
//
// Each session owns one engine.GameEngine playing a single level pack. The
// manager keys sessions by lowercased ID, so "AB12" and "ab12" are the same
// session.
//
// Session Identifiers:
//
// Generated IDs are 4 hex characters drawn from crypto/rand. Callers may
// supply their own ID (letters, digits, '-' and '_').
//
// Persistence:
//
// A SessionPersistence stores the pack ID, the current level index, the
// LURD moves of every level attempt, solved levels and timestamps. Load
// rebuilds the engine from the pack and replays the moves, so a stored
// session is always consistent with the rules. Two implementations exist:
//
//	FilePersistence      one JSON file per session in a directory
//	PostgresPersistence  one row per session in storekeeper_sessions
//
// Usage:
//
//	store, err := session.NewFilePersistence("sessions", packs, logger)
//	if err != nil {
//		log.Fatal(err)
//	}
//	manager := session.NewManagerWithPersistence(store, logger)
//	manager.LoadPersistedSessions()
//
//	sess, err := manager.Create("", "classic", pack)
//
// Cleanup:
//
// CleanupExpiredSessions evicts idle sessions from memory; persisted
// copies reload on the next Get.
package session
