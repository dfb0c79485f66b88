// Package engine provides the core simulation for the Storekeeper puzzle game.
//
// The engine package implements the game mechanics including:
//   - Layout parsing into walls, goals, boxes and the worker
//   - Grid-based movement, box pushing and boundary collision
//   - Win-condition tracking (every box on a goal)
//   - Level sets with wraparound navigation
//   - Notifications consumed by stores, transports and UIs
//
// Core Types:
//
// Level owns the entities of one puzzle and resolves moves against them.
// LevelSet owns the ordered levels of a level pack and the current index.
// GameEngine wraps a LevelSet behind the Engine interface used by sessions.
//
// Usage:
//
//	set, err := engine.LoadLevelSet(pack, engine.LoadOptions{Source: "classic"})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result := set.Current().Move(engine.Right)
//	if result.Completed {
//		set.Next()
//	}
//
// Layout Alphabet:
//
//	@  worker            +  worker on a goal
//	#  wall              .  goal
//	$  box               *  box on a goal
//
// Any other symbol is floor. The simulation is single-threaded and
// deterministic: a move is applied atomically and never leaves a
// half-moved state behind.
package engine
