// Package config manages the level packs served by Storekeeper.
//
// A Manager reads packs from one directory. Each file is a pack whose ID
// is the file name without extension; JSON, YAML and plain-text packs
// are accepted (see package levelpack). Decoded packs are cached.
//
// Default Pack:
//
// The default pack is "classic" when present, otherwise the first pack in
// the directory that loads, otherwise the built-in engine.DefaultLevelPack.
//
// Usage:
//
//	manager, err := config.NewManager("levels", logger)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	pack, err := manager.LoadPack("classic")
//	packs, err := manager.ListPacks()
//
//	// drop cache entries when files change
//	watcher, err := config.NewWatcher(manager, logger)
//	defer watcher.Close()
//
// Validation:
//
// LoadPack accepts a pack when at least one of its levels is playable;
// unplayable levels are skipped when a session loads it. SavePack is
// strict and rejects a pack if any level fails to build.
package config
