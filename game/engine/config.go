package engine

import (
	"errors"
	"fmt"
)

// ValidateLevelDefinition checks that a definition builds into a playable level
func ValidateLevelDefinition(def LevelDefinition) error {
	_, err := NewLevel(def)
	return err
}

// ValidateLevelPack checks a pack strictly: it must have a name, at least
// one level, and every level must build. Unlike LoadLevelSet nothing is
// skipped; all level errors are joined.
func ValidateLevelPack(pack *LevelPack) error {
	if pack == nil {
		return &LevelPackParseError{Reason: "pack is nil"}
	}
	if pack.Name == "" {
		return &LevelPackParseError{Reason: "name is required"}
	}
	if len(pack.Levels) == 0 {
		return &LevelPackParseError{Source: pack.Name, Reason: "pack contains no levels"}
	}

	var errs []error
	for i, def := range pack.Levels {
		if len(def.Layout) == 0 {
			errs = append(errs, &LevelPackParseError{Source: pack.Name, Reason: fmt.Sprintf("level %d has no layout", i+1)})
			continue
		}
		if err := ValidateLevelDefinition(def); err != nil {
			errs = append(errs, fmt.Errorf("level %d: %w", i+1, err))
		}
	}
	return errors.Join(errs...)
}

// DefaultLevelPack returns the built-in pack used when no pack directory
// content is available
func DefaultLevelPack() *LevelPack {
	return &LevelPack{
		Name:        "default",
		Description: "Built-in starter levels",
		Levels: []LevelDefinition{
			{
				Name:        "First Push",
				Description: "Push the box up onto the goal",
				Layout: []string{
					"#.#",
					"#$#",
					"#@#",
				},
			},
			{
				Name:        "Corridor",
				Description: "Two boxes, two goals",
				Layout: []string{
					"#######",
					"#  $ .#",
					"#@$  .#",
					"#######",
				},
			},
			{
				Name:        "Corner",
				Description: "Walk around before pushing",
				Layout: []string{
					"######",
					"#    #",
					"# #$ #",
					"# .@ #",
					"######",
				},
			},
		},
	}
}
