package engine

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// LoadOptions configures LoadLevelSet
type LoadOptions struct {
	// Source identifies the pack in level-pack-loaded notifications
	Source   string
	Notifier Notifier
	Logger   zerolog.Logger
}

// LevelSet is the ordered collection of levels of one pack
type LevelSet struct {
	name        string
	description string
	source      string
	levels      []*Level
	index       int
	warnings    []string
	notifier    Notifier
}

// LoadLevelSet builds one level per pack entry. Invalid levels are skipped
// with a warning; a pack that yields no playable level fails with a
// LevelPackParseError. On success level-pack-loaded is raised and the
// first level becomes current.
func LoadLevelSet(pack *LevelPack, opts LoadOptions) (*LevelSet, error) {
	source := opts.Source
	if pack == nil {
		return nil, &LevelPackParseError{Source: source, Reason: "pack is nil"}
	}
	if source == "" {
		source = pack.Name
	}
	if len(pack.Levels) == 0 {
		return nil, &LevelPackParseError{Source: source, Reason: "pack contains no levels"}
	}

	notifier := opts.Notifier
	if notifier == nil {
		notifier = nopNotifier
	}

	set := &LevelSet{
		name:        pack.Name,
		description: pack.Description,
		source:      source,
		notifier:    notifier,
	}

	logger := opts.Logger.With().Str("pack", source).Logger()
	for i, def := range pack.Levels {
		if def.Name == "" {
			def.Name = fmt.Sprintf("Level %d", i+1)
		}
		if len(def.Layout) == 0 {
			return nil, &LevelPackParseError{Source: source, Reason: fmt.Sprintf("level %d (%s) has no layout", i+1, def.Name)}
		}
		if RaggedLayout(def.Layout) {
			msg := fmt.Sprintf("level %d (%s) has rows of different widths", i+1, def.Name)
			set.warnings = append(set.warnings, msg)
			logger.Warn().Int("level", i).Msg(msg)
		}

		level, err := NewLevel(def, WithNotifier(notifier), WithIndex(len(set.levels)))
		if err != nil {
			var invalid *InvalidLevelError
			if errors.As(err, &invalid) {
				msg := fmt.Sprintf("level %d skipped: %s", i+1, invalid.Error())
				set.warnings = append(set.warnings, msg)
				logger.Warn().Int("level", i).Err(err).Msg("skipping invalid level")
				continue
			}
			return nil, err
		}
		set.levels = append(set.levels, level)
	}

	if len(set.levels) == 0 {
		return nil, &LevelPackParseError{Source: source, Reason: "pack contains no playable levels"}
	}

	logger.Debug().Int("levels", len(set.levels)).Int("skipped", len(pack.Levels)-len(set.levels)).Msg("level pack loaded")
	set.notifier.Notify(Event{Type: EventLevelPackLoaded, Source: source})
	set.announce()
	return set, nil
}

// Name returns the pack name
func (s *LevelSet) Name() string { return s.name }

// Description returns the pack description
func (s *LevelSet) Description() string { return s.description }

// Source returns the identifier the set was loaded from
func (s *LevelSet) Source() string { return s.source }

// Count returns the number of playable levels
func (s *LevelSet) Count() int { return len(s.levels) }

// CurrentIndex returns the index of the active level
func (s *LevelSet) CurrentIndex() int { return s.index }

// Current returns the active level
func (s *LevelSet) Current() *Level { return s.levels[s.index] }

// Warnings returns the messages collected while loading
func (s *LevelSet) Warnings() []string {
	return append([]string(nil), s.warnings...)
}

// Level returns the level at index i
func (s *LevelSet) Level(i int) (*Level, error) {
	if i < 0 || i >= len(s.levels) {
		return nil, &IndexOutOfRangeError{Index: i, Count: len(s.levels)}
	}
	return s.levels[i], nil
}

// SetCurrentIndex selects level i and raises level-changed
func (s *LevelSet) SetCurrentIndex(i int) error {
	if i < 0 || i >= len(s.levels) {
		return &IndexOutOfRangeError{Index: i, Count: len(s.levels)}
	}
	s.index = i
	s.announce()
	return nil
}

// Next selects the following level, wrapping to the first
func (s *LevelSet) Next() *Level {
	s.index = (s.index + 1) % len(s.levels)
	s.announce()
	return s.Current()
}

// Previous selects the preceding level, wrapping to the last
func (s *LevelSet) Previous() *Level {
	s.index = (s.index - 1 + len(s.levels)) % len(s.levels)
	s.announce()
	return s.Current()
}

// SetNotifier re-wires the set and all its levels to n
func (s *LevelSet) SetNotifier(n Notifier) {
	if n == nil {
		n = nopNotifier
	}
	s.notifier = n
	for _, l := range s.levels {
		l.setNotifier(n)
	}
}

func (s *LevelSet) announce() {
	metrics := s.Current().Metrics()
	stats := s.Current().Stats()
	s.notifier.Notify(Event{Type: EventLevelChanged, Source: s.source, Level: &metrics, Stats: &stats})
}
