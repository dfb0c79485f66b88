package engine

import (
	"fmt"
	"sort"
	"time"
)

// Engine provides the main interface for game operations
type Engine interface {
	// Game state management
	GetState() *GameState
	Reset() (*GameState, error)
	IsCompleted() bool
	GetStats() LevelStats
	GetWorkerPosition() Position

	// Movement operations
	Move(direction string) MoveResult
	CanMove(direction string) bool
	GetPossibleMoves() []string

	// Level navigation
	SelectLevel(index int) error
	NextLevel() *GameState
	PreviousLevel() *GameState
	GetLevelSet() *LevelSet

	// History
	GetMoveHistory() []MoveHistoryEntry
	GetLastMove() *MoveHistoryEntry

	// Notifications raised since the last drain
	DrainEvents() []Event
}

// Progress is the restorable part of a GameEngine
type Progress struct {
	CurrentIndex int            `json:"current_index"`
	Attempts     map[int]string `json:"attempts"`
	Solved       []int          `json:"solved"`
	// Layouts holds the LayoutFingerprint of every level with an attempt or
	// solved mark, so restores can tell when a pack was edited.
	Layouts    map[int]string     `json:"layouts,omitempty"`
	History    []MoveHistoryEntry `json:"history"`
	TotalMoves int                `json:"total_moves"`
}

// GameEngine implements the Engine interface over a LevelSet
type GameEngine struct {
	set        *LevelSet
	pack       *LevelPack
	recorder   *Recorder
	solved     map[int]bool
	history    []MoveHistoryEntry
	totalMoves int
	message    string
}

// NewEngine loads the pack into a level set. opts.Notifier, when set,
// receives every notification in addition to the engine's own recorder.
func NewEngine(pack *LevelPack, opts LoadOptions) (*GameEngine, error) {
	e := &GameEngine{
		pack:     pack,
		recorder: NewRecorder(),
		solved:   make(map[int]bool),
	}

	external := opts.Notifier
	opts.Notifier = MultiNotifier{NotifierFunc(e.observe), e.recorder, external}

	set, err := LoadLevelSet(pack, opts)
	if err != nil {
		return nil, err
	}
	e.set = set
	e.message = fmt.Sprintf("Welcome to %s! %s", set.Name(), levelTitle(set.Current()))
	return e, nil
}

// observe keeps engine bookkeeping in step with level notifications
func (e *GameEngine) observe(ev Event) {
	switch ev.Type {
	case EventLevelCompleted:
		if ev.Level != nil {
			e.solved[ev.Level.Index] = true
		}
	}
}

// GetState returns a snapshot of the current game state
func (e *GameEngine) GetState() *GameState {
	return &GameState{
		PackName:     e.set.Name(),
		LevelCount:   e.set.Count(),
		CurrentIndex: e.set.CurrentIndex(),
		Level:        e.set.Current().Snapshot(),
		Solved:       e.GetSolvedLevels(),
		Message:      e.message,
		TotalMoves:   e.totalMoves,
	}
}

// Reset restarts the current level from its layout
func (e *GameEngine) Reset() (*GameState, error) {
	if err := e.set.Current().Reset(); err != nil {
		return nil, err
	}
	e.message = fmt.Sprintf("%s restarted", levelTitle(e.set.Current()))
	return e.GetState(), nil
}

// IsCompleted reports whether the current level is solved
func (e *GameEngine) IsCompleted() bool {
	return e.set.Current().IsCompleted()
}

// GetStats returns the counters of the current attempt
func (e *GameEngine) GetStats() LevelStats {
	return e.set.Current().Stats()
}

// GetWorkerPosition returns the worker position on the current level
func (e *GameEngine) GetWorkerPosition() Position {
	return e.set.Current().Worker().Position
}

// Move attempts to move the worker in the named direction. Unknown
// directions are treated like None.
func (e *GameEngine) Move(direction string) MoveResult {
	d, ok := ParseDirection(direction)
	if !ok {
		d = None
	}
	level := e.set.Current()
	result := level.Move(d)

	switch result.Kind {
	case MoveNone:
		if !ok {
			e.message = fmt.Sprintf("Unknown direction %q", direction)
		}
		return result
	case MoveBlocked:
		e.message = fmt.Sprintf("Can't move %s: %s at %s", d, result.Blocker, result.Attempted)
	case MoveWalk:
		e.message = fmt.Sprintf("Moved %s", d)
	case MovePush:
		e.message = fmt.Sprintf("Pushed box %s", d)
		if result.BoxOnGoal {
			e.message += " onto a goal"
		}
	}
	if result.Completed && result.Moved() {
		stats := level.Stats()
		e.message = fmt.Sprintf("%s completed in %d moves and %d pushes!", levelTitle(level), stats.Moves, stats.Pushes)
	}

	e.addMoveToHistory(d.String(), level.Index(), result)
	return result
}

// CanMove checks whether the worker can move in the named direction
func (e *GameEngine) CanMove(direction string) bool {
	d, ok := ParseDirection(direction)
	if !ok {
		return false
	}
	return e.set.Current().CanMove(d)
}

// GetPossibleMoves returns all directions the worker can move
func (e *GameEngine) GetPossibleMoves() []string {
	var possible []string
	for _, d := range e.set.Current().PossibleMoves() {
		possible = append(possible, d.String())
	}
	return possible
}

// SelectLevel makes level index current
func (e *GameEngine) SelectLevel(index int) error {
	if err := e.set.SetCurrentIndex(index); err != nil {
		return err
	}
	e.message = levelTitle(e.set.Current())
	return nil
}

// NextLevel advances with wraparound
func (e *GameEngine) NextLevel() *GameState {
	e.message = levelTitle(e.set.Next())
	return e.GetState()
}

// PreviousLevel goes back with wraparound
func (e *GameEngine) PreviousLevel() *GameState {
	e.message = levelTitle(e.set.Previous())
	return e.GetState()
}

// GetLevelSet returns the underlying level set
func (e *GameEngine) GetLevelSet() *LevelSet {
	return e.set
}

// GetPack returns the pack the engine was built from
func (e *GameEngine) GetPack() *LevelPack {
	return e.pack
}

// GetSolvedLevels returns the sorted indices of solved levels
func (e *GameEngine) GetSolvedLevels() []int {
	solved := make([]int, 0, len(e.solved))
	for i := range e.solved {
		solved = append(solved, i)
	}
	sort.Ints(solved)
	return solved
}

// GetMoveHistory returns the complete move history
func (e *GameEngine) GetMoveHistory() []MoveHistoryEntry {
	return e.history
}

// GetLastMove returns the last move made, or nil if no moves
func (e *GameEngine) GetLastMove() *MoveHistoryEntry {
	if len(e.history) == 0 {
		return nil
	}
	return &e.history[len(e.history)-1]
}

// DrainEvents returns notifications raised since the previous call
func (e *GameEngine) DrainEvents() []Event {
	return e.recorder.Drain()
}

// BulkMove executes moves in sequence until one fails to move the worker
func (e *GameEngine) BulkMove(moves []string) []MoveResult {
	results := make([]MoveResult, 0, len(moves))
	for _, direction := range moves {
		result := e.Move(direction)
		results = append(results, result)
		if !result.Moved() {
			break
		}
	}
	return results
}

// Progress captures what is needed to restore this engine later
func (e *GameEngine) Progress() Progress {
	attempts := make(map[int]string)
	for i := 0; i < e.set.Count(); i++ {
		level, _ := e.set.Level(i)
		if h := level.History(); h != "" {
			attempts[i] = h
		}
	}
	solved := e.GetSolvedLevels()

	layouts := make(map[int]string, len(attempts)+len(solved))
	for i := range attempts {
		level, _ := e.set.Level(i)
		layouts[i] = LayoutFingerprint(level.Layout())
	}
	for _, i := range solved {
		if level, err := e.set.Level(i); err == nil {
			layouts[i] = LayoutFingerprint(level.Layout())
		}
	}

	return Progress{
		CurrentIndex: e.set.CurrentIndex(),
		Attempts:     attempts,
		Solved:       solved,
		Layouts:      layouts,
		History:      append([]MoveHistoryEntry(nil), e.history...),
		TotalMoves:   e.totalMoves,
	}
}

// Restore replays every saved attempt and selects the saved level.
// Notifications raised while replaying are discarded.
//
// Progress that no longer fits the pack is dropped per level rather than
// failing the restore: an attempt or solved mark for a missing level, for a
// level whose layout fingerprint changed, or whose replay hits a blocked
// step. Such levels start fresh. Each drop is described in the returned
// warnings.
func (e *GameEngine) Restore(p Progress) []string {
	defer e.recorder.Drain()

	var warnings []string
	stale := func(i int) (string, bool) {
		level, err := e.set.Level(i)
		if err != nil {
			return fmt.Sprintf("level %d no longer exists", i+1), true
		}
		if want, ok := p.Layouts[i]; ok && want != LayoutFingerprint(level.Layout()) {
			return fmt.Sprintf("level %d (%s) layout changed", i+1, level.Name()), true
		}
		return "", false
	}

	indices := make([]int, 0, len(p.Attempts))
	for i := range p.Attempts {
		indices = append(indices, i)
	}
	sort.Ints(indices)

	for _, i := range indices {
		if reason, ok := stale(i); ok {
			warnings = append(warnings, reason+", attempt dropped")
			continue
		}
		level, _ := e.set.Level(i)
		if err := level.Reset(); err != nil {
			warnings = append(warnings, fmt.Sprintf("level %d: %v", i+1, err))
			continue
		}
		if err := level.Replay(p.Attempts[i]); err != nil {
			_ = level.Reset()
			warnings = append(warnings, fmt.Sprintf("level %d: %v, attempt dropped", i+1, err))
		}
	}

	e.solved = make(map[int]bool, len(p.Solved))
	for _, i := range p.Solved {
		if reason, ok := stale(i); ok {
			warnings = append(warnings, reason+", solved mark dropped")
			continue
		}
		e.solved[i] = true
	}

	if err := e.set.SetCurrentIndex(p.CurrentIndex); err != nil {
		warnings = append(warnings, fmt.Sprintf("saved level %d: %v, staying on level %d", p.CurrentIndex+1, err, e.set.CurrentIndex()+1))
	}

	e.history = append([]MoveHistoryEntry(nil), p.History...)
	e.totalMoves = p.TotalMoves
	e.message = fmt.Sprintf("Restored %s", levelTitle(e.set.Current()))
	return warnings
}

// addMoveToHistory appends an attempted move to the cumulative history
func (e *GameEngine) addMoveToHistory(action string, level int, result MoveResult) {
	entry := MoveHistoryEntry{
		Action:       action,
		Level:        level,
		FromPosition: result.From,
		ToPosition:   result.To,
		Push:         result.Kind == MovePush,
		Timestamp:    time.Now().Unix(),
		Success:      result.Moved(),
		MoveNumber:   e.totalMoves + 1,
	}
	e.history = append(e.history, entry)
	e.totalMoves++
}

func levelTitle(l *Level) string {
	return fmt.Sprintf("Level %d: %s", l.Index()+1, l.Name())
}
