package engine

import (
	"fmt"
	"strings"
)

// Level owns the entities of one puzzle. It is not safe for concurrent
// use; callers serialize access the way the session layer does.
type Level struct {
	name        string
	description string
	layout      []string
	index       int

	rows    int
	columns int

	worker *Entity
	walls  []*Entity
	goals  []*Entity
	boxes  []*Entity
	grid   grid

	moves   int
	pushes  int
	history []byte

	notifier Notifier
}

// LevelOption configures a Level at construction
type LevelOption func(*Level)

// WithNotifier attaches the notifier that receives move and reset events
func WithNotifier(n Notifier) LevelOption {
	return func(l *Level) {
		if n != nil {
			l.notifier = n
		}
	}
}

// WithIndex sets the position of the level inside its level set
func WithIndex(index int) LevelOption {
	return func(l *Level) {
		l.index = index
	}
}

// NewLevel builds and validates a level from its definition. The layout
// is copied so later changes to def do not leak into the level.
func NewLevel(def LevelDefinition, opts ...LevelOption) (*Level, error) {
	if len(def.Layout) == 0 {
		return nil, &InvalidLevelError{Level: def.Name, Reason: "layout is empty"}
	}

	l := &Level{
		name:        def.Name,
		description: def.Description,
		layout:      append([]string(nil), def.Layout...),
		notifier:    nopNotifier,
	}
	for _, opt := range opts {
		opt(l)
	}

	if err := l.build(); err != nil {
		return nil, err
	}
	return l, nil
}

// build places every entity described by the layout and checks the
// level invariants
func (l *Level) build() error {
	l.rows, l.columns = 0, 0
	l.worker = nil
	l.walls = nil
	l.goals = nil
	l.boxes = nil
	l.grid = make(grid)

	workers := 0
	for row, line := range l.layout {
		for column, symbol := range []rune(line) {
			for _, e := range createEntities(symbol, Position{Row: row, Column: column}) {
				if e.Category == Worker {
					workers++
				}
				l.addEntity(e)
			}
		}
	}

	switch {
	case workers == 0:
		return &InvalidLevelError{Level: l.name, Reason: "no worker placed"}
	case workers > 1:
		return &InvalidLevelError{Level: l.name, Reason: fmt.Sprintf("%d workers placed, expected exactly one", workers)}
	case len(l.boxes) != len(l.goals):
		return &InvalidLevelError{
			Level:  l.name,
			Reason: fmt.Sprintf("box count %d does not match goal count %d", len(l.boxes), len(l.goals)),
		}
	}
	return nil
}

// createEntities maps a layout symbol to the entities it places.
// Unknown symbols place nothing.
func createEntities(symbol rune, pos Position) []*Entity {
	switch symbol {
	case SymbolWorker:
		return []*Entity{{Category: Worker, Position: pos}}
	case SymbolWorkerOnGoal:
		return []*Entity{{Category: Goal, Position: pos}, {Category: Worker, Position: pos}}
	case SymbolWall:
		return []*Entity{{Category: Wall, Position: pos}}
	case SymbolGoal:
		return []*Entity{{Category: Goal, Position: pos}}
	case SymbolBox:
		return []*Entity{{Category: Box, Position: pos}}
	case SymbolBoxOnGoal:
		return []*Entity{{Category: Goal, Position: pos}, {Category: Box, Position: pos, OnGoal: true}}
	default:
		return nil
	}
}

func (l *Level) addEntity(e *Entity) {
	if e.Position.Row+1 > l.rows {
		l.rows = e.Position.Row + 1
	}
	if e.Position.Column+1 > l.columns {
		l.columns = e.Position.Column + 1
	}

	switch e.Category {
	case Worker:
		l.worker = e
	case Wall:
		l.walls = append(l.walls, e)
	case Goal:
		l.goals = append(l.goals, e)
	case Box:
		l.boxes = append(l.boxes, e)
	}
	l.grid.place(e)
}

// Reset rebuilds the level from its original layout, discarding every
// move, and raises level-reset.
func (l *Level) Reset() error {
	if err := l.build(); err != nil {
		return err
	}
	l.moves = 0
	l.pushes = 0
	l.history = nil

	metrics := l.Metrics()
	stats := l.Stats()
	l.notifier.Notify(Event{Type: EventLevelReset, Level: &metrics, Stats: &stats})
	return nil
}

// Clone returns an independent level built from the original layout. It
// equals a fresh reset, not a snapshot of progress. The layout was validated
// when l was built, so a failure here is a broken invariant and panics.
func (l *Level) Clone() *Level {
	clone := &Level{
		name:        l.name,
		description: l.description,
		layout:      append([]string(nil), l.layout...),
		index:       l.index,
		notifier:    l.notifier,
	}
	if err := clone.build(); err != nil {
		panic(fmt.Sprintf("engine: clone of validated level %q failed: %v", l.name, err))
	}
	return clone
}

// IsCompleted reports whether every box rests on a goal
func (l *Level) IsCompleted() bool {
	for _, b := range l.boxes {
		if !b.OnGoal {
			return false
		}
	}
	return true
}

// Name returns the level name
func (l *Level) Name() string { return l.name }

// Description returns the level description
func (l *Level) Description() string { return l.description }

// Index returns the position of the level in its set
func (l *Level) Index() int { return l.index }

// Rows returns the bounding row count
func (l *Level) Rows() int { return l.rows }

// Columns returns the bounding column count
func (l *Level) Columns() int { return l.columns }

// Layout returns a copy of the original layout rows
func (l *Level) Layout() []string {
	return append([]string(nil), l.layout...)
}

// Definition returns the definition the level was built from
func (l *Level) Definition() LevelDefinition {
	return LevelDefinition{Name: l.name, Description: l.description, Layout: l.Layout()}
}

// Worker returns a copy of the worker entity
func (l *Level) Worker() Entity { return *l.worker }

// Walls returns copies of the wall entities
func (l *Level) Walls() []Entity { return copyEntities(l.walls) }

// Goals returns copies of the goal entities
func (l *Level) Goals() []Entity { return copyEntities(l.goals) }

// Boxes returns copies of the box entities
func (l *Level) Boxes() []Entity { return copyEntities(l.boxes) }

// Occupants returns copies of the entities at pos in priority order
// worker, wall, goal, box.
func (l *Level) Occupants(pos Position) []Entity {
	return copyEntities(l.grid.occupants(pos))
}

// InBounds reports whether pos lies inside the declared grid
func (l *Level) InBounds(pos Position) bool {
	return pos.Row >= 0 && pos.Column >= 0 && pos.Row < l.rows && pos.Column < l.columns
}

// Metrics returns the name, description and size of the level
func (l *Level) Metrics() LevelMetrics {
	return LevelMetrics{
		Index:       l.index,
		Name:        l.name,
		Description: l.description,
		Rows:        l.rows,
		Columns:     l.columns,
	}
}

// Stats returns the counters of the current attempt
func (l *Level) Stats() LevelStats {
	return LevelStats{
		Moves:       l.moves,
		Pushes:      l.pushes,
		Boxes:       len(l.boxes),
		BoxesOnGoal: CountBoxesOnGoal(l.boxes),
	}
}

// History returns the moves of the current attempt in LURD notation
func (l *Level) History() string {
	return string(l.history)
}

// Snapshot returns a value copy of the level state
func (l *Level) Snapshot() LevelState {
	goals := make([]Position, len(l.goals))
	for i, g := range l.goals {
		goals[i] = g.Position
	}
	return LevelState{
		LevelMetrics: l.Metrics(),
		Stats:        l.Stats(),
		Worker:       l.worker.Position,
		Boxes:        l.Boxes(),
		Goals:        goals,
		Layout:       l.Render(),
		History:      l.History(),
		Completed:    l.IsCompleted(),
	}
}

// Render draws the current state with the layout alphabet. Trailing
// floor is trimmed from every row.
func (l *Level) Render() []string {
	rows := make([]string, l.rows)
	for r := 0; r < l.rows; r++ {
		var b strings.Builder
		for c := 0; c < l.columns; c++ {
			b.WriteRune(l.symbolAt(Position{Row: r, Column: c}))
		}
		rows[r] = strings.TrimRight(b.String(), " ")
	}
	return rows
}

func (l *Level) symbolAt(pos Position) rune {
	c := l.grid.at(pos)
	if c == nil {
		return SymbolFloor
	}
	switch {
	case c.wall != nil:
		return SymbolWall
	case c.worker != nil && c.goal != nil:
		return SymbolWorkerOnGoal
	case c.worker != nil:
		return SymbolWorker
	case c.box != nil && c.goal != nil:
		return SymbolBoxOnGoal
	case c.box != nil:
		return SymbolBox
	case c.goal != nil:
		return SymbolGoal
	default:
		return SymbolFloor
	}
}

// setNotifier replaces the notifier, used when a level set is re-wired
func (l *Level) setNotifier(n Notifier) {
	if n == nil {
		n = nopNotifier
	}
	l.notifier = n
}

func copyEntities(in []*Entity) []Entity {
	out := make([]Entity, len(in))
	for i, e := range in {
		out[i] = *e
	}
	return out
}
