package engine

import "fmt"

// MoveKind classifies the outcome of a resolver call
type MoveKind int

const (
	MoveNone MoveKind = iota
	MoveBlocked
	MoveWalk
	MovePush
)

// String returns the lowercase kind name
func (k MoveKind) String() string {
	switch k {
	case MoveBlocked:
		return "blocked"
	case MoveWalk:
		return "move"
	case MovePush:
		return "push"
	default:
		return "none"
	}
}

// MarshalText encodes the kind as its name
func (k MoveKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Blocker explains why a move was rejected
type Blocker string

const (
	BlockedByNothing  Blocker = ""
	BlockedByWall     Blocker = "wall"
	BlockedByBox      Blocker = "box"
	BlockedByBoundary Blocker = "boundary"
)

// MoveResult describes what the resolver did with one direction
type MoveResult struct {
	Kind      MoveKind  `json:"kind"`
	Direction Direction `json:"direction"`
	From      Position  `json:"from"`
	To        Position  `json:"to"`
	BoxFrom   *Position `json:"box_from,omitempty"`
	BoxTo     *Position `json:"box_to,omitempty"`
	BoxOnGoal bool      `json:"box_on_goal,omitempty"`
	Blocker   Blocker   `json:"blocker,omitempty"`
	Attempted Position  `json:"attempted"`
	Completed bool      `json:"completed"`
}

// Moved reports whether the worker changed position
func (r MoveResult) Moved() bool {
	return r.Kind == MoveWalk || r.Kind == MovePush
}

// Move resolves one direction against the level and applies it
// atomically. Illegal moves leave every position unchanged and raise no
// event. None is always a no-op.
func (l *Level) Move(d Direction) MoveResult {
	from := l.worker.Position
	result := MoveResult{Kind: MoveNone, Direction: d, From: from, To: from, Attempted: from}
	if d == None {
		result.Completed = l.IsCompleted()
		return result
	}

	result.Attempted = from.Add(d)
	kind, blocker := l.resolve(d)
	if kind == MoveBlocked {
		result.Kind = MoveBlocked
		result.Blocker = blocker
		result.Completed = l.IsCompleted()
		return result
	}

	wasCompleted := l.IsCompleted()
	push := kind == MovePush
	l.notifier.Notify(Event{Type: EventMoveStarted, Direction: d, Push: push})

	target := result.Attempted
	if push {
		box := l.grid.at(target).box
		beyond := target.Add(d)
		l.grid.relocate(box, beyond)
		box.OnGoal = l.grid.hasGoal(beyond)

		boxFrom, boxTo := target, beyond
		result.BoxFrom = &boxFrom
		result.BoxTo = &boxTo
		result.BoxOnGoal = box.OnGoal
		l.pushes++
	}
	l.grid.relocate(l.worker, target)
	l.moves++
	l.history = append(l.history, d.LURD(push))

	result.Kind = kind
	result.To = target
	result.Completed = l.IsCompleted()

	stats := l.Stats()
	l.notifier.Notify(Event{Type: EventMoveEnded, Direction: d, Push: push, Stats: &stats})
	if result.Completed && !wasCompleted {
		metrics := l.Metrics()
		l.notifier.Notify(Event{Type: EventLevelCompleted, Level: &metrics, Stats: &stats})
	}
	return result
}

// resolve decides the legality of a move without mutating anything.
// Cells outside the declared grid behave like walls.
func (l *Level) resolve(d Direction) (MoveKind, Blocker) {
	target := l.worker.Position.Add(d)
	if !l.InBounds(target) {
		return MoveBlocked, BlockedByBoundary
	}
	if l.grid.hasWall(target) {
		return MoveBlocked, BlockedByWall
	}
	if !l.grid.hasBox(target) {
		return MoveWalk, BlockedByNothing
	}

	beyond := target.Add(d)
	switch {
	case !l.InBounds(beyond):
		return MoveBlocked, BlockedByBoundary
	case l.grid.hasWall(beyond):
		return MoveBlocked, BlockedByWall
	case l.grid.hasBox(beyond):
		return MoveBlocked, BlockedByBox
	}
	return MovePush, BlockedByNothing
}

// CanMove reports whether d would move the worker
func (l *Level) CanMove(d Direction) bool {
	if d == None {
		return false
	}
	kind, _ := l.resolve(d)
	return kind != MoveBlocked
}

// PossibleMoves lists every direction that would move the worker
func (l *Level) PossibleMoves() []Direction {
	var possible []Direction
	for _, d := range Directions {
		if l.CanMove(d) {
			possible = append(possible, d)
		}
	}
	return possible
}

// Replay applies a LURD move string. Letter case is not checked against
// the actual outcome; a blocked or unknown step stops the replay and
// returns ErrIllegalReplay with the level left at the preceding step.
func (l *Level) Replay(lurd string) error {
	for i, ch := range lurd {
		d, ok := ParseDirection(string(ch))
		if !ok || d == None {
			return fmt.Errorf("%w: step %d %q is not a direction", ErrIllegalReplay, i+1, ch)
		}
		if res := l.Move(d); !res.Moved() {
			return fmt.Errorf("%w: step %d %s blocked by %s", ErrIllegalReplay, i+1, d, res.Blocker)
		}
	}
	return nil
}
