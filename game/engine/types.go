package engine

import (
	"fmt"
	"strings"
)

// Category tags the kind of object placed on a level
type Category int

const (
	Wall Category = iota
	Goal
	Box
	Worker
)

// String returns the lowercase category name
func (c Category) String() string {
	switch c {
	case Wall:
		return "wall"
	case Goal:
		return "goal"
	case Box:
		return "box"
	case Worker:
		return "worker"
	default:
		return fmt.Sprintf("category(%d)", int(c))
	}
}

// Layout symbols
const (
	SymbolWorker       = '@'
	SymbolWorkerOnGoal = '+'
	SymbolWall         = '#'
	SymbolGoal         = '.'
	SymbolBox          = '$'
	SymbolBoxOnGoal    = '*'
	SymbolFloor        = ' '

	// Validation constants
	MaxBulkMoves        = 500
	WebSocketBufferSize = 256
)

// Direction is a movement intent sampled once per tick
type Direction int

const (
	None Direction = iota
	Up
	Down
	Left
	Right
)

// Directions lists the four movement directions in LURD-independent order
var Directions = []Direction{Up, Down, Left, Right}

// String returns the lowercase direction name
func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Down:
		return "down"
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return "none"
	}
}

// Delta returns the row and column offsets of one step
func (d Direction) Delta() (int, int) {
	switch d {
	case Up:
		return -1, 0
	case Down:
		return 1, 0
	case Left:
		return 0, -1
	case Right:
		return 0, 1
	default:
		return 0, 0
	}
}

// LURD returns the Sokoban solution letter, uppercase for pushes
func (d Direction) LURD(push bool) byte {
	var b byte
	switch d {
	case Up:
		b = 'u'
	case Down:
		b = 'd'
	case Left:
		b = 'l'
	case Right:
		b = 'r'
	default:
		return 0
	}
	if push {
		b -= 'a' - 'A'
	}
	return b
}

// MarshalText encodes the direction as its name
func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText decodes a direction name
func (d *Direction) UnmarshalText(text []byte) error {
	parsed, ok := ParseDirection(string(text))
	if !ok {
		return fmt.Errorf("invalid direction %q", string(text))
	}
	*d = parsed
	return nil
}

// ParseDirection maps up/down/left/right/none and the LURD letters to a
// Direction. Unknown input yields None and false.
func ParseDirection(s string) (Direction, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "up", "u":
		return Up, true
	case "down", "d":
		return Down, true
	case "left", "l":
		return Left, true
	case "right", "r":
		return Right, true
	case "none", "":
		return None, true
	default:
		return None, false
	}
}

// Position is a zero-based (row, column) cell address
type Position struct {
	Row    int `json:"row"`
	Column int `json:"column"`
}

// Add returns the neighbouring position one step in direction d
func (p Position) Add(d Direction) Position {
	dr, dc := d.Delta()
	return Position{Row: p.Row + dr, Column: p.Column + dc}
}

// String formats the position as (row,column)
func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.Row, p.Column)
}

// Entity is a typed object placed on a level. OnGoal is only meaningful
// for boxes.
type Entity struct {
	Category Category `json:"category"`
	Position Position `json:"position"`
	OnGoal   bool     `json:"on_goal,omitempty"`
}

// LevelDefinition is one entry of a level pack
type LevelDefinition struct {
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Layout      []string `json:"layout" yaml:"layout"`
}

// LevelPack is a decoded level-pack source
type LevelPack struct {
	Name        string            `json:"name" yaml:"name"`
	Description string            `json:"description,omitempty" yaml:"description,omitempty"`
	Levels      []LevelDefinition `json:"levels" yaml:"levels"`
}

// LevelMetrics describes a level for level-changed and level-reset notifications
type LevelMetrics struct {
	Index       int    `json:"index"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Rows        int    `json:"rows"`
	Columns     int    `json:"columns"`
}

// LevelStats carries the counters of the current attempt
type LevelStats struct {
	Moves       int `json:"moves_count"`
	Pushes      int `json:"pushes_count"`
	Boxes       int `json:"boxes_count"`
	BoxesOnGoal int `json:"retracted_boxes_count"`
}

// LevelState is a value snapshot of a level, safe to hand to observers
type LevelState struct {
	LevelMetrics
	Stats     LevelStats `json:"stats"`
	Worker    Position   `json:"worker"`
	Boxes     []Entity   `json:"boxes"`
	Goals     []Position `json:"goals"`
	Layout    []string   `json:"layout"`
	History   string     `json:"history"`
	Completed bool       `json:"completed"`
}

// GameState is the snapshot of a whole level set returned by GameEngine
type GameState struct {
	PackName     string     `json:"pack_name"`
	LevelCount   int        `json:"level_count"`
	CurrentIndex int        `json:"current_index"`
	Level        LevelState `json:"level"`
	Solved       []int      `json:"solved_levels"`
	Message      string     `json:"message"`
	TotalMoves   int        `json:"total_moves"`
}

// MoveHistoryEntry represents a single move in the session history
type MoveHistoryEntry struct {
	Action       string   `json:"action"`
	Level        int      `json:"level"`
	FromPosition Position `json:"from_position"`
	ToPosition   Position `json:"to_position"`
	Push         bool     `json:"push"`
	Timestamp    int64    `json:"timestamp"`
	Success      bool     `json:"success"`
	MoveNumber   int      `json:"move_number"`
}
