package service

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/wricardo/storekeeper/game/engine"
)

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string            `json:"id"`
	PackID         string            `json:"pack_id"`
	PackName       string            `json:"pack_name"`
	CreatedAt      time.Time         `json:"created_at"`
	LastAccessedAt time.Time         `json:"last_accessed_at"`
	GameState      *engine.GameState `json:"game_state"`
}

// MoveResult contains the result of a move operation
type MoveResult struct {
	Success     bool              `json:"success"`
	GameState   *engine.GameState `json:"game_state"`
	Message     string            `json:"message"`
	Events      []GameEvent       `json:"events,omitempty"`
	Step        *StepInfo         `json:"step,omitempty"`
	AttemptedTo *AttemptInfo      `json:"attempted_to,omitempty"`
}

// BulkMoveResult contains the result of multiple moves
type BulkMoveResult struct {
	// Summary
	MovesExecuted  int               `json:"moves_executed"`
	RequestedMoves int               `json:"requested_moves"`
	Success        bool              `json:"success"`
	GameState      *engine.GameState `json:"game_state"`
	Events         []GameEvent       `json:"events"`
	StoppedReason  string            `json:"stopped_reason,omitempty"`
	StopReasonCode string            `json:"stop_reason_code,omitempty"` // blocked_wall|blocked_box|blocked_boundary|invalid_direction|completed
	StoppedOnMove  int               `json:"stopped_on_move,omitempty"`  // 1-based index of the move that caused stop
	Truncated      bool              `json:"truncated,omitempty"`
	Limit          int               `json:"limit,omitempty"`

	// Start/end snapshot
	StartPos    engine.Position `json:"start_pos"`
	EndPos      engine.Position `json:"end_pos"`
	PushesDelta int             `json:"pushes_delta"`

	// Per-step compact trace (only for this call)
	Steps []StepInfo `json:"steps,omitempty"`

	// Failure diagnostics
	AttemptedTo *AttemptInfo `json:"attempted_to,omitempty"`

	// Final status aids
	Completed     bool     `json:"completed"`
	Message       string   `json:"message,omitempty"`
	PossibleMoves []string `json:"possible_moves,omitempty"`
	LocalView3x3  []string `json:"local_view_3x3,omitempty"`
}

// StepInfo is a compact record for each executed move
type StepInfo struct {
	Idx       int              `json:"idx"`
	Dir       string           `json:"dir"`
	From      engine.Position  `json:"from"`
	To        engine.Position  `json:"to"`
	Push      bool             `json:"push,omitempty"`
	BoxTo     *engine.Position `json:"box_to,omitempty"`
	BoxOnGoal bool             `json:"box_on_goal,omitempty"`
	Completed bool             `json:"completed,omitempty"`
}

// AttemptInfo details the target cell of a rejected move
type AttemptInfo struct {
	Row     int    `json:"row"`
	Column  int    `json:"column"`
	Blocker string `json:"blocker"` // wall|box|boundary|invalid_direction
}

// GameEvent is an engine notification stamped for delivery to clients
type GameEvent struct {
	ID        string               `json:"id"`
	Type      engine.EventType     `json:"type"`
	Message   string               `json:"message"`
	Timestamp time.Time            `json:"timestamp"`
	Level     *engine.LevelMetrics `json:"level,omitempty"`
	Direction string               `json:"direction,omitempty"`
	Push      bool                 `json:"push,omitempty"`
	Stats     *engine.LevelStats   `json:"stats,omitempty"`
}

// NewGameEvents stamps engine notifications with an ID and a message
func NewGameEvents(events []engine.Event) []GameEvent {
	out := make([]GameEvent, 0, len(events))
	now := time.Now()
	for _, ev := range events {
		ge := GameEvent{
			ID:        uuid.NewString(),
			Type:      ev.Type,
			Message:   describeEvent(ev),
			Timestamp: now,
			Level:     ev.Level,
			Push:      ev.Push,
			Stats:     ev.Stats,
		}
		if ev.Direction != engine.None {
			ge.Direction = ev.Direction.String()
		}
		out = append(out, ge)
	}
	return out
}

func describeEvent(ev engine.Event) string {
	switch ev.Type {
	case engine.EventLevelPackLoaded:
		return fmt.Sprintf("Level pack %s loaded", ev.Source)
	case engine.EventLevelChanged:
		if ev.Level != nil {
			return fmt.Sprintf("Now playing level %d: %s", ev.Level.Index+1, ev.Level.Name)
		}
		return "Level changed"
	case engine.EventLevelReset:
		return "Level reset to its initial layout"
	case engine.EventMoveStarted:
		if ev.Push {
			return fmt.Sprintf("Pushing %s", ev.Direction)
		}
		return fmt.Sprintf("Moving %s", ev.Direction)
	case engine.EventMoveEnded:
		if ev.Stats != nil {
			return fmt.Sprintf("Moves: %d, pushes: %d, boxes on goal: %d/%d",
				ev.Stats.Moves, ev.Stats.Pushes, ev.Stats.BoxesOnGoal, ev.Stats.Boxes)
		}
		return "Move finished"
	case engine.EventLevelCompleted:
		return "Level completed!"
	default:
		return string(ev.Type)
	}
}

// HistoryOptions configures move history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated move history
type HistoryResponse struct {
	Moves       []engine.MoveHistoryEntry `json:"moves"`
	TotalMoves  int                       `json:"total_moves"`
	Page        int                       `json:"page"`
	PageSize    int                       `json:"page_size"`
	TotalPages  int                       `json:"total_pages"`
	HasNext     bool                      `json:"has_next"`
	HasPrevious bool                      `json:"has_previous"`
}

// PackInfo describes a level pack available on disk
type PackInfo struct {
	Filename    string   `json:"filename"`
	PackID      string   `json:"pack_id"` // The identifier to use for session creation
	Name        string   `json:"name"`    // Display name
	Description string   `json:"description"`
	Format      string   `json:"format"`
	LevelCount  int      `json:"level_count"`
	LevelNames  []string `json:"level_names,omitempty"`
}
