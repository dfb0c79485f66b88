package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/wricardo/storekeeper/game/engine"
)

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions SessionManager
	packs    PackManager
	logger   zerolog.Logger
	mu       sync.RWMutex
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, packs PackManager, logger zerolog.Logger) GameService {
	return &gameServiceImpl{
		sessions: sessions,
		packs:    packs,
		logger:   logger.With().Str("component", "service").Logger(),
	}
}

// CreateSession creates a new game session on the given pack and level
func (s *gameServiceImpl) CreateSession(ctx context.Context, packID string, level int) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var pack *engine.LevelPack
	var err error
	if packID != "" {
		pack, err = s.packs.LoadPack(packID)
		if err != nil {
			if errors.Is(err, ErrPackNotFound) {
				return nil, fmt.Errorf("pack '%s' not found, available packs: %v: %w", packID, s.packIDs(), err)
			}
			return nil, fmt.Errorf("failed to load pack %s: %w", packID, err)
		}
	} else {
		packID, pack = s.packs.GetDefault()
	}

	// Let session manager generate a proper 4-character ID
	sess, err := s.sessions.Create("", packID, pack)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	if level != 0 {
		if err := sess.Engine.SelectLevel(level); err != nil {
			_ = s.sessions.Delete(sess.ID)
			return nil, fmt.Errorf("failed to select level: %w", err)
		}
		s.save(sess.ID, "create")
	}
	sess.Engine.DrainEvents()

	s.logger.Info().Str("session", sess.ID).Str("pack", packID).Int("level", level).Msg("session created")
	return sessionInfo(sess), nil
}

// GetSession retrieves session information. It refreshes the access time,
// so it takes the write lock.
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	s.sessions.UpdateLastAccessed(sessionID)
	return sessionInfo(sess), nil
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, sessionInfo(sess))
	}
	return result, nil
}

// DeleteSession removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.sessions.Delete(sessionID)
}

// Move executes a single move for a session
func (s *gameServiceImpl) Move(ctx context.Context, sessionID, direction string, reset bool) (*MoveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}
	s.sessions.UpdateLastAccessed(sessionID)
	sess.Engine.DrainEvents()

	if reset {
		if _, err := sess.Engine.Reset(); err != nil {
			return nil, fmt.Errorf("failed to reset level: %w", err)
		}
	}

	res := sess.Engine.Move(direction)
	state := sess.Engine.GetState()

	result := &MoveResult{
		Success:   res.Moved(),
		GameState: state,
		Message:   state.Message,
		Events:    NewGameEvents(sess.Engine.DrainEvents()),
	}
	if res.Moved() {
		step := stepInfo(1, direction, res)
		result.Step = &step
	} else {
		result.AttemptedTo = attemptInfo(direction, res)
	}

	s.logger.Debug().
		Str("session", sessionID).
		Str("direction", direction).
		Str("kind", res.Kind.String()).
		Int("moves", state.Level.Stats.Moves).
		Int("pushes", state.Level.Stats.Pushes).
		Msg("move")

	s.save(sessionID, "move")
	return result, nil
}

// BulkMove executes multiple moves in sequence, stopping at the first
// move that does not move the worker or at the move that solves the level
func (s *gameServiceImpl) BulkMove(ctx context.Context, sessionID string, moves []string, reset bool) (*BulkMoveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}
	s.sessions.UpdateLastAccessed(sessionID)
	sess.Engine.DrainEvents()

	if reset {
		if _, err := sess.Engine.Reset(); err != nil {
			return nil, fmt.Errorf("failed to reset level: %w", err)
		}
	}

	start := sess.Engine.GetState()
	result := &BulkMoveResult{
		RequestedMoves: len(moves),
		Success:        true,
		StartPos:       start.Level.Worker,
	}

	// Limit moves to prevent abuse
	if len(moves) > engine.MaxBulkMoves {
		result.Truncated = true
		result.Limit = engine.MaxBulkMoves
		moves = moves[:engine.MaxBulkMoves]
	}

	for i, move := range moves {
		wasCompleted := sess.Engine.IsCompleted()
		res := sess.Engine.Move(move)

		if !res.Moved() {
			result.Success = false
			result.StoppedOnMove = i + 1
			result.StopReasonCode = stopReasonCode(move, res)
			result.StoppedReason = fmt.Sprintf("move %d (%s) did not move the worker: %s", i+1, move, result.StopReasonCode)
			result.AttemptedTo = attemptInfo(move, res)
			break
		}

		result.MovesExecuted++
		result.Steps = append(result.Steps, stepInfo(i+1, move, res))

		if res.Completed && !wasCompleted {
			result.StoppedOnMove = i + 1
			result.StopReasonCode = "completed"
			result.StoppedReason = "level completed"
			break
		}
	}

	end := sess.Engine.GetState()
	result.GameState = end
	result.Events = NewGameEvents(sess.Engine.DrainEvents())
	result.EndPos = end.Level.Worker
	result.PushesDelta = end.Level.Stats.Pushes - start.Level.Stats.Pushes
	result.Completed = end.Level.Completed
	result.Message = end.Message
	result.PossibleMoves = sess.Engine.GetPossibleMoves()
	result.LocalView3x3 = buildLocal3x3(end)

	s.logger.Debug().
		Str("session", sessionID).
		Int("requested", result.RequestedMoves).
		Int("executed", result.MovesExecuted).
		Str("stop", result.StopReasonCode).
		Msg("bulk move")

	s.save(sessionID, "bulk move")
	return result, nil
}

// Reset resets the current level of a session
func (s *gameServiceImpl) Reset(ctx context.Context, sessionID string) (*engine.GameState, error) {
	return s.mutate(sessionID, "reset", func(e *engine.GameEngine) (*engine.GameState, error) {
		return e.Reset()
	})
}

// SelectLevel makes level index current
func (s *gameServiceImpl) SelectLevel(ctx context.Context, sessionID string, index int) (*engine.GameState, error) {
	return s.mutate(sessionID, "select level", func(e *engine.GameEngine) (*engine.GameState, error) {
		if err := e.SelectLevel(index); err != nil {
			return nil, err
		}
		return e.GetState(), nil
	})
}

// NextLevel advances to the following level, wrapping around
func (s *gameServiceImpl) NextLevel(ctx context.Context, sessionID string) (*engine.GameState, error) {
	return s.mutate(sessionID, "next level", func(e *engine.GameEngine) (*engine.GameState, error) {
		return e.NextLevel(), nil
	})
}

// PreviousLevel goes back to the preceding level, wrapping around
func (s *gameServiceImpl) PreviousLevel(ctx context.Context, sessionID string) (*engine.GameState, error) {
	return s.mutate(sessionID, "previous level", func(e *engine.GameEngine) (*engine.GameState, error) {
		return e.PreviousLevel(), nil
	})
}

// mutate runs op under the write lock and persists the session
func (s *gameServiceImpl) mutate(sessionID, action string, op func(*engine.GameEngine) (*engine.GameState, error)) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}
	s.sessions.UpdateLastAccessed(sessionID)

	state, err := op(sess.Engine)
	sess.Engine.DrainEvents()
	if err != nil {
		return nil, fmt.Errorf("%s failed: %w", action, err)
	}

	s.logger.Debug().Str("session", sessionID).Int("level", state.CurrentIndex).Msg(action)
	s.save(sessionID, action)
	return state, nil
}

// GetGameState retrieves the current game state
func (s *gameServiceImpl) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	s.sessions.UpdateLastAccessed(sessionID)
	return sess.Engine.GetState(), nil
}

// GetMoveHistory returns paginated move history
func (s *gameServiceImpl) GetMoveHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	return paginateHistory(sess.Engine.GetMoveHistory(), opts), nil
}

func paginateHistory(history []engine.MoveHistoryEntry, opts HistoryOptions) *HistoryResponse {
	total := len(history)

	// Apply defaults
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}
	if opts.Order == "" {
		opts.Order = "desc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := start + opts.Limit
	if end > total {
		end = total
	}

	moves := []engine.MoveHistoryEntry{}
	if start < total {
		if opts.Order == "desc" {
			// most recent first
			for i := total - 1 - start; i >= total-end; i-- {
				moves = append(moves, history[i])
			}
		} else {
			moves = append(moves, history[start:end]...)
		}
	}

	return &HistoryResponse{
		Moves:       moves,
		TotalMoves:  total,
		Page:        opts.Page,
		PageSize:    opts.Limit,
		TotalPages:  totalPages,
		HasNext:     opts.Page < totalPages,
		HasPrevious: opts.Page > 1,
	}
}

// ListPacks returns the level packs available on disk
func (s *gameServiceImpl) ListPacks(ctx context.Context) ([]*PackInfo, error) {
	return s.packs.ListPacks()
}

// LoadPack loads a level pack by identifier
func (s *gameServiceImpl) LoadPack(ctx context.Context, packID string) (*engine.LevelPack, error) {
	return s.packs.LoadPack(packID)
}

// SavePack validates and stores a level pack
func (s *gameServiceImpl) SavePack(ctx context.Context, packID string, pack *engine.LevelPack) error {
	if err := s.packs.SavePack(packID, pack); err != nil {
		return err
	}
	s.logger.Info().Str("pack", packID).Int("levels", len(pack.Levels)).Msg("level pack saved")
	return nil
}

func (s *gameServiceImpl) save(sessionID, action string) {
	if err := s.sessions.Save(sessionID); err != nil {
		s.logger.Warn().Err(err).Str("session", sessionID).Str("action", action).Msg("failed to persist session")
	}
}

func (s *gameServiceImpl) packIDs() []string {
	packs, err := s.packs.ListPacks()
	if err != nil {
		return nil
	}
	ids := make([]string, 0, len(packs))
	for _, p := range packs {
		ids = append(ids, p.PackID)
	}
	return ids
}

func sessionInfo(sess *Session) *SessionInfo {
	state := sess.Engine.GetState()
	return &SessionInfo{
		ID:             sess.ID,
		PackID:         sess.PackID,
		PackName:       state.PackName,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		GameState:      state,
	}
}

func stepInfo(idx int, dir string, res engine.MoveResult) StepInfo {
	return StepInfo{
		Idx:       idx,
		Dir:       dir,
		From:      res.From,
		To:        res.To,
		Push:      res.Kind == engine.MovePush,
		BoxTo:     res.BoxTo,
		BoxOnGoal: res.BoxOnGoal,
		Completed: res.Completed,
	}
}

func attemptInfo(dir string, res engine.MoveResult) *AttemptInfo {
	return &AttemptInfo{
		Row:     res.Attempted.Row,
		Column:  res.Attempted.Column,
		Blocker: strings.TrimPrefix(stopReasonCode(dir, res), "blocked_"),
	}
}

// stopReasonCode classifies a move that left the worker in place
func stopReasonCode(dir string, res engine.MoveResult) string {
	if d, ok := engine.ParseDirection(dir); !ok || d == engine.None {
		return "invalid_direction"
	}
	return "blocked_" + string(res.Blocker)
}

// buildLocal3x3 renders the cells around the worker; cells outside the
// grid read as walls
func buildLocal3x3(state *engine.GameState) []string {
	if state == nil {
		return nil
	}
	rows := state.Level.Layout
	w := state.Level.Worker
	lines := make([]string, 0, 3)
	for dr := -1; dr <= 1; dr++ {
		var line strings.Builder
		for dc := -1; dc <= 1; dc++ {
			r, c := w.Row+dr, w.Column+dc
			if r < 0 || r >= state.Level.Rows || c < 0 || c >= state.Level.Columns {
				line.WriteRune(engine.SymbolWall)
				continue
			}
			row := []rune(rows[r])
			if c >= len(row) {
				line.WriteRune(engine.SymbolFloor)
				continue
			}
			line.WriteRune(row[c])
		}
		lines = append(lines, line.String())
	}
	return lines
}
