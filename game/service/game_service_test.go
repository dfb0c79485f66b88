package service_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wricardo/storekeeper/game/engine"
	"github.com/wricardo/storekeeper/game/service"
)

var errMockNotFound = errors.New("session not found")

// MockSessionManager implements service.SessionManager for testing
type MockSessionManager struct {
	mu       sync.Mutex
	sessions map[string]*service.Session
	saves    int
}

func NewMockSessionManager() *MockSessionManager {
	return &MockSessionManager{sessions: make(map[string]*service.Session)}
}

func (m *MockSessionManager) Create(id, packID string, pack *engine.LevelPack) (*service.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id == "" {
		id = fmt.Sprintf("test_%d", len(m.sessions)+1)
	}
	if _, exists := m.sessions[id]; exists {
		return nil, errors.New("session already exists")
	}

	eng, err := engine.NewEngine(pack, engine.LoadOptions{Source: packID})
	if err != nil {
		return nil, err
	}
	sess := &service.Session{
		ID:             id,
		Engine:         eng,
		PackID:         packID,
		Pack:           pack,
		CreatedAt:      time.Now(),
		LastAccessedAt: time.Now(),
	}
	m.sessions[id] = sess
	return sess, nil
}

func (m *MockSessionManager) Get(id string) (*service.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, exists := m.sessions[id]
	if !exists {
		return nil, errMockNotFound
	}
	return sess, nil
}

func (m *MockSessionManager) GetOrCreate(id, packID string, pack *engine.LevelPack) (*service.Session, error) {
	if sess, err := m.Get(id); err == nil {
		return sess, nil
	}
	return m.Create(id, packID, pack)
}

func (m *MockSessionManager) List() []*service.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*service.Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	return out
}

func (m *MockSessionManager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.sessions[id]; !exists {
		return errMockNotFound
	}
	delete(m.sessions, id)
	return nil
}

func (m *MockSessionManager) UpdateLastAccessed(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sess, exists := m.sessions[id]; exists {
		sess.LastAccessedAt = time.Now()
		return nil
	}
	return errMockNotFound
}

func (m *MockSessionManager) Save(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	return nil
}

// MockPackManager implements service.PackManager for testing
type MockPackManager struct {
	packs map[string]*engine.LevelPack
	saved map[string]*engine.LevelPack
}

func NewMockPackManager() *MockPackManager {
	return &MockPackManager{
		packs: map[string]*engine.LevelPack{"default": engine.DefaultLevelPack()},
		saved: make(map[string]*engine.LevelPack),
	}
}

func (m *MockPackManager) LoadPack(packID string) (*engine.LevelPack, error) {
	if pack, ok := m.packs[packID]; ok {
		return pack, nil
	}
	return nil, fmt.Errorf("%w: %s", service.ErrPackNotFound, packID)
}

func (m *MockPackManager) ListPacks() ([]*service.PackInfo, error) {
	var out []*service.PackInfo
	for id, p := range m.packs {
		out = append(out, &service.PackInfo{PackID: id, Name: p.Name, LevelCount: len(p.Levels)})
	}
	return out, nil
}

func (m *MockPackManager) GetDefault() (string, *engine.LevelPack) {
	return "default", m.packs["default"]
}

func (m *MockPackManager) SavePack(packID string, pack *engine.LevelPack) error {
	if err := engine.ValidateLevelPack(pack); err != nil {
		return fmt.Errorf("%w: %v", service.ErrInvalidPack, err)
	}
	m.saved[packID] = pack
	return nil
}

func newTestService(t *testing.T) (service.GameService, *MockSessionManager) {
	t.Helper()
	sessions := NewMockSessionManager()
	return service.NewGameService(sessions, NewMockPackManager(), zerolog.Nop()), sessions
}

func createSession(t *testing.T, svc service.GameService, level int) string {
	t.Helper()
	info, err := svc.CreateSession(context.Background(), "", level)
	require.NoError(t, err)
	return info.ID
}

func TestGameService_CreateSession(t *testing.T) {
	svc, sessions := newTestService(t)
	ctx := context.Background()

	t.Run("default pack", func(t *testing.T) {
		info, err := svc.CreateSession(ctx, "", 0)
		require.NoError(t, err)
		assert.Equal(t, "default", info.PackID)
		assert.Equal(t, "default", info.PackName)
		require.NotNil(t, info.GameState)
		assert.Equal(t, 0, info.GameState.CurrentIndex)
	})

	t.Run("explicit pack and level", func(t *testing.T) {
		info, err := svc.CreateSession(ctx, "default", 2)
		require.NoError(t, err)
		assert.Equal(t, 2, info.GameState.CurrentIndex)
		assert.Equal(t, "Corner", info.GameState.Level.Name)
	})

	t.Run("unknown pack", func(t *testing.T) {
		_, err := svc.CreateSession(ctx, "nope", 0)
		require.Error(t, err)
		assert.True(t, errors.Is(err, service.ErrPackNotFound))
		assert.Contains(t, err.Error(), "default")
	})

	t.Run("level out of range", func(t *testing.T) {
		before := len(sessions.List())
		_, err := svc.CreateSession(ctx, "default", 7)
		assert.True(t, errors.Is(err, engine.ErrIndexOutOfRange))
		assert.Len(t, sessions.List(), before, "failed session is discarded")
	})
}

func TestGameService_GetAndDeleteSession(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	id := createSession(t, svc, 0)

	info, err := svc.GetSession(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, info.ID)

	list, err := svc.ListSessions(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, svc.DeleteSession(ctx, id))
	_, err = svc.GetSession(ctx, id)
	assert.True(t, errors.Is(err, errMockNotFound))
}

func TestGameService_Move(t *testing.T) {
	svc, sessions := newTestService(t)
	ctx := context.Background()

	t.Run("push completes level", func(t *testing.T) {
		id := createSession(t, svc, 0)
		result, err := svc.Move(ctx, id, "up", false)
		require.NoError(t, err)

		assert.True(t, result.Success)
		assert.True(t, result.GameState.Level.Completed)
		assert.Equal(t, []int{0}, result.GameState.Solved)
		require.NotNil(t, result.Step)
		assert.True(t, result.Step.Push)
		assert.True(t, result.Step.BoxOnGoal)
		assert.Nil(t, result.AttemptedTo)

		require.Len(t, result.Events, 3)
		assert.Equal(t, engine.EventMoveStarted, result.Events[0].Type)
		assert.Equal(t, "up", result.Events[0].Direction)
		assert.Equal(t, engine.EventLevelCompleted, result.Events[2].Type)
		for _, ev := range result.Events {
			assert.NotEmpty(t, ev.ID)
			assert.NotEmpty(t, ev.Message)
		}
		assert.Greater(t, sessions.saves, 0)
	})

	t.Run("blocked by boundary", func(t *testing.T) {
		id := createSession(t, svc, 0)
		result, err := svc.Move(ctx, id, "down", false)
		require.NoError(t, err)

		assert.False(t, result.Success)
		assert.Empty(t, result.Events)
		require.NotNil(t, result.AttemptedTo)
		assert.Equal(t, "boundary", result.AttemptedTo.Blocker)
		assert.Equal(t, 3, result.AttemptedTo.Row)
		assert.Equal(t, 1, result.AttemptedTo.Column)
	})

	t.Run("invalid direction", func(t *testing.T) {
		id := createSession(t, svc, 0)
		result, err := svc.Move(ctx, id, "sideways", false)
		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Equal(t, "invalid_direction", result.AttemptedTo.Blocker)
	})

	t.Run("reset before move", func(t *testing.T) {
		id := createSession(t, svc, 0)
		_, err := svc.Move(ctx, id, "up", false)
		require.NoError(t, err)

		result, err := svc.Move(ctx, id, "up", true)
		require.NoError(t, err)
		assert.True(t, result.Success, "the level was reset so the push is legal again")
		require.NotEmpty(t, result.Events)
		assert.Equal(t, engine.EventLevelReset, result.Events[0].Type)
	})

	t.Run("unknown session", func(t *testing.T) {
		_, err := svc.Move(ctx, "missing", "up", false)
		assert.Error(t, err)
	})
}

func TestGameService_BulkMove(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	t.Run("stops at wall", func(t *testing.T) {
		id := createSession(t, svc, 1)
		result, err := svc.BulkMove(ctx, id, []string{"right", "right", "right", "right", "left"}, false)
		require.NoError(t, err)

		assert.False(t, result.Success)
		assert.Equal(t, 5, result.RequestedMoves)
		assert.Equal(t, 3, result.MovesExecuted)
		assert.Equal(t, 4, result.StoppedOnMove)
		assert.Equal(t, "blocked_wall", result.StopReasonCode)
		assert.Equal(t, 3, result.PushesDelta)
		assert.Len(t, result.Steps, 3)
		assert.Equal(t, engine.Position{Row: 2, Column: 1}, result.StartPos)
		assert.Equal(t, engine.Position{Row: 2, Column: 4}, result.EndPos)
		require.NotNil(t, result.AttemptedTo)
		assert.Equal(t, "wall", result.AttemptedTo.Blocker)
	})

	t.Run("stops when completed", func(t *testing.T) {
		id := createSession(t, svc, 0)
		result, err := svc.BulkMove(ctx, id, []string{"up", "down", "down"}, false)
		require.NoError(t, err)

		assert.True(t, result.Success)
		assert.True(t, result.Completed)
		assert.Equal(t, "completed", result.StopReasonCode)
		assert.Equal(t, 1, result.MovesExecuted)
		assert.Equal(t, 1, result.StoppedOnMove)
	})

	t.Run("full solution", func(t *testing.T) {
		id := createSession(t, svc, 2)
		moves := strings.Split("r u u l d r d l", " ")
		result, err := svc.BulkMove(ctx, id, moves, false)
		require.NoError(t, err)
		assert.True(t, result.Completed)
		assert.Equal(t, 8, result.MovesExecuted)
		assert.Equal(t, "ruulDrdL", result.GameState.Level.History)
	})

	t.Run("invalid direction", func(t *testing.T) {
		id := createSession(t, svc, 0)
		result, err := svc.BulkMove(ctx, id, []string{"jump"}, false)
		require.NoError(t, err)
		assert.Equal(t, "invalid_direction", result.StopReasonCode)
		assert.Equal(t, 0, result.MovesExecuted)
		assert.Equal(t, []string{"#$#", "#@#", "###"}, result.LocalView3x3)
		assert.Equal(t, []string{"up"}, result.PossibleMoves)
	})

	t.Run("truncated", func(t *testing.T) {
		id := createSession(t, svc, 2)
		moves := make([]string, 0, engine.MaxBulkMoves+10)
		for len(moves) < engine.MaxBulkMoves+10 {
			moves = append(moves, "right", "left")
		}
		result, err := svc.BulkMove(ctx, id, moves, false)
		require.NoError(t, err)
		assert.True(t, result.Truncated)
		assert.Equal(t, engine.MaxBulkMoves, result.Limit)
		assert.Equal(t, engine.MaxBulkMoves, result.MovesExecuted)
		assert.True(t, result.Success)
	})
}

func TestGameService_LevelNavigation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	id := createSession(t, svc, 0)

	state, err := svc.NextLevel(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 1, state.CurrentIndex)

	state, err = svc.PreviousLevel(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 0, state.CurrentIndex)

	state, err = svc.PreviousLevel(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 2, state.CurrentIndex)

	state, err = svc.SelectLevel(ctx, id, 1)
	require.NoError(t, err)
	assert.Equal(t, "Corridor", state.Level.Name)

	_, err = svc.SelectLevel(ctx, id, 3)
	assert.True(t, errors.Is(err, engine.ErrIndexOutOfRange))

	_, err = svc.NextLevel(ctx, "missing")
	assert.Error(t, err)
}

func TestGameService_Reset(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	id := createSession(t, svc, 1)

	_, err := svc.BulkMove(ctx, id, []string{"right", "right"}, false)
	require.NoError(t, err)

	state, err := svc.Reset(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 0, state.Level.Stats.Moves)
	assert.Equal(t, engine.Position{Row: 2, Column: 1}, state.Level.Worker)

	got, err := svc.GetGameState(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, state.Level, got.Level)
}

func TestGameService_GetMoveHistory(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	id := createSession(t, svc, 2)

	_, err := svc.BulkMove(ctx, id, []string{"right", "left", "right", "left", "right"}, false)
	require.NoError(t, err)

	page, err := svc.GetMoveHistory(ctx, id, service.HistoryOptions{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, page.TotalMoves)
	assert.Equal(t, 3, page.TotalPages)
	assert.True(t, page.HasNext)
	assert.False(t, page.HasPrevious)
	require.Len(t, page.Moves, 2)
	assert.Equal(t, 5, page.Moves[0].MoveNumber)
	assert.Equal(t, 4, page.Moves[1].MoveNumber)

	last, err := svc.GetMoveHistory(ctx, id, service.HistoryOptions{Page: 3, Limit: 2})
	require.NoError(t, err)
	require.Len(t, last.Moves, 1)
	assert.Equal(t, 1, last.Moves[0].MoveNumber)
	assert.False(t, last.HasNext)

	asc, err := svc.GetMoveHistory(ctx, id, service.HistoryOptions{Limit: 2, Order: "asc"})
	require.NoError(t, err)
	assert.Equal(t, 1, asc.Moves[0].MoveNumber)
	assert.Equal(t, "right", asc.Moves[0].Action)

	beyond, err := svc.GetMoveHistory(ctx, id, service.HistoryOptions{Page: 9, Limit: 2})
	require.NoError(t, err)
	assert.NotNil(t, beyond.Moves)
	assert.Empty(t, beyond.Moves)
}

func TestGameService_Packs(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	packs, err := svc.ListPacks(ctx)
	require.NoError(t, err)
	require.Len(t, packs, 1)
	assert.Equal(t, 3, packs[0].LevelCount)

	pack, err := svc.LoadPack(ctx, "default")
	require.NoError(t, err)
	assert.Equal(t, "default", pack.Name)

	require.NoError(t, svc.SavePack(ctx, "copy", pack))
	err = svc.SavePack(ctx, "broken", &engine.LevelPack{Name: "broken"})
	assert.True(t, errors.Is(err, service.ErrInvalidPack))
}

func TestGameService_ConcurrentMoves(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	id := createSession(t, svc, 2)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			dir := "right"
			if i%2 == 1 {
				dir = "left"
			}
			_, err := svc.Move(ctx, id, dir, false)
			assert.NoError(t, err)
			_, err = svc.GetGameState(ctx, id)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	history, err := svc.GetMoveHistory(ctx, id, service.HistoryOptions{Limit: 100})
	require.NoError(t, err)
	assert.Equal(t, 10, history.TotalMoves)
}

func TestGameService_ConcurrentReaders(t *testing.T) {
	svc, sessions := newTestService(t)
	ctx := context.Background()
	id := createSession(t, svc, 0)

	stale := time.Now().Add(-time.Hour)
	sess, err := sessions.Get(id)
	require.NoError(t, err)
	sess.LastAccessedAt = stale

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			switch i % 3 {
			case 0:
				info, err := svc.GetSession(ctx, id)
				assert.NoError(t, err)
				assert.False(t, info.LastAccessedAt.IsZero())
			case 1:
				_, err := svc.GetGameState(ctx, id)
				assert.NoError(t, err)
			default:
				list, err := svc.ListSessions(ctx)
				assert.NoError(t, err)
				assert.Len(t, list, 1)
			}
		}(i)
	}
	wg.Wait()

	info, err := svc.GetSession(ctx, id)
	require.NoError(t, err)
	assert.True(t, info.LastAccessedAt.After(stale), "reads refresh the access time")
}
