package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gws "github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wricardo/storekeeper/game/engine"
	"github.com/wricardo/storekeeper/game/service"
	"github.com/wricardo/storekeeper/game/session"
	"github.com/wricardo/storekeeper/transport/websocket"
)

// MockGameService implements service.GameService for testing
type MockGameService struct {
	CreateSessionFunc  func(ctx context.Context, packID string, level int) (*service.SessionInfo, error)
	GetSessionFunc     func(ctx context.Context, sessionID string) (*service.SessionInfo, error)
	ListSessionsFunc   func(ctx context.Context) ([]*service.SessionInfo, error)
	DeleteSessionFunc  func(ctx context.Context, sessionID string) error
	MoveFunc           func(ctx context.Context, sessionID, direction string, reset bool) (*service.MoveResult, error)
	BulkMoveFunc       func(ctx context.Context, sessionID string, moves []string, reset bool) (*service.BulkMoveResult, error)
	ResetFunc          func(ctx context.Context, sessionID string) (*engine.GameState, error)
	SelectLevelFunc    func(ctx context.Context, sessionID string, index int) (*engine.GameState, error)
	NextLevelFunc      func(ctx context.Context, sessionID string) (*engine.GameState, error)
	PreviousLevelFunc  func(ctx context.Context, sessionID string) (*engine.GameState, error)
	GetGameStateFunc   func(ctx context.Context, sessionID string) (*engine.GameState, error)
	GetMoveHistoryFunc func(ctx context.Context, sessionID string, opts service.HistoryOptions) (*service.HistoryResponse, error)
	ListPacksFunc      func(ctx context.Context) ([]*service.PackInfo, error)
	LoadPackFunc       func(ctx context.Context, packID string) (*engine.LevelPack, error)
	SavePackFunc       func(ctx context.Context, packID string, pack *engine.LevelPack) error
}

func (m *MockGameService) CreateSession(ctx context.Context, packID string, level int) (*service.SessionInfo, error) {
	if m.CreateSessionFunc != nil {
		return m.CreateSessionFunc(ctx, packID, level)
	}
	return &service.SessionInfo{ID: "ab12", PackID: packID, CreatedAt: time.Now()}, nil
}

func (m *MockGameService) GetSession(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
	if m.GetSessionFunc != nil {
		return m.GetSessionFunc(ctx, sessionID)
	}
	return &service.SessionInfo{ID: sessionID, PackID: "classic"}, nil
}

func (m *MockGameService) ListSessions(ctx context.Context) ([]*service.SessionInfo, error) {
	if m.ListSessionsFunc != nil {
		return m.ListSessionsFunc(ctx)
	}
	return []*service.SessionInfo{}, nil
}

func (m *MockGameService) DeleteSession(ctx context.Context, sessionID string) error {
	if m.DeleteSessionFunc != nil {
		return m.DeleteSessionFunc(ctx, sessionID)
	}
	return nil
}

func (m *MockGameService) Move(ctx context.Context, sessionID, direction string, reset bool) (*service.MoveResult, error) {
	if m.MoveFunc != nil {
		return m.MoveFunc(ctx, sessionID, direction, reset)
	}
	return &service.MoveResult{Success: true, GameState: &engine.GameState{}}, nil
}

func (m *MockGameService) BulkMove(ctx context.Context, sessionID string, moves []string, reset bool) (*service.BulkMoveResult, error) {
	if m.BulkMoveFunc != nil {
		return m.BulkMoveFunc(ctx, sessionID, moves, reset)
	}
	return &service.BulkMoveResult{Success: true, GameState: &engine.GameState{}}, nil
}

func (m *MockGameService) Reset(ctx context.Context, sessionID string) (*engine.GameState, error) {
	if m.ResetFunc != nil {
		return m.ResetFunc(ctx, sessionID)
	}
	return &engine.GameState{}, nil
}

func (m *MockGameService) SelectLevel(ctx context.Context, sessionID string, index int) (*engine.GameState, error) {
	if m.SelectLevelFunc != nil {
		return m.SelectLevelFunc(ctx, sessionID, index)
	}
	return &engine.GameState{CurrentIndex: index}, nil
}

func (m *MockGameService) NextLevel(ctx context.Context, sessionID string) (*engine.GameState, error) {
	if m.NextLevelFunc != nil {
		return m.NextLevelFunc(ctx, sessionID)
	}
	return &engine.GameState{CurrentIndex: 1}, nil
}

func (m *MockGameService) PreviousLevel(ctx context.Context, sessionID string) (*engine.GameState, error) {
	if m.PreviousLevelFunc != nil {
		return m.PreviousLevelFunc(ctx, sessionID)
	}
	return &engine.GameState{CurrentIndex: 2}, nil
}

func (m *MockGameService) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	if m.GetGameStateFunc != nil {
		return m.GetGameStateFunc(ctx, sessionID)
	}
	return &engine.GameState{PackName: "classic"}, nil
}

func (m *MockGameService) GetMoveHistory(ctx context.Context, sessionID string, opts service.HistoryOptions) (*service.HistoryResponse, error) {
	if m.GetMoveHistoryFunc != nil {
		return m.GetMoveHistoryFunc(ctx, sessionID, opts)
	}
	return &service.HistoryResponse{Moves: []engine.MoveHistoryEntry{}, Page: opts.Page, PageSize: opts.Limit}, nil
}

func (m *MockGameService) ListPacks(ctx context.Context) ([]*service.PackInfo, error) {
	if m.ListPacksFunc != nil {
		return m.ListPacksFunc(ctx)
	}
	return []*service.PackInfo{}, nil
}

func (m *MockGameService) LoadPack(ctx context.Context, packID string) (*engine.LevelPack, error) {
	if m.LoadPackFunc != nil {
		return m.LoadPackFunc(ctx, packID)
	}
	return engine.DefaultLevelPack(), nil
}

func (m *MockGameService) SavePack(ctx context.Context, packID string, pack *engine.LevelPack) error {
	if m.SavePackFunc != nil {
		return m.SavePackFunc(ctx, packID, pack)
	}
	return nil
}

func newTestServer(svc service.GameService) *Server {
	return NewServer(svc, nil, zerolog.Nop())
}

func do(t *testing.T, s *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v))
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("session not found: %w", session.ErrSessionNotFound), http.StatusNotFound},
		{fmt.Errorf("x: %w", service.ErrPackNotFound), http.StatusNotFound},
		{&engine.IndexOutOfRangeError{Index: 9, Count: 3}, http.StatusBadRequest},
		{fmt.Errorf("x: %w", service.ErrInvalidPack), http.StatusBadRequest},
		{&engine.LevelPackParseError{Source: "p", Reason: "no levels"}, http.StatusBadRequest},
		{session.ErrInvalidSessionID, http.StatusBadRequest},
		{session.ErrSessionAlreadyExists, http.StatusConflict},
		{fmt.Errorf("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}

func TestCreateSession(t *testing.T) {
	t.Run("with pack and level", func(t *testing.T) {
		var gotPack string
		var gotLevel int
		s := newTestServer(&MockGameService{
			CreateSessionFunc: func(ctx context.Context, packID string, level int) (*service.SessionInfo, error) {
				gotPack, gotLevel = packID, level
				return &service.SessionInfo{ID: "ab12", PackID: packID}, nil
			},
		})

		w := do(t, s, "POST", "/api/sessions", map[string]interface{}{"pack_id": "microban", "level": 2})
		require.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, "microban", gotPack)
		assert.Equal(t, 2, gotLevel)

		var info service.SessionInfo
		decode(t, w, &info)
		assert.Equal(t, "ab12", info.ID)
	})

	t.Run("empty body uses default pack", func(t *testing.T) {
		var gotPack = "unset"
		s := newTestServer(&MockGameService{
			CreateSessionFunc: func(ctx context.Context, packID string, level int) (*service.SessionInfo, error) {
				gotPack = packID
				return &service.SessionInfo{ID: "cd34"}, nil
			},
		})
		w := do(t, s, "POST", "/api/sessions", nil)
		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, "", gotPack)
	})

	t.Run("bad json", func(t *testing.T) {
		w := do(t, newTestServer(&MockGameService{}), "POST", "/api/sessions", "{nope")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown pack", func(t *testing.T) {
		s := newTestServer(&MockGameService{
			CreateSessionFunc: func(ctx context.Context, packID string, level int) (*service.SessionInfo, error) {
				return nil, fmt.Errorf("pack %q: %w", packID, service.ErrPackNotFound)
			},
		})
		w := do(t, s, "POST", "/api/sessions", map[string]string{"pack_id": "nope"})
		assert.Equal(t, http.StatusNotFound, w.Code)

		var body map[string]interface{}
		decode(t, w, &body)
		assert.Contains(t, body["error"], "not found")
		assert.EqualValues(t, http.StatusNotFound, body["code"])
	})
}

func TestListSessions(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s := newTestServer(&MockGameService{
		ListSessionsFunc: func(ctx context.Context) ([]*service.SessionInfo, error) {
			return []*service.SessionInfo{
				{ID: "a", CreatedAt: base, LastAccessedAt: base.Add(3 * time.Hour)},
				{ID: "b", CreatedAt: base.Add(time.Hour), LastAccessedAt: base.Add(time.Hour)},
				{ID: "c", CreatedAt: base.Add(2 * time.Hour), LastAccessedAt: base.Add(2 * time.Hour)},
			}, nil
		},
	})

	type listResponse struct {
		Count    int                    `json:"count"`
		Total    int                    `json:"total"`
		Sessions []*service.SessionInfo `json:"sessions"`
		Sort     string                 `json:"sort"`
		Order    string                 `json:"order"`
	}
	ids := func(r listResponse) []string {
		out := []string{}
		for _, s := range r.Sessions {
			out = append(out, s.ID)
		}
		return out
	}

	tests := []struct {
		query string
		want  []string
		total int
	}{
		{"", []string{"a", "c", "b"}, 3},
		{"?sort=created&order=asc", []string{"a", "b", "c"}, 3},
		{"?sort=created&limit=2", []string{"c", "b"}, 3},
		{"?limit=0", []string{"a", "c", "b"}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			w := do(t, s, "GET", "/api/sessions"+tt.query, nil)
			require.Equal(t, http.StatusOK, w.Code)
			var resp listResponse
			decode(t, w, &resp)
			assert.Equal(t, tt.want, ids(resp))
			assert.Equal(t, tt.total, resp.Total)
			assert.Equal(t, len(tt.want), resp.Count)
		})
	}
}

func TestGetAndDeleteSession(t *testing.T) {
	missing := func(id string) error { return fmt.Errorf("session not found: %w", session.ErrSessionNotFound) }
	s := newTestServer(&MockGameService{
		GetSessionFunc: func(ctx context.Context, id string) (*service.SessionInfo, error) {
			if id == "ab12" {
				return &service.SessionInfo{ID: id}, nil
			}
			return nil, missing(id)
		},
		DeleteSessionFunc: func(ctx context.Context, id string) error {
			if id == "ab12" {
				return nil
			}
			return missing(id)
		},
	})

	assert.Equal(t, http.StatusOK, do(t, s, "GET", "/api/sessions/ab12", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, s, "GET", "/api/sessions/zz99", nil).Code)

	w := do(t, s, "DELETE", "/api/sessions/ab12", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Session ab12 deleted")
	assert.Equal(t, http.StatusNotFound, do(t, s, "DELETE", "/api/sessions/zz99", nil).Code)
}

func TestMove(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		var gotDir string
		var gotReset bool
		s := newTestServer(&MockGameService{
			MoveFunc: func(ctx context.Context, id, dir string, reset bool) (*service.MoveResult, error) {
				gotDir, gotReset = dir, reset
				return &service.MoveResult{
					Success:   true,
					GameState: &engine.GameState{TotalMoves: 1},
					Step:      &service.StepInfo{Idx: 1, Dir: dir, Push: true},
				}, nil
			},
		})

		w := do(t, s, "POST", "/api/sessions/ab12/move", map[string]interface{}{"direction": "up", "reset": true})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "up", gotDir)
		assert.True(t, gotReset)

		var res service.MoveResult
		decode(t, w, &res)
		assert.True(t, res.Success)
		require.NotNil(t, res.Step)
		assert.True(t, res.Step.Push)
	})

	t.Run("blocked is still 200", func(t *testing.T) {
		s := newTestServer(&MockGameService{
			MoveFunc: func(ctx context.Context, id, dir string, reset bool) (*service.MoveResult, error) {
				return &service.MoveResult{
					GameState:   &engine.GameState{},
					AttemptedTo: &service.AttemptInfo{Row: 0, Column: 1, Blocker: "wall"},
				}, nil
			},
		})
		w := do(t, s, "POST", "/api/sessions/ab12/move", map[string]string{"direction": "up"})
		require.Equal(t, http.StatusOK, w.Code)

		var res service.MoveResult
		decode(t, w, &res)
		assert.False(t, res.Success)
		assert.Equal(t, "wall", res.AttemptedTo.Blocker)
	})

	t.Run("bad body", func(t *testing.T) {
		w := do(t, newTestServer(&MockGameService{}), "POST", "/api/sessions/ab12/move", "not json")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown session", func(t *testing.T) {
		s := newTestServer(&MockGameService{
			MoveFunc: func(ctx context.Context, id, dir string, reset bool) (*service.MoveResult, error) {
				return nil, fmt.Errorf("session not found: %w", session.ErrSessionNotFound)
			},
		})
		w := do(t, s, "POST", "/api/sessions/zz99/move", map[string]string{"direction": "up"})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestBulkMove(t *testing.T) {
	var gotMoves []string
	s := newTestServer(&MockGameService{
		BulkMoveFunc: func(ctx context.Context, id string, moves []string, reset bool) (*service.BulkMoveResult, error) {
			gotMoves = moves
			return &service.BulkMoveResult{
				MovesExecuted:  2,
				RequestedMoves: len(moves),
				GameState:      &engine.GameState{},
				StopReasonCode: "blocked_wall",
				StoppedOnMove:  3,
			}, nil
		},
	})

	w := do(t, s, "POST", "/api/sessions/ab12/bulk-move", map[string]interface{}{"moves": []string{"r", "r", "u"}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"r", "r", "u"}, gotMoves)

	var res service.BulkMoveResult
	decode(t, w, &res)
	assert.Equal(t, 2, res.MovesExecuted)
	assert.Equal(t, "blocked_wall", res.StopReasonCode)
	assert.Equal(t, 3, res.StoppedOnMove)

	assert.Equal(t, http.StatusBadRequest, do(t, s, "POST", "/api/sessions/ab12/bulk-move", "[").Code)
}

func TestResetAndNavigation(t *testing.T) {
	s := newTestServer(&MockGameService{
		SelectLevelFunc: func(ctx context.Context, id string, index int) (*engine.GameState, error) {
			if index >= 3 {
				return nil, fmt.Errorf("select level failed: %w", &engine.IndexOutOfRangeError{Index: index, Count: 3})
			}
			return &engine.GameState{CurrentIndex: index}, nil
		},
	})

	w := do(t, s, "POST", "/api/sessions/ab12/reset", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Level reset successfully")

	w = do(t, s, "POST", "/api/sessions/ab12/level", map[string]int{"index": 2})
	require.Equal(t, http.StatusOK, w.Code)
	var state engine.GameState
	decode(t, w, &state)
	assert.Equal(t, 2, state.CurrentIndex)

	assert.Equal(t, http.StatusBadRequest, do(t, s, "POST", "/api/sessions/ab12/level", map[string]int{"index": 7}).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, s, "POST", "/api/sessions/ab12/level", map[string]string{}).Code)

	w = do(t, s, "POST", "/api/sessions/ab12/next", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &state)
	assert.Equal(t, 1, state.CurrentIndex)

	w = do(t, s, "POST", "/api/sessions/ab12/previous", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &state)
	assert.Equal(t, 2, state.CurrentIndex)
}

func TestGetHistory(t *testing.T) {
	var got service.HistoryOptions
	s := newTestServer(&MockGameService{
		GetMoveHistoryFunc: func(ctx context.Context, id string, opts service.HistoryOptions) (*service.HistoryResponse, error) {
			got = opts
			return &service.HistoryResponse{Moves: []engine.MoveHistoryEntry{}}, nil
		},
	})

	require.Equal(t, http.StatusOK, do(t, s, "GET", "/api/sessions/ab12/history", nil).Code)
	assert.Equal(t, service.HistoryOptions{Page: 1, Limit: 20, Order: "desc"}, got)

	require.Equal(t, http.StatusOK, do(t, s, "GET", "/api/sessions/ab12/history?page=3&limit=5&order=asc", nil).Code)
	assert.Equal(t, service.HistoryOptions{Page: 3, Limit: 5, Order: "asc"}, got)

	require.Equal(t, http.StatusOK, do(t, s, "GET", "/api/sessions/ab12/history?page=-1&limit=x&order=sideways", nil).Code)
	assert.Equal(t, service.HistoryOptions{Page: 1, Limit: 20, Order: "desc"}, got)
}

func TestGetGameState(t *testing.T) {
	s := newTestServer(&MockGameService{})
	w := do(t, s, "GET", "/api/sessions/ab12/state", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var state engine.GameState
	decode(t, w, &state)
	assert.Equal(t, "classic", state.PackName)
}

func TestPacks(t *testing.T) {
	var loaded, savedID string
	var saved *engine.LevelPack
	s := newTestServer(&MockGameService{
		ListPacksFunc: func(ctx context.Context) ([]*service.PackInfo, error) {
			return []*service.PackInfo{{PackID: "classic", Name: "Classic", LevelCount: 3}}, nil
		},
		LoadPackFunc: func(ctx context.Context, id string) (*engine.LevelPack, error) {
			loaded = id
			if id == "missing" {
				return nil, service.ErrPackNotFound
			}
			return engine.DefaultLevelPack(), nil
		},
		SavePackFunc: func(ctx context.Context, id string, pack *engine.LevelPack) error {
			savedID, saved = id, pack
			if len(pack.Levels) == 0 {
				return fmt.Errorf("%w: no levels", service.ErrInvalidPack)
			}
			return nil
		},
	})

	w := do(t, s, "GET", "/api/packs", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var packs []service.PackInfo
	decode(t, w, &packs)
	require.Len(t, packs, 1)
	assert.Equal(t, 3, packs[0].LevelCount)

	w = do(t, s, "GET", "/api/packs/classic.yaml", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "classic", loaded)

	assert.Equal(t, http.StatusNotFound, do(t, s, "GET", "/api/packs/missing", nil).Code)

	body := map[string]interface{}{
		"pack_id": "mine",
		"name":    "My Pack",
		"levels":  []map[string]interface{}{{"name": "One", "layout": []string{"####", "#@$.#", "####"}}},
	}
	w = do(t, s, "POST", "/api/packs", body)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "mine", savedID)
	require.NotNil(t, saved)
	assert.Equal(t, "My Pack", saved.Name)
	require.Len(t, saved.Levels, 1)
	assert.Equal(t, "One", saved.Levels[0].Name)

	w = do(t, s, "POST", "/api/packs", map[string]interface{}{"name": "Empty"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Empty", savedID)

	assert.Equal(t, http.StatusBadRequest, do(t, s, "POST", "/api/packs", map[string]interface{}{}).Code)
}

func TestHealth(t *testing.T) {
	w := do(t, newTestServer(&MockGameService{}), "GET", "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}

func TestWebSocket(t *testing.T) {
	t.Run("requires hub and session", func(t *testing.T) {
		assert.Equal(t, http.StatusServiceUnavailable, do(t, newTestServer(&MockGameService{}), "GET", "/ws?session=ab12", nil).Code)

		hub := websocket.NewHub(zerolog.Nop())
		go hub.Run()
		defer hub.Stop()
		s := NewServer(&MockGameService{
			GetGameStateFunc: func(ctx context.Context, id string) (*engine.GameState, error) {
				return nil, session.ErrSessionNotFound
			},
		}, hub, zerolog.Nop())

		assert.Equal(t, http.StatusBadRequest, do(t, s, "GET", "/ws", nil).Code)
		assert.Equal(t, http.StatusNotFound, do(t, s, "GET", "/ws?session=zz99", nil).Code)
	})

	t.Run("move is pushed to subscribers", func(t *testing.T) {
		hub := websocket.NewHub(zerolog.Nop())
		go hub.Run()
		defer hub.Stop()

		s := NewServer(&MockGameService{
			MoveFunc: func(ctx context.Context, id, dir string, reset bool) (*service.MoveResult, error) {
				return &service.MoveResult{
					Success:   true,
					GameState: &engine.GameState{PackName: "classic", TotalMoves: 1},
					Events:    []service.GameEvent{{ID: "e1", Type: engine.EventMoveEnded}},
				}, nil
			},
		}, hub, zerolog.Nop())

		srv := httptest.NewServer(s)
		defer srv.Close()

		url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?session=ab12"
		conn, _, err := gws.DefaultDialer.Dial(url, nil)
		require.NoError(t, err)
		defer conn.Close()

		var initial websocket.Message
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		require.NoError(t, conn.ReadJSON(&initial))
		assert.Equal(t, websocket.TypeState, initial.Type)

		require.Eventually(t, func() bool { return hub.ClientCount("ab12") == 1 }, 2*time.Second, 10*time.Millisecond)

		resp, err := http.Post(srv.URL+"/api/sessions/ab12/move", "application/json", strings.NewReader(`{"direction":"right"}`))
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var update websocket.Message
		require.NoError(t, conn.ReadJSON(&update))
		assert.Equal(t, 1, update.GameState.TotalMoves)
		require.Len(t, update.Events, 1)
		assert.Equal(t, engine.EventMoveEnded, update.Events[0].Type)
	})
}
