package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
	"github.com/wricardo/storekeeper/game/engine"
	"github.com/wricardo/storekeeper/game/session"
)

func TestConstants(t *testing.T) {
	assert.Equal(t, "1.0.0", Version)
	assert.Equal(t, "Storekeeper Server", AppName)
}

func memorySettings(t *testing.T) settings {
	return settings{
		LevelsDir:    t.TempDir(),
		SessionsDir:  filepath.Join(t.TempDir(), "sessions"),
		SessionStore: StoreMemory,
	}
}

func TestInitializeServices(t *testing.T) {
	t.Run("memory store", func(t *testing.T) {
		svcs, err := initializeServices(memorySettings(t), zerolog.Nop())
		require.NoError(t, err)
		defer svcs.Close()
		assert.NotNil(t, svcs.game)
		assert.Nil(t, svcs.persistence)
	})

	t.Run("file store with watcher", func(t *testing.T) {
		s := memorySettings(t)
		s.SessionStore = StoreFile
		s.Watch = true
		svcs, err := initializeServices(s, zerolog.Nop())
		require.NoError(t, err)
		defer svcs.Close()
		assert.NotNil(t, svcs.persistence)
		assert.NotNil(t, svcs.watcher)
	})

	t.Run("postgres requires a DSN", func(t *testing.T) {
		s := memorySettings(t)
		s.SessionStore = StorePostgres
		_, err := initializeServices(s, zerolog.Nop())
		assert.ErrorContains(t, err, "database-url")
	})

	t.Run("unknown store", func(t *testing.T) {
		s := memorySettings(t)
		s.SessionStore = "redis"
		_, err := initializeServices(s, zerolog.Nop())
		assert.ErrorContains(t, err, "unknown session store")
	})

	t.Run("missing levels dir", func(t *testing.T) {
		s := memorySettings(t)
		s.LevelsDir = "/non/existent/path"
		_, err := initializeServices(s, zerolog.Nop())
		assert.Error(t, err)
	})
}

func TestSettingsFromCommand(t *testing.T) {
	t.Setenv("PORT", "9191")
	t.Setenv("SESSION_STORE", "memory")

	var got settings
	app := newApp(strings.NewReader(""), &bytes.Buffer{})
	for _, c := range app.Commands {
		if c.Name == "server" {
			c.Action = func(ctx context.Context, cmd *cli.Command) error {
				got = settingsFromCommand(cmd)
				return nil
			}
		}
	}

	require.NoError(t, app.Run(context.Background(), []string{"storekeeper", "server", "--host", "0.0.0.0", "--watch"}))
	assert.Equal(t, 9191, got.Port)
	assert.Equal(t, "0.0.0.0", got.Host)
	assert.Equal(t, StoreMemory, got.SessionStore)
	assert.Equal(t, "levels", got.LevelsDir)
	assert.Equal(t, 24*time.Hour, got.SessionTTL)
	assert.True(t, got.Watch)
	assert.Equal(t, "0.0.0.0:9191", got.addr())
}

func TestHTTPHandler(t *testing.T) {
	svcs, err := initializeServices(memorySettings(t), zerolog.Nop())
	require.NoError(t, err)
	defer svcs.Close()

	srv := httptest.NewServer(newHTTPHandler(svcs.game, nil, "http://unused", zerolog.Nop()))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/mcp")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	initialize := `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2024-11-05","capabilities":{},"clientInfo":{"name":"test","version":"1"}}}`
	resp, err = http.Post(srv.URL+"/mcp", "application/json", strings.NewReader(initialize))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body bytes.Buffer
	_, err = body.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, body.String(), "Storekeeper")
}

func TestPruneOrphanedSessions(t *testing.T) {
	s := memorySettings(t)
	s.SessionStore = StoreFile
	svcs, err := initializeServices(s, zerolog.Nop())
	require.NoError(t, err)
	defer svcs.Close()

	_, pack := svcs.packs.GetDefault()
	kept, err := svcs.sessions.Create("", "default", pack)
	require.NoError(t, err)
	gone, err := svcs.sessions.Create("", "default", pack)
	require.NoError(t, err)

	require.NoError(t, svcs.persistence.Delete(gone.ID))

	assert.Equal(t, 1, pruneOrphanedSessions(svcs.sessions, svcs.persistence, zerolog.Nop()))
	assert.Equal(t, 1, svcs.sessions.Count())
	_, err = svcs.sessions.Get(kept.ID)
	assert.NoError(t, err)
}

func TestSessionCleanupRoutineStops(t *testing.T) {
	manager := session.NewManager(zerolog.Nop())

	done := make(chan struct{})
	go func() {
		sessionCleanupRoutine(context.Background(), manager, 0, time.Hour, zerolog.Nop())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("routine with zero interval should return immediately")
	}

	ctx, cancel := context.WithCancel(context.Background())
	done = make(chan struct{})
	go func() {
		sessionCleanupRoutine(ctx, manager, time.Millisecond, time.Hour, zerolog.Nop())
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("routine should stop when the context ends")
	}
}

func TestRunPlay(t *testing.T) {
	input := strings.Join([]string{
		"up",
		":n",
		"RRRlluRR",
		":l 3",
		"r",
		":r",
		":x",
		":l",
		":q",
		"up",
	}, "\n")

	var out bytes.Buffer
	require.NoError(t, runPlay(strings.NewReader(input), &out, engine.DefaultLevelPack(), 0, zerolog.Nop()))

	text := out.String()
	assert.Contains(t, text, "level 1/3: First Push")
	assert.Contains(t, text, "level 2/3: Corridor")
	assert.Contains(t, text, "level 3/3: Corner")
	assert.Equal(t, 2, strings.Count(text, "*** Level completed! ***"))
	assert.Contains(t, text, "Error: unknown command \"x\"")
	assert.Contains(t, text, "Error: usage: :l N")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(text), "Bye!"))
}

func TestRunPlay_StartLevel(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, runPlay(strings.NewReader(""), &out, engine.DefaultLevelPack(), 2, zerolog.Nop()))
	assert.Contains(t, out.String(), "level 3/3: Corner")

	err := runPlay(strings.NewReader(""), &out, engine.DefaultLevelPack(), 7, zerolog.Nop())
	assert.ErrorIs(t, err, engine.ErrIndexOutOfRange)
}

func TestLoadPlayPack(t *testing.T) {
	pack, err := loadPlayPack("/non/existent", "", zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, "default", pack.Name)

	_, err = loadPlayPack("/non/existent", "classic", zerolog.Nop())
	assert.Error(t, err)

	pack, err = loadPlayPack(t.TempDir(), "", zerolog.Nop())
	require.NoError(t, err)
	assert.Len(t, pack.Levels, 3)
}

func TestPlayCommand(t *testing.T) {
	var out bytes.Buffer
	app := newApp(strings.NewReader("U\n:q\n"), &out)
	require.NoError(t, app.Run(context.Background(), []string{"storekeeper", "play", "--levels-dir", "/non/existent", "--log-level", "error"}))
	assert.Contains(t, out.String(), "*** Level completed! ***")
}
