// Command storekeeper serves Sokoban level packs to players and agents.
//
// Commands:
//  1. "server" (default) runs the HTTP server exposing the REST API, the
//     WebSocket feed and an /mcp HTTP endpoint
//  2. "mcp" runs an MCP stdio server against an existing API, starting an
//     internal one when none answers
//  3. "play" plays a pack in the terminal, one line of moves at a time
//
// Flags can also be set from the environment or a .env file.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"
	"github.com/wricardo/storekeeper/api"
	"github.com/wricardo/storekeeper/game/config"
	"github.com/wricardo/storekeeper/game/service"
	"github.com/wricardo/storekeeper/game/session"
	"github.com/wricardo/storekeeper/logging"
	"github.com/wricardo/storekeeper/transport/mcp"
	"github.com/wricardo/storekeeper/transport/websocket"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Storekeeper Server"
)

// Session store kinds
const (
	StoreFile     = "file"
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// settings collects the flag values shared by all commands
type settings struct {
	Host            string
	Port            int
	LevelsDir       string
	SessionsDir     string
	SessionStore    string
	DatabaseURL     string
	SessionTTL      time.Duration
	CleanupInterval time.Duration
	Watch           bool
	LogLevel        string
	LogFormat       string
	LogFile         string
	Ngrok           bool
	NgrokAuth       string
	NgrokDomain     string
	APIURL          string
}

func (s settings) addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

var commonFlags = []cli.Flag{
	&cli.StringFlag{Name: "levels-dir", Value: "levels", Usage: "directory containing level packs", Sources: cli.EnvVars("LEVELS_DIR")},
	&cli.StringFlag{Name: "log-level", Value: "info", Usage: "trace|debug|info|warn|error", Sources: cli.EnvVars("LOG_LEVEL")},
	&cli.StringFlag{Name: "log-format", Value: "console", Usage: "console|json", Sources: cli.EnvVars("LOG_FORMAT")},
	&cli.StringFlag{Name: "log-file", Usage: "append logs to this file instead of stderr", Sources: cli.EnvVars("LOG_FILE")},
}

var serverFlags = []cli.Flag{
	&cli.IntFlag{Name: "port", Value: 8080, Usage: "HTTP server port", Sources: cli.EnvVars("PORT")},
	&cli.StringFlag{Name: "host", Value: "localhost", Usage: "HTTP server host", Sources: cli.EnvVars("HOST")},
	&cli.StringFlag{Name: "sessions-dir", Value: "sessions", Usage: "directory for file session store", Sources: cli.EnvVars("SESSIONS_DIR")},
	&cli.StringFlag{Name: "session-store", Value: StoreFile, Usage: "file|postgres|memory", Sources: cli.EnvVars("SESSION_STORE")},
	&cli.StringFlag{Name: "database-url", Usage: "PostgreSQL DSN for the postgres session store", Sources: cli.EnvVars("DATABASE_URL")},
	&cli.DurationFlag{Name: "session-ttl", Value: 24 * time.Hour, Usage: "drop sessions idle for longer than this", Sources: cli.EnvVars("SESSION_TTL")},
	&cli.DurationFlag{Name: "cleanup-interval", Value: time.Hour, Usage: "how often expired sessions are removed", Sources: cli.EnvVars("CLEANUP_INTERVAL")},
	&cli.BoolFlag{Name: "watch", Usage: "reload level packs when files change", Sources: cli.EnvVars("WATCH_LEVELS")},
	&cli.BoolFlag{Name: "ngrok", Usage: "enable ngrok tunnel", Sources: cli.EnvVars("NGROK_ENABLED")},
	&cli.StringFlag{Name: "ngrok-auth", Usage: "ngrok auth token", Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN")},
	&cli.StringFlag{Name: "ngrok-domain", Usage: "custom ngrok domain", Sources: cli.EnvVars("NGROK_DOMAIN")},
}

func withFlags(groups ...[]cli.Flag) []cli.Flag {
	var out []cli.Flag
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

// settingsFromCommand reads every flag the command defines
func settingsFromCommand(cmd *cli.Command) settings {
	return settings{
		Host:            cmd.String("host"),
		Port:            int(cmd.Int("port")),
		LevelsDir:       cmd.String("levels-dir"),
		SessionsDir:     cmd.String("sessions-dir"),
		SessionStore:    cmd.String("session-store"),
		DatabaseURL:     cmd.String("database-url"),
		SessionTTL:      cmd.Duration("session-ttl"),
		CleanupInterval: cmd.Duration("cleanup-interval"),
		Watch:           cmd.Bool("watch"),
		LogLevel:        cmd.String("log-level"),
		LogFormat:       cmd.String("log-format"),
		LogFile:         cmd.String("log-file"),
		Ngrok:           cmd.Bool("ngrok"),
		NgrokAuth:       cmd.String("ngrok-auth"),
		NgrokDomain:     cmd.String("ngrok-domain"),
		APIURL:          cmd.String("api-url"),
	}
}

// newApp builds the command tree; in and out back the play command
func newApp(in io.Reader, out io.Writer) *cli.Command {
	serverCmd := &cli.Command{
		Name:    "server",
		Aliases: []string{"http"},
		Usage:   "Run HTTP server with REST API, WebSocket and MCP endpoint",
		Flags:   withFlags(commonFlags, serverFlags),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runServer(ctx, settingsFromCommand(cmd))
		},
	}

	return &cli.Command{
		Name:    "storekeeper",
		Usage:   AppName,
		Version: Version,
		Flags:   withFlags(commonFlags, serverFlags),
		Action:  serverCmd.Action,
		Commands: []*cli.Command{
			serverCmd,
			{
				Name:    "mcp",
				Aliases: []string{"stdio-mcp", "mcp-stdio"},
				Usage:   "Run MCP stdio server, starting an internal HTTP API if none is available",
				Flags: withFlags(commonFlags, serverFlags, []cli.Flag{
					&cli.StringFlag{Name: "api-url", Value: "http://localhost:8080", Usage: "REST API to proxy", Sources: cli.EnvVars("API_URL")},
				}),
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runStdioMCP(ctx, settingsFromCommand(cmd))
				},
			},
			{
				Name:  "play",
				Usage: "Play a level pack in the terminal",
				Flags: withFlags(commonFlags, []cli.Flag{
					&cli.StringFlag{Name: "pack", Usage: "level pack ID (defaults to the server default)"},
					&cli.IntFlag{Name: "level", Usage: "zero-based level to start on"},
				}),
				Action: func(ctx context.Context, cmd *cli.Command) error {
					s := settingsFromCommand(cmd)
					logger, err := newLogger(s)
					if err != nil {
						return err
					}
					defer logger.Close()
					pack, err := loadPlayPack(s.LevelsDir, cmd.String("pack"), logger.Logger)
					if err != nil {
						return err
					}
					return runPlay(in, out, pack, int(cmd.Int("level")), logger.Logger)
				},
			},
		},
	}
}

// main loads .env, then runs the selected command
func main() {
	envErr := godotenv.Load()

	if err := newApp(os.Stdin, os.Stdout).Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if envErr != nil && !errors.Is(envErr, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Warning: error loading .env file: %v\n", envErr)
	}
}

func newLogger(s settings) (*logging.Logger, error) {
	return logging.New(logging.Options{Level: s.LogLevel, Format: s.LogFormat, File: s.LogFile})
}

// services bundles everything initializeServices wires together
type services struct {
	game        service.GameService
	sessions    *session.Manager
	packs       *config.Manager
	persistence session.SessionPersistence
	watcher     *config.Watcher
	closers     []io.Closer
}

// Close releases the watcher and persistence backends
func (s *services) Close() {
	if s.watcher != nil {
		s.watcher.Close()
	}
	for _, c := range s.closers {
		c.Close()
	}
}

// initializeServices wires pack, session and game services for s
func initializeServices(s settings, logger zerolog.Logger) (*services, error) {
	packs, err := config.NewManager(s.LevelsDir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create level pack manager: %w", err)
	}

	out := &services{packs: packs}

	switch s.SessionStore {
	case StoreFile, "":
		fp, err := session.NewFilePersistence(s.SessionsDir, packs, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create session persistence: %w", err)
		}
		out.persistence = fp
	case StorePostgres:
		if s.DatabaseURL == "" {
			return nil, fmt.Errorf("session store %q requires --database-url", StorePostgres)
		}
		pg, err := session.NewPostgresPersistence(s.DatabaseURL, packs, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to connect session store: %w", err)
		}
		out.persistence = pg
		out.closers = append(out.closers, pg)
	case StoreMemory:
	default:
		return nil, fmt.Errorf("unknown session store %q (use file, postgres or memory)", s.SessionStore)
	}

	if out.persistence != nil {
		out.sessions = session.NewManagerWithPersistence(out.persistence, logger)
		if err := out.sessions.LoadPersistedSessions(); err != nil {
			logger.Warn().Err(err).Msg("failed to load persisted sessions")
		}
	} else {
		out.sessions = session.NewManager(logger)
	}

	if s.Watch {
		w, err := config.NewWatcher(packs, logger)
		if err != nil {
			out.Close()
			return nil, fmt.Errorf("failed to watch level packs: %w", err)
		}
		out.watcher = w
	}

	out.game = service.NewGameService(out.sessions, packs, logger)
	return out, nil
}

// runServer starts the HTTP server and background routines and blocks
// until the context is cancelled or a signal arrives
func runServer(ctx context.Context, s settings) error {
	logger, err := newLogger(s)
	if err != nil {
		return err
	}
	defer logger.Close()
	log := logger.Logger

	svcs, err := initializeServices(s, log)
	if err != nil {
		return err
	}
	defer svcs.Close()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := websocket.NewHub(log)
	go hub.Run()
	defer hub.Stop()

	addr := s.addr()
	handler := newHTTPHandler(svcs.game, hub, "http://"+addr, log)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		sessionCleanupRoutine(ctx, svcs.sessions, s.CleanupInterval, s.SessionTTL, log)
	}()
	if svcs.persistence != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			persistenceSyncRoutine(ctx, svcs.sessions, svcs.persistence, 5*time.Second, log)
		}()
	}
	if svcs.watcher != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range svcs.watcher.Events {
				log.Info().Str("pack", id).Msg("level pack reloaded")
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Str("version", Version).Msg("HTTP server listening")
		log.Info().Msgf("REST API: http://%s/api", addr)
		log.Info().Msgf("WebSocket: ws://%s/ws?session=<session_id>", addr)
		log.Info().Msgf("MCP endpoint: http://%s/mcp", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	if s.Ngrok {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrok(ctx, s, handler, log)
		}()
	}

	var serveErr error
	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	case serveErr = <-errCh:
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}
	if err := svcs.sessions.SaveAllSessions(); err != nil {
		log.Warn().Err(err).Msg("failed to save sessions on shutdown")
	}

	// the watcher must close before its event loop can end
	if svcs.watcher != nil {
		svcs.watcher.Close()
	}
	wg.Wait()
	log.Info().Msg("server stopped")

	if serveErr != nil {
		return fmt.Errorf("HTTP server failed: %w", serveErr)
	}
	return nil
}

// newHTTPHandler mounts the REST API, WebSocket feed and /mcp endpoint.
// baseURL is where the MCP tools reach the REST API.
func newHTTPHandler(svc service.GameService, hub *websocket.Hub, baseURL string, logger zerolog.Logger) http.Handler {
	apiServer := api.NewServer(svc, hub, logger)
	mcpClient := mcp.NewClient(baseURL)

	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", apiServer)
	mainRouter.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := mcpClient.GetMCPServer().HandleMessage(r.Context(), body)
		if response == nil {
			// notifications carry no response
			w.WriteHeader(http.StatusAccepted)
			return
		}

		data, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	})
	return mainRouter
}

// runNgrok serves handler through an ngrok tunnel until ctx ends
func runNgrok(ctx context.Context, s settings, handler http.Handler, logger zerolog.Logger) {
	if s.NgrokAuth == "" {
		logger.Warn().Msg("ngrok enabled but no auth token provided (use --ngrok-auth or NGROK_AUTHTOKEN)")
		return
	}

	var tunnel ngrokConfig.Tunnel
	if s.NgrokDomain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(s.NgrokDomain))
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(s.NgrokAuth))
	if err != nil {
		logger.Error().Err(err).Msg("failed to start ngrok tunnel")
		return
	}

	url := tun.URL()
	logger.Info().Str("url", url).Msg("ngrok tunnel established")
	logger.Info().Msgf("REST API (ngrok): %s/api", url)
	logger.Info().Msgf("MCP endpoint (ngrok): %s/mcp", url)

	go func() {
		<-ctx.Done()
		tun.Close()
	}()

	if err := http.Serve(tun, handler); err != nil && !errors.Is(err, http.ErrServerClosed) && ctx.Err() == nil {
		logger.Error().Err(err).Msg("ngrok server error")
	}
	logger.Info().Msg("ngrok tunnel closed")
}

// sessionCleanupRoutine periodically removes sessions idle for longer than ttl
func sessionCleanupRoutine(ctx context.Context, manager *session.Manager, interval, ttl time.Duration, logger zerolog.Logger) {
	if interval <= 0 || ttl <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := manager.CleanupExpiredSessions(ttl); removed > 0 {
				logger.Info().Int("count", removed).Msg("cleaned up expired sessions")
			}
		}
	}
}

// persistenceSyncRoutine drops sessions from memory once their stored copy
// has been removed behind the server's back
func persistenceSyncRoutine(ctx context.Context, manager *session.Manager, persistence session.SessionPersistence, interval time.Duration, logger zerolog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pruneOrphanedSessions(manager, persistence, logger)
		}
	}
}

func pruneOrphanedSessions(manager *session.Manager, persistence session.SessionPersistence, logger zerolog.Logger) int {
	pruned := 0
	for _, sess := range manager.List() {
		if persistence.Exists(sess.ID) {
			continue
		}
		if err := manager.DeleteFromMemory(sess.ID); err == nil {
			pruned++
			logger.Info().Str("session", sess.ID).Msg("pruned session from memory (stored copy deleted)")
		}
	}
	return pruned
}

// runStdioMCP serves MCP over stdio. It reuses the API at s.APIURL when it
// answers and otherwise starts an internal API on a loopback port.
func runStdioMCP(ctx context.Context, s settings) error {
	logger, err := newLogger(s)
	if err != nil {
		return err
	}
	defer logger.Close()
	log := logger.Logger

	baseURL := s.APIURL
	probe := &http.Client{Timeout: 2 * time.Second}
	resp, err := probe.Get(baseURL + "/healthz")
	if err == nil && resp.StatusCode < 500 {
		resp.Body.Close()
		log.Info().Str("url", baseURL).Msg("using external API server for MCP")
	} else {
		log.Info().Msg("no external API server found, starting internal HTTP server")

		svcs, err := initializeServices(s, log)
		if err != nil {
			return err
		}
		defer svcs.Close()

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to get available port: %w", err)
		}

		hub := websocket.NewHub(log)
		go hub.Run()
		defer hub.Stop()

		httpServer := &http.Server{Handler: api.NewServer(svcs.game, hub, log)}
		go func() {
			if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("internal HTTP server error")
			}
		}()
		defer httpServer.Close()

		baseURL = "http://" + listener.Addr().String()
		log.Info().Str("url", baseURL).Msg("internal HTTP server started for MCP stdio")
	}

	mcpClient := mcp.NewClient(baseURL)
	log.Info().Msg("MCP stdio server ready")
	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}
