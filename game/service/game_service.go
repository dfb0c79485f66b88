package service

import (
	"context"
	"errors"
	"time"

	"github.com/wricardo/storekeeper/game/engine"
)

var (
	ErrPackNotFound = errors.New("level pack not found")
	ErrInvalidPack  = errors.New("invalid level pack")
)

// GameService defines all game-related operations
type GameService interface {
	// Session Management
	CreateSession(ctx context.Context, packID string, level int) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Game Operations
	Move(ctx context.Context, sessionID, direction string, reset bool) (*MoveResult, error)
	BulkMove(ctx context.Context, sessionID string, moves []string, reset bool) (*BulkMoveResult, error)
	Reset(ctx context.Context, sessionID string) (*engine.GameState, error)

	// Level Navigation
	SelectLevel(ctx context.Context, sessionID string, index int) (*engine.GameState, error)
	NextLevel(ctx context.Context, sessionID string) (*engine.GameState, error)
	PreviousLevel(ctx context.Context, sessionID string) (*engine.GameState, error)

	// Game State
	GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error)
	GetMoveHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error)

	// Level Packs
	ListPacks(ctx context.Context) ([]*PackInfo, error)
	LoadPack(ctx context.Context, packID string) (*engine.LevelPack, error)
	SavePack(ctx context.Context, packID string, pack *engine.LevelPack) error
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id, packID string, pack *engine.LevelPack) (*Session, error)
	Get(id string) (*Session, error)
	GetOrCreate(id, packID string, pack *engine.LevelPack) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
	Save(id string) error
}

// PackManager handles level pack loading
type PackManager interface {
	LoadPack(packID string) (*engine.LevelPack, error)
	ListPacks() ([]*PackInfo, error)
	GetDefault() (string, *engine.LevelPack)
	SavePack(packID string, pack *engine.LevelPack) error
}

// Session represents an active game session
type Session struct {
	ID             string
	Engine         *engine.GameEngine
	PackID         string
	Pack           *engine.LevelPack
	CreatedAt      time.Time
	LastAccessedAt time.Time
}
