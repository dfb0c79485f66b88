package session

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/wricardo/storekeeper/game/engine"
	"github.com/wricardo/storekeeper/game/service"
)

// SessionPersistence defines the interface for persisting sessions
type SessionPersistence interface {
	// Save persists a session to storage
	Save(session *service.Session) error

	// Load retrieves a session from storage by ID
	Load(id string) (*service.Session, error)

	// Delete removes a session from storage
	Delete(id string) error

	// ListAll returns all persisted session IDs
	ListAll() ([]string, error)

	// Exists checks if a session exists in storage
	Exists(id string) bool
}

// PersistedSessionData is the stored form of a session. Level state is
// kept as LURD move strings and rebuilt by replay on load.
type PersistedSessionData struct {
	ID             string          `json:"id"`
	PackID         string          `json:"pack_id"`
	CreatedAt      time.Time       `json:"created_at"`
	LastAccessedAt time.Time       `json:"last_accessed_at"`
	Progress       engine.Progress `json:"progress"`
	// Stats are the current level's counters at save time, compared with
	// the replayed level on load.
	Stats engine.LevelStats `json:"stats"`
}

func newPersistedSessionData(session *service.Session) PersistedSessionData {
	return PersistedSessionData{
		ID:             session.ID,
		PackID:         session.PackID,
		CreatedAt:      session.CreatedAt,
		LastAccessedAt: session.LastAccessedAt,
		Progress:       session.Engine.Progress(),
		Stats:          session.Engine.GetStats(),
	}
}

// restoreSession rebuilds a live session from stored data. Progress the
// edited pack can no longer replay is dropped per level with a warning.
func restoreSession(data PersistedSessionData, packs service.PackManager, logger zerolog.Logger) (*service.Session, error) {
	pack, err := packs.LoadPack(data.PackID)
	if err != nil {
		return nil, fmt.Errorf("failed to load pack '%s': %w", data.PackID, err)
	}

	eng, err := engine.NewEngine(pack, engine.LoadOptions{Source: data.PackID, Logger: logger})
	if err != nil {
		return nil, fmt.Errorf("failed to create game engine: %w", err)
	}
	log := logger.With().Str("session", data.ID).Str("pack", data.PackID).Logger()
	for _, w := range eng.Restore(data.Progress) {
		log.Warn().Msg("stale progress: " + w)
	}
	if got := eng.GetStats(); got != data.Stats && data.Stats != (engine.LevelStats{}) {
		log.Warn().
			Int("level", eng.GetState().CurrentIndex).
			Int("saved_moves", data.Stats.Moves).Int("moves", got.Moves).
			Int("saved_pushes", data.Stats.Pushes).Int("pushes", got.Pushes).
			Msg("restored counters differ from saved counters")
	}

	return &service.Session{
		ID:             data.ID,
		Engine:         eng,
		PackID:         data.PackID,
		Pack:           pack,
		CreatedAt:      data.CreatedAt,
		LastAccessedAt: data.LastAccessedAt,
	}, nil
}
