package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/wricardo/storekeeper/game/engine"
	"github.com/wricardo/storekeeper/game/levelpack"
	"github.com/wricardo/storekeeper/game/service"
)

var (
	ErrPackNotFound = service.ErrPackNotFound
	ErrInvalidPack  = service.ErrInvalidPack
)

// DefaultPackID is the pack preferred as default when present
const DefaultPackID = "classic"

// extension lookup order when a pack ID has no extension
var searchOrder = []string{".json", ".yaml", ".yml", ".sok", ".txt"}

// Manager handles level pack loading and caching
type Manager struct {
	packDir     string
	defaultID   string
	defaultPack *engine.LevelPack
	packs       map[string]*engine.LevelPack
	logger      zerolog.Logger
	mu          sync.RWMutex
}

// NewManager creates a new level pack manager over packDir
func NewManager(packDir string, logger zerolog.Logger) (*Manager, error) {
	if _, err := os.Stat(packDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("level pack directory does not exist: %s", packDir)
	}

	m := &Manager{
		packDir: packDir,
		packs:   make(map[string]*engine.LevelPack),
		logger:  logger.With().Str("component", "packs").Logger(),
	}

	m.mu.Lock()
	m.loadDefaultLocked()
	m.mu.Unlock()

	return m, nil
}

// Dir returns the directory packs are read from
func (m *Manager) Dir() string {
	return m.packDir
}

// LoadPack loads a level pack by ID. The ID is a file name with or
// without its extension.
func (m *Manager) LoadPack(packID string) (*engine.LevelPack, error) {
	if !validPackID(packID) {
		return nil, fmt.Errorf("%w: %q", ErrPackNotFound, packID)
	}
	id := levelpack.PackID(packID)

	m.mu.RLock()
	if pack, exists := m.packs[id]; exists {
		m.mu.RUnlock()
		return pack, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadLocked(packID)
}

// loadLocked reads a pack from disk into the cache. Callers hold m.mu.
func (m *Manager) loadLocked(packID string) (*engine.LevelPack, error) {
	id := levelpack.PackID(packID)
	if pack, exists := m.packs[id]; exists {
		return pack, nil
	}

	path, err := m.resolve(packID)
	if err != nil {
		return nil, err
	}

	pack, err := levelpack.DecodeFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPack, err)
	}

	// a pack is usable when at least one of its levels builds
	if _, err := engine.LoadLevelSet(pack, engine.LoadOptions{Source: id, Logger: m.logger}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPack, err)
	}

	m.packs[id] = pack
	m.logger.Debug().Str("pack", id).Str("file", filepath.Base(path)).Int("levels", len(pack.Levels)).Msg("level pack loaded")
	return pack, nil
}

// resolve finds the file holding packID
func (m *Manager) resolve(packID string) (string, error) {
	if !validPackID(packID) {
		return "", fmt.Errorf("%w: %q", ErrPackNotFound, packID)
	}

	if levelpack.IsPackFile(packID) {
		path := filepath.Join(m.packDir, packID)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
		return "", fmt.Errorf("%w: %s", ErrPackNotFound, packID)
	}

	for _, ext := range searchOrder {
		path := filepath.Join(m.packDir, packID+ext)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrPackNotFound, packID)
}

// ListPacks returns information about all loadable packs, sorted by ID
func (m *Manager) ListPacks() ([]*service.PackInfo, error) {
	entries, err := os.ReadDir(m.packDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read level pack directory: %w", err)
	}

	seen := make(map[string]bool)
	var packs []*service.PackInfo
	for _, entry := range entries {
		if entry.IsDir() || !levelpack.IsPackFile(entry.Name()) {
			continue
		}

		id := levelpack.PackID(entry.Name())
		if seen[id] {
			continue
		}

		pack, err := m.LoadPack(id)
		if err != nil {
			m.logger.Warn().Err(err).Str("file", entry.Name()).Msg("skipping level pack")
			continue
		}
		seen[id] = true

		format, _ := levelpack.FormatFromPath(entry.Name())
		info := &service.PackInfo{
			Filename:    entry.Name(),
			PackID:      id,
			Name:        pack.Name,
			Description: pack.Description,
			Format:      string(format),
			LevelCount:  len(pack.Levels),
		}
		for _, level := range pack.Levels {
			info.LevelNames = append(info.LevelNames, level.Name)
		}
		packs = append(packs, info)
	}

	sort.Slice(packs, func(i, j int) bool { return packs[i].PackID < packs[j].PackID })
	return packs, nil
}

// GetDefault returns the default pack and its ID
func (m *Manager) GetDefault() (string, *engine.LevelPack) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultID, m.defaultPack
}

// SetDefault sets the default pack by ID
func (m *Manager) SetDefault(packID string) error {
	pack, err := m.LoadPack(packID)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultID = levelpack.PackID(packID)
	m.defaultPack = pack
	return nil
}

// RefreshCache drops every cached pack and reloads the default
func (m *Manager) RefreshCache() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.packs = make(map[string]*engine.LevelPack)
	m.loadDefaultLocked()
}

// Invalidate drops one pack from the cache. The default pack is reloaded
// when it is the one invalidated.
func (m *Manager) Invalidate(packID string) {
	id := levelpack.PackID(packID)

	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.packs, id)
	if id != m.defaultID {
		return
	}
	if pack, err := m.loadLocked(id); err == nil {
		m.defaultPack = pack
		return
	}
	m.loadDefaultLocked()
}

// loadDefaultLocked picks classic, else the first valid pack, else the
// built-in pack. Callers hold m.mu.
func (m *Manager) loadDefaultLocked() {
	if pack, err := m.loadLocked(DefaultPackID); err == nil {
		m.defaultID, m.defaultPack = DefaultPackID, pack
		return
	}

	entries, err := os.ReadDir(m.packDir)
	if err == nil {
		for _, entry := range entries {
			if entry.IsDir() || !levelpack.IsPackFile(entry.Name()) {
				continue
			}
			if pack, err := m.loadLocked(entry.Name()); err == nil {
				m.defaultID, m.defaultPack = levelpack.PackID(entry.Name()), pack
				return
			}
		}
	}

	m.logger.Warn().Str("dir", m.packDir).Msg("no valid level pack found, using built-in levels")
	builtin := engine.DefaultLevelPack()
	m.defaultID, m.defaultPack = builtin.Name, builtin
	m.packs[builtin.Name] = builtin
}

// SavePack validates a pack strictly and writes it to disk. The format
// follows the extension of packID, JSON when it has none.
func (m *Manager) SavePack(packID string, pack *engine.LevelPack) error {
	if err := engine.ValidateLevelPack(pack); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPack, err)
	}

	filename := packID
	if !levelpack.IsPackFile(filename) {
		filename = packID + ".json"
	}
	if !validPackID(filename) {
		return fmt.Errorf("%w: invalid pack ID %q", ErrInvalidPack, packID)
	}

	format, _ := levelpack.FormatFromPath(filename)
	data, err := levelpack.Encode(pack, format)
	if err != nil {
		return fmt.Errorf("failed to encode level pack: %w", err)
	}

	if err := os.WriteFile(filepath.Join(m.packDir, filename), data, 0644); err != nil {
		return fmt.Errorf("failed to write level pack file: %w", err)
	}

	m.mu.Lock()
	m.packs[levelpack.PackID(filename)] = pack
	m.mu.Unlock()

	return nil
}

// validPackID rejects IDs that would leave the pack directory
func validPackID(packID string) bool {
	return packID != "" && !strings.ContainsAny(packID, `/\`) && !strings.HasPrefix(packID, ".")
}
