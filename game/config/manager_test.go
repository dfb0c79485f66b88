package config

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wricardo/storekeeper/game/engine"
)

const classicJSON = `{
  "name": "Classic",
  "description": "test classic",
  "levels": [
    {"name": "one", "layout": ["#.#", "#$#", "#@#"]},
    {"name": "two", "layout": ["#####", "#@$.#", "#####"]}
  ]
}`

const miniYAML = `name: Mini
levels:
  - name: only
    layout: ["#####", "#@$.#", "#####"]
`

const miniText = `; single
#####
#@$.#
#####
`

func writeFile(t *testing.T, dir, name, data string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(data), 0644))
}

func newTestManager(t *testing.T, files map[string]string) (*Manager, string) {
	t.Helper()
	dir := t.TempDir()
	for name, data := range files {
		writeFile(t, dir, name, data)
	}
	m, err := NewManager(dir, zerolog.Nop())
	require.NoError(t, err)
	return m, dir
}

func TestNewManager_MissingDir(t *testing.T) {
	_, err := NewManager(filepath.Join(t.TempDir(), "nope"), zerolog.Nop())
	assert.Error(t, err)
}

func TestManager_DefaultPack(t *testing.T) {
	t.Run("classic preferred", func(t *testing.T) {
		m, _ := newTestManager(t, map[string]string{"classic.json": classicJSON, "a.yaml": miniYAML})
		id, pack := m.GetDefault()
		assert.Equal(t, "classic", id)
		assert.Equal(t, "Classic", pack.Name)
	})

	t.Run("first valid pack", func(t *testing.T) {
		m, _ := newTestManager(t, map[string]string{"a.json": "{broken", "b.yaml": miniYAML})
		id, pack := m.GetDefault()
		assert.Equal(t, "b", id)
		assert.Equal(t, "Mini", pack.Name)
	})

	t.Run("built-in fallback", func(t *testing.T) {
		m, _ := newTestManager(t, nil)
		id, pack := m.GetDefault()
		assert.Equal(t, "default", id)
		assert.Len(t, pack.Levels, 3)

		loaded, err := m.LoadPack("default")
		require.NoError(t, err)
		assert.Same(t, pack, loaded)
	})
}

func TestManager_LoadPack(t *testing.T) {
	m, _ := newTestManager(t, map[string]string{
		"classic.json": classicJSON,
		"mini.yml":     miniYAML,
		"single.sok":   miniText,
		"bad.json":     `{"name": "bad", "levels": [{"layout": ["$."]}]}`,
	})

	for _, id := range []string{"classic", "classic.json", "mini", "single", "single.sok"} {
		pack, err := m.LoadPack(id)
		require.NoError(t, err, id)
		assert.NotEmpty(t, pack.Levels, id)
	}

	first, err := m.LoadPack("classic")
	require.NoError(t, err)
	second, err := m.LoadPack("classic.json")
	require.NoError(t, err)
	assert.Same(t, first, second, "cached by ID")

	_, err = m.LoadPack("bad")
	assert.True(t, errors.Is(err, ErrInvalidPack))

	for _, id := range []string{"missing", "../classic", ".hidden", ""} {
		_, err = m.LoadPack(id)
		assert.True(t, errors.Is(err, ErrPackNotFound), id)
	}
}

func TestManager_ListPacks(t *testing.T) {
	m, dir := newTestManager(t, map[string]string{
		"classic.json": classicJSON,
		"mini.yml":     miniYAML,
		"broken.json":  "{",
		"readme.md":    "# not a pack",
	})
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.json"), 0755))

	packs, err := m.ListPacks()
	require.NoError(t, err)
	require.Len(t, packs, 2)

	assert.Equal(t, "classic", packs[0].PackID)
	assert.Equal(t, "classic.json", packs[0].Filename)
	assert.Equal(t, "json", packs[0].Format)
	assert.Equal(t, 2, packs[0].LevelCount)
	assert.Equal(t, []string{"one", "two"}, packs[0].LevelNames)

	assert.Equal(t, "mini", packs[1].PackID)
	assert.Equal(t, "yaml", packs[1].Format)
}

func TestManager_SavePack(t *testing.T) {
	m, dir := newTestManager(t, nil)

	require.NoError(t, m.SavePack("starter", engine.DefaultLevelPack()))
	assert.FileExists(t, filepath.Join(dir, "starter.json"))

	require.NoError(t, m.SavePack("starter2.yaml", engine.DefaultLevelPack()))
	assert.FileExists(t, filepath.Join(dir, "starter2.yaml"))

	require.NoError(t, m.SavePack("starter3.sok", engine.DefaultLevelPack()))
	m.RefreshCache()
	pack, err := m.LoadPack("starter3")
	require.NoError(t, err)
	assert.Equal(t, "Corridor", pack.Levels[1].Name)

	invalid := &engine.LevelPack{Name: "x", Levels: []engine.LevelDefinition{{Layout: []string{"@$"}}}}
	assert.True(t, errors.Is(m.SavePack("x", invalid), ErrInvalidPack))
	assert.True(t, errors.Is(m.SavePack("../escape", engine.DefaultLevelPack()), ErrInvalidPack))
}

func TestManager_SetDefault(t *testing.T) {
	m, _ := newTestManager(t, map[string]string{"classic.json": classicJSON, "mini.yaml": miniYAML})

	require.NoError(t, m.SetDefault("mini"))
	id, pack := m.GetDefault()
	assert.Equal(t, "mini", id)
	assert.Equal(t, "Mini", pack.Name)

	assert.True(t, errors.Is(m.SetDefault("missing"), ErrPackNotFound))
}

func TestManager_Invalidate(t *testing.T) {
	m, dir := newTestManager(t, map[string]string{"classic.json": classicJSON})

	before, err := m.LoadPack("classic")
	require.NoError(t, err)

	writeFile(t, dir, "classic.json", `{"name": "Classic v2", "levels": [{"layout": ["#.#", "#$#", "#@#"]}]}`)
	m.Invalidate("classic.json")

	after, err := m.LoadPack("classic")
	require.NoError(t, err)
	assert.NotSame(t, before, after)
	assert.Equal(t, "Classic v2", after.Name)

	_, def := m.GetDefault()
	assert.Equal(t, "Classic v2", def.Name, "default follows the invalidated pack")
}

func TestManager_ConcurrentLoad(t *testing.T) {
	m, _ := newTestManager(t, map[string]string{"classic.json": classicJSON, "mini.yaml": miniYAML})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := "classic"
			if i%2 == 0 {
				id = "mini"
			}
			_, err := m.LoadPack(id)
			assert.NoError(t, err)
			if i%5 == 0 {
				m.RefreshCache()
			}
		}(i)
	}
	wg.Wait()
}
