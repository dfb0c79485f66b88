package session

import (
	"fmt"

	"github.com/wricardo/storekeeper/game/engine"
	"github.com/wricardo/storekeeper/game/service"
)

// stubPacks serves the built-in pack under the "default" ID
type stubPacks struct{}

func (stubPacks) LoadPack(packID string) (*engine.LevelPack, error) {
	if packID != "default" {
		return nil, fmt.Errorf("%w: %s", service.ErrPackNotFound, packID)
	}
	return engine.DefaultLevelPack(), nil
}

func (stubPacks) ListPacks() ([]*service.PackInfo, error) {
	return []*service.PackInfo{{PackID: "default", Name: "default", LevelCount: 3}}, nil
}

func (stubPacks) GetDefault() (string, *engine.LevelPack) {
	return "default", engine.DefaultLevelPack()
}

func (stubPacks) SavePack(string, *engine.LevelPack) error {
	return nil
}

// editablePacks serves one mutable pack under the "default" ID
type editablePacks struct {
	stubPacks
	pack *engine.LevelPack
}

func (p *editablePacks) LoadPack(packID string) (*engine.LevelPack, error) {
	if packID != "default" {
		return nil, fmt.Errorf("%w: %s", service.ErrPackNotFound, packID)
	}
	return p.pack, nil
}
