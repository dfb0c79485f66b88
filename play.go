package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/wricardo/storekeeper/game/config"
	"github.com/wricardo/storekeeper/game/engine"
)

const playHelp = `Enter moves in LURD notation (e.g. "rrUl") or words (up, down, left, right).
Commands: :r reset  :n next level  :p previous level  :l N select level  :h help  :q quit`

// loadPlayPack resolves packID in dir, falling back to the built-in levels
// when dir does not exist
func loadPlayPack(dir, packID string, logger zerolog.Logger) (*engine.LevelPack, error) {
	if _, err := os.Stat(dir); err != nil {
		if packID != "" {
			return nil, fmt.Errorf("level pack directory %s: %w", dir, err)
		}
		return engine.DefaultLevelPack(), nil
	}

	packs, err := config.NewManager(dir, logger)
	if err != nil {
		return nil, err
	}
	if packID == "" {
		_, pack := packs.GetDefault()
		return pack, nil
	}
	return packs.LoadPack(packID)
}

// runPlay reads one line at a time from in, applies it and prints the board
func runPlay(in io.Reader, out io.Writer, pack *engine.LevelPack, level int, logger zerolog.Logger) error {
	game, err := engine.NewEngine(pack, engine.LoadOptions{Source: pack.Name, Logger: logger})
	if err != nil {
		return err
	}
	if level != 0 {
		if err := game.SelectLevel(level); err != nil {
			return err
		}
	}
	game.DrainEvents()

	fmt.Fprintln(out, playHelp)
	printBoard(out, game.GetState())

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, ":") {
			quit, err := playCommand(out, game, line[1:])
			if err != nil {
				fmt.Fprintf(out, "Error: %v\n", err)
				continue
			}
			if quit {
				return nil
			}
		} else {
			playMoves(game, line)
		}

		for _, ev := range game.DrainEvents() {
			if ev.Type == engine.EventLevelCompleted {
				fmt.Fprintln(out, "*** Level completed! ***")
			}
		}
		printBoard(out, game.GetState())
	}
	return scanner.Err()
}

func playCommand(out io.Writer, game *engine.GameEngine, command string) (quit bool, err error) {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return false, errors.New("empty command")
	}

	switch fields[0] {
	case "q", "quit":
		fmt.Fprintln(out, "Bye!")
		return true, nil
	case "r", "reset":
		_, err = game.Reset()
	case "n", "next":
		game.NextLevel()
	case "p", "prev", "previous":
		game.PreviousLevel()
	case "l", "level":
		if len(fields) < 2 {
			return false, errors.New("usage: :l N (1-based level number)")
		}
		n, convErr := strconv.Atoi(fields[1])
		if convErr != nil {
			return false, fmt.Errorf("invalid level number %q", fields[1])
		}
		err = game.SelectLevel(n - 1)
	case "h", "help":
		fmt.Fprintln(out, playHelp)
	default:
		err = fmt.Errorf("unknown command %q", fields[0])
	}
	return false, err
}

// playMoves applies whole-word directions or LURD letters until one fails
func playMoves(game *engine.GameEngine, line string) {
	var moves []string
	for _, word := range strings.Fields(line) {
		if _, ok := engine.ParseDirection(word); ok && len(word) > 1 {
			moves = append(moves, word)
			continue
		}
		for _, r := range word {
			moves = append(moves, string(r))
		}
	}
	game.BulkMove(moves)
}

func printBoard(out io.Writer, state *engine.GameState) {
	lvl := state.Level
	fmt.Fprintf(out, "\n%s - level %d/%d: %s\n", state.PackName, state.CurrentIndex+1, state.LevelCount, lvl.Name)
	for _, row := range lvl.Layout {
		fmt.Fprintln(out, row)
	}
	fmt.Fprintf(out, "moves: %d  pushes: %d  boxes on goal: %d/%d\n",
		lvl.Stats.Moves, lvl.Stats.Pushes, lvl.Stats.BoxesOnGoal, lvl.Stats.Boxes)
	if state.Message != "" {
		fmt.Fprintln(out, state.Message)
	}
}
