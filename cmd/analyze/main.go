// Command analyze prints quick, human-readable heuristics about level packs.
// For each level it summarizes dimensions, entity counts and how far boxes
// sit from goals, and flags boxes already stuck in a wall corner.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/urfave/cli/v3"
	"github.com/wricardo/storekeeper/game/engine"
	"github.com/wricardo/storekeeper/game/levelpack"
)

// LevelAnalysis holds the heuristics computed for one level.
type LevelAnalysis struct {
	Index       int
	Name        string
	Rows        int
	Columns     int
	Walls       int
	Boxes       int
	BoxesOnGoal int
	// Distance sums, for every box, the Manhattan distance to its nearest goal.
	Distance int
	// Deadlocks lists boxes off goal that are pinned in a corner of walls.
	Deadlocks []engine.Position
}

// analyzeLevel builds def and computes its heuristics.
func analyzeLevel(index int, def engine.LevelDefinition) (LevelAnalysis, error) {
	level, err := engine.NewLevel(def, engine.WithIndex(index))
	if err != nil {
		return LevelAnalysis{}, err
	}

	walls := make(map[engine.Position]bool)
	for _, w := range level.Walls() {
		walls[w.Position] = true
	}
	blocked := func(p engine.Position) bool {
		return !level.InBounds(p) || walls[p]
	}

	boxes := level.Boxes()
	goals := level.Goals()
	a := LevelAnalysis{
		Index:   index,
		Name:    level.Name(),
		Rows:    level.Rows(),
		Columns: level.Columns(),
		Walls:   len(walls),
		Boxes:   len(boxes),
	}

	for _, box := range boxes {
		if box.OnGoal {
			a.BoxesOnGoal++
			continue
		}

		nearest := -1
		for _, goal := range goals {
			if d := engine.ManhattanDistance(box.Position, goal.Position); nearest < 0 || d < nearest {
				nearest = d
			}
		}
		if nearest > 0 {
			a.Distance += nearest
		}

		vertical := blocked(box.Position.Add(engine.Up)) || blocked(box.Position.Add(engine.Down))
		horizontal := blocked(box.Position.Add(engine.Left)) || blocked(box.Position.Add(engine.Right))
		if vertical && horizontal {
			a.Deadlocks = append(a.Deadlocks, box.Position)
		}
	}
	return a, nil
}

func printAnalysis(out io.Writer, a LevelAnalysis) {
	fmt.Fprintf(out, "Level %d: %s\n", a.Index+1, a.Name)
	fmt.Fprintf(out, "  Grid Size: %d x %d\n", a.Rows, a.Columns)
	fmt.Fprintf(out, "  Walls: %d\n", a.Walls)
	fmt.Fprintf(out, "  Boxes: %d (%d on goal)\n", a.Boxes, a.BoxesOnGoal)
	fmt.Fprintf(out, "  Distance to goals: %d\n", a.Distance)

	if len(a.Deadlocks) == 0 {
		fmt.Fprintf(out, "  ✅ No box is pinned in a corner\n")
		return
	}
	fmt.Fprintf(out, "  ⚠️  WARNING: %d boxes are pinned in a corner off goal, the level cannot be solved\n", len(a.Deadlocks))
	for i, p := range a.Deadlocks {
		if i == 5 {
			fmt.Fprintf(out, "     ... and %d more\n", len(a.Deadlocks)-5)
			break
		}
		fmt.Fprintf(out, "     Stuck box: (%d, %d)\n", p.Row, p.Column)
	}
}

// analyzePack decodes path and prints every level's heuristics.
func analyzePack(out io.Writer, path string) error {
	pack, err := levelpack.DecodeFile(path)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Name: %s\n", pack.Name)
	fmt.Fprintf(out, "Levels: %d\n", len(pack.Levels))
	for i, def := range pack.Levels {
		a, err := analyzeLevel(i, def)
		if err != nil {
			fmt.Fprintf(out, "Level %d: %s\n  ❌ %v\n", i+1, def.Name, err)
			continue
		}
		printAnalysis(out, a)
	}
	return nil
}

func newApp(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "analyze",
		Usage:     "print heuristics about level packs",
		ArgsUsage: "[pack files...]",
		Writer:    out,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "dir", Value: "levels", Usage: "directory scanned when no files are given", Sources: cli.EnvVars("LEVELS_DIR")},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			files := cmd.Args().Slice()
			if len(files) == 0 {
				matches, err := filepath.Glob(filepath.Join(cmd.String("dir"), "*"))
				if err != nil {
					return err
				}
				for _, m := range matches {
					if levelpack.IsPackFile(m) {
						files = append(files, m)
					}
				}
				sort.Strings(files)
			}

			for _, file := range files {
				fmt.Fprintf(out, "\n=== Analyzing %s ===\n", filepath.Base(file))
				if err := analyzePack(out, file); err != nil {
					fmt.Fprintf(out, "Error reading pack: %v\n", err)
				}
			}
			return nil
		},
	}
}

func main() {
	if err := newApp(os.Stdout).Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
