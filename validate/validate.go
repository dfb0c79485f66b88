// Command validate checks level-pack files before they are served. For every
// level of every pack it verifies:
//   - the pack decodes (JSON, YAML or text)
//   - the level builds: one worker and as many boxes as goals
//   - every box and goal can be reached by the worker over non-wall cells
//
// Ragged rows and levels without boxes are reported as warnings.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/urfave/cli/v3"
	"github.com/wricardo/storekeeper/game/engine"
	"github.com/wricardo/storekeeper/game/levelpack"
)

var errInvalidPacks = errors.New("invalid level packs")

// ValidationResult captures the outcome of validating a single file.
// Errors make the file invalid; Info holds summary lines and warnings.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
	Info   []string
}

func (r *ValidationResult) fail(format string, args ...any) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) note(format string, args ...any) {
	r.Info = append(r.Info, fmt.Sprintf(format, args...))
}

// validatePack decodes one pack file and validates each of its levels.
func validatePack(path string) ValidationResult {
	result := ValidationResult{File: filepath.Base(path), Valid: true}

	pack, err := levelpack.DecodeFile(path)
	if err != nil {
		result.fail("Failed to decode pack: %v", err)
		return result
	}
	if len(pack.Levels) == 0 {
		result.fail("Pack contains no levels")
		return result
	}

	result.note("✓ Name: %s", pack.Name)
	result.note("✓ Levels: %d", len(pack.Levels))

	for i, def := range pack.Levels {
		label := fmt.Sprintf("Level %d (%s)", i+1, def.Name)
		if len(def.Layout) == 0 {
			result.fail("%s: layout is empty", label)
			continue
		}
		if engine.RaggedLayout(def.Layout) {
			result.note("⚠ %s: rows differ in width, missing cells count as walls", label)
		}

		level, err := engine.NewLevel(def, engine.WithIndex(i))
		if err != nil {
			result.fail("%s: %v", label, err)
			continue
		}

		boxes := len(level.Boxes())
		if boxes == 0 {
			result.note("⚠ %s: no boxes, the level starts completed", label)
		}

		if unreachable := validateReachability(level); len(unreachable) > 0 {
			result.fail("%s: connectivity failure, %d cells unreachable from the worker", label, len(unreachable))
			for _, u := range unreachable {
				result.fail("%s: unreachable %s", label, u)
			}
			continue
		}

		result.note("✓ %s: %dx%d, %d boxes, %d already on goal", label, level.Rows(), level.Columns(), boxes, engine.CountBoxesOnGoal(entityRefs(level.Boxes())))
	}

	return result
}

// validateReachability flood-fills from the worker over in-bounds, non-wall
// cells and lists every box and goal the fill never touched. Boxes do not
// block the fill; this is a connectivity check, not a solver.
func validateReachability(level *engine.Level) []string {
	walls := make(map[engine.Position]bool)
	for _, w := range level.Walls() {
		walls[w.Position] = true
	}

	passable := func(p engine.Position) bool {
		return level.InBounds(p) && !walls[p]
	}

	start := level.Worker().Position
	visited := map[engine.Position]bool{start: true}
	queue := []engine.Position{start}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, d := range engine.Directions {
			next := current.Add(d)
			if !visited[next] && passable(next) {
				visited[next] = true
				queue = append(queue, next)
			}
		}
	}

	var unreachable []string
	for _, b := range level.Boxes() {
		if !visited[b.Position] {
			unreachable = append(unreachable, fmt.Sprintf("box at (%d,%d)", b.Position.Row, b.Position.Column))
		}
	}
	for _, g := range level.Goals() {
		if !visited[g.Position] {
			unreachable = append(unreachable, fmt.Sprintf("goal at (%d,%d)", g.Position.Row, g.Position.Column))
		}
	}
	return unreachable
}

func entityRefs(entities []engine.Entity) []*engine.Entity {
	refs := make([]*engine.Entity, len(entities))
	for i := range entities {
		refs[i] = &entities[i]
	}
	return refs
}

// packFiles lists the pack files to validate: the explicit paths when given,
// otherwise every recognised pack file in dir.
func packFiles(dir string, paths []string) ([]string, error) {
	if len(paths) > 0 {
		return paths, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && levelpack.IsPackFile(e.Name()) {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// report prints one result and returns whether it was valid.
func report(out io.Writer, result ValidationResult) bool {
	fmt.Fprintf(out, "\n%s %s\n", strings.Repeat("=", 20), result.File)
	if result.Valid {
		fmt.Fprintln(out, "✅ VALID")
		for _, info := range result.Info {
			fmt.Fprintln(out, "  "+info)
		}
		return true
	}
	fmt.Fprintln(out, "❌ INVALID")
	for _, err := range result.Errors {
		fmt.Fprintln(out, "  ❌ "+err)
	}
	return false
}

func newApp(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "validate level-pack files",
		ArgsUsage: "[pack files...]",
		Writer:    out,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "dir", Value: "levels", Usage: "directory scanned when no files are given", Sources: cli.EnvVars("LEVELS_DIR")},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			files, err := packFiles(cmd.String("dir"), cmd.Args().Slice())
			if err != nil {
				return err
			}
			if len(files) == 0 {
				return errors.New("no level packs found")
			}

			allValid := true
			for _, file := range files {
				if !report(out, validatePack(file)) {
					allValid = false
				}
			}

			fmt.Fprintf(out, "\n%s\n", strings.Repeat("=", 40))
			if !allValid {
				fmt.Fprintln(out, "❌ Some level packs have errors")
				return errInvalidPacks
			}
			fmt.Fprintln(out, "✅ All level packs are valid!")
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
