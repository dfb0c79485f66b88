package levelpack

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"

	"github.com/wricardo/storekeeper/game/engine"
)

const layoutSymbols = "#@+$*. -_"

// isLayoutRow reports whether line is a row of a level block. A row must
// contain a wall so that prose made of dots and spaces is not mistaken
// for one.
func isLayoutRow(line string) bool {
	if strings.TrimSpace(line) == "" || !strings.ContainsRune(line, engine.SymbolWall) {
		return false
	}
	for _, r := range line {
		if !strings.ContainsRune(layoutSymbols, r) {
			return false
		}
	}
	return true
}

// DecodeText decodes the classic plain-text pack format
func DecodeText(data []byte, source string) (*engine.LevelPack, error) {
	pack := &engine.LevelPack{Name: source}

	var (
		name   string
		desc   []string
		layout []string
		// set while lines directly follow a board with no blank line
		trailing bool
	)
	flush := func() {
		if len(layout) == 0 {
			return
		}
		pack.Levels = append(pack.Levels, engine.LevelDefinition{
			Name:        name,
			Description: strings.Join(desc, " "),
			Layout:      layout,
		})
		name, desc, layout = "", nil, nil
	}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")

		if isLayoutRow(line) {
			layout = append(layout, normalizeRow(line))
			continue
		}
		if len(layout) > 0 {
			trailing = true
		}
		flush()

		text := strings.TrimSpace(line)
		isTitle := strings.HasPrefix(strings.ToLower(text), "title:")
		if trailing && !isTitle {
			trailing = false
		}

		switch {
		case text == "":
		case isTitle && trailing:
			pack.Levels[len(pack.Levels)-1].Name = strings.TrimSpace(text[len("title:"):])
			trailing = false
		case isTitle:
			name = strings.TrimSpace(text[len("title:"):])
		case strings.HasPrefix(text, ";"):
			comment := strings.TrimSpace(strings.TrimLeft(text, ";"))
			if name == "" {
				name = comment
			} else if comment != "" {
				desc = append(desc, comment)
			}
		default:
			desc = append(desc, text)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, &engine.LevelPackParseError{Source: source, Reason: "failed to read text", Err: err}
	}
	flush()

	return finish(pack, source)
}

// EncodeText writes a pack in the plain-text format read by DecodeText
func EncodeText(pack *engine.LevelPack) []byte {
	var b bytes.Buffer
	for i, level := range pack.Levels {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "; %s\n", level.Name)
		if level.Description != "" {
			fmt.Fprintf(&b, "; %s\n", level.Description)
		}
		for _, row := range level.Layout {
			b.WriteString(row)
			b.WriteByte('\n')
		}
	}
	return b.Bytes()
}

func normalizeRow(line string) string {
	return strings.Map(func(r rune) rune {
		if r == '-' || r == '_' {
			return engine.SymbolFloor
		}
		return r
	}, line)
}
