package engine

import (
	"encoding/hex"
	"hash/fnv"
	"unicode/utf8"
)

// CountBoxesOnGoal counts boxes whose OnGoal flag is set
func CountBoxesOnGoal(boxes []*Entity) int {
	count := 0
	for _, b := range boxes {
		if b.OnGoal {
			count++
		}
	}
	return count
}

// CountSymbols counts occurrences of each layout symbol
func CountSymbols(layout []string) map[rune]int {
	counts := make(map[rune]int)
	for _, row := range layout {
		for _, ch := range row {
			counts[ch]++
		}
	}
	return counts
}

// RaggedLayout reports whether the rows of a layout differ in width
func RaggedLayout(layout []string) bool {
	if len(layout) == 0 {
		return false
	}
	width := utf8.RuneCountInString(layout[0])
	for _, row := range layout[1:] {
		if utf8.RuneCountInString(row) != width {
			return true
		}
	}
	return false
}

// ManhattanDistance calculates the Manhattan distance between two positions
func ManhattanDistance(from, to Position) int {
	dr := from.Row - to.Row
	if dr < 0 {
		dr = -dr
	}
	dc := from.Column - to.Column
	if dc < 0 {
		dc = -dc
	}
	return dr + dc
}

// LayoutFingerprint returns a short hash identifying a layout's rows
func LayoutFingerprint(layout []string) string {
	h := fnv.New64a()
	for _, row := range layout {
		h.Write([]byte(row))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}
