// Package levelpack decodes level-pack sources into engine.LevelPack values.
//
// Three encodings are understood:
//
//	JSON   {"name": "...", "description": "...", "levels": [{"name", "description", "layout": [...]}]}
//	YAML   the same keys
//	Text   classic Sokoban blocks (.sok, .txt)
//
// In the text form a level is a block of consecutive layout rows. Lines
// before a block name and describe it: a "Title:" line or the first line
// starting with ';' sets the name, any other text line is appended to the
// description. A "Title:" line directly under a board, with no blank line
// between, names that board instead. Blank lines separate levels; '-' and
// '_' are read as floor.
//
// DecodeFile chooses the encoding from the file extension; Decode sniffs
// it from the content.
package levelpack
