package levelpack

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wricardo/storekeeper/game/engine"
	"gopkg.in/yaml.v3"
)

// Format names a level-pack encoding
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatText Format = "text"
)

// Extensions maps file extensions to the format they hold
var Extensions = map[string]Format{
	".json": FormatJSON,
	".yaml": FormatYAML,
	".yml":  FormatYAML,
	".sok":  FormatText,
	".txt":  FormatText,
}

// FormatFromPath returns the format implied by the file extension
func FormatFromPath(path string) (Format, bool) {
	f, ok := Extensions[strings.ToLower(filepath.Ext(path))]
	return f, ok
}

// IsPackFile reports whether path has a level-pack extension
func IsPackFile(path string) bool {
	_, ok := FormatFromPath(path)
	return ok
}

// PackID returns the identifier of a pack file: its base name without extension
func PackID(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// DecodeFile reads and decodes a pack file. Unknown extensions are sniffed.
func DecodeFile(path string) (*engine.LevelPack, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read level pack: %w", err)
	}
	source := PackID(path)
	if f, ok := FormatFromPath(path); ok {
		return DecodeFormat(data, f, source)
	}
	return Decode(data, source)
}

// Decode sniffs the encoding of data and decodes it
func Decode(data []byte, source string) (*engine.LevelPack, error) {
	return DecodeFormat(data, Sniff(data), source)
}

// Sniff guesses the encoding of data
func Sniff(data []byte) Format {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		return FormatJSON
	}
	for _, line := range strings.Split(string(trimmed), "\n") {
		line = strings.TrimSpace(line)
		if line == "levels:" || strings.HasPrefix(line, "levels:") {
			return FormatYAML
		}
	}
	return FormatText
}

// DecodeFormat decodes data with the given encoding
func DecodeFormat(data []byte, format Format, source string) (*engine.LevelPack, error) {
	switch format {
	case FormatJSON:
		return DecodeJSON(data, source)
	case FormatYAML:
		return DecodeYAML(data, source)
	case FormatText:
		return DecodeText(data, source)
	default:
		return nil, &engine.LevelPackParseError{Source: source, Reason: fmt.Sprintf("unknown format %q", format)}
	}
}

// DecodeJSON decodes a JSON pack
func DecodeJSON(data []byte, source string) (*engine.LevelPack, error) {
	var pack engine.LevelPack
	if err := json.Unmarshal(data, &pack); err != nil {
		return nil, &engine.LevelPackParseError{Source: source, Reason: "invalid JSON", Err: err}
	}
	return finish(&pack, source)
}

// DecodeYAML decodes a YAML pack
func DecodeYAML(data []byte, source string) (*engine.LevelPack, error) {
	var pack engine.LevelPack
	if err := yaml.Unmarshal(data, &pack); err != nil {
		return nil, &engine.LevelPackParseError{Source: source, Reason: "invalid YAML", Err: err}
	}
	return finish(&pack, source)
}

// finish fills defaults and rejects packs that cannot be loaded at all
func finish(pack *engine.LevelPack, source string) (*engine.LevelPack, error) {
	if pack.Name == "" {
		pack.Name = source
	}
	if len(pack.Levels) == 0 {
		return nil, &engine.LevelPackParseError{Source: source, Reason: "pack contains no levels"}
	}
	for i := range pack.Levels {
		if len(pack.Levels[i].Layout) == 0 {
			return nil, &engine.LevelPackParseError{Source: source, Reason: fmt.Sprintf("level %d has no layout", i+1)}
		}
		if pack.Levels[i].Name == "" {
			pack.Levels[i].Name = fmt.Sprintf("Level %d", i+1)
		}
	}
	return pack, nil
}

// Encode serializes a pack in the given format
func Encode(pack *engine.LevelPack, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		return json.MarshalIndent(pack, "", "  ")
	case FormatYAML:
		return yaml.Marshal(pack)
	case FormatText:
		return EncodeText(pack), nil
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
}
