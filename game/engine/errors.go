package engine

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidLevel    = errors.New("invalid level")
	ErrLevelPackParse  = errors.New("level pack parse error")
	ErrIndexOutOfRange = errors.New("level index out of range")
	ErrIllegalReplay   = errors.New("illegal move in replay")
	ErrNoLevelSelected = errors.New("no level selected")
)

// InvalidLevelError reports a layout that cannot be played
type InvalidLevelError struct {
	Level  string
	Reason string
}

func (e *InvalidLevelError) Error() string {
	if e.Level == "" {
		return fmt.Sprintf("invalid level: %s", e.Reason)
	}
	return fmt.Sprintf("invalid level %q: %s", e.Level, e.Reason)
}

// Is matches ErrInvalidLevel
func (e *InvalidLevelError) Is(target error) bool {
	return target == ErrInvalidLevel
}

// LevelPackParseError reports a malformed level-pack source
type LevelPackParseError struct {
	Source string
	Reason string
	Err    error
}

func (e *LevelPackParseError) Error() string {
	msg := fmt.Sprintf("level pack %q: %s", e.Source, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Is matches ErrLevelPackParse
func (e *LevelPackParseError) Is(target error) bool {
	return target == ErrLevelPackParse
}

func (e *LevelPackParseError) Unwrap() error {
	return e.Err
}

// IndexOutOfRangeError reports a level index outside [0, count)
type IndexOutOfRangeError struct {
	Index int
	Count int
}

func (e *IndexOutOfRangeError) Error() string {
	return fmt.Sprintf("level index %d out of range [0,%d)", e.Index, e.Count)
}

// Is matches ErrIndexOutOfRange
func (e *IndexOutOfRangeError) Is(target error) bool {
	return target == ErrIndexOutOfRange
}
