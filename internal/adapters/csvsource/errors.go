package csvsource

import (
	"errors"
	"fmt"
)

// Sentinel kinds for dataset loading errors.
var (
	ErrLoad  = errors.New("dataset load failed")
	ErrParse = errors.New("dataset value unparseable")
)

// LoadError reports a missing, unreadable or structurally malformed file.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Is matches ErrLoad.
func (e *LoadError) Is(target error) bool { return target == ErrLoad }

// ParseError reports a date or numeric cell that could not be parsed.
type ParseError struct {
	Path   string
	Line   int // 1-based line in the file, header is line 1
	Column string
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s:%d column %s value %q: %v", e.Path, e.Line, e.Column, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Is matches ErrParse.
func (e *ParseError) Is(target error) bool { return target == ErrParse }
