package jsonschema

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownRef is returned when a $ref names a missing definition.
	ErrUnknownRef = errors.New("unknown $ref")
	// ErrMergeConflict is returned when allOf branches declare the same
	// property with incompatible schemas.
	ErrMergeConflict = errors.New("allOf merge conflict")
	// ErrTooDeep guards against schemas that recurse without consuming input.
	ErrTooDeep = errors.New("schema recursion too deep")
)

// ParseError reports a keyword the parser does not handle.
type ParseError struct {
	Path    string
	Keyword string
	Msg     string
}

func (e *ParseError) Error() string {
	if e.Keyword == "" {
		return fmt.Sprintf("schema %s: %s", e.Path, e.Msg)
	}
	return fmt.Sprintf("schema %s: keyword %q: %s", e.Path, e.Keyword, e.Msg)
}

// RefError names the reference that failed to resolve.
type RefError struct {
	Ref string
}

func (e *RefError) Error() string {
	return fmt.Sprintf("unknown $ref %q", e.Ref)
}

func (e *RefError) Unwrap() error { return ErrUnknownRef }
