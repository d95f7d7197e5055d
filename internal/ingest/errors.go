package ingest

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingRoot means the repository has no root directory to walk.
	ErrMissingRoot = errors.New("root directory not found")
	// ErrMissingTree means the root directory listing carried no tree.
	ErrMissingTree = errors.New("missing tree")
)

// SubtreeFetchError describes one library directory whose listing failed.
// The walker logs it and drops the directory; it never reaches the caller.
type SubtreeFetchError struct {
	Dir string
	Err error
}

func (e *SubtreeFetchError) Error() string {
	return fmt.Sprintf("listing subtree %s: %v", e.Dir, e.Err)
}

func (e *SubtreeFetchError) Unwrap() error {
	return e.Err
}
