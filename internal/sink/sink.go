// Package sink persists a finished catalog. Writing is two-phase: every
// sink stages its output first and nothing becomes visible until Commit,
// so a run that fails while staging leaves no catalog behind.
package sink

import (
	"context"
	"fmt"

	"github.com/agentic-research/libcat/api"
	"github.com/go-git/go-billy/v5/osfs"
)

// Sink stores the catalog for one target.
type Sink interface {
	Stage(ctx context.Context, target string, libs []api.Library) (Staged, error)
	String() string
}

// Staged is output that is fully prepared but not yet visible to readers.
// Exactly one of Commit or Discard is called.
type Staged interface {
	Commit(ctx context.Context) error
	Discard()
}

// PersistenceError wraps a sink failure. The catalog was computed but not stored.
type PersistenceError struct {
	Sink string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("writing catalog to %s: %v", e.Sink, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Write stages and commits a single sink.
func Write(ctx context.Context, s Sink, target string, libs []api.Library) error {
	st, err := s.Stage(ctx, target, libs)
	if err != nil {
		return err
	}
	return st.Commit(ctx)
}

// FileName is the object name of a target's JSON catalog.
func FileName(target string) string {
	return target + ".json"
}

// Open picks the JSON sink for an output location: an s3+http(s):// URL
// selects S3, anything else is a local directory.
func Open(output string) (Sink, error) {
	if u := ParseS3URL(output); u != nil {
		return NewS3(u)
	}
	return NewFS(osfs.New(output), output), nil
}
