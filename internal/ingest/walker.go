// Package ingest turns a remote repository listing into classified paths.
package ingest

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/agentic-research/libcat/internal/github"
	"github.com/agentic-research/libcat/internal/logging"
	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultRoot is the top-level directory holding one directory per library.
	DefaultRoot = "files"
	// DefaultSubtreeConcurrency bounds in-flight recursive subtree listings.
	DefaultSubtreeConcurrency = 8
)

// TreeSource is the repository listing collaborator.
type TreeSource interface {
	TopLevelEntries(ctx context.Context) ([]github.Entry, error)
	Tree(ctx context.Context, sha string, recursive bool) (*github.Tree, error)
}

// WalkStats counts what the last Walk saw.
type WalkStats struct {
	Dirs      int // library directories found under the root
	Skipped   int // directories whose listing failed and were dropped
	Truncated int // directories whose listing the server truncated
	Files     int // regular file paths returned
}

// Walker flattens the root directory of a repository into file paths.
type Walker struct {
	Source      TreeSource
	Root        string
	Concurrency int
	Logger      *log.Logger

	stats WalkStats
}

// NewWalker returns a walker over src rooted at root ("files" when empty)
// with the default subtree concurrency.
func NewWalker(src TreeSource, root string, logger *log.Logger) *Walker {
	if root == "" {
		root = DefaultRoot
	}
	return &Walker{
		Source:      src,
		Root:        root,
		Concurrency: DefaultSubtreeConcurrency,
		Logger:      logging.Component(logger, "walker"),
	}
}

// Stats returns the counters of the last Walk.
func (w *Walker) Stats() WalkStats {
	return w.stats
}

// Walk returns every regular file below the root as "library/...", each
// path once and in no particular order. A library directory whose listing
// fails is logged and left out; only a missing root is fatal.
func (w *Walker) Walk(ctx context.Context) ([]string, error) {
	w.stats = WalkStats{}

	entries, err := w.Source.TopLevelEntries(ctx)
	if err != nil {
		return nil, err
	}

	rootSHA := ""
	for _, e := range entries {
		if e.Name == w.Root {
			rootSHA = e.SHA
			break
		}
	}
	if rootSHA == "" {
		return nil, fmt.Errorf("%w: %q", ErrMissingRoot, w.Root)
	}

	rootTree, err := w.Source.Tree(ctx, rootSHA, false)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", w.Root, err)
	}
	if rootTree == nil || rootTree.Entries == nil {
		return nil, fmt.Errorf("listing %s: %w", w.Root, ErrMissingTree)
	}

	var dirs []github.TreeEntry
	for _, e := range rootTree.Entries {
		if e.IsDir() {
			dirs = append(dirs, e)
		}
	}
	w.stats.Dirs = len(dirs)
	w.Logger.Info("listing library directories", "dirs", len(dirs), "concurrency", w.limit())

	// One slot per directory; each goroutine writes only its own slot.
	results := make([][]github.TreeEntry, len(dirs))
	var skipped, truncated atomic.Int32

	var g errgroup.Group
	g.SetLimit(w.limit())
	for i, dir := range dirs {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			tree, err := w.Source.Tree(ctx, dir.SHA, true)
			if ctx.Err() != nil {
				return nil
			}
			if err == nil && (tree == nil || tree.Entries == nil) {
				err = ErrMissingTree
			}
			if err != nil {
				skipped.Add(1)
				w.Logger.Warn("skipping directory", "err", &SubtreeFetchError{Dir: dir.Path, Err: err})
				return nil
			}
			if tree.Truncated {
				truncated.Add(1)
				w.Logger.Warn("listing truncated", "dir", dir.Path)
			}
			results[i] = prefixed(dir.Path, tree.Entries)
			return nil
		})
	}
	_ = g.Wait() // subtree failures are swallowed above
	if err := ctx.Err(); err != nil {
		// A cancelled walk is incomplete, not a walk with skipped directories.
		return nil, err
	}

	w.stats.Skipped = int(skipped.Load())
	w.stats.Truncated = int(truncated.Load())

	seen := make(map[string]struct{})
	var paths []string
	for _, entries := range results {
		for _, e := range entries {
			if !e.IsRegular() || !strings.Contains(e.Path, "/") {
				continue
			}
			if _, dup := seen[e.Path]; dup {
				continue
			}
			seen[e.Path] = struct{}{}
			paths = append(paths, e.Path)
		}
	}
	w.stats.Files = len(paths)

	w.Logger.Info("walk finished", "dirs", w.stats.Dirs, "skipped", w.stats.Skipped, "files", w.stats.Files)
	return paths, nil
}

func (w *Walker) limit() int {
	if w.Concurrency < 1 {
		return DefaultSubtreeConcurrency
	}
	return w.Concurrency
}

// prefixed restores the "dir/" prefix the per-directory listing drops.
func prefixed(dir string, entries []github.TreeEntry) []github.TreeEntry {
	out := make([]github.TreeEntry, len(entries))
	for i, e := range entries {
		e.Path = dir + "/" + e.Path
		out[i] = e
	}
	return out
}
