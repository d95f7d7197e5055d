// Package run drives one catalog update: walk, fold, sort, persist.
package run

import (
	"context"
	"time"

	"github.com/agentic-research/libcat/api"
	"github.com/agentic-research/libcat/internal/catalog"
	"github.com/agentic-research/libcat/internal/ingest"
	"github.com/agentic-research/libcat/internal/logging"
	"github.com/agentic-research/libcat/internal/sink"
	"github.com/charmbracelet/log"
)

// PathWalker lists the repository files under the library root.
type PathWalker interface {
	Walk(ctx context.Context) ([]string, error)
}

// Folder folds file paths into library records.
type Folder interface {
	Fold(ctx context.Context, paths []string) ([]*catalog.Library, error)
}

// Summary describes a finished run.
type Summary struct {
	Target    string
	Libraries int
	Versions  int
	Files     int
	Skipped   int
	Duration  time.Duration
}

// Controller runs the update pipeline for one target and writes the result
// to every sink.
type Controller struct {
	Walker  PathWalker
	Builder Folder
	Sinks   []sink.Sink
	Target  string
	Logger  *log.Logger
}

// NewController wires a controller; sinks are staged and committed in order.
func NewController(walker PathWalker, builder Folder, target string, logger *log.Logger, sinks ...sink.Sink) *Controller {
	return &Controller{
		Walker:  walker,
		Builder: builder,
		Sinks:   sinks,
		Target:  target,
		Logger:  logging.Component(logger, "run"),
	}
}

// Run performs one update. Nothing is persisted unless walk, fold and the
// staging of every sink succeed; a sink failure is returned as
// *sink.PersistenceError.
func (c *Controller) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()
	c.Logger.Info("starting to update " + c.Target + " data")

	sum, err := c.run(ctx)
	if err != nil {
		c.Logger.Error("failed to update "+c.Target+" data", "err", err)
		return nil, err
	}
	sum.Duration = time.Since(start)
	c.Logger.Info("updated "+c.Target+" data",
		"libraries", sum.Libraries,
		"versions", sum.Versions,
		"files", sum.Files,
		"skipped", sum.Skipped,
		"took", sum.Duration.Round(time.Millisecond))
	return sum, nil
}

func (c *Controller) run(ctx context.Context) (*Summary, error) {
	paths, err := c.Walker.Walk(ctx)
	if err != nil {
		return nil, err
	}

	libs, err := c.Builder.Fold(ctx, paths)
	if err != nil {
		return nil, err
	}

	sum := &Summary{Target: c.Target, Libraries: len(libs)}
	for _, l := range libs {
		l.SortVersions()
		sum.Versions += len(l.Versions)
	}
	if sw, ok := c.Walker.(interface{ Stats() ingest.WalkStats }); ok {
		st := sw.Stats()
		sum.Files = st.Files
		sum.Skipped = st.Skipped
	} else {
		sum.Files = len(paths)
	}

	records := catalog.Records(libs)
	if err := c.persist(ctx, records); err != nil {
		return nil, err
	}
	return sum, nil
}

// persist stages every sink before committing any of them, so a sink that
// fails to stage leaves no output anywhere.
func (c *Controller) persist(ctx context.Context, records []api.Library) error {
	staged := make([]sink.Staged, 0, len(c.Sinks))
	discard := func() {
		for _, st := range staged {
			st.Discard()
		}
	}

	for _, s := range c.Sinks {
		st, err := s.Stage(ctx, c.Target, records)
		if err != nil {
			discard()
			return &sink.PersistenceError{Sink: s.String(), Err: err}
		}
		staged = append(staged, st)
	}
	if err := ctx.Err(); err != nil {
		discard()
		return err
	}

	for i, st := range staged {
		if err := st.Commit(ctx); err != nil {
			for _, rest := range staged[i+1:] {
				rest.Discard()
			}
			return &sink.PersistenceError{Sink: c.Sinks[i].String(), Err: err}
		}
		c.Logger.Debug("catalog written", "sink", c.Sinks[i].String(), "libraries", len(records))
	}
	return nil
}
