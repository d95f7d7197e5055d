// Package catalog folds classified repository paths into library records.
package catalog

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/agentic-research/libcat/api"
	"github.com/agentic-research/libcat/internal/ingest"
	"github.com/agentic-research/libcat/internal/logging"
	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
)

// DefaultMetadataConcurrency bounds in-flight metadata file fetches.
const DefaultMetadataConcurrency = 4

// Fetcher downloads a raw file by absolute URL.
type Fetcher interface {
	FetchRaw(ctx context.Context, rawURL string) ([]byte, error)
}

// Parser decodes a metadata file into key/value pairs.
type Parser interface {
	Parse(data []byte) (map[string]string, error)
}

// Builder owns the catalog map for the duration of a fold.
type Builder struct {
	Fetcher      Fetcher
	Parser       Parser
	RawBase      string // URL of the root directory; metadata paths resolve below it
	MetadataFile string
	Concurrency  int
	Logger       *log.Logger

	libs map[string]*Library
}

// NewBuilder returns a builder that resolves metadata files below rawBase,
// using the default metadata filename and fetch concurrency.
func NewBuilder(fetcher Fetcher, parser Parser, rawBase string, logger *log.Logger) *Builder {
	return &Builder{
		Fetcher:      fetcher,
		Parser:       parser,
		RawBase:      rawBase,
		MetadataFile: ingest.DefaultMetadataFile,
		Concurrency:  DefaultMetadataConcurrency,
		Logger:       logging.Component(logger, "catalog"),
	}
}

// metadataJob is one metadata file to fetch; result is written by the
// goroutine that owns the job and read after the pool drained.
type metadataJob struct {
	library string
	path    string
	url     string
	result  map[string]string
}

// Fold classifies every path once and returns the libraries sorted by name.
// Any metadata fetch or parse failure aborts the fold: no further fetch is
// started and the first error is returned once in-flight fetches finish.
func (b *Builder) Fold(ctx context.Context, paths []string) ([]*Library, error) {
	base, err := b.baseURL()
	if err != nil {
		return nil, err
	}

	b.libs = make(map[string]*Library)
	var jobs []*metadataJob

	for _, p := range paths {
		fact := ingest.Classify(p, b.MetadataFile)
		switch fact.Kind {
		case ingest.AssetRef:
			b.ensure(fact.Library).addAsset(fact.Version, fact.RelativePath)
		case ingest.MetadataRef:
			b.ensure(fact.Library)
			jobs = append(jobs, &metadataJob{
				library: fact.Library,
				path:    fact.SourcePath,
				url:     base.JoinPath(strings.Split(fact.SourcePath, "/")...).String(),
			})
		}
	}

	if err := b.fetchMetadata(ctx, jobs); err != nil {
		return nil, err
	}
	for _, job := range jobs {
		b.merge(b.libs[job.library], job.result)
	}

	out := make([]*Library, 0, len(b.libs))
	for _, l := range b.libs {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	b.Logger.Info("catalog folded", "paths", len(paths), "libraries", len(out), "metadata", len(jobs))
	return out, nil
}

func (b *Builder) ensure(name string) *Library {
	l, ok := b.libs[name]
	if !ok {
		l = newLibrary(name)
		b.libs[name] = l
	}
	return l
}

func (b *Builder) fetchMetadata(ctx context.Context, jobs []*metadataJob) error {
	limit := b.Concurrency
	if limit < 1 {
		limit = DefaultMetadataConcurrency
	}

	var failed atomic.Bool
	var g errgroup.Group
	g.SetLimit(limit)
	for _, job := range jobs {
		if failed.Load() {
			break
		}
		g.Go(func() error {
			if failed.Load() {
				return nil
			}
			data, err := b.Fetcher.FetchRaw(ctx, job.url)
			if err != nil {
				failed.Store(true)
				return &MetadataFetchError{Library: job.library, URL: job.url, Err: err}
			}
			kv, err := b.Parser.Parse(data)
			if err != nil {
				failed.Store(true)
				return &MetadataParseError{Library: job.library, Path: job.path, Err: err}
			}
			job.result = kv
			b.Logger.Debug("metadata fetched", "library", job.library, "keys", len(kv))
			return nil
		})
	}
	return g.Wait()
}

// merge applies metadata keys over the record. Present keys overwrite,
// absent keys leave the record alone.
func (b *Builder) merge(l *Library, kv map[string]string) {
	if len(kv) == 0 {
		return
	}
	if l.Metadata == nil {
		l.Metadata = make(map[string]string, len(kv))
	}
	for k, v := range kv {
		switch {
		case api.IsReservedKey(k):
			b.Logger.Warn("ignoring reserved metadata key", "library", l.Name, "key", k)
		case k == "zip":
			l.Zip = v
		default:
			l.Metadata[k] = v
		}
	}
}

func (b *Builder) baseURL() (*url.URL, error) {
	u, err := url.Parse(b.RawBase)
	if err != nil {
		return nil, fmt.Errorf("invalid raw base URL %q: %w", b.RawBase, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid raw base URL %q: scheme and host required", b.RawBase)
	}
	return u, nil
}
