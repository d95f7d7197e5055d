package sink

import (
	"context"
	"fmt"

	"github.com/agentic-research/libcat/api"
	billy "github.com/go-git/go-billy/v5"
)

// FS writes <target>.json into a billy filesystem: Stage writes a temp
// file, Commit renames it over the final name.
type FS struct {
	fs   billy.Filesystem
	name string
}

// NewFS wraps fs; name identifies the location in logs and errors.
func NewFS(fs billy.Filesystem, name string) *FS {
	return &FS{fs: fs, name: name}
}

func (s *FS) String() string {
	return "fs:" + s.name
}

// Stage implements Sink.
func (s *FS) Stage(ctx context.Context, target string, libs []api.Library) (Staged, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := api.Encode(libs)
	if err != nil {
		return nil, err
	}

	final := FileName(target)
	tmp := final + ".tmp"

	f, err := s.fs.Create(tmp)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", tmp, err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = s.fs.Remove(tmp)
		return nil, fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := f.Close(); err != nil {
		_ = s.fs.Remove(tmp)
		return nil, fmt.Errorf("close %s: %w", tmp, err)
	}
	return &fsStaged{fs: s.fs, tmp: tmp, final: final}, nil
}

type fsStaged struct {
	fs         billy.Filesystem
	tmp, final string
}

func (st *fsStaged) Commit(context.Context) error {
	if err := st.fs.Rename(st.tmp, st.final); err != nil {
		_ = st.fs.Remove(st.tmp)
		return fmt.Errorf("rename %s: %w", st.final, err)
	}
	return nil
}

func (st *fsStaged) Discard() {
	_ = st.fs.Remove(st.tmp)
}
