package sink

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/agentic-research/libcat/api"
	_ "modernc.org/sqlite"
)

const snapshotSchema = `
CREATE TABLE libraries (
	target TEXT NOT NULL,
	name TEXT NOT NULL,
	zip TEXT NOT NULL,
	last_version TEXT NOT NULL,
	metadata JSON
);
CREATE TABLE versions (
	target TEXT NOT NULL,
	library TEXT NOT NULL,
	version TEXT NOT NULL,
	rank INTEGER NOT NULL
);
CREATE TABLE assets (
	target TEXT NOT NULL,
	library TEXT NOT NULL,
	version TEXT NOT NULL,
	path TEXT NOT NULL
);
`

var snapshotIndexes = []string{
	`CREATE INDEX idx_libraries_name ON libraries(target, name)`,
	`CREATE INDEX idx_versions_library ON versions(target, library, rank)`,
	`CREATE INDEX idx_assets_version ON assets(target, library, version)`,
}

// Snapshot writes the catalog into a fresh SQLite database. The database
// is built next to the destination and renamed over it when complete.
type Snapshot struct {
	path string
}

// NewSnapshot returns a sink that writes the SQLite database at path.
func NewSnapshot(path string) *Snapshot {
	return &Snapshot{path: path}
}

func (s *Snapshot) String() string {
	return "sqlite:" + s.path
}

// Stage implements Sink. The database is complete once Stage returns;
// Commit only renames it into place.
func (s *Snapshot) Stage(ctx context.Context, target string, libs []api.Library) (Staged, error) {
	tmp := s.path + ".tmp"
	if err := os.Remove(tmp); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("remove stale %s: %w", tmp, err)
	}

	if err := writeSnapshot(ctx, tmp, target, libs); err != nil {
		_ = os.Remove(tmp)
		return nil, err
	}
	return &snapshotStaged{tmp: tmp, final: s.path}, nil
}

type snapshotStaged struct {
	tmp, final string
}

func (st *snapshotStaged) Commit(context.Context) error {
	if err := os.Rename(st.tmp, st.final); err != nil {
		_ = os.Remove(st.tmp)
		return fmt.Errorf("rename %s: %w", st.final, err)
	}
	return nil
}

func (st *snapshotStaged) Discard() {
	_ = os.Remove(st.tmp)
}

func writeSnapshot(ctx context.Context, dbPath, target string, libs []api.Library) (err error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode = MEMORY"); err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, snapshotSchema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := insertLibraries(ctx, tx, target, libs); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	for _, ddl := range snapshotIndexes {
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	return nil
}

func insertLibraries(ctx context.Context, tx *sql.Tx, target string, libs []api.Library) error {
	stmtLib, err := tx.PrepareContext(ctx, `INSERT INTO libraries (target, name, zip, last_version, metadata) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() { _ = stmtLib.Close() }()

	stmtVer, err := tx.PrepareContext(ctx, `INSERT INTO versions (target, library, version, rank) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() { _ = stmtVer.Close() }()

	stmtAsset, err := tx.PrepareContext(ctx, `INSERT INTO assets (target, library, version, path) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() { _ = stmtAsset.Close() }()

	for _, l := range libs {
		var meta sql.NullString
		if len(l.Metadata) > 0 {
			b, err := json.Marshal(l.Metadata)
			if err != nil {
				return fmt.Errorf("encode metadata of %s: %w", l.Name, err)
			}
			meta = sql.NullString{String: string(b), Valid: true}
		}
		if _, err := stmtLib.ExecContext(ctx, target, l.Name, l.Zip, l.LastVersion, meta); err != nil {
			return fmt.Errorf("insert library %s: %w", l.Name, err)
		}
		for rank, v := range l.Versions {
			if _, err := stmtVer.ExecContext(ctx, target, l.Name, v, rank); err != nil {
				return fmt.Errorf("insert version %s@%s: %w", l.Name, v, err)
			}
		}
		for _, g := range l.Assets {
			for _, f := range g.Files {
				if _, err := stmtAsset.ExecContext(ctx, target, l.Name, g.Version, f); err != nil {
					return fmt.Errorf("insert asset %s@%s/%s: %w", l.Name, g.Version, f, err)
				}
			}
		}
	}
	return nil
}
