package depstore

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/roach88/sassloader/internal/outcome"
)

// ErrNotFound is returned when no run matches a lookup.
var ErrNotFound = errors.New("depstore: run not found")

// Run is one recorded compile.
type Run struct {
	ID            string
	Seq           int64
	Resource      string
	Engine        string
	EngineVersion string
	OK            bool
	ErrorKind     string
	ErrorMessage  string
	CSSHash       string

	// Dependencies are the absolute paths the run read, in load order.
	Dependencies []string
}

// NewRun builds a Run for resource from a compile outcome. ID and Seq are
// assigned by RecordRun. A failed run depends on the entry and on the file
// the failure was reported in, so fixing either triggers a rebuild.
func NewRun(resource, engine, engineVersion string, out outcome.Outcome) Run {
	r := Run{
		Resource:      resource,
		Engine:        engine,
		EngineVersion: engineVersion,
		OK:            out.OK(),
		Dependencies:  out.IncludedFiles,
	}
	if out.Err != nil {
		r.ErrorKind = string(out.Err.Kind)
		r.ErrorMessage = out.Err.Message
		r.Dependencies = []string{resource}
		if out.Err.File != "" && out.Err.File != resource {
			r.Dependencies = append(r.Dependencies, out.Err.File)
		}
		return r
	}
	sum := sha256.Sum256([]byte(out.CSS))
	r.CSSHash = hex.EncodeToString(sum[:])
	return r
}

// RecordRun stores r with a fresh ID and seq and returns the stored run.
// The run row and its dependency rows are written in one transaction.
func (s *Store) RecordRun(ctx context.Context, r Run) (Run, error) {
	r.ID = s.ids.Generate()
	r.Seq = s.clock.Next()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Run{}, fmt.Errorf("record run: begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, seq, resource, engine, engine_version, ok, error_kind, error_message, css_hash)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.ID, r.Seq, r.Resource, r.Engine, r.EngineVersion, boolToInt(r.OK), r.ErrorKind, r.ErrorMessage, r.CSSHash)
	if err != nil {
		return Run{}, fmt.Errorf("record run: insert run: %w", err)
	}

	for i, path := range r.Dependencies {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO run_dependencies (run_id, position, path)
			VALUES (?, ?, ?)
			ON CONFLICT(run_id, path) DO NOTHING
		`, r.ID, i, path)
		if err != nil {
			return Run{}, fmt.Errorf("record run: insert dependency %q: %w", path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Run{}, fmt.Errorf("record run: commit: %w", err)
	}
	return r, nil
}

// LatestRun returns the most recent run for resource, with its
// dependencies. Returns ErrNotFound if resource was never recorded.
func (s *Store) LatestRun(ctx context.Context, resource string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, seq, resource, engine, engine_version, ok, error_kind, error_message, css_hash
		FROM runs
		WHERE resource = ?
		ORDER BY seq DESC
		LIMIT 1
	`, resource)

	var (
		r  Run
		ok int
	)
	err := row.Scan(&r.ID, &r.Seq, &r.Resource, &r.Engine, &r.EngineVersion, &ok, &r.ErrorKind, &r.ErrorMessage, &r.CSSHash)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, ErrNotFound
	}
	if err != nil {
		return Run{}, fmt.Errorf("latest run %q: %w", resource, err)
	}
	r.OK = ok != 0

	deps, err := s.Dependencies(ctx, r.ID)
	if err != nil {
		return Run{}, err
	}
	r.Dependencies = deps
	return r, nil
}

// Dependencies returns the files run runID read, in load order.
// Returns an empty slice (not nil) for a run without dependencies.
func (s *Store) Dependencies(ctx context.Context, runID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT path
		FROM run_dependencies
		WHERE run_id = ?
		ORDER BY position ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query dependencies: %w", err)
	}
	defer rows.Close()

	return scanStrings(rows, "dependency")
}

// Dependents returns the resources whose most recent run read path,
// sorted by resource. Older runs of a resource are ignored, so a partial
// that was removed from a stylesheet stops reporting it after the next
// compile.
func (s *Store) Dependents(ctx context.Context, path string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.resource
		FROM runs r
		JOIN run_dependencies d ON d.run_id = r.id
		WHERE d.path = ?
		  AND r.seq = (SELECT MAX(seq) FROM runs WHERE resource = r.resource)
		ORDER BY r.resource COLLATE BINARY ASC
	`, path)
	if err != nil {
		return nil, fmt.Errorf("query dependents: %w", err)
	}
	defer rows.Close()

	return scanStrings(rows, "dependent")
}

func scanStrings(rows *sql.Rows, what string) ([]string, error) {
	out := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan %s: %w", what, err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %ss: %w", what, err)
	}
	return out, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
