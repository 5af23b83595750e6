package migrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"

	"github.com/pressly/goose/v3"
)

const DefaultDir = "pkg/migrate/migrations"

// Runner applies goose migrations from one filesystem against Postgres.
type Runner struct {
	provider *goose.Provider
}

// NewRunner validates fsys and builds a goose provider over it.
func NewRunner(db *sql.DB, fsys fs.FS) (*Runner, error) {
	if db == nil {
		return nil, errors.New("db is required")
	}
	if _, err := Validate(fsys); err != nil {
		return nil, err
	}
	provider, err := goose.NewProvider(goose.DialectPostgres, db, fsys)
	if err != nil {
		return nil, fmt.Errorf("goose provider: %w", err)
	}
	return &Runner{provider: provider}, nil
}

// NewDirRunner reads migrations from a directory on disk.
func NewDirRunner(db *sql.DB, dir string) (*Runner, error) {
	if dir == "" {
		return nil, errors.New("dir is required")
	}
	return NewRunner(db, os.DirFS(dir))
}

// Up applies every pending migration and reports what ran to out.
func (r *Runner) Up(ctx context.Context, out io.Writer) error {
	results, err := r.provider.Up(ctx)
	for _, res := range results {
		fmt.Fprintf(out, "OK   %s (%s)\n", res.Source.Path, res.Duration)
	}
	if err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}

// Down rolls back the most recent migration.
func (r *Runner) Down(ctx context.Context, out io.Writer) error {
	res, err := r.provider.Down(ctx)
	if err != nil {
		return fmt.Errorf("goose down: %w", err)
	}
	fmt.Fprintf(out, "OK   %s (%s)\n", res.Source.Path, res.Duration)
	return nil
}

// Status prints every known migration and whether it has been applied.
func (r *Runner) Status(ctx context.Context, out io.Writer) error {
	statuses, err := r.provider.Status(ctx)
	if err != nil {
		return fmt.Errorf("goose status: %w", err)
	}
	for _, st := range statuses {
		applied := "pending"
		if st.State == goose.StateApplied {
			applied = st.AppliedAt.UTC().Format("2006-01-02 15:04:05")
		}
		fmt.Fprintf(out, "%-20s %s\n", applied, st.Source.Path)
	}
	return nil
}

// MigrateTo moves the schema up or down until target is the current version.
func (r *Runner) MigrateTo(ctx context.Context, target string) error {
	version, err := parseVersion(target)
	if err != nil {
		return err
	}
	current, err := r.provider.GetDBVersion(ctx)
	if err != nil {
		return fmt.Errorf("get db version: %w", err)
	}
	switch {
	case current < version:
		_, err = r.provider.UpTo(ctx, version)
	case current > version:
		_, err = r.provider.DownTo(ctx, version)
	}
	if err != nil {
		return fmt.Errorf("migrate to %d: %w", version, err)
	}
	return nil
}

func parseVersion(value string) (int64, error) {
	if len(value) != len(versionLayout) {
		return 0, fmt.Errorf("invalid version %q (expected YYYYMMDDHHMMSS)", value)
	}
	version, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid version %q: %w", value, err)
	}
	return version, nil
}
