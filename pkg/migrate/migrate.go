package migrate

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"strconv"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/pressly/goose/v3"
)

// DefaultDir is the on-disk location of the SQL files, used by create/validate.
// Runtime commands read the copy compiled into the binary.
const DefaultDir = "pkg/migrate/migrations"

const embeddedDir = "migrations"

//go:embed migrations/*.sql
var embedded embed.FS

// Embedded exposes the compiled-in migrations.
func Embedded() fs.FS {
	return embedded
}

// source resolves which filesystem goose should read from.
func source(dir string) (fs.FS, string) {
	if dir == "" || dir == DefaultDir {
		return embedded, embeddedDir
	}
	return nil, dir
}

// Dialect maps a database driver name onto goose's dialect names.
func Dialect(driver string) string {
	if driver == db.DriverSQLite {
		return "sqlite3"
	}
	return "postgres"
}

func prepare(dir string) (string, error) {
	fsys, path := source(dir)
	goose.SetBaseFS(fsys)
	if err := goose.SetDialect("postgres"); err != nil {
		return "", fmt.Errorf("set goose dialect: %w", err)
	}
	return path, nil
}

// Run executes a standard goose command that requires a DB connection.
func Run(ctx context.Context, conn *sql.DB, dir string, command string, args ...string) error {
	if conn == nil {
		return fmt.Errorf("db is required")
	}

	path, err := prepare(dir)
	if err != nil {
		return err
	}

	if err := goose.RunContext(ctx, command, conn, path, args...); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}

// MigrateToVersion migrates up/down to the requested version by comparing current DB version.
func MigrateToVersion(ctx context.Context, conn *sql.DB, dir string, targetVersion string) error {
	if targetVersion == "" {
		return fmt.Errorf("targetVersion is required")
	}

	target, err := strconv.ParseInt(targetVersion, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid version %q (expected YYYYMMDDHHMMSS): %w", targetVersion, err)
	}

	path, err := prepare(dir)
	if err != nil {
		return err
	}

	current, err := goose.GetDBVersionContext(ctx, conn)
	if err != nil {
		return fmt.Errorf("get db version: %w", err)
	}

	switch {
	case current == target:
		return nil
	case current < target:
		if err := goose.UpToContext(ctx, conn, path, target); err != nil {
			return fmt.Errorf("goose up-to %d: %w", target, err)
		}
	default:
		if err := goose.DownToContext(ctx, conn, path, target); err != nil {
			return fmt.Errorf("goose down-to %d: %w", target, err)
		}
	}
	return nil
}
