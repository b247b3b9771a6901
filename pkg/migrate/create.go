package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

const versionLayout = "20060102150405"

var nameSanitizeRe = regexp.MustCompile(`[^a-z0-9_]+`)

// migrationVerbs are the accepted leading words of a migration name.
var migrationVerbs = []string{"create", "add", "alter", "drop", "backfill", "rename"}

// CreateSQLMigration writes an empty goose SQL migration:
//
//	<dir>/<YYYYMMDDHHMMSS>_<verb>_<subject>.sql
//
// The version is the current UTC time, bumped past the newest migration
// already in dir so files always sort in creation order.
func CreateSQLMigration(dir string, name string) (string, error) {
	return createSQLMigration(dir, name, time.Now)
}

func createSQLMigration(dir, name string, now func() time.Time) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("dir is required")
	}
	safe, err := migrationName(name)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir %q: %w", dir, err)
	}

	version, err := nextVersion(dir, now().UTC())
	if err != nil {
		return "", err
	}
	fullpath := filepath.Join(dir, fmt.Sprintf("%s_%s.sql", version, safe))

	if err := os.WriteFile(fullpath, []byte(migrationTemplate(safe)), 0o644); err != nil {
		return "", fmt.Errorf("write migration %q: %w", fullpath, err)
	}
	return fullpath, nil
}

// migrationName lowercases name into snake_case and checks its verb.
func migrationName(name string) (string, error) {
	safe := strings.ToLower(strings.TrimSpace(name))
	safe = strings.ReplaceAll(safe, " ", "_")
	safe = nameSanitizeRe.ReplaceAllString(safe, "_")
	safe = strings.Trim(safe, "_")
	if safe == "" {
		return "", fmt.Errorf("name %q results in empty sanitized filename", name)
	}

	verb, subject, _ := strings.Cut(safe, "_")
	if subject == "" {
		return "", fmt.Errorf("name %q needs a subject after the verb", name)
	}
	for _, v := range migrationVerbs {
		if verb == v {
			return safe, nil
		}
	}
	return "", fmt.Errorf("name %q must start with one of %s", name, strings.Join(migrationVerbs, ", "))
}

// nextVersion returns now as a version, or one second past the newest
// version in dir when that is not earlier.
func nextVersion(dir string, now time.Time) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("read migrations: %w", err)
	}

	candidate := now.Truncate(time.Second)
	for _, e := range entries {
		m := sqlFileRe.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		existing, err := time.Parse(versionLayout, m[1])
		if err != nil {
			return "", fmt.Errorf("migration %q has an unparseable version: %w", e.Name(), err)
		}
		if !candidate.After(existing) {
			candidate = existing.Add(time.Second)
		}
	}
	return candidate.Format(versionLayout), nil
}

func migrationTemplate(name string) string {
	down := "-- rollback " + name
	if table, ok := createdTable(name); ok {
		down = fmt.Sprintf("DROP TABLE IF EXISTS %s;", table)
	}
	return fmt.Sprintf(`-- +goose Up
-- +goose StatementBegin
-- %s
-- +goose StatementEnd

-- +goose Down
-- +goose StatementBegin
%s
-- +goose StatementEnd
`, name, down)
}

// createdTable extracts wishlists from create_wishlists_table.
func createdTable(name string) (string, bool) {
	rest, ok := strings.CutPrefix(name, "create_")
	if !ok {
		return "", false
	}
	table, ok := strings.CutSuffix(rest, "_table")
	if !ok || table == "" {
		return "", false
	}
	return table, true
}
