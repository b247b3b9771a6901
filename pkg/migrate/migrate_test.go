package migrate

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/google/uuid"
)

func embeddedMigrations(t *testing.T) fs.FS {
	t.Helper()
	sub, err := fs.Sub(Embedded(), embeddedDir)
	if err != nil {
		t.Fatalf("sub fs: %v", err)
	}
	return sub
}

func TestEmbeddedMigrationsValidate(t *testing.T) {
	if err := ValidateFS(embeddedMigrations(t)); err != nil {
		t.Fatalf("embedded migrations invalid: %v", err)
	}
}

func TestUsersMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "_create_users_table.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS users",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users (email)",
		"CHECK ((password_reset_token IS NULL) = (password_reset_expires_at IS NULL))",
		"CHECK (role IN ('user', 'admin', 'seller'))",
		"DROP TABLE IF EXISTS users",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestCatalogMigrationsContainConstraints(t *testing.T) {
	products := readMigration(t, "_create_products_table.sql")
	for _, sub := range []string{
		"CHECK (compare_price_cents IS NULL OR compare_price_cents > price_cents)",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_products_slug",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_products_sku",
	} {
		if !strings.Contains(products, sub) {
			t.Errorf("products: missing expected statement %q", sub)
		}
	}

	reviews := readMigration(t, "_create_reviews_table.sql")
	if !strings.Contains(reviews, "CREATE UNIQUE INDEX IF NOT EXISTS idx_reviews_user_product ON reviews (user_id, product_id)") {
		t.Error("reviews: missing one-review-per-user index")
	}
}

func TestCreateSQLMigrationWritesValidFile(t *testing.T) {
	dir := t.TempDir()
	path, err := CreateSQLMigration(dir, "Add Wishlist Table!")
	if err != nil {
		t.Fatalf("CreateSQLMigration returned error: %v", err)
	}
	if !strings.HasSuffix(path, "_add_wishlist_table.sql") {
		t.Fatalf("unexpected migration path %q", path)
	}
	if err := ValidateDir(dir); err != nil {
		t.Fatalf("created migration failed validation: %v", err)
	}
}

func TestCreateSQLMigrationRequiresVerb(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"wishlist table", "create", "   ", "Update orders"} {
		if _, err := CreateSQLMigration(dir, name); err == nil {
			t.Fatalf("expected %q to be rejected", name)
		}
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("rejected names must not write files, found %d", len(entries))
	}
}

func TestCreateSQLMigrationVersionFollowsNewest(t *testing.T) {
	dir := t.TempDir()
	existing := "20250301120500_add_product_search.sql"
	if err := os.WriteFile(filepath.Join(dir, existing), []byte("-- +goose Up\n-- +goose Down\n"), 0o644); err != nil {
		t.Fatalf("seed migration: %v", err)
	}

	stale := func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) }
	path, err := createSQLMigration(dir, "create wishlists table", stale)
	if err != nil {
		t.Fatalf("createSQLMigration returned error: %v", err)
	}
	if got := filepath.Base(path); got != "20250301120501_create_wishlists_table.sql" {
		t.Fatalf("unexpected migration file %q", got)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read created migration: %v", err)
	}
	if !strings.Contains(string(data), "DROP TABLE IF EXISTS wishlists;") {
		t.Fatalf("expected drop statement in down section, got:\n%s", data)
	}

	fresh := func() time.Time { return time.Date(2025, 6, 1, 9, 30, 0, 0, time.FixedZone("CST", -6*3600)) }
	path, err = createSQLMigration(dir, "backfill order tracking", fresh)
	if err != nil {
		t.Fatalf("createSQLMigration returned error: %v", err)
	}
	if got := filepath.Base(path); got != "20250601153000_backfill_order_tracking.sql" {
		t.Fatalf("unexpected migration file %q", got)
	}
	if err := ValidateDir(dir); err != nil {
		t.Fatalf("created migrations failed validation: %v", err)
	}
}

func TestSearchAndTrackingMigration(t *testing.T) {
	content := readMigration(t, "_add_product_search_and_order_tracking.sql")
	for _, sub := range []string{
		"CREATE INDEX IF NOT EXISTS idx_products_brand_status ON products (brand, status)",
		"ADD COLUMN IF NOT EXISTS tracking_number",
		"ADD COLUMN IF NOT EXISTS delivered_at timestamptz",
		"DROP INDEX IF EXISTS idx_products_brand_status",
	} {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestValidateDirRejectsEmpty(t *testing.T) {
	if err := ValidateDir(t.TempDir()); err == nil {
		t.Fatal("expected empty migrations dir to fail")
	}
}

func TestMaybeRunDevAutoMigratesSQLite(t *testing.T) {
	cfg := &config.Config{
		App:          config.AppConfig{Env: config.AppEnvDev},
		DB:           config.DBConfig{Driver: db.DriverSQLite, DSN: "file:" + uuid.NewString() + "?mode=memory&cache=shared"},
		FeatureFlags: config.FeatureFlagsConfig{AutoMigrate: true},
	}
	client, err := db.New(context.Background(), cfg.DB, nil)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	if err := MaybeRunDev(context.Background(), cfg, logger.Nop(), client); err != nil {
		t.Fatalf("MaybeRunDev returned error: %v", err)
	}
	for _, table := range []string{"users", "categories", "products", "reviews", "orders"} {
		if !client.DB().Migrator().HasTable(table) {
			t.Fatalf("expected table %s to exist", table)
		}
	}
}

func TestMaybeRunDevSkipsOutsideDev(t *testing.T) {
	cfg := &config.Config{
		App:          config.AppConfig{Env: config.AppEnvProd},
		FeatureFlags: config.FeatureFlagsConfig{AutoMigrate: true},
	}
	if err := MaybeRunDev(context.Background(), cfg, logger.Nop(), nil); err != nil {
		t.Fatalf("expected no-op outside dev, got %v", err)
	}
}

func readMigration(t *testing.T, suffix string) string {
	t.Helper()
	fsys := embeddedMigrations(t)
	matches, err := fs.Glob(fsys, "*"+suffix)
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no migration matching %s", suffix)
	}
	data, err := fs.ReadFile(fsys, matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}
