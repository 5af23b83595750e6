package migrate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationsDirIsValid(t *testing.T) {
	files, err := ValidateDir("migrations")
	require.NoError(t, err)
	require.NotEmpty(t, files)
	for i := 1; i < len(files); i++ {
		assert.Less(t, files[i-1].Version, files[i].Version)
	}
	assert.Equal(t, "create_membership_tiers", files[0].Name)
}

func TestCartEntriesMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "*_create_cart_entries.sql")
	for _, sub := range []string{
		"CREATE TABLE IF NOT EXISTS cart_entries",
		"CHECK (quantity >= 1)",
		"FOREIGN KEY (item_id) REFERENCES catalog_items(id) ON DELETE CASCADE",
		"FOREIGN KEY (member_id) REFERENCES members(id) ON DELETE CASCADE",
		"DROP TABLE IF EXISTS cart_entries",
	} {
		assert.Contains(t, content, sub)
	}
}

func TestCatalogMigrationGuardsStock(t *testing.T) {
	content := readMigration(t, "*_create_catalog_items.sql")
	assert.Contains(t, content, "CHECK (stock_quantity >= 0)")
	assert.Contains(t, content, "CHECK (price > 0)")
}

func TestMembersMigrationNullsTierOnDelete(t *testing.T) {
	content := readMigration(t, "*_create_members.sql")
	assert.Contains(t, content, "REFERENCES membership_tiers(id) ON DELETE SET NULL")
	assert.Contains(t, content, "CONSTRAINT members_email_key UNIQUE (email)")
}

func TestCreateSQLMigrationWritesTemplate(t *testing.T) {
	dir := t.TempDir()
	path, err := CreateSQLMigration(dir, "Add Tier Perks!")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, "_add_tier_perks.sql"))
	_, err = ValidateDir(dir)
	require.NoError(t, err)

	_, err = CreateSQLMigration(dir, "!!!")
	assert.Error(t, err)
}

func TestValidateRejectsBrokenMigrations(t *testing.T) {
	cases := map[string]fstest.MapFS{
		"bad name":     {"create_things.sql": {Data: []byte("-- +goose Up\n-- +goose Down\n")}},
		"missing down": {"20260101000000_a.sql": {Data: []byte("-- +goose Up\nSELECT 1;\n")}},
		"down first":   {"20260101000000_a.sql": {Data: []byte("-- +goose Down\n-- +goose Up\n")}},
		"unbalanced": {"20260101000000_a.sql": {Data: []byte(
			"-- +goose Up\n-- +goose StatementBegin\nSELECT 1;\n-- +goose Down\n")}},
	}
	for name, fsys := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Validate(fsys)
			assert.Error(t, err)
		})
	}
}

func TestEmbeddedMatchesDirectory(t *testing.T) {
	embeddedFiles, err := Validate(Embedded())
	require.NoError(t, err)
	onDisk, err := ValidateDir("migrations")
	require.NoError(t, err)
	assert.Equal(t, onDisk, embeddedFiles)
}

func TestSlug(t *testing.T) {
	slug, err := Slug("  Add Cashback--Expiry Index ")
	require.NoError(t, err)
	assert.Equal(t, "add_cashback_expiry_index", slug)
}

func TestRunnerRequiresDB(t *testing.T) {
	_, err := NewEmbeddedRunner(nil)
	assert.Error(t, err)
	_, err = NewDirRunner(nil, "migrations")
	assert.Error(t, err)
	_, err = parseVersion("2026")
	assert.Error(t, err)
	_, err = parseVersion("20260301090000")
	assert.NoError(t, err)
}

func readMigration(t *testing.T, pattern string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", pattern))
	require.NoError(t, err)
	require.NotEmpty(t, matches, "no migration matching %s", pattern)
	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	return string(data)
}
