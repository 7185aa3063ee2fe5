// Package storagetest builds throwaway SQLite stores for tests.
package storagetest

import (
	"database/sql"
	_ "embed"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/thepwagner/cydiarepo/pkg/repo"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schema string

// Fixtures are the rows inserted into a new store.
type Fixtures struct {
	Releases []repo.Release
	Packages []repo.Package
	Featured []repo.FeaturedBanner
}

// NewSQLite creates a SQLite database in a temp dir, loads the fixtures and
// returns a DATABASE_URL pointing at it.
func NewSQLite(tb testing.TB, fixtures Fixtures) string {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "repo.db")
	db, err := sql.Open("sqlite", path)
	require.NoError(tb, err)
	defer db.Close()

	_, err = db.Exec(schema)
	require.NoError(tb, err)

	for _, r := range fixtures.Releases {
		_, err := db.Exec(
			`INSERT INTO vapas_release (origin, label, suite, version, codename, architectures, components, description)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			r.Origin, r.Label, r.Suite, r.Version, r.Codename, r.Architectures, r.Components, r.Description,
		)
		require.NoError(tb, err)
	}
	for _, p := range fixtures.Packages {
		_, err := db.Exec(
			`INSERT INTO package_information (package_id, name, version, section, developer_name, depends,
			   price, version_size, version_hash, short_description, icon, package_visible)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.PackageID, p.Name, p.Version, p.Section, p.DeveloperName, p.Depends,
			p.Price, p.VersionSize, p.VersionHash, p.ShortDescription, p.Icon, p.Visible,
		)
		require.NoError(tb, err)
	}
	for _, b := range fixtures.Featured {
		_, err := db.Exec(
			`INSERT INTO vapas_featured (url, title, package, hide_shadow) VALUES (?, ?, ?, ?)`,
			b.URL, b.Title, b.Package, b.HideShadow,
		)
		require.NoError(tb, err)
	}

	return "sqlite://" + path
}
