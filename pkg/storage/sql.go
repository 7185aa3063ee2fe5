// Package storage reads repository metadata from a relational store.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"github.com/thepwagner/cydiarepo/pkg/repo"
	_ "modernc.org/sqlite"
)

// Config describes the connection pool.
type Config struct {
	URL             string        `yaml:"url" env:"DATABASE_URL"`
	MaxOpenConns    int           `yaml:"maxOpenConns" env:"DATABASE_MAX_OPEN_CONNS"`
	MaxIdleConns    int           `yaml:"maxIdleConns" env:"DATABASE_MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime" env:"DATABASE_CONN_MAX_LIFETIME"`
}

// SQL is a repo.Source backed by database/sql.
type SQL struct {
	db *sql.DB
}

var _ repo.Source = (*SQL)(nil)

const (
	releasesQuery = `SELECT origin, label, suite, version, codename, architectures, components, description
  FROM vapas_release`

	visiblePackagesQuery = `SELECT package_id, name, version, section, developer_name, depends,
       price, version_size, version_hash, short_description, icon, package_visible
  FROM package_information
 WHERE package_visible = true`

	featuredQuery = `SELECT url, title, package, hide_shadow
  FROM vapas_featured`
)

// Open connects to the store named by cfg.URL and verifies the pool can
// hand out a connection.
func Open(ctx context.Context, cfg Config) (*SQL, error) {
	driverName, dsn, err := driverFor(cfg.URL)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening %s database: %w", driverName, err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, wrapError("ping", err)
	}
	slog.Debug("opened database", slog.String("driver", driverName), slog.Int("max_open_conns", cfg.MaxOpenConns))
	return &SQL{db: db}, nil
}

// NewSQL wraps an already opened pool.
func NewSQL(db *sql.DB) *SQL {
	return &SQL{db: db}
}

func driverFor(raw string) (string, string, error) {
	if raw == "" {
		return "", "", fmt.Errorf("database URL is required")
	}
	if dsn, ok := strings.CutPrefix(raw, "sqlite://"); ok {
		return "sqlite", dsn, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("parsing database URL: %w", err)
	}
	switch u.Scheme {
	case "postgres", "postgresql":
		return "postgres", raw, nil
	default:
		return "", "", fmt.Errorf("unsupported database scheme %q", u.Scheme)
	}
}

func (s *SQL) Ping(ctx context.Context) error {
	return wrapError("ping", s.db.PingContext(ctx))
}

func (s *SQL) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQL) Releases(ctx context.Context) (ret []repo.Release, err error) {
	defer func(start time.Time) { observeQuery("releases", start, err) }(time.Now())

	rows, err := s.db.QueryContext(ctx, releasesQuery)
	if err != nil {
		return nil, wrapError("query releases", err)
	}
	defer rows.Close()

	for rows.Next() {
		var r repo.Release
		if err := rows.Scan(
			&r.Origin,
			&r.Label,
			&r.Suite,
			&r.Version,
			&r.Codename,
			&r.Architectures,
			&r.Components,
			&r.Description,
		); err != nil {
			return nil, wrapError("scan release", err)
		}
		ret = append(ret, r)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapError("iterate releases", err)
	}
	return ret, nil
}

func (s *SQL) VisiblePackages(ctx context.Context) (ret []repo.Package, err error) {
	defer func(start time.Time) { observeQuery("visible_packages", start, err) }(time.Now())

	rows, err := s.db.QueryContext(ctx, visiblePackagesQuery)
	if err != nil {
		return nil, wrapError("query packages", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p repo.Package
		if err := rows.Scan(
			&p.PackageID,
			&p.Name,
			&p.Version,
			&p.Section,
			&p.DeveloperName,
			&p.Depends,
			&p.Price,
			&p.VersionSize,
			&p.VersionHash,
			&p.ShortDescription,
			&p.Icon,
			&p.Visible,
		); err != nil {
			return nil, wrapError("scan package", err)
		}
		ret = append(ret, p)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapError("iterate packages", err)
	}
	return ret, nil
}

func (s *SQL) FeaturedBanners(ctx context.Context) (ret []repo.FeaturedBanner, err error) {
	defer func(start time.Time) { observeQuery("featured_banners", start, err) }(time.Now())

	rows, err := s.db.QueryContext(ctx, featuredQuery)
	if err != nil {
		return nil, wrapError("query featured", err)
	}
	defer rows.Close()

	for rows.Next() {
		var b repo.FeaturedBanner
		if err := rows.Scan(&b.URL, &b.Title, &b.Package, &b.HideShadow); err != nil {
			return nil, wrapError("scan featured", err)
		}
		ret = append(ret, b)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapError("iterate featured", err)
	}
	return ret, nil
}
