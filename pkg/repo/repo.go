package repo

import "context"

// Source is a read-only store of repository metadata.
type Source interface {
	// Releases fetches every release row.
	Releases(ctx context.Context) ([]Release, error)

	// VisiblePackages fetches the packages eligible for public listing.
	VisiblePackages(ctx context.Context) ([]Package, error)

	FeaturedBanners(ctx context.Context) ([]FeaturedBanner, error)
}

// Release describes one repository snapshot.
type Release struct {
	Origin        string
	Label         string
	Suite         string
	Version       string
	Codename      string
	Architectures string
	Components    string
	Description   string
}

// Package is one installable package version.
type Package struct {
	PackageID        string
	Name             string
	Version          string
	Section          string
	DeveloperName    string
	Depends          string
	Price            int64
	VersionSize      int64
	VersionHash      string
	ShortDescription string
	Icon             string
	Visible          bool
}

// Commercial reports whether the package is paid.
func (p Package) Commercial() bool {
	return p.Price > 0
}

// FeaturedBanner is a promotional entry shown in Sileo's discovery UI.
type FeaturedBanner struct {
	URL        string `json:"url"`
	Title      string `json:"title"`
	Package    string `json:"package"`
	HideShadow bool   `json:"hideShadow"`
}
