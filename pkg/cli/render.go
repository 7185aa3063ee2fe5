package cli

import (
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"github.com/thepwagner/cydiarepo/pkg/repo"
	"github.com/thepwagner/cydiarepo/pkg/server"
	"github.com/thepwagner/cydiarepo/pkg/storage"
)

const (
	renderRelease  = "release"
	renderPackages = "packages"
	renderFeatured = "featured"
)

// NewRenderCmd prints one index to stdout, exactly as the server would
// before transfer encoding.
func NewRenderCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "render {release|packages|featured}",
		Short:     "Print the Release, Packages or sileo-featured.json index",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{renderRelease, renderPackages, renderFeatured},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.Database.URL == "" {
				return &server.ConfigError{Key: "DATABASE_URL"}
			}
			if args[0] == renderPackages && cfg.BaseURL == "" {
				return &server.ConfigError{Key: "URL"}
			}

			store, err := storage.Open(cmd.Context(), cfg.Database)
			if err != nil {
				return fmt.Errorf("error opening database: %w", err)
			}
			defer store.Close()

			return render(cmd, store, cfg.BaseURL, args[0])
		},
	}
}

func render(cmd *cobra.Command, src repo.Source, baseURL, index string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	switch index {
	case renderRelease:
		releases, err := src.Releases(ctx)
		if err != nil {
			return err
		}
		_, err = io.WriteString(out, repo.FormatRelease(releases))
		return err

	case renderPackages:
		pkgs, err := src.VisiblePackages(ctx)
		if err != nil {
			return err
		}
		_, err = io.WriteString(out, repo.FormatPackages(pkgs, baseURL))
		return err

	case renderFeatured:
		banners, err := src.FeaturedBanners(ctx)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(repo.NewFeatured(banners))

	default:
		return fmt.Errorf("unknown index %q", index)
	}
}
