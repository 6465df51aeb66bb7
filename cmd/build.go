package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/expvn/explog/internal/generate"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Builds the JSON data files from the markdown posts",
	Long: `The build command scans './content/posts' for markdown posts, writes the
site, hero, home, menu, taxonomy and pagination data files under
'<outputDir>/config', and mirrors './content' and './static' into the
configured output directory (default './public/').`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := runBuild(cmd.Context())
		return err
	},
}

func runBuild(ctx context.Context) (generate.Result, error) {
	g := generate.New(generate.Options{
		ContentDir:   appConfig.ContentDir,
		StaticDir:    appConfig.StaticDir,
		OutputDir:    appConfig.OutputDir,
		PostsPerPage: appConfig.PostsPerPage,
		SiteTitle:    appConfig.SiteTitle,
		BaseURL:      appConfig.BaseURL,
		Source:       siteSource,
	}, logger)
	return g.Run(ctx)
}

func init() {
	rootCmd.AddCommand(buildCmd)
}
