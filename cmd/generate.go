// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/gitbadges/gitbadges/internal/badge"
	"github.com/gitbadges/gitbadges/internal/config"
	"github.com/gitbadges/gitbadges/internal/gateway"
	"github.com/gitbadges/gitbadges/internal/retry"
	"github.com/gitbadges/gitbadges/internal/usecase"
)

// Pause between the two badges to be gentle on the API.
const pauseBetweenBadges = 2 * time.Second

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Fetches GitHub statistics and renders the SVG badges",
	Long: `Fetches the configured user's aggregate GitHub statistics and renders
them into two SVG badges: an overview card and a language breakdown.
Configuration is read from the environment (and an optional .env file):
ACCESS_TOKEN or GITHUB_TOKEN, GITHUB_ACTOR, and the optional EXCLUDED,
EXCLUDED_LANGS and EXCLUDE_FORKED_REPOS variables.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		verbose, _ := cmd.InheritedFlags().GetBool("verbose")
		logger := logrus.New()
		if verbose {
			logger.SetLevel(logrus.DebugLevel)
		}

		templateDir, _ := cmd.Flags().GetString("templates")
		outputDir, _ := cmd.Flags().GetString("output")

		cfg, err := config.Load()
		if err != nil {
			logger.WithError(err).Fatal("Invalid configuration")
		}

		logger.Infof("Generating stats for user: %s", cfg.User)
		if len(cfg.ExcludedRepos) > 0 {
			logger.Infof("Excluding %d repositories", len(cfg.ExcludedRepos))
		}
		if len(cfg.ExcludedLangs) > 0 {
			logger.Infof("Excluding %d languages", len(cfg.ExcludedLangs))
		}
		if cfg.IgnoreForks {
			logger.Info("Ignoring forked repositories")
		}

		source, err := gateway.NewGitHubGateway(cfg.Token, cfg.Timeout, logger)
		if err != nil {
			logger.WithError(err).Fatal("Failed to create GitHub gateway")
		}

		aggregator := usecase.NewAggregator(source, cfg, retry.DefaultPolicy(), logger)
		renderer := badge.NewRenderer(templateDir, outputDir, logger)

		overview, err := aggregator.Overview(ctx)
		if err != nil {
			logger.WithError(err).Fatal("Failed to generate overview badge")
		}
		if err := renderer.RenderOverview(overview); err != nil {
			logger.WithError(err).Fatal("Failed to generate overview badge")
		}

		time.Sleep(pauseBetweenBadges)

		languages, err := aggregator.Languages(ctx)
		if err != nil {
			logger.WithError(err).Fatal("Failed to generate languages badge")
		}
		if err := renderer.RenderLanguages(languages); err != nil {
			logger.WithError(err).Fatal("Failed to generate languages badge")
		}

		logger.Info("All badges generated successfully.")
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().String("templates", "templates", "Directory containing the SVG templates")
	generateCmd.Flags().String("output", "generated", "Directory the badges are written to")
}
