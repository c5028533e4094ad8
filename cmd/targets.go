package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/scanops/snyk-migrate/internal/config"
	"github.com/scanops/snyk-migrate/internal/gitlab"
	"github.com/scanops/snyk-migrate/internal/migrate"
	"github.com/scanops/snyk-migrate/internal/snyk"
	"github.com/spf13/cobra"
)

var targetsSource string

var targetsCmd = &cobra.Command{
	Use:   "targets",
	Short: "Extract targets from source organizations as import entries",
	Long: `Reads every mapped source organization's targets and writes one import
entry per resolved branch to snyk-import-targets.json.

Requires snyk-created-orgs.json and snyk-source-orgs.json in the log
directory (produced by the org extraction and org creation steps).

Examples:
  snyk-migrate targets --source github
  snyk-migrate targets --source github-enterprise
  snyk-migrate targets --source github-cloud-app
  snyk-migrate targets --source gitlab`,
	RunE: runTargets,
}

func init() {
	targetsCmd.Flags().StringVar(&targetsSource, "source", "",
		"source integration type to extract: "+strings.Join(migrate.SourceFilters, "|")+" (required)")
	_ = targetsCmd.MarkFlagRequired("source")
}

func runTargets(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !migrate.ValidFilter(targetsSource) {
		return fmt.Errorf("invalid --source %q (want one of %s)",
			targetsSource, strings.Join(migrate.SourceFilters, "|"))
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.ValidateTargets(targetsSource == "gitlab"); err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.LogPath, 0o755); err != nil {
		return fmt.Errorf("creating log directory: %w", err)
	}

	mapping, err := migrate.LoadOrgMapping(filepath.Join(cfg.LogPath, migrate.CreatedOrgsFile))
	if err != nil {
		return fmt.Errorf("loading destination org mapping: %w", err)
	}
	if len(mapping) == 0 {
		return fmt.Errorf("no destination org mapping in %s; run the org creation step first",
			migrate.CreatedOrgsFile)
	}

	sourceOrgs, err := migrate.LoadSourceOrgs(filepath.Join(cfg.LogPath, migrate.SourceOrgsFile))
	if err != nil {
		return fmt.Errorf("loading source orgs: %w", err)
	}
	if len(sourceOrgs) == 0 {
		return fmt.Errorf("no source org data in %s; run 'snyk-migrate orgs' first",
			migrate.SourceOrgsFile)
	}

	pipeline := &migrate.Pipeline{
		Source: snyk.NewClient(cfg.Snyk.APIURL, cfg.Snyk.Token),
	}
	if targetsSource == "gitlab" {
		resolver, err := gitlab.NewResolver(cfg.GitLab.Token, cfg.GitLab.BaseURL)
		if err != nil {
			return fmt.Errorf("creating GitLab resolver: %w", err)
		}
		pipeline.GitLab = resolver
	}

	fmt.Printf("Extracting targets (source: %s)\n", targetsSource)
	fmt.Printf("Processing %d mapped orgs\n\n", len(sourceOrgs))

	entries, stats, err := pipeline.Run(ctx, targetsSource, mapping, sourceOrgs)
	if err != nil {
		return err
	}

	outPath := filepath.Join(cfg.LogPath, migrate.ImportTargetsFile)
	if err := migrate.WriteImportTargets(outPath, entries); err != nil {
		return fmt.Errorf("writing import file: %w", err)
	}

	fmt.Printf("\nExtraction complete!\n")
	fmt.Printf("Organizations processed: %d\n", stats.Orgs)
	fmt.Printf("Targets seen: %d (skipped: %d)\n", stats.Targets, stats.Skipped)
	fmt.Printf("Import entries written: %d\n", stats.Entries)
	fmt.Printf("Results saved to: %s\n", outPath)
	return nil
}
