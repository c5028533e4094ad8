package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/scanops/snyk-migrate/internal/config"
	"github.com/scanops/snyk-migrate/internal/migrate"
	"github.com/scanops/snyk-migrate/internal/snyk"
	"github.com/spf13/cobra"
)

var orgsCmd = &cobra.Command{
	Use:   "orgs",
	Short: "Extract organizations from the source group",
	Long: `Lists every organization in the source group and writes:

  snyk-orgs-to-create.json   organizations to create in the target group
  snyk-source-orgs.json      source references for 'snyk-migrate targets'`,
	RunE: runOrgs,
}

func runOrgs(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.ValidateOrgs(); err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.LogPath, 0o755); err != nil {
		return fmt.Errorf("creating log directory: %w", err)
	}

	client := snyk.NewClient(cfg.Snyk.APIURL, cfg.Snyk.Token)

	fmt.Printf("Extracting organizations from group %s\n", cfg.Groups.SourceGroupID)
	plans, refs, err := migrate.ExtractOrgs(ctx, client,
		cfg.Groups.SourceGroupID, cfg.Groups.TargetGroupID, cfg.Groups.TemplateOrgID)
	if err != nil {
		return err
	}
	if len(plans) == 0 {
		slog.Warn("no organizations found in source group", "group", cfg.Groups.SourceGroupID)
	}

	planPath := filepath.Join(cfg.LogPath, migrate.OrgsToCreateFile)
	refPath := filepath.Join(cfg.LogPath, migrate.SourceOrgsFile)
	if err := migrate.WriteOrgPlan(planPath, plans); err != nil {
		return fmt.Errorf("writing org creation file: %w", err)
	}
	if err := migrate.WriteSourceOrgs(refPath, refs); err != nil {
		return fmt.Errorf("writing source org file: %w", err)
	}

	fmt.Printf("\n=== Extraction summary ===\n")
	fmt.Printf("Organizations to create: %d\n", len(plans))
	fmt.Printf("Source references saved: %d\n", len(refs))
	fmt.Printf("Org creation file: %s\n", planPath)
	fmt.Printf("Source data file: %s\n", refPath)
	return nil
}
