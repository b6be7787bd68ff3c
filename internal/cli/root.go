package cli

import (
	"github.com/spf13/cobra"

	"github.com/shopsmart/backend/config"
	"github.com/shopsmart/backend/internal/domain"
	"github.com/shopsmart/backend/internal/infrastructure/jobapi"
	"github.com/shopsmart/backend/pkg/logging"
)

// jobService is everything the CLI needs from the remote job service
type jobService interface {
	domain.JobClient
	domain.ResultExporter
}

// app carries state shared by every subcommand once configuration is loaded
type app struct {
	cfg  *config.Config
	log  *logging.Logger
	jobs jobService
}

// NewRootCmd builds the shopsmart command tree
func NewRootCmd() *cobra.Command {
	return newRootCmd(&app{})
}

// newRootCmd builds the command tree around a. A preset a.jobs is kept.
func newRootCmd(a *app) *cobra.Command {
	var baseURL string
	var logLevel string

	cmd := &cobra.Command{
		Use:   "shopsmart",
		Short: "Compare product prices across Indian e-commerce sites",
		Long: `ShopSmart submits a comparison job to the scraping service, waits for it
to finish and prints the matching products with the best deal highlighted.

Configuration is read from config.yaml, SHOPSMART_* environment variables
and a .env file in the working directory.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(config.WithDefault("log.level", "warn"))
			if err != nil {
				return err
			}
			if baseURL != "" {
				cfg.Collaborator.BaseURL = baseURL
			}
			if cmd.Flags().Changed("log-level") {
				cfg.Log.Level = logLevel
			}

			a.cfg = cfg
			a.log = logging.New(cfg.Log.Level, "production")
			if a.jobs == nil {
				a.jobs = jobapi.NewClient(jobapi.Config{
					BaseURL:     cfg.Collaborator.BaseURL,
					Timeout:     cfg.Collaborator.Timeout,
					SubmitPath:  cfg.Collaborator.SubmitPath,
					StatusPath:  cfg.Collaborator.StatusPath,
					ResultsPath: cfg.Collaborator.ResultsPath,
					ExportPath:  cfg.Collaborator.ExportPath,
				}, a.log)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "Job service base URL (overrides configuration)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error; default warn or log.level from configuration)")

	cmd.AddCommand(newSearchCmd(a))
	cmd.AddCommand(newExportCmd(a))
	cmd.AddCommand(newSitesCmd(a))

	return cmd
}
