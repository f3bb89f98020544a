package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"formflow/internal/app"
	"formflow/internal/forms"
	"formflow/internal/platform/config"
	"formflow/internal/platform/logger"
	"formflow/internal/platform/postgres"
	id "formflow/pkg/domain"
	"formflow/pkg/requestcontext"

	"github.com/spf13/cobra"
)

const triggerCLI = "cli"

var errNoDatabase = errors.New("DATABASE_URL is required")

func newRootCmd(loadConfig func() config.Config) *cobra.Command {
	root := &cobra.Command{
		Use:          "formsctl",
		Short:        "Operate the formflow submission core",
		SilenceUsage: true,
	}
	root.AddCommand(
		migrateCommand(loadConfig),
		importFormCommand(loadConfig),
		statusCommand(loadConfig),
		retryCommand(loadConfig),
		sweepCommand(loadConfig),
	)
	return root
}

func migrateCommand(loadConfig func() config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := loadConfig()
			if cfg.Database.URL == "" {
				return errNoDatabase
			}
			db, err := postgres.Open(cmd.Context(), cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := postgres.Migrate(cmd.Context(), db); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema applied")
			return nil
		},
	}
}

func importFormCommand(loadConfig func() config.Config) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "import-form <file.json>",
		Short: "Validate a form document and store it",
		Long: `Validate a JSON form document and store it in the database.

Examples:
  # Check a document without storing it
  formsctl import-form permit.json --dry-run

  # Store or replace the form
  formsctl import-form permit.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			form, err := app.LoadForm(args[0])
			if err != nil {
				return err
			}
			if dryRun {
				fmt.Fprintf(cmd.OutOrStdout(), "form %s (%s) is valid\n", form.ID, form.Name)
				return nil
			}
			cfg := loadConfig()
			if cfg.Database.URL == "" {
				return errNoDatabase
			}
			db, err := postgres.Open(cmd.Context(), cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := forms.NewPostgresStore(db).Save(cmd.Context(), form); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "form %s (%s) stored\n", form.ID, form.Name)
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Validate only, do not store")
	return cmd
}

func statusCommand(loadConfig func() config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "status <submission-id>",
		Short: "Show the registration state of a submission",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			submissionID, err := id.ParseSubmissionID(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, loadConfig, func(ctx context.Context, a *app.App) error {
				sub, err := a.Registrations.Status(ctx, submissionID)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), map[string]any{
					"submission_id":              sub.ID.String(),
					"status":                     sub.RegistrationStatus,
					"attempts":                   sub.RegistrationAttempts,
					"pre_registration_completed": sub.PreRegistrationCompleted,
					"public_reference":           sub.PublicRegistrationReference,
					"result":                     sub.RegistrationResult,
				})
			})
		},
	}
}

func retryCommand(loadConfig func() config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "retry <submission-id>",
		Short: "Retry pre-registration and registration for one submission",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			submissionID, err := id.ParseSubmissionID(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, loadConfig, func(ctx context.Context, a *app.App) error {
				if err := a.Registrations.Retry(ctx, submissionID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "submission %s registered\n", submissionID)
				return nil
			})
		},
	}
}

func sweepCommand(loadConfig func() config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Retry every failed registration that has attempts left",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, loadConfig, func(ctx context.Context, a *app.App) error {
				report := a.Sweeper.Sweep(ctx)
				return writeJSON(cmd.OutOrStdout(), map[string]int{
					"picked":  report.Picked,
					"retried": report.Retried,
					"failed":  report.Failed,
				})
			})
		},
	}
}

// withApp builds the application against the configured database and closes it once
// fn returns, flushing buffered audit events.
func withApp(cmd *cobra.Command, loadConfig func() config.Config, fn func(ctx context.Context, a *app.App) error) error {
	cfg := loadConfig()
	if cfg.Database.URL == "" {
		return errNoDatabase
	}
	log := logger.NewWithWriter(cmd.ErrOrStderr(), cfg.Log)
	ctx := requestcontext.WithTrigger(cmd.Context(), triggerCLI)
	a, err := app.Build(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
