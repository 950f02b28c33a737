// Package cli defines the server's command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/yukikurage/taskboard-api/internal/app"
	"github.com/yukikurage/taskboard-api/internal/config"
	"github.com/yukikurage/taskboard-api/internal/logging"
	"github.com/yukikurage/taskboard-api/internal/services"
)

// NewRootCmd creates the top-level command. Without a subcommand it serves
// HTTP.
func NewRootCmd() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:           "taskboard",
		Short:         "Team task board API server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "optional environment file")

	load := func() (*config.Config, func(), error) {
		cfg, err := config.Load(envFile)
		if err != nil {
			return nil, nil, err
		}
		out, err := logging.Init(logging.Options{
			Level: cfg.Log.Level,
			File:  cfg.Log.File,
			JSON:  cfg.IsRelease(),
		})
		if err != nil {
			return nil, nil, err
		}
		return cfg, func() { closeLog(out) }, nil
	}

	serve := newServeCmd(load)
	root.RunE = serve.RunE
	root.AddCommand(
		serve,
		newMigrateCmd(load),
		newCreateAdminCmd(load),
	)
	return root
}

// loader reads the config and sets up logging. The returned func releases
// the log output.
type loader func() (*config.Config, func(), error)

func newServeCmd(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, release, err := load()
			if err != nil {
				return err
			}
			defer release()

			a := app.New(cfg)
			if err := a.Initialize(cmd.Context()); err != nil {
				_ = a.Shutdown(context.Background())
				return err
			}
			return a.Run()
		},
	}
}

func newMigrateCmd(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the schema and indexes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, release, err := load()
			if err != nil {
				return err
			}
			defer release()
			return withStore(cmd.Context(), cfg, func(store *app.Store) error {
				if err := store.Migrate(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
				return nil
			})
		},
	}
}

func newCreateAdminCmd(load loader) *cobra.Command {
	var input services.RegisterInput

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an administrator account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, release, err := load()
			if err != nil {
				return err
			}
			defer release()
			return withStore(cmd.Context(), cfg, func(store *app.Store) error {
				if err := store.Migrate(cmd.Context()); err != nil {
					return err
				}
				user, err := services.NewUserService(store.Users).CreateAdmin(cmd.Context(), input)
				if err != nil {
					return err
				}
				return printAdmin(cmd.OutOrStdout(), user.ID, user.Email)
			})
		},
	}

	cmd.Flags().StringVar(&input.Name, "name", "", "display name")
	cmd.Flags().StringVar(&input.Email, "email", "", "login email")
	cmd.Flags().StringVar(&input.Password, "password", "", "initial password")
	cmd.Flags().StringVar(&input.Title, "title", "Administrator", "job title")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func withStore(ctx context.Context, cfg *config.Config, fn func(*app.Store) error) error {
	store, err := app.OpenStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close(context.Background())
	return fn(store)
}

func printAdmin(w io.Writer, id uint64, email string) error {
	_, err := fmt.Fprintf(w, "created administrator %s (id %d)\n", email, id)
	return err
}

// closeLog closes a rotated log file. Stdout is left open.
func closeLog(w io.Writer) {
	if c, ok := w.(io.Closer); ok && w != io.Writer(os.Stdout) {
		_ = c.Close()
	}
}
