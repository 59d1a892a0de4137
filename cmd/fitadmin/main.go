package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fittrackproapp-droid/fittrackProApp/internal/app"
	"github.com/fittrackproapp-droid/fittrackProApp/internal/config"
	"github.com/fittrackproapp-droid/fittrackProApp/internal/domain"
	"github.com/fittrackproapp-droid/fittrackProApp/internal/logging"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// CLI flags
var (
	configDirFlag string
	nameFlag      string
	emailFlag     string
	passwordFlag  string
	roleFlag      string
)

// rootCmd is the main Cobra command for the fitadmin CLI.
var rootCmd = &cobra.Command{
	Use:   "fitadmin",
	Short: "Administrative tasks for the FitTrack backend",
	Long: `fitadmin runs maintenance tasks against the configured database and storage,
using the same config.yaml and environment variables as the server.

Examples:
  fitadmin seed-exercises
  fitadmin create-user --name Admin --email admin@example.com --password secret123 --role ADMIN
  fitadmin delete-user --email trainee@example.com
  fitadmin watch-feed`,
	SilenceUsage: true,
}

var seedCmd = &cobra.Command{
	Use:   "seed-exercises",
	Short: "Seed the default exercise catalog if it is empty",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
			exercises, err := a.Services.Plans.Catalog(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("Catalog holds %d exercises\n", len(exercises))
			return nil
		})
	},
}

var createUserCmd = &cobra.Command{
	Use:   "create-user",
	Short: "Create an account with any role, including ADMIN",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
			user, err := a.Services.Auth.CreateUser(ctx, nameFlag, emailFlag, passwordFlag, domain.Role(roleFlag))
			if err != nil {
				return err
			}
			fmt.Printf("Created %s %s (%s)\n", user.Role, user.Email, user.ID)
			return nil
		})
	},
}

var deleteUserCmd = &cobra.Command{
	Use:   "delete-user",
	Short: "Delete an account with its submissions, clips, plan and messages",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
			user, err := a.Repos.Users.GetByEmail(ctx, emailFlag)
			if err != nil {
				return fmt.Errorf("find %s: %w", emailFlag, err)
			}
			// The CLI acts with admin rights.
			system := domain.Actor{ID: "fitadmin", Role: domain.RoleAdmin}
			if err := a.Services.Users.DeleteAccount(ctx, system, user.ID); err != nil {
				return err
			}
			fmt.Printf("Deleted %s (%s)\n", user.Email, user.ID)
			return nil
		})
	},
}

var watchFeedCmd = &cobra.Command{
	Use:   "watch-feed",
	Short: "Run the submission feed and push notifications without the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
			log.Info().Msg("Watching submissions, Ctrl+C to stop")
			a.RunFeed(ctx, 5*time.Second)
			return nil
		})
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configDirFlag, "config", "c", ".", "Directory containing config.yaml")

	createUserCmd.Flags().StringVar(&nameFlag, "name", "", "Display name")
	createUserCmd.Flags().StringVar(&emailFlag, "email", "", "Login email")
	createUserCmd.Flags().StringVar(&passwordFlag, "password", "", "Initial password")
	createUserCmd.Flags().StringVar(&roleFlag, "role", string(domain.RoleAdmin), "ADMIN, COACH or TRAINEE")
	_ = createUserCmd.MarkFlagRequired("email")
	_ = createUserCmd.MarkFlagRequired("password")

	deleteUserCmd.Flags().StringVar(&emailFlag, "email", "", "Email of the account to delete")
	_ = deleteUserCmd.MarkFlagRequired("email")

	rootCmd.AddCommand(seedCmd, createUserCmd, deleteUserCmd, watchFeedCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// withApp loads config, opens the application and runs fn against it.
func withApp(ctx context.Context, fn func(context.Context, *app.App) error) error {
	cfg, err := config.LoadConfig(configDirFlag)
	if err != nil {
		return err
	}
	logging.Init(cfg.Log.Level, true)

	a, err := app.Open(ctx, &cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}
