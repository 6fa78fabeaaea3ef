package main

import (
	"fmt"
	"os"
	"time"

	"github.com/hamarchia/ClinicSystem/internal/server"
	"github.com/hamarchia/ClinicSystem/internal/server/auth"
	"github.com/hamarchia/ClinicSystem/internal/server/config"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "clinic",
		Short:         "Clinic shift queue, presence and patient records server",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.AddCommand(serveCommand())
	rootCmd.AddCommand(migrateCommand())
	rootCmd.AddCommand(tokenCommand())

	return rootCmd
}

// serveCommand passes its arguments through to config.LoadConfig so the
// server keeps its own flag set (-a, -g, -d, -c ...).
func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:                "serve [server flags]",
		Short:              "Run the HTTP and gRPC endpoints",
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(args)
			if err != nil {
				return err
			}

			app, err := server.NewApp(cmd.Context(), cfg, cmd.OutOrStdout())
			if err != nil {
				return err
			}

			app.Run(cmd.Context())
			return nil
		},
	}
}

func migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:                "migrate [server flags]",
		Short:              "Apply database migrations and exit",
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(args)
			if err != nil {
				return err
			}
			if cfg.DatabaseDSN == "" {
				return fmt.Errorf("migrate: database DSN is not set")
			}

			rm, err := server.OpenRepositories(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer rm.Close()

			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}

func tokenCommand() *cobra.Command {
	var (
		userID string
		role   string
		secret string
		ttl    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an access token for a doctor or compounder",
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := auth.GenerateToken(userID, role, []byte(secret), ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "user id placed in the token subject")
	cmd.Flags().StringVar(&role, "role", auth.RoleDoctor, "role: doctor or compounder")
	cmd.Flags().StringVar(&secret, "secret", "secretKey", "signing secret, must match the server's -s")
	cmd.Flags().DurationVar(&ttl, "ttl", 8*time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}
