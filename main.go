package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"gift_with_purchase/config"
	"gift_with_purchase/handlers"
	"gift_with_purchase/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("未找到 .env，使用環境變數")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCommand().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "gift-with-purchase",
		Short:         "Gift-with-purchase cart service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(newServeCommand())
	cmd.AddCommand(newSeedCommand())
	cmd.AddCommand(newTokenCommand())
	return cmd
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.MustLoad()
			app, err := newApp(cfg)
			if err != nil {
				return err
			}
			defer app.Close()
			return app.Run(cmd.Context())
		},
	}
}

func newSeedCommand() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create gift rules from a YAML file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.MustLoad()
			logger := newLogger(cfg.Log)
			db, err := openDatabase(cfg.Database)
			if err != nil {
				return err
			}

			n, err := services.LoadRuleSeed(cmd.Context(), services.NewGiftRuleService(db), file)
			if err != nil {
				return err
			}
			logger.Info("贈品規則匯入完成", "count", n, "file", file)
			fmt.Fprintf(cmd.OutOrStdout(), "created %d gift rule(s)\n", n)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML rule seed file")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newTokenCommand() *cobra.Command {
	var (
		customerID int64
		role       string
		ttl        time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a signed API token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if customerID == 0 && role == "" {
				return fmt.Errorf("either --customer or --role is required")
			}
			cfg := config.MustLoad()
			token, err := handlers.GenerateToken([]byte(cfg.Auth.JWTSecret), customerID, role, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().Int64Var(&customerID, "customer", 0, "customer id")
	cmd.Flags().StringVar(&role, "role", "", "role, e.g. "+services.RoleAdmin)
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}
