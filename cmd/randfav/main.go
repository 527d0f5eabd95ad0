package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/samvad-hq/randfav/internal/app"
	"github.com/samvad-hq/randfav/internal/config"
	"github.com/samvad-hq/randfav/internal/domain"
	"github.com/samvad-hq/randfav/internal/favorites"
	"github.com/samvad-hq/randfav/internal/logger"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "randfav",
		Short:         "Pick a random favorite from a forum user's favorites",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(pickCmd(), listCmd(), serveCmd())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "randfav: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func setup() (*config.Config, logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logger.Init(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, log, nil
}

func usernameArg(cfg *config.Config, args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return cfg.DefaultUsername
}

func pickCmd() *cobra.Command {
	var target string
	var debug bool

	cmd := &cobra.Command{
		Use:   "pick [username]",
		Short: "Print the URL of one random favorite",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer logger.Close()

			if target == "" {
				target = cfg.DefaultTarget
			}
			t, ok := domain.ParseTarget(target)
			if !ok {
				return fmt.Errorf("invalid target %q (expected article or comments)", target)
			}

			svc, err := app.NewPicker(cfg, log)
			if err != nil {
				return err
			}

			var tracer favorites.Tracer
			if debug {
				tracer = favorites.NewWriterTracer(cmd.ErrOrStderr())
			}
			pick, err := svc.Pick(cmd.Context(), usernameArg(cfg, args), tracer)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), pick.Item.URL(t))
			return nil
		},
	}
	cmd.Flags().StringVar(&target, "target", "", "article or comments (defaults to config)")
	cmd.Flags().BoolVar(&debug, "debug", false, "write the discovery trace to stderr")
	return cmd
}

func listCmd() *cobra.Command {
	var debug bool

	cmd := &cobra.Command{
		Use:   "list [username]",
		Short: "Walk every favorites page and print each item",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer logger.Close()

			svc, err := app.NewPicker(cfg, log)
			if err != nil {
				return err
			}

			var tracer favorites.Tracer
			if debug {
				tracer = favorites.NewWriterTracer(cmd.ErrOrStderr())
			}
			out := cmd.OutOrStdout()
			return svc.Walk(cmd.Context(), usernameArg(cfg, args), tracer, func(page int, items []domain.Item) error {
				for _, item := range items {
					fmt.Fprintf(out, "%d\t%s\t%s\t%s\n", page, item.ID, item.ArticleURL, item.CommentsURL)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&debug, "debug", false, "write per-page progress to stderr")
	return cmd
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP redirector",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer logger.Close()

			srv, err := app.NewServer(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			return srv.Run(cmd.Context())
		},
	}
}
