package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/yungbote/eventforge/internal/app"
)

var (
	flagAddr    string
	flagTimeout time.Duration
)

var rootCmd = &cobra.Command{
	Use:           "eventforge",
	Short:         "Dynamic decision-event pipeline",
	Long:          "eventforge fetches news, turns it into game decision events with a language model and serves a weighted, self-replenishing event pool.",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API and run the scheduler",
	RunE:  runServe,
}

func jobCmd(use, job, short string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJob(cmd.Context(), job)
		},
	}
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert the preset fixed events that are not stored yet",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := app.New()
		if err != nil {
			return err
		}
		defer a.Close()
		n, err := a.Services.Pipeline.Seed(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("seeded %d preset events\n", n)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagAddr, "addr", "", "listen address (defaults to :$PORT)")
	rootCmd.PersistentFlags().DurationVar(&flagTimeout, "timeout", 30*time.Minute, "timeout for one-shot pipeline runs")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(jobCmd("generate", app.JobGeneration, "Fetch news and generate events once"))
	rootCmd.AddCommand(jobCmd("cleanup", app.JobCleanup, "Delete stale low-quality events once"))
	rootCmd.AddCommand(jobCmd("replenish", app.JobReplenish, "Top up ranks below the pool minimum once"))
	rootCmd.AddCommand(seedCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := app.New()
	if err != nil {
		return fmt.Errorf("failed to initialize app: %w", err)
	}
	defer a.Close()

	a.Start()

	addr := flagAddr
	if addr == "" {
		addr = ":" + a.Cfg.Port
	}
	errCh := make(chan error, 1)
	go func() { errCh <- a.Run(addr) }()

	select {
	case <-cmd.Context().Done():
		a.Log.Info("Shutdown signal received")
		return nil
	case err := <-errCh:
		return err
	}
}

func runJob(ctx context.Context, job string) error {
	a, err := app.New()
	if err != nil {
		return fmt.Errorf("failed to initialize app: %w", err)
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(ctx, flagTimeout)
	defer cancel()
	if err := a.RunJob(ctx, job); err != nil {
		return fmt.Errorf("%s: %w", job, err)
	}
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "eventforge: %v\n", err)
		os.Exit(1)
	}
}
