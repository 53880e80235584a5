package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"text/tabwriter"
	"time"

	"logistics/internal/core/application/usecases/queries"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"
)

// NewRootCommand creates the logistics CLI.
func NewRootCommand() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "logistics",
		Short: "Logistics resource-flow engine",
		Long: `logistics runs the per-tick resource-flow pipeline of the simulation: order
generation, planning, reservations, dispatch, routing, shipment progression and delivery.

Examples:
  logistics serve --config configs/config.yaml
  logistics simulate --ticks 40
  LOGI_STATE_DRIVER=sqlite LOGI_STATE_SQLITE_PATH=state.db logistics simulate`,
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to the config yaml")

	rootCmd.AddCommand(newServeCommand(&configPath))
	rootCmd.AddCommand(newSimulateCommand(&configPath))
	return rootCmd
}

func newServeCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the tick job and the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := LoadConfig(*configPath)
			if err != nil {
				return err
			}
			logger := NewLogger(cfg.Logging, os.Stderr)

			app, err := NewCompositionRoot(cfg, logger)
			if err != nil {
				return err
			}
			defer func() {
				_ = app.Close()
			}()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, app, cfg, logger)
		},
	}
}

func serve(ctx context.Context, app *CompositionRoot, cfg Config, logger *slog.Logger) error {
	e := echo.New()
	e.HideBanner = true
	if err := app.CreateHTTPServer().Register(ctx, e, app.Registry()); err != nil {
		return err
	}

	jobManager := app.CreateJobManager()
	if err := jobManager.StartAll(); err != nil {
		return err
	}
	defer jobManager.StopAll()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "address", cfg.Address())
		if err := e.Start(cfg.Address()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.Info("shutting down")
	return e.Shutdown(shutdownCtx)
}

func newSimulateCommand(configPath *string) *cobra.Command {
	var (
		ticks       int
		respectGate bool
	)
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run the pipeline headless for a number of ticks and print a summary",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if ticks <= 0 {
				return fmt.Errorf("--ticks must be positive, got %d", ticks)
			}
			cfg, err := LoadConfig(*configPath)
			if err != nil {
				return err
			}
			logger := NewLogger(cfg.Logging, cmd.ErrOrStderr())

			app, err := NewCompositionRoot(cfg, logger)
			if err != nil {
				return err
			}
			defer func() {
				_ = app.Close()
			}()

			if !respectGate {
				app.Gate().SetEconomyEnabled(true)
				app.Gate().SetRecording(true)
			}
			return simulate(cmd.Context(), app, ticks, cmd.OutOrStdout())
		},
	}
	cmd.Flags().IntVar(&ticks, "ticks", 30, "Number of ticks to run")
	cmd.Flags().BoolVar(&respectGate, "respect-gate", false,
		"Keep the configured economy/recording flags instead of forcing them on")
	return cmd
}

func simulate(ctx context.Context, app *CompositionRoot, ticks int, out io.Writer) error {
	job := app.CreateTickJob()
	skipped := 0
	for range ticks {
		report, err := job.RunOnce(ctx)
		if err != nil {
			return err
		}
		if report.Skipped {
			skipped++
		}
	}
	return writeSummary(ctx, app, ticks, skipped, out)
}

func writeSummary(ctx context.Context, app *CompositionRoot, ticks, skipped int, out io.Writer) error {
	orders, err := app.UnitOfWork().Create().OrderRepository().List(ctx)
	if err != nil {
		return err
	}
	query, err := queries.NewGetShipmentsQuery()
	if err != nil {
		return err
	}
	shipments, err := app.CreateGetShipmentsQueryHandler().Handle(ctx, query)
	if err != nil {
		return err
	}
	sites, err := app.Scenario().World.Construction().Sites(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "ticks\t%d (skipped %d, now %d)\n", ticks, skipped, uint64(app.Clock().Now()))

	orderCounts := make(map[string]int)
	for _, o := range orders {
		orderCounts[o.Status().String()]++
	}
	fmt.Fprintf(w, "orders\t%d\t%s\n", len(orders), formatCounts(orderCounts))

	shipmentCounts := make(map[string]int)
	for _, s := range shipments {
		shipmentCounts[s.Status]++
	}
	fmt.Fprintf(w, "shipments\t%d\t%s\n", len(shipments), formatCounts(shipmentCounts))

	names := make(map[string]string, len(app.Scenario().Nodes))
	for name, id := range app.Scenario().Nodes {
		names[id.String()] = name
	}
	for _, site := range sites {
		resources := make([]string, 0, len(site.Required))
		for resource := range site.Required {
			resources = append(resources, resource)
		}
		sort.Strings(resources)
		for _, resource := range resources {
			fmt.Fprintf(w, "site %s\t%s\t%.1f / %.1f\n", names[site.NodeID.String()], resource,
				site.Delivered[resource], site.Required[resource])
		}
	}
	return w.Flush()
}

func formatCounts(counts map[string]int) string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	s := ""
	for i, k := range keys {
		if i > 0 {
			s += " "
		}
		s += fmt.Sprintf("%s=%d", k, counts[k])
	}
	return s
}
