package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/okian/opsboard/internal/adapters/http/api"
	"github.com/okian/opsboard/internal/adapters/http/site"
	"github.com/okian/opsboard/internal/adapters/http/swagger"
	"github.com/okian/opsboard/internal/adapters/report"
	service "github.com/okian/opsboard/internal/app"
	"github.com/okian/opsboard/internal/config"
	"github.com/okian/opsboard/internal/domain/join"
	"github.com/okian/opsboard/internal/domain/model"
	"github.com/okian/opsboard/internal/domain/types"
	"github.com/okian/opsboard/pkg/logger"
	"github.com/okian/opsboard/pkg/metrics"
	"github.com/spf13/cobra"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 30 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configFile   string
	envFile      string
	transactions string
	tickets      string
}

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	gf := &globalFlags{}

	root := &cobra.Command{
		Use:   "opsboard",
		Short: "Business operations dashboard over transaction and ticket CSVs",
		Long: `opsboard joins support tickets to the product categories their customers
bought, then serves revenue, refund and complaint views over HTTP or prints
them to the terminal.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), gf)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&gf.configFile, "config", "", "YAML config file (overrides "+config.EnvConfigFile+")")
	pf.StringVar(&gf.envFile, "env-file", ".env", "dotenv file loaded before configuration; missing files are ignored")
	pf.StringVar(&gf.transactions, "transactions", "", "transaction CSV path")
	pf.StringVar(&gf.tickets, "tickets", "", "support ticket CSV path")

	root.AddCommand(newServeCmd(gf), newReportCmd(gf))
	return root
}

func newServeCmd(gf *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard and its JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), gf)
		},
	}
}

type reportFlags struct {
	categories []string
	from       string
	to         string
	asJSON     bool
}

func newReportCmd(gf *globalFlags) *cobra.Command {
	rf := &reportFlags{}
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print one dashboard view to the terminal",
		Long: `Renders the dashboard for the given selection. Without --category every
category is selected. A date range applies only when both --from and --to are
given; otherwise the full dataset range is used.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			q, err := rf.query(cmd.Flags().Changed("category"))
			if err != nil {
				return err
			}
			return runReport(cmd.Context(), gf, q, rf.asJSON, cmd.OutOrStdout())
		},
	}
	f := cmd.Flags()
	f.StringArrayVarP(&rf.categories, "category", "c", nil, "product category to include (repeatable)")
	f.StringVar(&rf.from, "from", "", "first day of the range (YYYY-MM-DD)")
	f.StringVar(&rf.to, "to", "", "last day of the range (YYYY-MM-DD)")
	f.BoolVar(&rf.asJSON, "json", false, "print the view model as JSON")
	return cmd
}

func (rf *reportFlags) query(categoriesSet bool) (types.Query, error) {
	q := types.Query{AllCategories: !categoriesSet, Categories: rf.categories}
	for _, raw := range []string{rf.from, rf.to} {
		if raw == "" {
			continue
		}
		d, err := model.ParseDate(raw)
		if err != nil {
			return types.Query{}, fmt.Errorf("invalid date %q: %w", raw, err)
		}
		q.Dates = append(q.Dates, d)
	}
	return q, nil
}

// bootstrap loads the environment and configuration and initializes the
// global logger.
func bootstrap(ctx context.Context, gf *globalFlags, logOut io.Writer) (*config.Config, error) {
	if gf.envFile != "" {
		if err := godotenv.Load(gf.envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", gf.envFile, err)
		}
	}
	if gf.configFile != "" {
		if err := os.Setenv(config.EnvConfigFile, gf.configFile); err != nil {
			return nil, err
		}
	}

	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, err
	}
	if gf.transactions != "" {
		cfg.TransactionsPath = gf.transactions
	}
	if gf.tickets != "" {
		cfg.TicketsPath = gf.tickets
	}

	metrics.Init(metricsOptions(cfg)...)

	if err := logger.Init(logger.WithFormat(logger.Format(cfg.LogFormat)), logger.WithWriter(logOut)); err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		logger.Get().Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	return cfg, nil
}

// metricsOptions maps configuration onto the metrics manager.
func metricsOptions(cfg *config.Config) []metrics.Option {
	return []metrics.Option{
		metrics.WithMetricsEnabled(cfg.MetricsEnabled),
		metrics.WithRefreshInterval(cfg.MetricsRefresh()),
		metrics.WithCustomLabels(cfg.MetricsLabels),
		metrics.WithHistogramBuckets(cfg.MetricsBucketsMS),
	}
}

// serviceOptions maps configuration onto service options.
func serviceOptions(cfg *config.Config) ([]service.Option, error) {
	policy, err := join.ParsePolicy(cfg.JoinPolicy)
	if err != nil {
		return nil, err
	}
	return []service.Option{
		service.WithPaths(cfg.TransactionsPath, cfg.TicketsPath),
		service.WithTitle(cfg.Title),
		service.WithTopProblemsLimit(cfg.TopProblemsLimit),
		service.WithJoinPolicy(policy),
		service.WithLogger(logger.Named("app")),
	}, nil
}

func runServe(ctx context.Context, gf *globalFlags) error {
	cfg, err := bootstrap(ctx, gf, os.Stdout)
	if err != nil {
		return err
	}
	defer func() {
		if err := logger.Sync(); err != nil {
			fmt.Fprintln(os.Stderr, "failed to sync logger:", err)
		}
	}()
	log := logger.Get()

	opts, err := serviceOptions(cfg)
	if err != nil {
		return err
	}
	opts = append(opts,
		service.WithWatch(cfg.WatchFiles, cfg.WatchDebounce()),
		service.WithWarmCache(cfg.WarmCache),
	)
	svc := service.New(opts...)
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("failed to start service: %w", err)
	}
	defer svc.Stop()

	go startSystemMetricsUpdater(ctx)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newMux(ctx, svc),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			log.Error(ctx, "HTTP server failed", logger.Error(err))
			return err
		}
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
		return err
	}
	log.Info(ctx, "server stopped")
	return nil
}

// newMux registers the API, the site and the API docs.
func newMux(ctx context.Context, svc *service.Service) http.Handler {
	mux := http.NewServeMux()
	api.NewServer(svc, svc).Register(ctx, mux)
	swagger.Register(ctx, mux)
	site.Register(ctx, mux)
	return api.RequestIDMiddleware(mux)
}

func runReport(ctx context.Context, gf *globalFlags, q types.Query, asJSON bool, out io.Writer) error {
	// keep stdout clean for the report itself
	cfg, err := bootstrap(ctx, gf, os.Stderr)
	if err != nil {
		return err
	}
	opts, err := serviceOptions(cfg)
	if err != nil {
		return err
	}
	svc := service.New(opts...)
	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer svc.Stop()

	vm, err := svc.Render(ctx, q)
	if err != nil {
		return err
	}
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(vm)
	}
	return report.Render(out, svc.Title(), vm)
}

// startSystemMetricsUpdater refreshes process gauges until ctx is done.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(metrics.RefreshInterval())
	defer ticker.Stop()

	updateSystemMetrics()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
}
