package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/viktsys/gasinsight/analysis"
	"github.com/viktsys/gasinsight/cache"
	"github.com/viktsys/gasinsight/config"
	"github.com/viktsys/gasinsight/database"
	"github.com/viktsys/gasinsight/ingest"
	"github.com/viktsys/gasinsight/logger"
	"github.com/viktsys/gasinsight/metrics"
	"github.com/viktsys/gasinsight/models"
)

var (
	configPath string
	cfg        *config.Config
)

var rootCMD = &cobra.Command{
	Use:   "gasinsight",
	Short: "Gas consumption telemetry analysis tool",
	Long: `A CLI application for analyzing industrial gas consumption telemetry.
It loads sensor readings from the plant database (with a local day cache),
derives per operating day consumption and data health, and serves the
results through a REST API or as spreadsheet exports.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load .env: %w", err)
		}

		var err error
		cfg, err = config.LoadConfig(configPath)
		if err != nil {
			return err
		}
		return logger.GetLogger().Configure(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output, cfg.Logging.MaxAge)
	},
}

func Execute() {
	err := rootCMD.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCMD.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to a YAML or TOML config file")
	rootCMD.AddCommand(analyzeCMD, serverCMD, prefetchCMD, exportCMD)
}

// app is the wiring shared by the subcommands.
type app struct {
	metrics  *metrics.Metrics
	loader   *ingest.Loader
	pipeline *analysis.Pipeline
}

func newApp() (*app, error) {
	log := logger.GetLogger().WithComponent("cmd")
	log.Info("initializing database")
	if err := database.InitDB(cfg.Database); err != nil {
		return nil, err
	}

	policy, err := cfg.Policy()
	if err != nil {
		return nil, err
	}

	m := metrics.NewMetrics()
	source := database.NewGormSource(database.DB, cfg.Database.QueryTimeout).WithPolicy(policy)
	loader := ingest.NewLoader(source, cache.NewFileCache(cfg.Cache.Dir), m)
	pipeline := analysis.NewPipeline(loader, cfg.Sensors, policy, cfg.Cache.TTL, m).WithEarliest(cfg.Earliest())

	log.WithFields(logger.Fields{
		"policy":       policy.Name,
		"expected_day": policy.ExpectedPerDay(),
		"cache_dir":    cfg.Cache.Dir,
	}).Info("pipeline ready")
	return &app{metrics: m, loader: loader, pipeline: pipeline}, nil
}

// requestFlags are the date selection flags shared by several subcommands.
type requestFlags struct {
	mode       string
	start      string
	end        string
	redownload bool
}

func (f *requestFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.mode, "mode", string(analysis.ModeRange), "analysis mode: day or range")
	cmd.Flags().StringVar(&f.start, "start", "", "first day, YYYY-MM-DD (default yesterday)")
	cmd.Flags().StringVar(&f.end, "end", "", "last day, YYYY-MM-DD (default start)")
	cmd.Flags().BoolVar(&f.redownload, "redownload", false, "ignore cached day files")
}

func (f *requestFlags) request() (analysis.Request, error) {
	req := analysis.Request{Mode: analysis.Mode(f.mode), Force: f.redownload}
	if f.start == "" {
		req.Start = models.Midnight(time.Now()).AddDate(0, 0, -1)
	} else {
		start, err := time.Parse(models.DateLayout, f.start)
		if err != nil {
			return req, fmt.Errorf("invalid --start %q: use YYYY-MM-DD", f.start)
		}
		req.Start = start
	}
	if f.end != "" {
		end, err := time.Parse(models.DateLayout, f.end)
		if err != nil {
			return req, fmt.Errorf("invalid --end %q: use YYYY-MM-DD", f.end)
		}
		req.End = end
	}
	return req.Normalize(cfg.Earliest())
}
