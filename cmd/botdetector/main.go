package main

import (
	"botdetector/internal/config"
	"botdetector/internal/detect"
	"botdetector/internal/feature"
	"botdetector/internal/ingest"
	"botdetector/internal/metrics"
	"botdetector/internal/pipeline"
	"botdetector/internal/report"
	"botdetector/internal/types"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	Version = "dev"
	Commit  = "unknown"
)

type runFlags struct {
	configPath  string
	input       string
	output      string
	follow      bool
	metrics     bool
	metricsAddr string
	logLevel    string
	maxClients  int
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "botdetector",
		Short:        "Flag bot-like requests in an access log",
		SilenceUsage: true,
	}
	root.AddCommand(newRunCmd(), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "botdetector %s (%s)\n", Version, Commit)
		},
	}
}

func newRunCmd() *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Scan a log and write the bot report",
		Long: `Scan an access log and write every request that looks automated to the
report file, followed by a summary.

Heuristics:
  - BAD UA:    empty user agent, or one mentioning curl, python or java
  - NO STATIC: client never fetched .jpg/.png/.css/.js files
  - FREQUENT:  more than 5 requests from one client within 10 seconds

Examples:
  botdetector run
  botdetector run -i /var/log/access.log -o bots.txt
  cat access.log | botdetector run -i -`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, f)
			if err != nil {
				return err
			}
			return runCommand(cmd.Context(), cfg, cmd)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.configPath, "config", "", "Path to YAML config file")
	flags.StringVarP(&f.input, "input", "i", config.DefaultLogPath, "Log file to scan, - for stdin")
	flags.StringVarP(&f.output, "output", "o", config.DefaultReportPath, "Report file")
	flags.BoolVar(&f.follow, "follow", false, "Keep tailing the log until interrupted")
	flags.BoolVar(&f.metrics, "metrics", false, "Serve Prometheus metrics")
	flags.StringVar(&f.metricsAddr, "metrics-addr", config.DefaultMetricsListen, "Metrics listen address")
	flags.StringVar(&f.logLevel, "log-level", config.DefaultLogLevel, "debug, info, warn or error")
	flags.IntVar(&f.maxClients, "max-clients", 0, "Evict client state beyond this many clients (0 = unlimited)")
	return cmd
}

// resolveConfig loads the config file, if any, and applies explicitly set flags on top
func resolveConfig(cmd *cobra.Command, f runFlags) (*types.Config, error) {
	cfg := config.Default()
	if f.configPath != "" {
		loaded, err := config.LoadConfig(f.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	changed := cmd.Flags().Changed
	if changed("input") || f.configPath == "" {
		cfg.Input.LogPath = f.input
	}
	if changed("output") || f.configPath == "" {
		cfg.Output.ReportPath = f.output
	}
	if changed("follow") {
		cfg.Input.Follow = f.follow
	}
	if changed("metrics") {
		cfg.Metrics.Enabled = f.metrics
	}
	if changed("metrics-addr") {
		cfg.Metrics.Listen = f.metricsAddr
	}
	if changed("log-level") || f.configPath == "" {
		cfg.Logging.Level = f.logLevel
	}
	if changed("max-clients") {
		if f.maxClients < 0 {
			return nil, fmt.Errorf("--max-clients must not be negative")
		}
		cfg.State.MaxClients = f.maxClients
	}
	return cfg, nil
}

func setupLogging(level string) {
	zerolog.TimeFieldFormat = time.RFC3339
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
}

func runCommand(parent context.Context, cfg *types.Config, cmd *cobra.Command) error {
	setupLogging(cfg.Logging.Level)

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	clients := feature.NewAccumulator(cfg.State.MaxClients)
	engine := detect.NewEngine(clients)

	if cfg.Metrics.Enabled {
		if err := metrics.RegisterClientGauge(prometheus.DefaultRegisterer, clients.Len); err != nil {
			log.Warn().Err(err).Msg("client gauge not registered")
		}
		go func() {
			if err := metrics.StartServer(cfg.Metrics.Listen); err != nil {
				log.Error().Err(err).Msg("metrics server stopped")
			}
		}()
	}

	var source ingest.Ingester
	if cfg.Input.LogPath == "-" {
		source = ingest.NewReaderIngester(os.Stdin, "stdin")
	} else {
		source = ingest.NewFileTailer(cfg.Input.LogPath, cfg.Input.Follow)
	}
	lines, err := source.Start()
	if err != nil {
		return err
	}

	out, err := report.Create(cfg.Output.ReportPath)
	if err != nil {
		if serr := source.Stop(); serr != nil {
			log.Warn().Err(serr).Msg("failed to stop log source")
		}
		return err
	}
	defer out.Close()

	log.Info().
		Str("input", cfg.Input.LogPath).
		Str("output", cfg.Output.ReportPath).
		Bool("follow", cfg.Input.Follow).
		Msg("scanning")

	analyzer := pipeline.NewAnalyzer(engine, out)
	if err := analyzer.Start(); err != nil {
		if serr := source.Stop(); serr != nil {
			log.Warn().Err(serr).Msg("failed to stop log source")
		}
		return err
	}
	runErr := analyzer.Run(ctx, lines)
	interrupted := ctx.Err() != nil
	// A second signal terminates without the summary
	stop()

	if interrupted {
		// The source may still be blocked on a send, or on a read from stdin
		go func() {
			for range lines {
			}
		}()
		if tailer, ok := source.(*ingest.FileTailer); ok {
			if err := tailer.Stop(); err != nil {
				log.Warn().Err(err).Msg("failed to stop log source")
			}
		}
	} else if err := source.Stop(); err != nil && runErr == nil {
		runErr = err
	}
	if runErr != nil {
		return runErr
	}

	if _, err := analyzer.Finish(); err != nil {
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Output written to %s\n", cfg.Output.ReportPath)
	return nil
}
