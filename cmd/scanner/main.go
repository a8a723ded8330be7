package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alejandrodnm/polyarb/config"
	"github.com/alejandrodnm/polyarb/internal/adapters/notify"
	"github.com/alejandrodnm/polyarb/internal/adapters/polymarket"
	"github.com/alejandrodnm/polyarb/internal/adapters/redisstream"
	"github.com/alejandrodnm/polyarb/internal/adapters/storage"
	"github.com/alejandrodnm/polyarb/internal/domain"
	"github.com/alejandrodnm/polyarb/internal/ports"
	"github.com/alejandrodnm/polyarb/internal/scanner"
)

// options son los flags de línea de comandos.
type options struct {
	configPath string
	once       bool
	report     bool
	export     string
	verbose    bool
	logFormat  string
	table      bool
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "config/config.yaml", "path to config file (missing file = defaults)")
	flag.BoolVar(&opts.once, "once", false, "run one scan cycle and exit")
	flag.BoolVar(&opts.report, "report", false, "print the analytics report from the datastore and exit")
	flag.StringVar(&opts.export, "export", "", "export the opportunity log to this CSV file and exit")
	flag.BoolVar(&opts.verbose, "verbose", false, "set log level to debug")
	flag.StringVar(&opts.logFormat, "format", "", "log format: text|json (overrides config)")
	flag.BoolVar(&opts.table, "table", false, "print a table of each cycle's detections (default: compact 1-line)")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := run(ctx, opts)
	cancel()
	if err != nil {
		slog.Error("polyarb failed", "err", err)
		os.Exit(1)
	}
}

// run carga la config, arma las dependencias y ejecuta el modo pedido.
// Los defers cierran storage, Redis y el archivo de log en cualquier salida.
func run(ctx context.Context, opts options) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("load config %q: %w", opts.configPath, err)
	}

	// Los flags pisan la config y se validan igual que ella.
	if opts.verbose {
		cfg.Log.Level = "debug"
	}
	if opts.logFormat != "" {
		cfg.Log.Format = opts.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("flags: %w", err)
	}

	closeLog, err := setupLogger(cfg.Log)
	if err != nil {
		return fmt.Errorf("set up logging (file %q): %w", cfg.Log.File, err)
	}
	defer closeLog()

	store, err := storage.NewSQLiteStorage(cfg.Storage.DSN)
	if err != nil {
		return fmt.Errorf("open storage %q: %w", cfg.Storage.DSN, err)
	}
	defer store.Close()

	notifier := notify.NewConsole(opts.table)

	switch {
	case opts.report:
		if err := runReport(ctx, store, notifier, cfg.Scanner.EdgeThresholds); err != nil {
			return fmt.Errorf("report: %w", err)
		}
		return nil
	case opts.export != "":
		if err := runExport(ctx, store, opts.export); err != nil {
			return fmt.Errorf("export to %q: %w", opts.export, err)
		}
		return nil
	}

	sinks := []ports.RecordSink{store}
	if cfg.Redis.Addr != "" {
		rs, err := redisstream.New(ctx, redisstream.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
		})
		if err != nil {
			return fmt.Errorf("connect to redis %q: %w", cfg.Redis.Addr, err)
		}
		defer rs.Close()
		sinks = append(sinks, rs)
		slog.Info("mirroring records to redis streams", "addr", cfg.Redis.Addr, "stream", rs.OpportunitiesStream())
	}

	client := polymarket.NewClient(cfg.API.CLOBBase, cfg.API.GammaBase,
		polymarket.WithTimeout(cfg.RequestTimeout()),
		polymarket.WithRetry(cfg.Retries(), cfg.RetryBase()),
		polymarket.WithMaxMarkets(cfg.Scanner.MaxMarkets),
	)

	scanCfg := scanner.Config{
		ScanInterval: cfg.ScanInterval(),
		TargetSizes:  cfg.Scanner.TargetSizes,
		Fees:         domain.FeeRates{Yes: cfg.FeeYes(), No: cfg.FeeNo()},
		Workers:      cfg.Scanner.Workers,
	}
	s := scanner.New(scanCfg, client, client, notifier, sinks...)

	slog.Info("polyarb starting",
		"config", opts.configPath,
		"dsn", cfg.Storage.DSN,
		"once", opts.once,
	)

	if opts.once {
		if _, err := s.RunOnce(ctx); err != nil {
			return fmt.Errorf("scan: %w", err)
		}
		return nil
	}

	if err := s.Run(ctx); err != nil {
		return fmt.Errorf("scanner: %w", err)
	}

	slog.Info("polyarb stopped cleanly")
	return nil
}

// setupLogger configura el logger por defecto. Si cfg.File no está vacío la
// salida se duplica a ese archivo; la función devuelta lo cierra.
func setupLogger(cfg config.LogConfig) (func(), error) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var out io.Writer = os.Stdout
	closeFn := func() {}
	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		out = io.MultiWriter(os.Stdout, f)
		closeFn = func() { f.Close() }
	}

	slog.SetDefault(slog.New(newHandler(out, cfg.Format, level)))
	return closeFn, nil
}

func newHandler(w io.Writer, format string, level slog.Level) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	if format == "json" {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}
