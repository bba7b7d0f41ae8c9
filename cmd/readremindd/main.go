package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/SoarinFerret/ReadRemind/internal/config"
	"github.com/SoarinFerret/ReadRemind/internal/device"
	"github.com/SoarinFerret/ReadRemind/internal/engine"
	"github.com/SoarinFerret/ReadRemind/internal/ipc"
	"github.com/SoarinFerret/ReadRemind/internal/logging"
	"github.com/SoarinFerret/ReadRemind/internal/loginctl"
	"github.com/SoarinFerret/ReadRemind/internal/metrics"
	"github.com/SoarinFerret/ReadRemind/internal/notify"
	"github.com/SoarinFerret/ReadRemind/internal/presence"
	"github.com/SoarinFerret/ReadRemind/internal/server"
	"github.com/SoarinFerret/ReadRemind/internal/state"
)

type options struct {
	configPath string
	verbose    bool
	logFormat  string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "readremindd [config]",
		Short: "readremindd watches a book shelf and reminds you to read",
		Long: `readremindd samples a distance sensor under a book, tracks whether the
book is on its shelf, and sends reminders when it has sat there too long.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.configPath = args[0]
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.configPath, "config", "c", config.DefaultPath, "path to the TOML config file")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")
	cmd.Flags().StringVar(&opts.logFormat, "log-format", "text", "log format: text or json")
	return cmd
}

func run(ctx context.Context, opts *options) error {
	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger, err := logging.New(level, opts.logFormat)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	loaded, err := config.LoadEnvFiles(opts.configPath)
	if err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	for _, f := range loaded {
		logger.Debug("Loaded environment file", logging.Path(f))
	}

	logger.Info("Using config file", logging.Path(opts.configPath))
	cfg, err := config.LoadConfigFromFile(opts.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	store, closer, err := state.Open(cfg.Store, cfg.StatePath)
	if err != nil {
		return err
	}
	defer closer.Close()

	initial, err := store.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to restore state: %w", err)
	}
	logger.Info("Restored presence state",
		logging.Present(initial.Present), slog.Time("last_transition", initial.LastTransition))

	notifier, cleanup := buildNotifier(cfg, logger)
	defer cleanup()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.NewPrometheusRecorder(reg)

	presenceLED := device.NewLED(cfg.Indicator.PresenceLED, logger)
	runningLED := device.NewLED(cfg.Indicator.RunningLED, logger)

	machine := presence.New(initial, store, presenceLED, notifier,
		presence.WithPolicy(cfg.Policy()),
		presence.WithLogger(logger))

	sensor := device.NewIIOSensor(cfg.Sensor.DistancePath, cfg.Sensor.Scale, time.Duration(cfg.Sensor.Settle))

	engineOpts := []engine.Option{
		engine.WithRunningLED(runningLED),
		engine.WithPresenceLED(presenceLED),
		engine.WithRecorder(recorder),
		engine.WithLogger(logger),
	}

	var wg sync.WaitGroup

	if watcher, err := config.NewWatcher(opts.configPath, logger); err != nil {
		logger.Warn("Config reload disabled", logging.Err(err))
	} else {
		engineOpts = append(engineOpts, engine.WithReloads(watcher.Updates()))
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := watcher.Run(ctx); err != nil {
				logger.Error("Config watcher stopped", logging.Err(err))
			}
		}()
	}

	if cfg.DBus.WatchSleep {
		sleep := make(chan bool, 1)
		engineOpts = append(engineOpts, engine.WithSleepEvents(sleep))
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := loginctl.WatchSleep(ctx, sleep, logger); err != nil {
				logger.Error("logind watcher error", logging.Err(err))
			}
		}()
	}

	if cfg.DBus.Bus != "" {
		monitor := &ipc.Monitor{
			Source:   machine,
			Notifier: notifier,
			Timeout:  time.Duration(cfg.Notify.Timeout),
			Context:  ctx,
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			logger.Info("Opening D-Bus service", slog.String("bus", cfg.DBus.Bus))
			if err := ipc.Serve(ctx, cfg.DBus.Bus, monitor); err != nil {
				logger.Error("D-Bus service error", logging.Err(err))
			}
		}()
	}

	if cfg.HTTP.Listen != "" {
		srv := server.New(cfg.HTTP.Listen, machine, reg, logger)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := srv.Run(ctx); err != nil {
				logger.Error("HTTP server error", logging.Err(err))
			}
		}()
	}

	err = engine.NewEngine(machine, sensor, cfg, engineOpts...).Run(ctx)
	wg.Wait()
	logger.Info("Shutdown complete")
	return err
}

// buildNotifier combines every configured channel. With none configured,
// messages are only logged by the machine.
func buildNotifier(cfg *config.Config, logger *slog.Logger) (notify.Notifier, func()) {
	var channels notify.Multi
	cleanup := func() {}

	pushover, err := notify.NewPushover(cfg.Notify.PushoverURL, cfg.Notify.AppToken, cfg.Notify.UserToken, nil)
	if err != nil {
		logger.Warn("Pushover disabled", logging.Err(err))
	} else {
		channels = append(channels, pushover)
	}

	if cfg.Notify.Desktop {
		desktop, err := notify.NewDesktop()
		if err != nil {
			logger.Warn("Desktop notifications disabled", logging.Err(err))
		} else {
			channels = append(channels, desktop)
			cleanup = func() { _ = desktop.Close() }
		}
	}

	if len(channels) == 0 {
		return nil, cleanup
	}
	return notify.WithTimeout(channels, time.Duration(cfg.Notify.Timeout)), cleanup
}
