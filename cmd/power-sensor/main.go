// Command power-sensor watches a mains-powered device on the local network
// and reports when the line it sits on loses or regains power.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/sweeney/power-sensor/internal/clock"
	"github.com/sweeney/power-sensor/internal/config"
	"github.com/sweeney/power-sensor/internal/gpio"
	"github.com/sweeney/power-sensor/internal/logging"
	"github.com/sweeney/power-sensor/internal/logic"
	"github.com/sweeney/power-sensor/internal/mqtt"
	"github.com/sweeney/power-sensor/internal/notify"
	"github.com/sweeney/power-sensor/internal/probe"
	"github.com/sweeney/power-sensor/internal/status"
	"github.com/sweeney/power-sensor/internal/store"
	"github.com/sweeney/power-sensor/internal/web"
)

// mqttConnectWait bounds how long startup waits for the first broker connection.
const mqttConnectWait = 5 * time.Second

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cfg := config.DefaultConfig()
	var cfgPath string
	var printState bool

	root := &cobra.Command{
		Use:     "power-sensor",
		Short:   "Detect mains power loss by probing a device on the line",
		Version: fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		Example: "  power-sensor --target 192.168.1.50 --telegram-token <token> --telegram-chat-id <chat>\n" +
			"  power-sensor --config /etc/power-sensor/config.toml --print-state",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			changed := map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

			if err := resolveConfig(&cfg, cfgPath, changed); err != nil {
				return err
			}
			if printState {
				return runPrintState(cmd.OutOrStdout(), cfg)
			}
			return run(cfg)
		},
	}

	f := root.Flags()
	f.StringVar(&cfgPath, "config", "", fmt.Sprintf("path to config file (default: %s)", config.DefaultConfigPath))
	f.BoolVar(&printState, "print-state", false, "print the persisted line state and exit")

	f.StringVar(&cfg.Target, "target", cfg.Target, "host (or URL for --probe=http) of the device on the monitored line")
	f.StringVar(&cfg.Probe, "probe", cfg.Probe, "probe kind: tcp or http")
	f.IntVar(&cfg.Port, "port", cfg.Port, "TCP port to connect to")
	f.DurationVar(&cfg.ProbeTimeout, "probe-timeout", cfg.ProbeTimeout, "timeout for a single probe")
	f.DurationVar(&cfg.Interval, "interval", cfg.Interval, "time between probes")
	f.IntVar(&cfg.Threshold, "threshold", cfg.Threshold, "consecutive consistent probes needed to change state")
	f.StringVar(&cfg.StateDir, "state-dir", cfg.StateDir, "directory for the persisted line state")

	f.StringVar(&cfg.TelegramToken, "telegram-token", cfg.TelegramToken, "Telegram bot token (empty disables notifications)")
	f.StringVar(&cfg.TelegramChatID, "telegram-chat-id", cfg.TelegramChatID, "Telegram chat to notify")
	f.Int64Var(&cfg.TelegramThreadID, "telegram-thread-id", cfg.TelegramThreadID, "Telegram forum topic (0 for none)")
	f.StringVar(&cfg.TelegramAPI, "telegram-api", cfg.TelegramAPI, "Telegram Bot API base URL")
	if err := f.MarkHidden("telegram-api"); err != nil {
		fmt.Fprintf(os.Stderr, "hide telegram-api flag: %v\n", err)
	}
	f.DurationVar(&cfg.NotifyTimeout, "notify-timeout", cfg.NotifyTimeout, "timeout for a single notification")

	f.StringVar(&cfg.Broker, "broker", cfg.Broker, "MQTT broker address (empty disables MQTT)")
	f.StringVar(&cfg.HTTPAddr, "http", cfg.HTTPAddr, "HTTP status address (empty to disable)")
	f.IntVar(&cfg.LEDPin, "led-pin", cfg.LEDPin, "BCM pin of the status LED (-1 disables)")

	f.StringVar(&cfg.LogDir, "log-dir", cfg.LogDir, "directory for rotated JSON logs (empty logs to stderr only)")
	f.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn or error")
	f.StringVar(&cfg.Timezone, "timezone", cfg.Timezone, "IANA time zone for timestamps")
	f.DurationVar(&cfg.ClockRetry, "clock-retry", cfg.ClockRetry, "how often to re-check an unsynchronized clock")

	return root
}

// resolveConfig layers the config file and environment under the flags
// already parsed into cfg, then validates the result.
func resolveConfig(cfg *config.Config, cfgPath string, changed map[string]bool) error {
	cfgFile := cfgPath
	if cfgFile == "" {
		cfgFile = config.DefaultConfigPath
	}

	if config.FileExists(cfgFile) {
		fc, err := config.LoadFileConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := config.ApplyFileConfig(cfg, fc, changed); err != nil {
			return err
		}
	} else if cfgPath != "" {
		return fmt.Errorf("config file %s not found", cfgPath)
	}

	if err := config.ApplyEnvConfig(cfg, changed); err != nil {
		return err
	}
	return cfg.Validate()
}

func runPrintState(w io.Writer, cfg config.Config) error {
	loc, err := clock.NewSystem(cfg.Timezone)
	if err != nil {
		return err
	}
	return printState(w, store.NewFileStore(cfg.StateDir), loc.Now())
}

// printState writes a one-line summary of the persisted state.
func printState(w io.Writer, st store.Store, now time.Time) error {
	state, found, err := st.Load(context.Background())
	if err != nil {
		return fmt.Errorf("load state: %w", err)
	}
	if !found {
		fmt.Fprintln(w, "no state stored")
		return nil
	}
	if state.LastTransition.IsZero() {
		fmt.Fprintf(w, "%s since unknown\n", state.State())
		return nil
	}
	since := state.LastTransition.In(now.Location())
	fmt.Fprintf(w, "%s since %s (%s)\n",
		state.State(), since.Format(time.RFC3339), logic.FormatDuration(now.Sub(state.LastTransition)))
	return nil
}

func run(cfg config.Config) error {
	log, err := logging.New(cfg.LogDir, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer log.Sync()

	log.Info("configuration", zap.Any("config", cfg.Redacted()))

	sysClock, err := clock.NewSystem(cfg.Timezone)
	if err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	// Startup waits, interruptibly, for a trustworthy wall clock. Timestamps
	// taken before that would be persisted as the last transition time.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	now, err := clock.WaitForSync(ctx, sysClock, cfg.ClockRetry, log)
	stop()
	if err != nil {
		log.Info("interrupted while waiting for clock sync")
		return nil
	}

	st := store.NewFileStore(cfg.StateDir)
	state := loadState(context.Background(), st, now, log)

	d := &daemon{
		monitor:       logic.NewMonitor(cfg.Threshold, state),
		prober:        newProber(cfg),
		store:         st,
		now:           sysClock.Now,
		log:           log,
		notifier:      newNotifier(cfg, log),
		notifyTimeout: cfg.NotifyTimeout,
	}

	if cfg.Broker != "" {
		publisher := mqtt.NewRealPublisher(cfg.Broker, mqttConnectWait, sysClock.Now, log)
		defer publisher.Close()
		d.publisher = publisher
		d.mqttStatus = publisher
	}

	if cfg.LEDPin != gpio.DisabledPin {
		led, err := gpio.NewLED(gpio.DefaultChip, cfg.LEDPin, !state.Unpowered)
		if err != nil {
			log.Warn("status LED disabled", zap.Int("pin", cfg.LEDPin), zap.Error(err))
		} else {
			defer func() {
				if err := led.Close(); err != nil {
					log.Warn("release status LED", zap.Error(err))
				}
			}()
			d.led = led
		}
	}

	d.tracker = status.NewTracker(now, state, status.Config{
		Target:        cfg.Target,
		Probe:         cfg.Probe,
		Interval:      cfg.Interval,
		Threshold:     cfg.Threshold,
		Broker:        cfg.Broker,
		HTTPAddr:      cfg.HTTPAddr,
		NotifyEnabled: cfg.NotifyEnabled(),
	}, sysClock.Now)

	if d.publisher != nil {
		startup := mqtt.SystemEvent{
			Timestamp: now,
			Event:     mqtt.EventStartup,
			State:     &state,
			Retained:  true,
		}
		if err := d.publisher.PublishSystem(startup); err != nil {
			log.Warn("failed to publish startup event", zap.Error(err))
		}
	}

	if cfg.HTTPAddr != "" {
		srv := web.New(cfg.HTTPAddr, d.tracker, log)
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("http server error", zap.Error(err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()
		log.Info("http status server listening", zap.String("addr", cfg.HTTPAddr))
	}

	log.Info("started",
		zap.String("target", cfg.Target),
		zap.String("probe", cfg.Probe),
		zap.Duration("interval", cfg.Interval),
		zap.Int("threshold", cfg.Threshold),
		zap.String("state", string(state.State())),
		zap.Time("since", state.LastTransition.In(now.Location())))

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	return runLoop(d, ticker.C, sigCh)
}

// loadState returns the persisted state, or seeds and writes a fresh powered
// state at now when nothing usable is stored. A stored state without a
// transition time keeps its value and is stamped with now.
func loadState(ctx context.Context, st store.Store, now time.Time, log *zap.Logger) logic.OutageState {
	state, found, err := st.Load(ctx)
	if err != nil {
		log.Error("state load failed, starting fresh", zap.Error(err))
	}
	if err == nil && found && !state.LastTransition.IsZero() {
		return state
	}

	if err != nil || !found {
		state = logic.OutageState{Unpowered: false}
	} else {
		log.Warn("stored state has no transition time, using boot time",
			zap.String("state", string(state.State())))
	}
	state.LastTransition = now
	persistState(ctx, st, state, log)
	return state
}

// persistState saves state and logs a failure under the state_persist_failed event.
func persistState(ctx context.Context, st store.Store, state logic.OutageState, log *zap.Logger) bool {
	if err := st.Save(ctx, state); err != nil {
		log.Error("state persist failed",
			zap.String("event", "state_persist_failed"),
			zap.String("state", string(state.State())),
			zap.Time("last_transition", state.LastTransition),
			zap.Error(err))
		return false
	}
	return true
}

// newNotifier fans out to every configured destination, or discards
// messages when there are none.
func newNotifier(cfg config.Config, log *zap.Logger) notify.Notifier {
	var dests notify.Multi
	if tg := notify.NewTelegram(cfg.TelegramAPI, cfg.TelegramToken, cfg.TelegramChatID, cfg.TelegramThreadID, cfg.NotifyTimeout); tg != nil {
		dests = append(dests, tg)
	}
	if len(dests) == 0 {
		log.Info("notifications disabled")
		return notify.Nop{}
	}
	return dests
}

func newProber(cfg config.Config) probe.Prober {
	if cfg.Probe == config.ProbeHTTP {
		return probe.NewHTTPProber(cfg.Target, cfg.ProbeTimeout)
	}
	return probe.NewTCPProber(cfg.Target, cfg.Port, cfg.ProbeTimeout)
}
