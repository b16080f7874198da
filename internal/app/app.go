package app

import (
	"context"
	"errors"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/milechy/ultra-autotrade-project/internal/api"
	"github.com/milechy/ultra-autotrade-project/internal/config"
	"github.com/milechy/ultra-autotrade-project/internal/monitoring"
	"github.com/milechy/ultra-autotrade-project/internal/notify"
	"github.com/milechy/ultra-autotrade-project/internal/reporting"
	"github.com/milechy/ultra-autotrade-project/internal/scheduler"
	"github.com/milechy/ultra-autotrade-project/internal/storage"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) monitoringOptions(hook func(monitoring.MonitoringEvent)) monitoring.Options {
	cfg := a.Config.Monitoring
	return monitoring.Options{
		LatencyWarningThreshold: cfg.LatencyWarningThreshold,
		LatencyAlertThreshold:   cfg.LatencyAlertThreshold,
		HFWarningThreshold:      a.parseThreshold(cfg.HFWarningThreshold, "monitoring.hf_warning_threshold"),
		HFEmergencyThreshold:    a.parseThreshold(cfg.HFEmergencyThreshold, "monitoring.hf_emergency_threshold"),
		PriceChangeAlertPct:     a.parseThreshold(cfg.PriceChangeAlertPct, "monitoring.price_change_alert_pct"),
		MaxEvents:               cfg.MaxEvents,
		MaxLatencyRecords:       cfg.MaxLatencyRecords,
		MaxTradeRecords:         cfg.MaxTradeRecords,
		MaxHealthFactorRecords:  cfg.MaxHealthFactorRecords,
		EventHook:               hook,
	}
}

// parseThreshold returns zero on malformed input so the service falls back to
// its built-in default instead of refusing to start.
func (a *App) parseThreshold(raw, key string) decimal.Decimal {
	if raw == "" {
		return decimal.Decimal{}
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		a.Logger.Warn().Str("key", key).Str("value", raw).Msg("invalid decimal threshold; using default")
		return decimal.Decimal{}
	}
	return value
}

func (a *App) newNotifier() notify.Notifier {
	if !a.Config.Alerting.Enabled {
		return nil
	}

	senders := make([]notify.Notifier, 0, len(a.Config.Alerting.Channels))
	for _, channel := range a.Config.Alerting.Channels {
		switch notify.Channel(channel) {
		case notify.ChannelInternalLog:
			senders = append(senders, notify.NewLogNotifier(a.Logger))
		case notify.ChannelTelegram:
			cfg := a.Config.Alerting.Telegram
			if !cfg.Enabled {
				a.Logger.Warn().Msg("telegram channel listed but alerting.telegram.enabled is false; skipping")
				continue
			}
			senders = append(senders, notify.NewTelegramNotifier(cfg.BotToken, cfg.ChatID, cfg.APIBase, 10*time.Second, a.Logger))
		default:
			a.Logger.Warn().Str("channel", channel).Msg("unsupported alert channel; skipping")
		}
	}

	if len(senders) == 0 {
		return nil
	}
	if len(senders) == 1 {
		return senders[0]
	}
	return notify.NewComposite(a.Logger, senders...)
}

func (a *App) openStore(ctx context.Context) (*storage.Store, func(), error) {
	if a.Config.Database.DSN == "" {
		return nil, nil, nil
	}

	pool, err := storage.NewPool(ctx, a.Config.Database)
	if err != nil {
		return nil, nil, err
	}

	store := storage.NewStore(pool)
	closer := func() {
		store.Close()
	}
	return store, closer, nil
}

// Serve runs the long-lived monitoring process: HTTP API, event archiver, and
// the scheduled report jobs.
func (a *App) Serve(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		a.Logger.Warn().Msg("database.dsn not configured; event archive disabled")
	}
	if closeStore != nil {
		defer closeStore()
	}

	var wg sync.WaitGroup

	var hook func(monitoring.MonitoringEvent)
	var archiver *storage.Archiver
	if store != nil {
		archiver = storage.NewArchiver(store, a.Config.Database.ArchiveBuffer, a.Logger)
		hook = archiver.Enqueue

		wg.Add(1)
		go func() {
			defer wg.Done()
			archiver.Run(ctx)
		}()
	}

	monitor := monitoring.NewService(a.monitoringOptions(hook), a.Logger)
	reporter := reporting.NewService(monitor, a.Logger)
	notifier := a.newNotifier()
	if notifier == nil {
		a.Logger.Warn().Msg("no alert channels configured; report notifications disabled")
	}

	if a.Config.Reporting.DailyEnabled || a.Config.Reporting.WeeklyEnabled {
		backups := a.newBackupService(monitor)
		sched := scheduler.New(scheduler.Options{
			Interval:     a.Config.Reporting.Interval,
			AlignToStart: a.Config.Reporting.AlignToBucket,
			StartupDelay: a.Config.Reporting.StartupDelay,
		}, a.Logger)

		job := a.newReportJob(monitor, reporter, notifier, store, backups)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := sched.Run(ctx, job); err != nil && !errors.Is(err, context.Canceled) {
				a.Logger.Error().Err(err).Msg("report scheduler terminated with error")
			}
		}()
	}

	handler := api.NewHandler(monitor, reporter, a.Logger)
	server := api.NewServer(api.Options{
		Addr:            a.Config.Server.Addr,
		ReadTimeout:     a.Config.Server.ReadTimeout,
		WriteTimeout:    a.Config.Server.WriteTimeout,
		ShutdownTimeout: a.Config.Server.ShutdownTimeout,
	}, handler, a.Logger)

	a.Logger.Info().Msg("starting automation monitor")
	err = server.Run(ctx)
	cancel()
	wg.Wait()

	if archiver != nil && archiver.Dropped() > 0 {
		a.Logger.Warn().Int64("dropped", archiver.Dropped()).Msg("events dropped before archiving")
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("automation monitor terminated with error")
		return err
	}

	a.Logger.Info().Msg("automation monitor stopped")
	return nil
}

// ExportOptions hold parameters for exporting archived events.
type ExportOptions struct {
	MetricID  string
	From      *time.Time
	To        *time.Time
	PNGPath   string
	CSVPath   string
	MaxPoints int
}

// ShowOptions configure the show command.
type ShowOptions struct {
	Limit int
}

// SimulateOptions configure the emergency drill.
type SimulateOptions struct {
	HealthFactor  float64
	LatencySec    float64
	PriceChange   float64
	WithEmergency bool
}
