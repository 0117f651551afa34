// Package app wires configuration, transport, monitoring, and delivery into
// one process and owns its lifecycle.
package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"boostbot/internal/commands"
	"boostbot/internal/config"
	"boostbot/internal/dexscreener"
	"boostbot/internal/eventbus"
	"boostbot/internal/heartbeat"
	"boostbot/internal/monitor"
	"boostbot/internal/notifier"
	"boostbot/internal/observability/pprof"
	rtsup "boostbot/internal/runtime/supervisor"
	"boostbot/internal/storage"
	"boostbot/internal/transport"
	"boostbot/internal/transport/telegram"
	logx "boostbot/pkg/logx"
)

// App owns every long-lived component and the order they start and stop in.
type App struct {
	cfgPath string
	cfgm    *config.ConfigManager
	sup     *rtsup.Supervisor

	log  logx.Logger
	logs *logx.Service

	bus     eventbus.Bus
	store   storage.Store
	adapter transport.Adapter
	target  transport.ChatTarget
	updates chan transport.Update

	feed  *dexscreener.Client
	mon   *monitor.Service
	notif *notifier.Service
	beat  *heartbeat.Service
	dbg   *pprof.Service

	reg  *commands.Registry
	serv *commands.Services
}

func New(cfgPath string) (*App, error) {
	cfgm := config.NewConfigManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}
	// Environment wins over the file for secrets, on first load and on
	// every reload (the validator re-applies it).
	config.ApplyEnvOverrides(cfg)
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	a := &App{
		cfgPath: cfgPath,
		cfgm:    cfgm,
		updates: make(chan transport.Update, 256),
	}
	if err := a.build(cfg); err != nil {
		return nil, err
	}
	return a, nil
}

// build constructs every component from a validated config. The adapter is
// built before the log service so early poll errors are still visible on a
// console logger.
func (a *App) build(cfg *config.Config) error {
	target, err := parseChatTarget(cfg)
	if err != nil {
		return err
	}
	a.target = target

	pollTimeout, err := config.ParseDurationOrDefault("telegram.poll_timeout", cfg.Telegram.PollTimeout, 10*time.Second)
	if err != nil {
		return err
	}
	bootLog := logx.NewConsole("INFO").With(logx.String("comp", "telegram"))
	a.adapter, err = telegram.New(telegram.Config{
		Token:       cfg.Telegram.Token,
		PollTimeout: pollTimeout,
	}, bootLog)
	if err != nil {
		return err
	}

	a.logs, a.log = logx.New(logConfig(cfg))
	a.log = a.log.With(logx.String("comp", "app"))
	a.bus = eventbus.New()

	if err := a.openStore(cfg); err != nil {
		return err
	}

	mcfg, dcfg, err := mapMonitorConfig(cfg, target)
	if err != nil {
		return err
	}
	a.feed = dexscreener.NewClient(dcfg, a.log.With(logx.String("comp", "dexscreener")))

	a.notif = notifier.New(mapNotifierConfig(cfg), a.adapter,
		a.log.With(logx.String("comp", "notifier")), a.bus, a.store)

	a.mon = monitor.New(mcfg, a.feed, a.notif,
		a.log.With(logx.String("comp", "monitor")), a.bus)

	a.beat = heartbeat.New(heartbeat.Config{
		Enabled:  cfg.Heartbeat.Enabled,
		Schedule: cfg.Heartbeat.Schedule,
		Timezone: cfg.Heartbeat.Timezone,
		Target:   target,
		// Heartbeats are routine; they must not ping the chat.
		Silent: true,
	}, a.mon, a.notif, a.log.With(logx.String("comp", "heartbeat")))

	a.dbg = pprof.New(mapPprofConfig(cfg), a.log.With(logx.String("comp", "pprof")))

	a.serv = &commands.Services{
		Monitor:   a.mon,
		Notifier:  a.notif,
		StartedAt: time.Now(),
	}
	a.reg = commands.NewRegistry(a.log.With(logx.String("comp", "commands")), a.adapter, a.serv)
	a.reg.SetCommands(commands.BuiltinCommands())
	return nil
}

// openStore opens the optional audit store named by the config.
func (a *App) openStore(cfg *config.Config) error {
	sc, enabled, err := mapStorageConfig(cfg)
	if err != nil {
		return err
	}
	if !enabled {
		return nil
	}
	st, err := storage.Open(sc, a.log.With(logx.String("comp", "storage")))
	if err != nil {
		return err
	}
	a.store = st
	a.log.Info("audit storage enabled", logx.String("driver", sc.Driver))
	return nil
}

// logConfig maps the logging section onto the log service config.
func logConfig(cfg *config.Config) logx.Config {
	return logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		JSON:    cfg.Logging.JSON,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	}
}

var closedChan = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

// Done is closed when the app supervisor context ends (fatal error or Stop).
func (a *App) Done() <-chan struct{} {
	if a.sup == nil {
		return closedChan
	}
	return a.sup.Context().Done()
}

// Err returns the first fatal error observed by the supervisor (if any).
func (a *App) Err() error {
	if a.sup == nil {
		return nil
	}
	return a.sup.Err()
}

func (a *App) Start(ctx context.Context) error {
	a.sup = rtsup.NewSupervisor(ctx, rtsup.WithLogger(a.log), rtsup.WithCancelOnError(true))

	// Transactional hot reload: a candidate config is validated before it
	// is committed or published, so a broken edit never replaces a working
	// one.
	a.cfgm.SetLogger(a.log.With(logx.String("comp", "config")))
	a.cfgm.SetValidator(func(_ context.Context, cfg *config.Config) error {
		config.ApplyEnvOverrides(cfg)
		return validateConfig(cfg)
	})

	if err := a.adapter.Start(a.sup.Context(), a.updates); err != nil {
		return err
	}
	if a.notif.Enabled() {
		a.notif.Start(a.sup.Context())
	}
	a.mon.Start(a.sup.Context())
	if a.beat.Enabled() {
		if err := a.beat.Start(a.sup.Context()); err != nil {
			return err
		}
	}
	if a.dbg.Enabled() {
		a.dbg.Start(a.sup.Context())
	}

	a.sup.Go("commands.dispatch", func(c context.Context) error {
		return a.reg.DispatchLoop(c, a.updates)
	})
	a.tapBus()
	a.followReloads()
	a.sup.Go("config.watch", a.cfgm.Watch)

	a.greet()

	a.log.Info("app started",
		logx.Int64("chat_id", a.target.ChatID),
		logx.Duration("interval", a.mon.Status().Interval),
	)
	return nil
}

// greet tells the chat the bot is up. Delivery is best-effort like any
// other notification.
func (a *App) greet() {
	if !a.notif.Enabled() {
		return
	}
	err := a.notif.Notify(a.sup.Context(), notifier.Notification{
		Target: a.target,
		Text:   monitor.GreetingMessage(),
		Kind:   notifier.KindGreeting,
	})
	if err != nil {
		a.log.Warn("greeting not queued", logx.Err(err))
	}
}

// tapBus logs every bus event at debug level. Components publish; this is
// the only generic subscriber.
func (a *App) tapBus() {
	if a.bus == nil {
		return
	}
	events, unsub := a.bus.Subscribe(128)
	a.sup.Go0("eventbus.log", func(c context.Context) {
		defer unsub()
		for {
			select {
			case <-c.Done():
				return
			case e, ok := <-events:
				if !ok {
					return
				}
				a.log.Debug("event", logx.String("type", e.Type), logx.Time("time", e.Time))
			}
		}
	})
}

// followReloads consumes validated configs from the manager. Only logging
// applies live; any other changed section warns that a restart is needed.
func (a *App) followReloads() {
	sub := a.cfgm.Subscribe(8)
	a.sup.Go0("config.reload", func(c context.Context) {
		defer a.cfgm.Unsubscribe(sub)
		applied := a.cfgm.Get()
		for {
			select {
			case <-c.Done():
				return
			case next, ok := <-sub:
				if !ok {
					return
				}
				next = latestConfig(sub, next)
				a.applyReload(applied, next)
				applied = next
			}
		}
	})
}

// latestConfig drains sub and returns the newest queued config, so a burst
// of edits is applied once.
func latestConfig(sub <-chan *config.Config, cur *config.Config) *config.Config {
	for {
		select {
		case next := <-sub:
			if next != nil {
				cur = next
			}
		default:
			return cur
		}
	}
}

func (a *App) applyReload(prev, next *config.Config) {
	sections, attrs := config.SummarizeConfigChange(prev, next)
	if len(sections) == 0 {
		a.log.Info("config reloaded (no changes)")
		return
	}

	a.logs.Apply(logConfig(next))
	for _, s := range sections {
		if s != "logging" {
			a.log.Warn("config section changed; restart required to apply",
				logx.String("section", s))
		}
	}

	fields := append([]logx.Field{logx.String("changed", strings.Join(sections, ","))}, attrs...)
	a.log.Info("config reloaded", fields...)
}

func (a *App) Stop(ctx context.Context, reason StopReason) error {
	if a.sup == nil {
		return nil
	}
	a.log.Info("stopping", logx.String("reason", string(reason)))

	// Cancel the run context first so background loops start unwinding.
	a.sup.Cancel()

	// Producers first, then the delivery pipeline (which drains its queue),
	// then the transport underneath it.
	a.runStop(ctx, "heartbeat", time.Second, a.beat.Stop)
	a.runStop(ctx, "monitor", 2*time.Second, a.mon.Stop)
	a.runStop(ctx, "notifier", 3*time.Second, func(c context.Context) error { a.notif.Stop(c); return nil })
	a.runStop(ctx, "adapter", 2*time.Second, a.adapter.Stop)
	a.runStop(ctx, "storage", time.Second, func(c context.Context) error {
		if a.store != nil {
			return a.store.Close()
		}
		return nil
	})
	a.runStop(ctx, "pprof", time.Second, a.dbg.Stop)

	// Finally, supervised goroutines: config watch/reload, dispatcher, bus tap.
	a.runStop(ctx, "supervisor", 2*time.Second, a.sup.Wait)

	a.log.Info("stopped")
	if a.logs != nil {
		a.logs.Close()
	}
	return nil
}

// runStop runs one named shutdown step with its own time budget, so a
// single stalled component cannot hold up the whole stop.
func (a *App) runStop(ctx context.Context, name string, budget time.Duration, fn func(context.Context) error) {
	start := time.Now()
	stepCtx, cancel := stopBudget(ctx, budget)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("panic in stop step %s: %v", name, r)
			}
		}()
		done <- fn(stepCtx)
	}()

	select {
	case err := <-done:
		if err != nil {
			a.log.Warn("stop step error", logx.String("name", name), logx.Err(err))
		}
		a.log.Debug("stop step end", logx.String("name", name), logx.Duration("took", time.Since(start)))
	case <-stepCtx.Done():
		// fn must honor stepCtx; if it doesn't, note the leak and move on.
		a.log.Warn("stop step deadline reached (continuing)",
			logx.String("name", name),
			logx.Duration("elapsed", time.Since(start)),
		)
		go func() {
			err := <-done
			a.log.Debug("stop step finished after deadline",
				logx.String("name", name), logx.Err(err), logx.Duration("took", time.Since(start)))
		}()
	}
}

// stopBudget clamps a per-step budget to the caller's remaining deadline;
// the caller's deadline is never extended.
func stopBudget(ctx context.Context, budget time.Duration) (context.Context, context.CancelFunc) {
	if budget <= 0 {
		return ctx, func() {}
	}
	if dl, ok := ctx.Deadline(); ok {
		if rem := time.Until(dl); rem < budget {
			budget = rem
		}
	}
	if budget <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, budget)
}
