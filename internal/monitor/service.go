package monitor

import (
	"context"
	"sync"
	"time"

	"boostbot/internal/dexscreener"
	"boostbot/internal/eventbus"
	"boostbot/internal/notifier"
	rtsup "boostbot/internal/runtime/supervisor"
	"boostbot/internal/transport"
	logx "boostbot/pkg/logx"
)

// BoostSource is the slice of the DexScreener client the monitor consumes.
type BoostSource interface {
	LatestBoosts(ctx context.Context) ([]dexscreener.Boost, error)
	TokenMetrics(ctx context.Context, chainID, tokenAddress string) (*dexscreener.TokenMetrics, error)
}

// Sink accepts rendered notifications for asynchronous delivery.
type Sink interface {
	Notify(ctx context.Context, n notifier.Notification) error
}

// Config is fixed at process start; changing it requires a restart.
type Config struct {
	// Interval is the pause between poll cycles. Defaults to one minute,
	// which stays inside the public API rate limit.
	Interval time.Duration

	// Target is the chat that receives boost notifications.
	Target transport.ChatTarget
}

// Status is a point-in-time snapshot for /status and /health.
type Status struct {
	LastCheck    time.Time     `json:"last_check"`
	KnownBoosts  int           `json:"known_boosts"`
	Interval     time.Duration `json:"interval"`
	CyclesOK     uint64        `json:"cycles_ok"`
	CyclesFailed uint64        `json:"cycles_failed"`
	Notified     uint64        `json:"notified"`
}

// BoostEvent is the bus payload published once per newly detected boost.
type BoostEvent struct {
	Key          string  `json:"key"`
	ChainID      string  `json:"chain_id"`
	TokenAddress string  `json:"token_address"`
	Amount       float64 `json:"amount"`
	TotalAmount  float64 `json:"total_amount"`
	HasMetrics   bool    `json:"has_metrics"`
}

// Service runs the poll loop. One instance per process.
type Service struct {
	log  logx.Logger
	src  BoostSource
	sink Sink
	bus  eventbus.Bus
	cfg  Config

	seen *SeenSet

	mu           sync.Mutex
	started      bool
	sup          *rtsup.Supervisor
	lastCheck    time.Time
	cyclesOK     uint64
	cyclesFailed uint64
	notified     uint64
}

func New(cfg Config, src BoostSource, sink Sink, log logx.Logger, bus eventbus.Bus) *Service {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	return &Service{
		log:  log,
		src:  src,
		sink: sink,
		bus:  bus,
		cfg:  cfg,
		seen: NewSeenSet(),
	}
}

// Start launches the poll loop. Safe to call once; repeated calls are no-ops.
func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.sup = rtsup.NewSupervisor(ctx, rtsup.WithLogger(s.log))
	sup := s.sup
	s.mu.Unlock()

	s.log.Info("monitor starting",
		logx.Duration("interval", s.cfg.Interval),
		logx.Int64("chat_id", s.cfg.Target.ChatID),
	)
	sup.GoRestart0("monitor.loop", s.loop,
		rtsup.WithRestartBackoff(500*time.Millisecond, 10*time.Second),
	)
}

// Stop cancels the loop and waits for it to exit (bounded by ctx).
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	sup := s.sup
	s.sup = nil
	s.started = false
	s.mu.Unlock()
	if sup == nil {
		return nil
	}
	return sup.Stop(ctx)
}

// Status returns a snapshot of loop state.
func (s *Service) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{
		LastCheck:    s.lastCheck,
		KnownBoosts:  s.seen.Len(),
		Interval:     s.cfg.Interval,
		CyclesOK:     s.cyclesOK,
		CyclesFailed: s.cyclesFailed,
		Notified:     s.notified,
	}
}

// loop runs the first cycle immediately so a fresh start reports promptly,
// then settles into the configured interval.
func (s *Service) loop(ctx context.Context) {
	s.runCycle(ctx)

	t := time.NewTicker(s.cfg.Interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.runCycle(ctx)
		}
	}
}

// runCycle performs one poll pass. A pass counts as successful only when the
// feed fetch and the full walk over its entries complete; per-boost failures
// (metrics fetch, enqueue) are logged and do not fail the pass.
func (s *Service) runCycle(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("poll cycle panicked",
				logx.Any("panic", r),
				logx.String("stack", logx.StackTrace(3, 32)),
			)
			s.markCycle(false)
		}
	}()

	boosts, err := s.src.LatestBoosts(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		s.log.Error("fetch boosts failed", logx.Err(err))
		s.markCycle(false)
		return
	}

	fresh := 0
	for _, b := range boosts {
		// Claim the key before any delivery work: a boost gets one
		// notification attempt ever, even if that attempt fails.
		if !s.seen.Add(b.Key()) {
			continue
		}
		fresh++
		s.handleBoost(ctx, b)
	}

	s.markCycle(true)
	s.log.Debug("poll cycle complete",
		logx.Int("boosts", len(boosts)),
		logx.Int("new", fresh),
		logx.Int("known", s.seen.Len()),
	)
}

func (s *Service) handleBoost(ctx context.Context, b dexscreener.Boost) {
	key := b.Key()
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("boost handling panicked",
				logx.String("key", key),
				logx.Any("panic", r),
				logx.String("stack", logx.StackTrace(3, 32)),
			)
		}
	}()

	metrics, err := s.src.TokenMetrics(ctx, b.ChainID, b.TokenAddress)
	if err != nil {
		s.log.Warn("token metrics unavailable, sending reduced card",
			logx.String("key", key), logx.Err(err))
		metrics = nil
	}

	if s.bus != nil {
		s.bus.Publish(eventbus.Event{Type: eventbus.TopicBoost, Data: BoostEvent{
			Key:          key,
			ChainID:      b.ChainID,
			TokenAddress: b.TokenAddress,
			Amount:       b.Amount,
			TotalAmount:  b.TotalAmount,
			HasMetrics:   metrics != nil,
		}})
	}

	s.log.Info("new boost detected",
		logx.String("key", key),
		logx.Float64("amount", b.Amount),
		logx.Float64("total", b.TotalAmount),
		logx.Bool("metrics", metrics != nil),
	)

	if s.sink == nil {
		return
	}
	err = s.sink.Notify(ctx, notifier.Notification{
		Target: s.cfg.Target,
		Text:   BoostMessage(b, metrics),
		Kind:   notifier.KindBoost,
		Key:    key,
	})
	if err != nil {
		s.log.Warn("boost notification not queued", logx.String("key", key), logx.Err(err))
		return
	}
	s.mu.Lock()
	s.notified++
	s.mu.Unlock()
}

func (s *Service) markCycle(ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ok {
		s.cyclesOK++
		s.lastCheck = time.Now()
		return
	}
	s.cyclesFailed++
}
