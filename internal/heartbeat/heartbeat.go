// Package heartbeat posts periodic status summaries on a cron schedule so a
// quiet channel still shows the bot is alive.
package heartbeat

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"boostbot/internal/monitor"
	"boostbot/internal/notifier"
	"boostbot/internal/transport"
	logx "boostbot/pkg/logx"
)

// scheduleParser accepts both 5-field and 6-field (leading seconds) specs
// plus descriptors like @daily and @every.
var scheduleParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// ValidateSchedule reports whether spec parses. Used at config load so a typo
// fails startup instead of silently never firing.
func ValidateSchedule(spec string) error {
	_, err := scheduleParser.Parse(spec)
	return err
}

type Config struct {
	Enabled  bool
	Schedule string // cron spec, e.g. "0 9 * * *"
	Timezone string // IANA name; empty means local time
	Target   transport.ChatTarget
	Silent   bool // deliver without notification sound
}

// StatusSource provides the snapshot rendered into each heartbeat.
type StatusSource interface {
	Status() monitor.Status
}

// Sink accepts the rendered heartbeat for delivery.
type Sink interface {
	Notify(ctx context.Context, n notifier.Notification) error
}

type Service struct {
	cfg  Config
	log  logx.Logger
	src  StatusSource
	sink Sink

	mu      sync.Mutex
	c       *cron.Cron
	started bool
}

func New(cfg Config, src StatusSource, sink Sink, log logx.Logger) *Service {
	return &Service{cfg: cfg, log: log, src: src, sink: sink}
}

func (s *Service) Enabled() bool { return s.cfg.Enabled }

// Start registers the schedule and starts the cron runner. Disabled or
// already-started services return immediately.
func (s *Service) Start(ctx context.Context) error {
	if !s.cfg.Enabled {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}

	c := cron.New(cron.WithParser(scheduleParser), cron.WithLocation(s.location()))
	_, err := c.AddFunc(s.cfg.Schedule, func() { s.fire(ctx) })
	if err != nil {
		return err
	}
	c.Start()
	s.c = c
	s.started = true

	s.log.Info("heartbeat started",
		logx.String("schedule", s.cfg.Schedule),
		logx.String("tz", s.location().String()),
		logx.Int64("chat_id", s.cfg.Target.ChatID),
	)
	return nil
}

// Stop halts the runner and waits for an in-flight job, bounded by ctx.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	c := s.c
	s.c = nil
	s.started = false
	s.mu.Unlock()
	if c == nil {
		return nil
	}
	select {
	case <-c.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Next returns the time of the next scheduled beat, zero when not running.
func (s *Service) Next() time.Time {
	s.mu.Lock()
	c := s.c
	s.mu.Unlock()
	if c == nil {
		return time.Time{}
	}
	entries := c.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

func (s *Service) fire(ctx context.Context) {
	if s.src == nil || s.sink == nil {
		return
	}
	jctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	text := monitor.StatusMessage(s.src.Status())
	err := s.sink.Notify(jctx, notifier.Notification{
		Target: s.cfg.Target,
		Text:   text,
		Kind:   notifier.KindStatus,
		Silent: s.cfg.Silent,
	})
	if err != nil {
		s.log.Warn("heartbeat not queued", logx.Err(err))
		return
	}
	s.log.Debug("heartbeat queued")
}

func (s *Service) location() *time.Location {
	tz := strings.TrimSpace(s.cfg.Timezone)
	if tz == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		s.log.Warn("invalid timezone, using local time", logx.String("tz", tz), logx.Err(err))
		return time.Local
	}
	return loc
}
