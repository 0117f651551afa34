package notifier

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"boostbot/internal/eventbus"
	rtsup "boostbot/internal/runtime/supervisor"
	"boostbot/internal/storage"
	"boostbot/internal/transport"
	logx "boostbot/pkg/logx"
)

var (
	ErrDisabled  = errors.New("notifier disabled")
	ErrQueueFull = errors.New("notifier queue full")
	ErrStopped   = errors.New("notifier stopped")
)

const (
	// sendTimeout bounds one delivery attempt so a stuck call cannot hold a
	// worker forever.
	sendTimeout = 10 * time.Second

	// auditTimeout bounds the post-send audit write. The audit log is
	// best-effort and must never slow delivery down.
	auditTimeout = 250 * time.Millisecond

	// historyCap bounds the in-memory delivery history served by Snapshot.
	historyCap = 300
)

// Service delivers notifications asynchronously: Notify enqueues without
// blocking, a worker pool sends under a shared rate limit, and Stop drains
// whatever is still queued.
//
// The service runs once per process: after Stop it stays stopped.
type Service struct {
	log     logx.Logger
	adapter transport.Adapter
	bus     eventbus.Bus
	store   storage.Store
	cfg     Config
	limiter *rate.Limiter

	mu        sync.Mutex
	queue     chan Notification
	sup       *rtsup.Supervisor
	accepting bool
	stopped   bool
	intake    sync.WaitGroup // Notify calls between the accept check and the enqueue

	hmu     sync.Mutex
	history []HistoryItem
}

// New builds the service. The bus and store may be nil (events and the audit
// log are then disabled). Zero or negative Config values fall back to defaults.
func New(cfg Config, adapter transport.Adapter, log logx.Logger, bus eventbus.Bus, store storage.Store) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = 1
	}
	return &Service{
		log:     log,
		adapter: adapter,
		bus:     bus,
		store:   store,
		cfg:     cfg,
		// Burst equals the per-second rate, so a fresh limiter absorbs one
		// second of traffic before it starts throttling.
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.RatePerSec),
	}
}

// Enabled reports whether the pipeline accepts work at all.
func (s *Service) Enabled() bool { return s.cfg.Enabled }

// QueueDepth reports how many notifications are waiting for a worker.
func (s *Service) QueueDepth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.queue == nil {
		return 0
	}
	return len(s.queue)
}

// Start launches the worker pool. Repeated calls are no-ops, as is starting
// a disabled or already stopped service.
func (s *Service) Start(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.queue != nil || s.stopped || !s.cfg.Enabled {
		return
	}

	s.queue = make(chan Notification, s.cfg.QueueSize)
	s.accepting = true
	s.sup = rtsup.NewSupervisor(ctx,
		rtsup.WithLogger(s.log),
		// Delivery is best-effort; a broken worker never takes the app down.
		rtsup.WithCancelOnError(false),
	)

	q := s.queue
	for i := 0; i < s.cfg.Workers; i++ {
		s.sup.GoRestart(fmt.Sprintf("worker.%d", i), func(c context.Context) error {
			return s.runWorker(c, q)
		}, rtsup.WithPublishFirstError(true))
	}
}

// Stop closes intake and drains the queue, bounded by ctx. Notifications
// still queued when ctx expires are dropped.
func (s *Service) Stop(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}

	s.mu.Lock()
	if s.queue == nil || s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	s.accepting = false
	q, sup := s.queue, s.sup
	s.mu.Unlock()

	// Wait out Notify calls already past the accept check, then close the
	// queue so workers exit once it runs dry.
	s.intake.Wait()
	close(q)

	drained := make(chan struct{})
	go func() {
		defer close(drained)
		_ = sup.Wait(context.Background())
	}()
	select {
	case <-drained:
	case <-ctx.Done():
		// Out of time: cancel the workers and abandon the rest of the queue.
		sup.Cancel()
		<-drained
	}
}

// Notify enqueues n without blocking. ErrQueueFull means the queue had no
// room; the caller decides whether that matters.
func (s *Service) Notify(ctx context.Context, n Notification) error {
	if ctx != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	if !s.cfg.Enabled {
		return ErrDisabled
	}

	s.mu.Lock()
	if !s.accepting {
		s.mu.Unlock()
		return ErrStopped
	}
	q := s.queue
	s.intake.Add(1)
	s.mu.Unlock()
	defer s.intake.Done()

	s.publish(eventbus.TopicNotifyQueued, eventOf(n))
	select {
	case q <- n:
		return nil
	default:
		ev := eventOf(n)
		ev.Error = ErrQueueFull.Error()
		s.publish(eventbus.TopicNotifyDropped, ev)
		return ErrQueueFull
	}
}

// Snapshot returns a copy of the recent delivery history.
func (s *Service) Snapshot() []HistoryItem {
	s.hmu.Lock()
	defer s.hmu.Unlock()
	return append([]HistoryItem(nil), s.history...)
}

// runWorker consumes the queue until it is closed or the context ends.
func (s *Service) runWorker(ctx context.Context, q <-chan Notification) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case n, ok := <-q:
			if !ok {
				// Only Stop closes the queue; report a clean exit.
				return context.Canceled
			}
			s.deliver(ctx, n)
		}
	}
}

// deliver sends one notification. One attempt only: a failure is published
// and the notification is gone.
func (s *Service) deliver(ctx context.Context, n Notification) {
	if s.adapter == nil || n.Text == "" {
		return
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return
	}

	sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	_, err := s.adapter.SendText(sendCtx, n.Target, n.Text, &transport.SendOptions{
		ParseMode:      "HTML",
		DisablePreview: true,
		Silent:         n.Silent,
	})
	cancel()

	if err != nil {
		s.log.Warn("notify send failed", logx.Err(err),
			logx.String("kind", n.Kind), logx.String("key", n.Key))
		ev := eventOf(n)
		ev.Error = err.Error()
		s.publish(eventbus.TopicNotifyFailed, ev)
		return
	}

	s.remember(n)
	ev := eventOf(n)
	ev.Chars = len(n.Text)
	s.publish(eventbus.TopicNotifySent, ev)
	s.audit(n)
}

// remember appends to the bounded in-memory history.
func (s *Service) remember(n Notification) {
	s.hmu.Lock()
	s.history = append(s.history, HistoryItem{At: time.Now(), Kind: n.Kind, Key: n.Key})
	if over := len(s.history) - historyCap; over > 0 {
		s.history = s.history[over:]
	}
	s.hmu.Unlock()
}

// audit appends to the delivery log. Failures are logged and swallowed.
func (s *Service) audit(n Notification) {
	if s.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), auditTimeout)
	defer cancel()
	err := s.store.Append(ctx, storage.Entry{
		At:     time.Now(),
		Kind:   n.Kind,
		Key:    n.Key,
		ChatID: n.Target.ChatID,
		Chars:  len(n.Text),
	})
	if err != nil {
		s.log.Warn("audit append failed", logx.Err(err), logx.String("kind", n.Kind))
	}
}

// eventOf seeds a bus payload from a notification. At is stamped by publish.
func eventOf(n Notification) NotificationEvent {
	return NotificationEvent{
		ChatID:   n.Target.ChatID,
		ThreadID: n.Target.ThreadID,
		Kind:     n.Kind,
		Key:      n.Key,
	}
}

func (s *Service) publish(topic string, ev NotificationEvent) {
	if s.bus == nil {
		return
	}
	now := time.Now()
	ev.At = now
	s.bus.Publish(eventbus.Event{Type: topic, Time: now, Data: ev})
}
