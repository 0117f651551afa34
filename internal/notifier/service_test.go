package notifier

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"boostbot/internal/eventbus"
	"boostbot/internal/storage"
	"boostbot/internal/transport"
	logx "boostbot/pkg/logx"
)

type sentMsg struct {
	to   transport.ChatTarget
	text string
	opt  transport.SendOptions
}

// fakeAdapter records sends. When gate is non-nil, SendText signals started
// and then blocks until gate is closed, so tests can hold a worker mid-send.
type fakeAdapter struct {
	mu      sync.Mutex
	sent    []sentMsg
	err     error
	gate    chan struct{}
	started chan struct{}
}

func (f *fakeAdapter) Start(context.Context, chan<- transport.Update) error { return nil }
func (f *fakeAdapter) Stop(context.Context) error                           { return nil }

func (f *fakeAdapter) SendText(ctx context.Context, to transport.ChatTarget, text string, opt *transport.SendOptions) (transport.MessageRef, error) {
	if f.started != nil {
		select {
		case f.started <- struct{}{}:
		default:
		}
	}
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return transport.MessageRef{}, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return transport.MessageRef{}, f.err
	}
	var o transport.SendOptions
	if opt != nil {
		o = *opt
	}
	f.sent = append(f.sent, sentMsg{to: to, text: text, opt: o})
	return transport.MessageRef{ChatID: to.ChatID, MessageID: len(f.sent)}, nil
}

func (f *fakeAdapter) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func (f *fakeAdapter) last() sentMsg {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sent[len(f.sent)-1]
}

type fakeStore struct {
	mu      sync.Mutex
	entries []storage.Entry
}

func (f *fakeStore) Append(_ context.Context, e storage.Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, e)
	return nil
}

func (f *fakeStore) Close() error { return nil }

func (f *fakeStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}

func (f *fakeStore) first() storage.Entry {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.entries[0]
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func fastConfig() Config {
	return Config{Enabled: true, Workers: 1, QueueSize: 8, RatePerSec: 100}
}

func TestNotifyDisabled(t *testing.T) {
	t.Parallel()

	s := New(Config{Enabled: false}, &fakeAdapter{}, logx.Nop(), nil, nil)
	err := s.Notify(context.Background(), Notification{Text: "x"})
	if !errors.Is(err, ErrDisabled) {
		t.Fatalf("err = %v, want ErrDisabled", err)
	}
}

func TestNotifyBeforeStart(t *testing.T) {
	t.Parallel()

	s := New(fastConfig(), &fakeAdapter{}, logx.Nop(), nil, nil)
	err := s.Notify(context.Background(), Notification{Text: "x"})
	if !errors.Is(err, ErrStopped) {
		t.Fatalf("err = %v, want ErrStopped", err)
	}
}

func TestDeliver(t *testing.T) {
	t.Parallel()

	ad := &fakeAdapter{}
	s := New(fastConfig(), ad, logx.Nop(), nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)
	defer s.Stop(context.Background())

	n := Notification{
		Target: transport.ChatTarget{ChatID: -42},
		Text:   "hello",
		Kind:   KindBoost,
		Key:    "solana_abc",
		Silent: true,
	}
	if err := s.Notify(ctx, n); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	waitFor(t, "delivery", func() bool { return ad.count() == 1 })

	got := ad.last()
	if got.to.ChatID != -42 {
		t.Errorf("ChatID = %d, want -42", got.to.ChatID)
	}
	if got.text != "hello" {
		t.Errorf("text = %q", got.text)
	}
	if got.opt.ParseMode != "HTML" {
		t.Errorf("ParseMode = %q, want HTML", got.opt.ParseMode)
	}
	if !got.opt.DisablePreview {
		t.Error("DisablePreview should be set")
	}
	if !got.opt.Silent {
		t.Error("Silent flag not propagated")
	}

	waitFor(t, "history", func() bool { return len(s.Snapshot()) == 1 })
	h := s.Snapshot()[0]
	if h.Kind != KindBoost || h.Key != "solana_abc" {
		t.Errorf("history = %+v", h)
	}
}

func TestQueueFull(t *testing.T) {
	t.Parallel()

	ad := &fakeAdapter{
		gate:    make(chan struct{}),
		started: make(chan struct{}, 4),
	}
	cfg := fastConfig()
	cfg.QueueSize = 1
	s := New(cfg, ad, logx.Nop(), nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)
	defer s.Stop(context.Background())

	// First notification is picked up by the worker and held mid-send.
	if err := s.Notify(ctx, Notification{Text: "a"}); err != nil {
		t.Fatalf("Notify a: %v", err)
	}
	select {
	case <-ad.started:
	case <-time.After(2 * time.Second):
		t.Fatal("worker never picked up first notification")
	}

	// Second fills the single queue slot; third has nowhere to go.
	if err := s.Notify(ctx, Notification{Text: "b"}); err != nil {
		t.Fatalf("Notify b: %v", err)
	}
	if err := s.Notify(ctx, Notification{Text: "c"}); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("Notify c = %v, want ErrQueueFull", err)
	}

	close(ad.gate)
	waitFor(t, "queued sends", func() bool { return ad.count() == 2 })
}

func TestStopDrainsQueue(t *testing.T) {
	t.Parallel()

	ad := &fakeAdapter{}
	s := New(fastConfig(), ad, logx.Nop(), nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)

	for i := 0; i < 3; i++ {
		if err := s.Notify(ctx, Notification{Text: "queued", Kind: KindStatus}); err != nil {
			t.Fatalf("Notify %d: %v", i, err)
		}
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer stopCancel()
	s.Stop(stopCtx)

	if got := ad.count(); got != 3 {
		t.Errorf("delivered %d, want 3 (queue should drain on stop)", got)
	}

	err := s.Notify(context.Background(), Notification{Text: "late"})
	if !errors.Is(err, ErrStopped) {
		t.Errorf("Notify after stop = %v, want ErrStopped", err)
	}
}

func TestFailedSendNotRecorded(t *testing.T) {
	t.Parallel()

	ad := &fakeAdapter{err: errors.New("telegram: 403")}
	bus := eventbus.New()
	events, unsub := bus.Subscribe(16)
	defer unsub()

	s := New(fastConfig(), ad, logx.Nop(), bus, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)
	defer s.Stop(context.Background())

	if err := s.Notify(ctx, Notification{Text: "x", Kind: KindBoost, Key: "k"}); err != nil {
		t.Fatalf("Notify: %v", err)
	}

	var failed bool
	deadline := time.After(2 * time.Second)
	for !failed {
		select {
		case e := <-events:
			if e.Type == eventbus.TopicNotifyFailed {
				failed = true
			}
		case <-deadline:
			t.Fatal("failed event never published")
		}
	}
	if len(s.Snapshot()) != 0 {
		t.Error("failed send must not enter delivery history")
	}
}

func TestSentEventPublished(t *testing.T) {
	t.Parallel()

	ad := &fakeAdapter{}
	bus := eventbus.New()
	events, unsub := bus.Subscribe(16)
	defer unsub()

	s := New(fastConfig(), ad, logx.Nop(), bus, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)
	defer s.Stop(context.Background())

	if err := s.Notify(ctx, Notification{Target: transport.ChatTarget{ChatID: 7}, Text: "hey", Kind: KindStatus}); err != nil {
		t.Fatalf("Notify: %v", err)
	}

	seen := map[string]bool{}
	deadline := time.After(2 * time.Second)
	for !seen[eventbus.TopicNotifySent] {
		select {
		case e := <-events:
			seen[e.Type] = true
			if e.Type == eventbus.TopicNotifySent {
				ev, ok := e.Data.(NotificationEvent)
				if !ok {
					t.Fatalf("sent event data = %T", e.Data)
				}
				if ev.ChatID != 7 || ev.Chars != len("hey") {
					t.Errorf("sent event = %+v", ev)
				}
			}
		case <-deadline:
			t.Fatalf("sent event never published; saw %v", seen)
		}
	}
	if !seen[eventbus.TopicNotifyQueued] {
		t.Error("queued event should precede the sent event")
	}
}

func TestAuditEntryWritten(t *testing.T) {
	t.Parallel()

	ad := &fakeAdapter{}
	st := &fakeStore{}
	s := New(fastConfig(), ad, logx.Nop(), nil, st)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)
	defer s.Stop(context.Background())

	n := Notification{
		Target: transport.ChatTarget{ChatID: 99},
		Text:   "audited",
		Kind:   KindBoost,
		Key:    "bsc_0xdead",
	}
	if err := s.Notify(ctx, n); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	waitFor(t, "audit entry", func() bool { return st.count() == 1 })

	e := st.first()
	if e.Kind != KindBoost || e.Key != "bsc_0xdead" || e.ChatID != 99 {
		t.Errorf("entry = %+v", e)
	}
	if e.Chars != len("audited") {
		t.Errorf("Chars = %d, want %d", e.Chars, len("audited"))
	}
}

func TestConfigDefaults(t *testing.T) {
	t.Parallel()

	s := New(Config{Enabled: true}, &fakeAdapter{}, logx.Nop(), nil, nil)
	if s.cfg.Workers != 2 || s.cfg.QueueSize != 256 || s.cfg.RatePerSec != 1 {
		t.Errorf("defaults = %+v", s.cfg)
	}
}
