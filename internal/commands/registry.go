package commands

import (
	"context"
	"html"
	"runtime/debug"
	"strconv"
	"strings"
	"sync"
	"time"

	rtsup "boostbot/internal/runtime/supervisor"
	"boostbot/internal/transport"
	logx "boostbot/pkg/logx"
)

const (
	defaultCmdTimeout = 10 * time.Second
	dispatchWorkers   = 2
	jobQueueSize      = 64
)

const unknownCommandReply = "Unknown command. Try /help."

// Registry holds the command table and runs the dispatch loop.
type Registry struct {
	mu    sync.RWMutex
	cmds  map[string]Command
	order []string

	log     logx.Logger
	adapter transport.Adapter
	serv    *Services

	runMu   sync.Mutex
	running bool
	sup     *rtsup.Supervisor

	jobs chan func()
}

func NewRegistry(log logx.Logger, adapter transport.Adapter, serv *Services) *Registry {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Registry{
		cmds:    map[string]Command{},
		log:     log,
		adapter: adapter,
		serv:    serv,
		jobs:    make(chan func(), jobQueueSize),
	}
}

// Supervisor returns the dispatcher's supervisor, nil when not running.
func (r *Registry) Supervisor() *rtsup.Supervisor {
	r.runMu.Lock()
	defer r.runMu.Unlock()
	if !r.running {
		return nil
	}
	return r.sup
}

func (r *Registry) setSupervisor(sup *rtsup.Supervisor, running bool) {
	r.runMu.Lock()
	r.sup = sup
	r.running = running
	r.runMu.Unlock()
}

// SetCommands replaces the command table. /help is always injected so the
// listing reflects whatever ended up registered. Duplicate names keep the
// first registration.
func (r *Registry) SetCommands(cmds []Command) {
	cmds = append(cmds, Command{
		Name:        "help",
		Description: "List available commands",
		Usage:       "/help",
		Handle: func(ctx context.Context, req *Request) error {
			_, err := req.Adapter.SendText(ctx, req.Chat, r.helpText(),
				&transport.SendOptions{ParseMode: "HTML", DisablePreview: true})
			return err
		},
	})

	table := make(map[string]Command, len(cmds))
	order := make([]string, 0, len(cmds))
	for _, c := range cmds {
		name := strings.ToLower(strings.TrimSpace(c.Name))
		if name == "" || strings.Contains(name, " ") || c.Handle == nil {
			continue
		}
		if _, dup := table[name]; dup {
			continue
		}
		table[name] = c
		order = append(order, name)
	}

	r.mu.Lock()
	r.cmds = table
	r.order = order
	r.mu.Unlock()

	// Best-effort Telegram menu autocomplete update, never blocks callers.
	if up, ok := r.adapter.(transport.CommandMenuUpdater); ok {
		menu := make([]transport.BotCommand, 0, len(order))
		for _, name := range order {
			desc := strings.TrimSpace(table[name].Description)
			if desc == "" {
				desc = name
			}
			menu = append(menu, transport.BotCommand{Command: name, Description: desc})
		}
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = up.UpdateMenuCommands(ctx, menu)
		}()
	}
}

func (r *Registry) helpText() string {
	r.mu.RLock()
	order := append([]string(nil), r.order...)
	table := r.cmds
	r.mu.RUnlock()

	lines := make([]string, 0, len(order)+1)
	lines = append(lines, "📚 <b>Commands</b>")
	for _, name := range order {
		row := "• <code>/" + html.EscapeString(name) + "</code>"
		if d := strings.TrimSpace(table[name].Description); d != "" {
			row += " — " + html.EscapeString(d)
		}
		lines = append(lines, row)
	}
	return strings.Join(lines, "\n")
}

// tryEnqueue is panic-safe: the jobs channel may already be closed when a
// late update races dispatcher shutdown.
func (r *Registry) tryEnqueue(fn func()) (ok bool) {
	if fn == nil {
		return false
	}
	defer func() {
		if rec := recover(); rec != nil {
			ok = false
		}
	}()
	select {
	case r.jobs <- fn:
		return true
	default:
		return false
	}
}

// DispatchLoop consumes updates until ctx is canceled or the channel closes.
// It blocks; run it under the app supervisor.
func (r *Registry) DispatchLoop(ctx context.Context, updates <-chan transport.Update) error {
	sup := rtsup.NewSupervisor(ctx,
		rtsup.WithLogger(r.log.With(logx.String("comp", "commands"))),
		rtsup.WithCancelOnError(false),
	)
	r.setSupervisor(sup, true)

	r.log.Info("command dispatcher started",
		logx.Int("workers", dispatchWorkers),
		logx.Int("job_queue_cap", cap(r.jobs)),
	)

	var closeOnce sync.Once
	closeJobs := func() {
		closeOnce.Do(func() {
			// Flip running first so tryEnqueue degrades instead of panicking.
			r.setSupervisor(sup, false)
			close(r.jobs)
		})
	}

	for i := 0; i < dispatchWorkers; i++ {
		idx := i
		sup.GoRestart("command.worker."+strconv.Itoa(idx), func(c context.Context) error {
			for {
				select {
				case <-c.Done():
					return nil
				case job, open := <-r.jobs:
					if !open {
						return nil
					}
					if job == nil {
						continue
					}
					// Middleware already recovers; this keeps the worker
					// alive if a job panics outside the chain.
					func() {
						defer func() {
							if rec := recover(); rec != nil {
								r.log.Error("panic in command job",
									logx.Int("worker", idx),
									logx.Any("panic", rec),
									logx.String("stack", string(debug.Stack())),
								)
							}
						}()
						job()
					}()
				}
			}
		},
			rtsup.WithRestartBackoff(200*time.Millisecond, 5*time.Second),
			rtsup.WithPublishFirstError(true),
		)
	}

	defer func() {
		closeJobs()
		wctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		_ = sup.Wait(wctx)
		cancel()
		r.setSupervisor(nil, false)
		r.log.Info("command dispatcher stopped")
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case up, open := <-updates:
			if !open {
				r.log.Info("command dispatcher stopping (updates channel closed)")
				return nil
			}
			r.dispatch(ctx, up)
		}
	}
}

// dispatch parses one update and enqueues the matched handler. Plain text is
// ignored; unknown commands get a short pointer at /help.
func (r *Registry) dispatch(root context.Context, up transport.Update) {
	text := strings.TrimSpace(up.Text)
	if !strings.HasPrefix(text, "/") {
		return
	}

	parts := strings.Fields(text)
	if len(parts) == 0 {
		return
	}
	word := strings.TrimPrefix(parts[0], "/")
	// Group chats address commands as /cmd@BotName.
	if i := strings.IndexByte(word, '@'); i >= 0 {
		word = word[:i]
	}
	word = strings.ToLower(word)
	args := parts[1:]

	chat := transport.ChatTarget{ChatID: up.ChatID, ThreadID: up.ThreadID}

	r.mu.RLock()
	cmd, ok := r.cmds[word]
	r.mu.RUnlock()
	if !ok {
		_, _ = r.adapter.SendText(root, chat, unknownCommandReply, nil)
		return
	}

	rid := newReqID()
	reqLog := r.log.With(
		logx.String("rid", rid),
		logx.Int64("chat_id", up.ChatID),
		logx.Int64("from_id", up.UserID),
		logx.String("cmd", cmd.Name),
	)

	req := &Request{
		Update:   up,
		Chat:     chat,
		Command:  cmd.Name,
		Args:     args,
		ReqID:    rid,
		Adapter:  r.adapter,
		Logger:   reqLog,
		Services: r.serv,
	}

	timeout := cmd.Timeout
	if timeout <= 0 {
		timeout = defaultCmdTimeout
	}
	final := Chain(
		cmd.Handle,
		MWPanicRecover(r.log),
		MWRequestLog(r.log),
		MWTimeout(timeout),
	)

	if !r.tryEnqueue(func() { _ = final(root, req) }) {
		_, _ = r.adapter.SendText(root, chat, "busy, try again", nil)
	}
}
