package commands

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"

	"boostbot/internal/monitor"
	"boostbot/internal/transport"
)

// BuiltinCommands returns the standard command set. /help is injected by the
// registry itself.
func BuiltinCommands() []Command {
	return []Command{
		{
			Name:        "start",
			Description: "What this bot does",
			Usage:       "/start",
			Handle:      handleStart,
		},
		{
			Name:        "status",
			Description: "Monitoring status",
			Usage:       "/status",
			Handle:      handleStatus,
		},
		{
			Name:        "health",
			Description: "Operational health snapshot",
			Usage:       "/health",
			Handle:      handleHealth,
		},
	}
}

func handleStart(ctx context.Context, req *Request) error {
	_, err := req.Adapter.SendText(ctx, req.Chat, monitor.GreetingMessage(),
		&transport.SendOptions{ParseMode: "HTML", DisablePreview: true})
	return err
}

func handleStatus(ctx context.Context, req *Request) error {
	if req.Services == nil || req.Services.Monitor == nil {
		_, err := req.Adapter.SendText(ctx, req.Chat, "monitor is not running", nil)
		return err
	}
	text := monitor.StatusMessage(req.Services.Monitor.Status())
	_, err := req.Adapter.SendText(ctx, req.Chat, text,
		&transport.SendOptions{ParseMode: "HTML", DisablePreview: true})
	return err
}

// dropCounter is implemented by adapters that count discarded updates.
type dropCounter interface {
	DroppedUpdates() uint64
}

func handleHealth(ctx context.Context, req *Request) error {
	// Plain text on purpose: a parse failure must never hide health output.
	var b strings.Builder
	b.Grow(1024)

	status := "Running"
	var st monitor.Status
	if req.Services != nil && req.Services.Monitor != nil {
		st = req.Services.Monitor.Status()
		if st.LastCheck.IsZero() && st.CyclesFailed > 0 {
			status = "Degraded"
		}
	}

	b.WriteString("🏥 Bot Health\n")
	b.WriteString("━━━━━━━━━━━━━━━━━━━━\n")
	b.WriteString(fmt.Sprintf("Status: %s\n", status))
	if req.Services != nil && !req.Services.StartedAt.IsZero() {
		b.WriteString(fmt.Sprintf("Uptime: %s\n", time.Since(req.Services.StartedAt).Round(time.Second)))
	}
	b.WriteString(fmt.Sprintf("Go: %s, goroutines: %d\n", runtime.Version(), runtime.NumGoroutine()))
	b.WriteString("\n")

	b.WriteString("📡 Monitor\n")
	if req.Services == nil || req.Services.Monitor == nil {
		b.WriteString("  • not running\n")
	} else {
		last := "never"
		if !st.LastCheck.IsZero() {
			last = st.LastCheck.Format("2006-01-02 15:04:05")
		}
		b.WriteString(fmt.Sprintf("  • Last check: %s\n", last))
		b.WriteString(fmt.Sprintf("  • Known boosts: %d\n", st.KnownBoosts))
		b.WriteString(fmt.Sprintf("  • Cycles: %d ok, %d failed\n", st.CyclesOK, st.CyclesFailed))
		b.WriteString(fmt.Sprintf("  • Notified: %d\n", st.Notified))
		b.WriteString(fmt.Sprintf("  • Interval: %s\n", st.Interval))
	}
	b.WriteString("\n")

	b.WriteString("📮 Notifier\n")
	if req.Services == nil || req.Services.Notifier == nil {
		b.WriteString("  • not running\n")
	} else {
		n := req.Services.Notifier
		b.WriteString(fmt.Sprintf("  • Enabled: %v\n", n.Enabled()))
		b.WriteString(fmt.Sprintf("  • Queue depth: %d\n", n.QueueDepth()))
		if hist := n.Snapshot(); len(hist) > 0 {
			shown := 3
			if len(hist) < shown {
				shown = len(hist)
			}
			b.WriteString("  • Recent sends:\n")
			for _, h := range hist[len(hist)-shown:] {
				key := h.Key
				if key == "" {
					key = "-"
				}
				b.WriteString(fmt.Sprintf("    - %s %s (%s)\n", h.At.Format("15:04:05"), h.Kind, key))
			}
		}
	}

	if dc, ok := req.Adapter.(dropCounter); ok {
		b.WriteString("\n")
		b.WriteString(fmt.Sprintf("📥 Updates dropped: %d\n", dc.DroppedUpdates()))
	}

	_, err := req.Adapter.SendText(ctx, req.Chat, b.String(),
		&transport.SendOptions{DisablePreview: true})
	return err
}
