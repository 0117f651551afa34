package pprof

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	logx "boostbot/pkg/logx"
)

func waitForAddr(t *testing.T, s *Service) string {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if addr := s.Addr(); addr != "" {
			return addr
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("listener never came up")
	return ""
}

func get(t *testing.T, url string, header map[string]string) (int, string) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, string(b)
}

func TestServesProfileIndex(t *testing.T) {
	t.Parallel()

	s := New(Config{Enabled: true, Addr: "127.0.0.1:0"}, logx.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)
	defer s.Stop(context.Background())

	addr := waitForAddr(t, s)

	code, body := get(t, "http://"+addr+"/debug/pprof/", nil)
	if code != http.StatusOK {
		t.Fatalf("index status = %d", code)
	}
	if !strings.Contains(body, "goroutine") {
		t.Error("index should list the goroutine profile")
	}

	code, body = get(t, "http://"+addr+"/healthz", nil)
	if code != http.StatusOK || body != "ok" {
		t.Errorf("healthz = %d %q", code, body)
	}
}

func TestTokenGuard(t *testing.T) {
	t.Parallel()

	s := New(Config{Enabled: true, Addr: "127.0.0.1:0", Token: "s3cret"}, logx.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)
	defer s.Stop(context.Background())

	addr := waitForAddr(t, s)
	base := "http://" + addr + "/healthz"

	if code, _ := get(t, base, nil); code != http.StatusUnauthorized {
		t.Errorf("no token: status = %d, want 401", code)
	}
	if code, _ := get(t, base+"?token=s3cret", nil); code != http.StatusOK {
		t.Errorf("query token: status = %d, want 200", code)
	}
	if code, _ := get(t, base, map[string]string{"Authorization": "Bearer s3cret"}); code != http.StatusOK {
		t.Errorf("bearer token: status = %d, want 200", code)
	}
	if code, _ := get(t, base+"?token=wrong", nil); code != http.StatusUnauthorized {
		t.Errorf("wrong token: status = %d, want 401", code)
	}
}

func TestDisabledStartIsNoop(t *testing.T) {
	t.Parallel()

	s := New(Config{Enabled: false}, logx.Nop())
	s.Start(context.Background())
	if s.Addr() != "" {
		t.Error("disabled service must not bind")
	}
	if err := s.Stop(context.Background()); err != nil {
		t.Errorf("Stop: %v", err)
	}
}

func TestStopClosesListener(t *testing.T) {
	t.Parallel()

	s := New(Config{Enabled: true, Addr: "127.0.0.1:0"}, logx.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)
	addr := waitForAddr(t, s)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer stopCancel()
	if err := s.Stop(stopCtx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if s.Addr() != "" {
		t.Error("Addr should clear after Stop")
	}
	if _, err := http.Get("http://" + addr + "/healthz"); err == nil {
		t.Error("listener should be closed after Stop")
	}

	s.Start(ctx)
	if s.Addr() != "" {
		t.Error("Start after Stop must be a no-op")
	}
}

func TestRefusesInsecureBind(t *testing.T) {
	t.Parallel()

	s := New(Config{Enabled: true, Addr: "0.0.0.0:0"}, logx.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)
	defer s.Stop(context.Background())

	time.Sleep(50 * time.Millisecond)
	if s.Addr() != "" {
		t.Error("non-loopback bind without a token must be refused")
	}
}

func TestIsLoopback(t *testing.T) {
	t.Parallel()

	cases := []struct {
		addr string
		want bool
	}{
		{"127.0.0.1:6060", true},
		{"localhost:0", true},
		{"[::1]:9", true},
		{"0.0.0.0:6060", false},
		{":6060", false},
		{"10.0.0.5:1", false},
		{"example.com:80", false},
		{"garbage", false},
	}
	for _, tc := range cases {
		if got := isLoopback(tc.addr); got != tc.want {
			t.Errorf("isLoopback(%q) = %v, want %v", tc.addr, got, tc.want)
		}
	}
}
