package http_test

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"armvalidator/internal/platform/config"
	phttp "armvalidator/internal/platform/net/http"

	"github.com/go-chi/chi/v5"
)

// start runs srv in the background and waits until it is bound
func start(t *testing.T, srv *phttp.Server, ctx context.Context) <-chan error {
	t.Helper()
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()
	deadline := time.Now().Add(2 * time.Second)
	for strings.HasSuffix(srv.Addr(), ":0") {
		if time.Now().After(deadline) {
			t.Fatalf("server never bound")
		}
		time.Sleep(5 * time.Millisecond)
	}
	return done
}

func wait(t *testing.T, done <-chan error) {
	t.Helper()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("Run did not return")
	}
}

func TestNewServer_AddrAndOptions(t *testing.T) {
	if got := phttp.NewServer(config.New()).Addr(); got != ":4000" {
		t.Fatalf("default addr = %q", got)
	}
	t.Setenv("CORE_API_PORT", ":12345")
	called := false
	srv := phttp.NewServer(config.New().Prefix("CORE_"), func(*chi.Mux) { called = true })
	if srv.Addr() != ":12345" || !called {
		t.Fatalf("addr = %q option called = %v", srv.Addr(), called)
	}
}

func TestServer_ServesAndStopsOnCancel(t *testing.T) {
	t.Setenv("API_PORT", "127.0.0.1:0")
	srv := phttp.NewServer(config.New())
	srv.Router().Get("/health", func(w http.ResponseWriter, _ *http.Request) { _, _ = io.WriteString(w, "ok") })

	ctx, cancel := context.WithCancel(context.Background())
	done := start(t, srv, ctx)

	res, err := http.Get("http://" + srv.Addr() + "/health")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	body, _ := io.ReadAll(res.Body)
	_ = res.Body.Close()
	if res.StatusCode != http.StatusOK || string(body) != "ok" {
		t.Fatalf("got %d %q", res.StatusCode, body)
	}

	cancel()
	wait(t, done)
}

func TestServer_RunWaitsForInFlightDeploy(t *testing.T) {
	t.Setenv("API_PORT", "127.0.0.1:0")
	t.Setenv("SHUTDOWN_GRACE", "2s")
	srv := phttp.NewServer(config.New())

	entered, release := make(chan struct{}), make(chan struct{})
	srv.Router().Post("/deploy", func(w http.ResponseWriter, _ *http.Request) {
		close(entered)
		<-release
		_, _ = io.WriteString(w, `{"result":"Deployment Successful"}`)
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := start(t, srv, ctx)

	status := make(chan int, 1)
	go func() {
		res, err := http.Post("http://"+srv.Addr()+"/deploy", "application/json", strings.NewReader(`{}`))
		if err != nil {
			status <- 0
			return
		}
		_ = res.Body.Close()
		status <- res.StatusCode
	}()
	<-entered
	cancel()

	select {
	case err := <-done:
		t.Fatalf("Run returned while a deploy was in flight: %v", err)
	case <-time.After(100 * time.Millisecond):
	}
	close(release)
	if got := <-status; got != http.StatusOK {
		t.Fatalf("in-flight deploy status = %d", got)
	}
	wait(t, done)
}

func TestServer_RunReturnsListenError(t *testing.T) {
	t.Setenv("API_PORT", "127.0.0.1:abc")
	if err := phttp.NewServer(config.New()).Run(context.Background()); err == nil {
		t.Fatalf("expected a listen error")
	}
}

func TestServer_ShutdownBeforeCancel(t *testing.T) {
	t.Setenv("API_PORT", "127.0.0.1:0")
	srv := phttp.NewServer(config.New())
	done := start(t, srv, context.Background())

	sctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	wait(t, done)
}
