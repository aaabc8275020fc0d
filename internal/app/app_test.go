package app

import (
	"bytes"
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ewilliams-labs/chordlens/internal/config"
	"github.com/ewilliams-labs/chordlens/internal/logging"
)

func TestOpenRepository(t *testing.T) {
	tests := []struct {
		name    string
		storage config.Storage
		wantErr bool
	}{
		{name: "memory", storage: config.Storage{Driver: "memory"}},
		{name: "sqlite", storage: config.Storage{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "p.db")}},
		{name: "unknown", storage: config.Storage{Driver: "postgres"}, wantErr: true},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			repo, closeRepo, err := OpenRepository(tc.storage)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("open: %v", err)
			}
			defer closeRepo()
			if n, err := repo.Count(context.Background()); err != nil || n != 0 {
				t.Fatalf("expected empty repository, got %d (%v)", n, err)
			}
		})
	}
}

func TestNew_ServesHealth(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.Driver = "memory"
	a, err := New(&cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer a.Close()

	rec := httptest.NewRecorder()
	a.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := l.Addr().String()
	l.Close()

	cfg := config.Default()
	cfg.Storage.Driver = "memory"
	cfg.Server.Addr = addr
	a, err := New(&cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Serve(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for {
		resp, err := http.Get("http://" + addr + "/health")
		if err == nil {
			resp.Body.Close()
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("server never came up: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("serve did not return after cancel")
	}
}

func TestClose_ReportsEveryFailure(t *testing.T) {
	var logs bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "info", Format: "json", Output: &logs})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}

	poolErr := errors.New("pool drain timed out")
	dbErr := errors.New("database is locked")
	var order []string
	a := &App{
		Logger: logger,
		closers: []func() error{
			func() error { order = append(order, "pool"); return poolErr },
			func() error { order = append(order, "storage"); return dbErr },
		},
	}

	err = a.Close()
	if !errors.Is(err, poolErr) || !errors.Is(err, dbErr) {
		t.Fatalf("expected both failures joined, got %v", err)
	}
	if strings.Join(order, ",") != "pool,storage" {
		t.Fatalf("unexpected close order %v", order)
	}
	out := logs.String()
	if strings.Count(out, "shutdown step failed") != 2 || !strings.Contains(out, "database is locked") {
		t.Fatalf("expected both failures logged, got:\n%s", out)
	}
}
