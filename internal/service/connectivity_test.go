package service

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newTestProber(probeURL, fallback string) *Prober {
	return &Prober{
		enabled:         true,
		probeURL:        probeURL,
		probeTimeout:    time.Second,
		fallbackAddr:    fallback,
		fallbackTimeout: time.Second,
		client:          &http.Client{},
		logger:          zerolog.Nop(),
	}
}

// closedAddr returns a loopback address nothing listens on.
func closedAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := l.Addr().String()
	_ = l.Close()
	return addr
}

func TestProberProviderReachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	if !newTestProber(srv.URL, closedAddr(t)).Check(context.Background()) {
		t.Fatal("any HTTP response should count as connectivity")
	}
}

func TestProberFallsBackToTCP(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer l.Close()
	go func() {
		for {
			c, err := l.Accept()
			if err != nil {
				return
			}
			_ = c.Close()
		}
	}()

	p := newTestProber("http://"+closedAddr(t), l.Addr().String())
	if !p.Check(context.Background()) {
		t.Fatal("expected the fallback probe to succeed")
	}
}

func TestProberOffline(t *testing.T) {
	p := newTestProber("http://"+closedAddr(t), closedAddr(t))
	if p.Check(context.Background()) {
		t.Fatal("expected both probes to fail")
	}
}

func TestProberHangingProviderStaysWithinDeadline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	p := newTestProber(srv.URL, closedAddr(t))
	p.probeTimeout = 100 * time.Millisecond
	p.fallbackTimeout = 100 * time.Millisecond

	start := time.Now()
	if p.Check(context.Background()) {
		t.Fatal("a hanging provider and a closed fallback must fail the check")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("check took %v, want it bounded by the probe timeouts", elapsed)
	}
}

func TestProberDisabled(t *testing.T) {
	p := newTestProber("", "")
	p.enabled = false
	if !p.Check(context.Background()) {
		t.Fatal("a disabled prober always passes")
	}
}
