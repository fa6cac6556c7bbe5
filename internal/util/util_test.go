package util

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestNormalizeUserAgent(t *testing.T) {
	tests := []struct{ in, want string }{
		{"mathblocks/0.1 (+https://github.com/ppiankov/mathblocks)", "mathblocks"},
		{"curl/8.0", "curl"},
		{"plain", "plain"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeUserAgent(tt.in); got != tt.want {
			t.Errorf("NormalizeUserAgent(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRobotsChecker_CanFetch(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		atomic.AddInt32(&hits, 1)
		_, _ = w.Write([]byte("User-agent: mathblocks\nDisallow: /private/\nCrawl-delay: 2\n\nUser-agent: *\nDisallow: /\n"))
	}))
	defer srv.Close()

	rc := NewRobotsChecker(srv.Client(), "mathblocks/0.1")
	ctx := context.Background()

	allowed, delay, err := rc.CanFetch(ctx, srv.URL+"/lessons/algebra.html")
	if err != nil || !allowed {
		t.Fatalf("expected lesson to be allowed, got %v (%v)", allowed, err)
	}
	if delay != 2*time.Second {
		t.Errorf("expected crawl delay 2s, got %v", delay)
	}

	if allowed, _, _ := rc.CanFetch(ctx, srv.URL+"/private/key.html"); allowed {
		t.Error("expected /private/ to be disallowed")
	}

	if n := atomic.LoadInt32(&hits); n != 1 {
		t.Errorf("expected robots.txt to be fetched once, got %d", n)
	}
}

func TestRobotsChecker_MissingRobotsAllows(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	rc := NewRobotsChecker(srv.Client(), "mathblocks/0.1")
	if allowed, _, err := rc.CanFetch(context.Background(), srv.URL+"/x"); err != nil || !allowed {
		t.Errorf("expected allow on 404 robots.txt, got %v (%v)", allowed, err)
	}
}

func TestRobotsChecker_UnreachableAllows(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	rc := NewRobotsChecker(&http.Client{Timeout: time.Second}, "mathblocks/0.1")
	if allowed, _, err := rc.CanFetch(context.Background(), url+"/x"); err != nil || !allowed {
		t.Errorf("expected allow when robots.txt is unreachable, got %v (%v)", allowed, err)
	}
}

func TestNewProxyFunc(t *testing.T) {
	proxy := NewProxyFunc("http://proxy.internal:3128", "http://secure-proxy.internal:3128", "lessons.local")

	req := httptest.NewRequest(http.MethodGet, "https://example.org/lesson", nil)
	u, err := proxy(req)
	if err != nil || u == nil || u.Host != "secure-proxy.internal:3128" {
		t.Errorf("expected https proxy, got %v (%v)", u, err)
	}

	req = httptest.NewRequest(http.MethodGet, "http://example.org/lesson", nil)
	if u, _ := proxy(req); u == nil || u.Host != "proxy.internal:3128" {
		t.Errorf("expected http proxy, got %v", u)
	}

	req = httptest.NewRequest(http.MethodGet, "http://lessons.local/a", nil)
	if u, _ := proxy(req); u != nil {
		t.Errorf("expected no proxy for excluded host, got %v", u)
	}
}

func TestRobotsChecker_ServerErrorDisallows(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	rc := NewRobotsChecker(srv.Client(), "mathblocks/0.1")
	if allowed, _, _ := rc.CanFetch(context.Background(), srv.URL+"/x"); allowed {
		t.Error("expected a 5xx robots.txt to disallow")
	}
}
