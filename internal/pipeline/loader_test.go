package pipeline

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ppiankov/mathblocks/internal/cache"
	"github.com/ppiankov/mathblocks/internal/model"
)

// countingLimiter records Wait calls and host overrides
type countingLimiter struct {
	waits     atomic.Int32
	hostRates map[string]float64
}

func (l *countingLimiter) Wait(ctx context.Context, rawURL string) error {
	l.waits.Add(1)
	return nil
}

func (l *countingLimiter) SetHostRate(host string, rps float64, burst int) {
	if l.hostRates == nil {
		l.hostRates = make(map[string]float64)
	}
	l.hostRates[host] = rps
}

func lessonServer(t *testing.T, robots string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var pageHits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(robots))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		pageHits.Add(1)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<h3>Problem</h3><p>Solve for x: 2x + 3 = 7</p>`))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, &pageHits
}

func testHTTPConfig() model.HTTPConfig {
	cfg := model.DefaultConfig().HTTP
	cfg.Timeout = 5 * time.Second
	return cfg
}

func TestIsURL(t *testing.T) {
	for in, want := range map[string]bool{
		"https://example.org/lesson": true,
		"http://localhost:8080/x":    true,
		"lessons/algebra.html":       false,
		"/tmp/a.html":                false,
		"ftp://example.org/a":        false,
		"https://":                   false,
	} {
		if got := IsURL(in); got != want {
			t.Errorf("IsURL(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLoader_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lesson.html")
	if err := os.WriteFile(path, []byte("<p>y = 2x + 1</p>"), 0o644); err != nil {
		t.Fatal(err)
	}

	l := NewLoader(testHTTPConfig(), model.CacheConfig{}, nil, nil, nil)
	src, err := l.Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if src.HTML != "<p>y = 2x + 1</p>" || src.Name != path || src.Meta != nil {
		t.Errorf("unexpected source %+v", src)
	}

	if _, err := l.Load(context.Background(), filepath.Join(t.TempDir(), "missing.html")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoader_URLWithCacheAndLimiter(t *testing.T) {
	server, hits := lessonServer(t, "User-agent: *\nAllow: /\n")

	limiter := &countingLimiter{}
	store := cache.NewMemoryStore(time.Minute, time.Minute)
	l := NewLoader(testHTTPConfig(), model.CacheConfig{Enabled: true, TTL: time.Minute}, limiter, store, nil)

	first, err := l.Load(context.Background(), server.URL+"/algebra")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if first.Meta == nil || first.Meta.FromCache || first.Meta.StatusCode != 200 {
		t.Errorf("unexpected meta on first load %+v", first.Meta)
	}

	second, err := l.Load(context.Background(), server.URL+"/algebra")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !second.Meta.FromCache || second.HTML != first.HTML {
		t.Errorf("expected cached copy, got %+v", second.Meta)
	}

	if hits.Load() != 1 {
		t.Errorf("expected one page fetch, got %d", hits.Load())
	}
	if limiter.waits.Load() != 1 {
		t.Errorf("expected the limiter to be consulted once, got %d", limiter.waits.Load())
	}
}

func TestLoader_RobotsDisallow(t *testing.T) {
	server, hits := lessonServer(t, "User-agent: *\nDisallow: /private/\n")

	l := NewLoader(testHTTPConfig(), model.CacheConfig{}, nil, nil, nil)
	_, err := l.Load(context.Background(), server.URL+"/private/answers")
	if !errors.Is(err, ErrDisallowedByRobots) {
		t.Fatalf("expected ErrDisallowedByRobots, got %v", err)
	}
	if hits.Load() != 0 {
		t.Error("disallowed page must not be fetched")
	}

	cfg := testHTTPConfig()
	cfg.RespectRobots = false
	if _, err := NewLoader(cfg, model.CacheConfig{}, nil, nil, nil).Load(context.Background(), server.URL+"/private/answers"); err != nil {
		t.Errorf("expected fetch with robots disabled, got %v", err)
	}
}

func TestLoader_CrawlDelaySetsHostRate(t *testing.T) {
	server, _ := lessonServer(t, "User-agent: mathblocks\nCrawl-delay: 4\n")

	limiter := &countingLimiter{}
	l := NewLoader(testHTTPConfig(), model.CacheConfig{}, limiter, nil, nil)
	if _, err := l.Load(context.Background(), server.URL+"/lesson"); err != nil {
		t.Fatal(err)
	}

	host := server.Listener.Addr().String()
	if rps := limiter.hostRates[host]; rps != 0.25 {
		t.Errorf("expected 0.25 rps for %s, got %v (%v)", host, rps, limiter.hostRates)
	}
}
