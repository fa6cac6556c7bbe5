package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"time"

	"github.com/ppiankov/mathblocks/internal/cache"
	"github.com/ppiankov/mathblocks/internal/model"
	"github.com/ppiankov/mathblocks/internal/util"
)

// ErrDisallowedByRobots is returned when robots.txt forbids fetching a URL.
var ErrDisallowedByRobots = errors.New("disallowed by robots.txt")

// RateLimiter paces requests per host
type RateLimiter interface {
	Wait(ctx context.Context, rawURL string) error
}

// hostRater is implemented by limiters that accept per-host overrides,
// used to honour a robots.txt crawl delay.
type hostRater interface {
	SetHostRate(host string, requestsPerSecond float64, burst int)
}

// Source is a loaded lesson document
type Source struct {
	Name string           // Path or final URL
	HTML string           // Raw markup
	Meta *model.FetchMeta // Nil for local files
}

// Loader reads lesson documents from disk or the web
type Loader struct {
	fetcher  *Fetcher
	robots   *util.RobotsChecker
	limiter  RateLimiter
	cache    cache.Store
	cacheTTL time.Duration
	maxBytes int64
	logger   *slog.Logger
}

// NewLoader creates a loader from HTTP and cache settings. limiter and store
// may be nil.
func NewLoader(cfg model.HTTPConfig, cacheCfg model.CacheConfig, limiter RateLimiter, store cache.Store, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}

	fetcher := NewFetcher(cfg.Timeout, cfg.UserAgent, cfg.MaxBodyBytes, cfg.HTTPProxy, cfg.HTTPSProxy, cfg.NoProxy)

	l := &Loader{
		fetcher:  fetcher,
		limiter:  limiter,
		maxBytes: cfg.MaxBodyBytes,
		logger:   logger,
	}
	if cfg.RespectRobots {
		l.robots = util.NewRobotsChecker(fetcher.Client(), cfg.UserAgent)
	}
	if cacheCfg.Enabled && store != nil {
		l.cache = store
		l.cacheTTL = cacheCfg.TTL
	}
	return l
}

// IsURL reports whether source names an http(s) resource
func IsURL(source string) bool {
	u, err := url.Parse(source)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Load reads source, which is either a local path or an http(s) URL
func (l *Loader) Load(ctx context.Context, source string) (*Source, error) {
	if !IsURL(source) {
		return l.loadFile(source)
	}
	return l.loadURL(ctx, source)
}

func (l *Loader) loadFile(path string) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open lesson: %w", err)
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = f
	if l.maxBytes > 0 {
		r = io.LimitReader(f, l.maxBytes)
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read lesson: %w", err)
	}

	return &Source{Name: path, HTML: string(body)}, nil
}

func (l *Loader) loadURL(ctx context.Context, rawURL string) (*Source, error) {
	key := cache.Key(rawURL)
	if l.cache != nil {
		if page, ok := l.cache.Get(key); ok {
			l.logger.Debug("cache hit", "url", rawURL)
			meta := page.Meta
			meta.FromCache = true
			return &Source{Name: rawURL, HTML: string(page.Body), Meta: &meta}, nil
		}
	}

	if l.robots != nil {
		allowed, delay, err := l.robots.CanFetch(ctx, rawURL)
		if err != nil {
			return nil, fmt.Errorf("robots: %w", err)
		}
		if !allowed {
			return nil, fmt.Errorf("%s: %w", rawURL, ErrDisallowedByRobots)
		}
		if delay > 0 {
			if hr, ok := l.limiter.(hostRater); ok {
				u, _ := url.Parse(rawURL)
				hr.SetHostRate(u.Host, 1/delay.Seconds(), 1)
			}
		}
	}

	if l.limiter != nil {
		if err := l.limiter.Wait(ctx, rawURL); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	l.logger.Debug("fetching", "url", rawURL)
	result, err := l.fetcher.FetchWithRetry(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	if l.cache != nil {
		page := &cache.Page{Body: []byte(result.HTML), Meta: result.Meta, FetchedAt: time.Now().UTC()}
		if err := l.cache.Set(key, page, l.cacheTTL); err != nil {
			l.logger.Warn("cache write failed", "url", rawURL, "error", err)
		}
	}

	meta := result.Meta
	return &Source{Name: result.FinalURL, HTML: result.HTML, Meta: &meta}, nil
}
