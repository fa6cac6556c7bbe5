package cache

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/mathblocks/internal/model"
)

func page(body string) *Page {
	return &Page{
		Body:      []byte(body),
		Meta:      model.FetchMeta{StatusCode: 200, ContentType: "text/html"},
		FetchedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestKey_StableAndPrefixed(t *testing.T) {
	a := Key("https://example.org/lesson")
	b := Key("https://example.org/lesson")
	c := Key("https://example.org/other")

	if a != b {
		t.Error("expected identical keys for identical URLs")
	}
	if a == c {
		t.Error("expected different keys for different URLs")
	}
	if !strings.HasPrefix(a, "mathblocks:v1:") || len(a) != len("mathblocks:v1:")+64 {
		t.Errorf("unexpected key %q", a)
	}
}

func TestMemoryStore_SetGetDelete(t *testing.T) {
	s := NewMemoryStore(time.Minute, time.Minute)

	if _, ok := s.Get("k"); ok {
		t.Fatal("expected miss on empty store")
	}

	if err := s.Set("k", page("<p>x</p>"), 0); err != nil {
		t.Fatal(err)
	}
	got, ok := s.Get("k")
	if !ok || string(got.Body) != "<p>x</p>" {
		t.Fatalf("expected hit, got %v %v", got, ok)
	}
	if s.Len() != 1 {
		t.Errorf("expected 1 entry, got %d", s.Len())
	}

	_ = s.Delete("k")
	if _, ok := s.Get("k"); ok {
		t.Error("expected miss after delete")
	}
}

func TestMemoryStore_Expiry(t *testing.T) {
	s := NewMemoryStore(time.Minute, time.Minute)
	_ = s.Set("k", page("x"), time.Millisecond)

	time.Sleep(10 * time.Millisecond)

	if _, ok := s.Get("k"); ok {
		t.Error("expected entry to expire")
	}
}

func TestDiskStore_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	s := NewDiskStore(dir, time.Hour)

	if err := s.Set(Key("u"), page("<p>y = 2x + 1</p>"), 0); err != nil {
		t.Fatal(err)
	}

	got, ok := s.Get(Key("u"))
	if !ok {
		t.Fatal("expected hit")
	}
	if string(got.Body) != "<p>y = 2x + 1</p>" || got.Meta.StatusCode != 200 {
		t.Errorf("unexpected page %+v", got)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 || strings.Contains(entries[0].Name(), ":") {
		t.Errorf("expected one portable file name, got %v", entries)
	}
}

func TestDiskStore_ExpiredAndCorruptEntriesAreDropped(t *testing.T) {
	dir := t.TempDir()
	s := NewDiskStore(dir, time.Hour)

	now := time.Now()
	s.now = func() time.Time { return now }
	_ = s.Set("old", page("x"), time.Minute)

	s.now = func() time.Time { return now.Add(2 * time.Minute) }
	if _, ok := s.Get("old"); ok {
		t.Error("expected expired entry to miss")
	}
	if _, err := os.Stat(s.path("old")); !os.IsNotExist(err) {
		t.Error("expected expired entry to be removed")
	}

	if err := os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, ok := s.Get("bad"); ok {
		t.Error("expected corrupt entry to miss")
	}
}

func TestDiskStore_DeleteMissingIsNotAnError(t *testing.T) {
	s := NewDiskStore(t.TempDir(), time.Hour)
	if err := s.Delete("absent"); err != nil {
		t.Errorf("unexpected error %v", err)
	}
}

func TestTieredStore_PromotesSlowHits(t *testing.T) {
	fast := NewMemoryStore(time.Minute, time.Minute)
	slow := NewDiskStore(t.TempDir(), time.Hour)
	s := NewTieredStore(fast, slow)

	_ = slow.Set("k", page("from disk"), 0)

	got, ok := s.Get("k")
	if !ok || string(got.Body) != "from disk" {
		t.Fatalf("expected slow-tier hit, got %v", got)
	}
	if _, ok := fast.Get("k"); !ok {
		t.Error("expected hit to be promoted to the fast tier")
	}
}

func TestNew_SelectsTiers(t *testing.T) {
	if _, ok := New(model.CacheConfig{TTL: time.Minute}).(*MemoryStore); !ok {
		t.Error("expected memory store without a dir")
	}
	if _, ok := New(model.CacheConfig{TTL: time.Minute, Dir: t.TempDir()}).(*TieredStore); !ok {
		t.Error("expected tiered store with a dir")
	}
}
