package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/mathblocks/internal/model"
)

// mockRunner implements Runner. Sources containing "fail" return an error;
// earlier sources sleep longer so completion order differs from input order.
type mockRunner struct{}

func (m *mockRunner) Run(ctx context.Context, source string) (*model.Report, error) {
	delay := time.Duration(10-len(source)%10) * time.Millisecond
	select {
	case <-time.After(delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if strings.Contains(source, "fail") {
		return nil, errors.New("analysis failed")
	}
	return &model.Report{Source: source}, nil
}

func TestBatchProcessor_InputOrder(t *testing.T) {
	sources := []string{"a.html", "https://example.org/b", "fail.html", "c", "https://example.org/lesson-d"}

	var seen int
	processor := NewBatchProcessor(&mockRunner{}, 3)
	processor.OnResult = func(*AnalyzeResult) { seen++ }

	results := processor.Process(context.Background(), sources)

	if len(results) != len(sources) {
		t.Fatalf("expected %d results, got %d", len(sources), len(results))
	}
	if seen != len(sources) {
		t.Errorf("expected OnResult for every source, got %d", seen)
	}

	for i, res := range results {
		if res.Source != sources[i] || res.Index != i {
			t.Errorf("result %d is for %q, want %q", i, res.Source, sources[i])
		}
		if sources[i] == "fail.html" {
			if res.Err() == nil || res.Report != nil {
				t.Errorf("expected failure for %s", res.Source)
			}
			continue
		}
		if res.Err() != nil || res.Report == nil || res.Report.Source != sources[i] {
			t.Errorf("unexpected result for %s: %+v", sources[i], res)
		}
	}
}

func TestBatchProcessor_Empty(t *testing.T) {
	results := NewBatchProcessor(&mockRunner{}, 2).Process(context.Background(), nil)
	if results == nil || len(results) != 0 {
		t.Errorf("expected empty non-nil result, got %v", results)
	}
}

func TestBatchProcessor_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := NewBatchProcessor(&mockRunner{}, 1).Process(ctx, []string{"a", "b", "c"})
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for _, res := range results {
		if res.Err() == nil {
			t.Errorf("expected %s to fail after cancellation", res.Source)
		}
	}
}

func TestReadSourcesFromFile(t *testing.T) {
	content := `# lessons
https://example.org/algebra

lessons/linear.html
https://example.org/algebra
  lessons/quadratic.html  
# trailing comment
`
	path := filepath.Join(t.TempDir(), "sources.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := ReadSourcesFromFile(path)
	if err != nil {
		t.Fatalf("ReadSourcesFromFile: %v", err)
	}

	want := []string{"https://example.org/algebra", "lessons/linear.html", "lessons/quadratic.html"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("source %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestProcessFile_MissingFile(t *testing.T) {
	_, err := NewBatchProcessor(&mockRunner{}, 1).ProcessFile(context.Background(), filepath.Join(t.TempDir(), "nope.txt"))
	if err == nil {
		t.Error("expected error for missing file")
	}
}
