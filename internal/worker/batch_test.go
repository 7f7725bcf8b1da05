package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/ppiankov/claimguard/internal/model"
)

type mockProcessor struct {
	mu     sync.Mutex
	calls  []string
	fail   map[string]bool
	panics map[string]bool
}

func (m *mockProcessor) ProcessFile(ctx context.Context, path string) (*model.ClaimReport, error) {
	m.mu.Lock()
	m.calls = append(m.calls, path)
	m.mu.Unlock()

	if m.panics[path] {
		panic("corrupt document")
	}
	if m.fail[path] {
		return nil, errors.New("process error")
	}

	route := model.RouteAutoApprove
	if strings.Contains(path, "review") {
		route = model.RouteManualReview
	}
	return &model.ClaimReport{
		Source:  path,
		Outcome: model.ValidationOutcome{IsValid: true},
		Routing: model.RoutingDecision{Route: route, Amount: 500},
	}, nil
}

func TestBatchProcessor_ProcessPaths_Order(t *testing.T) {
	proc := &mockProcessor{}
	batch := NewBatchProcessor(proc, 3)

	var streamed int
	var mu sync.Mutex
	batch.OnResult(func(*FileResult) {
		mu.Lock()
		streamed++
		mu.Unlock()
	})

	paths := []string{"a.txt", "b.txt", "review.txt", "d.txt", "e.txt"}
	results := batch.ProcessPaths(context.Background(), paths)

	if len(results) != len(paths) {
		t.Fatalf("expected %d results, got %d", len(paths), len(results))
	}
	for i, r := range results {
		if r.Path != paths[i] || r.Index != i {
			t.Errorf("result %d: expected %s, got %s (index %d)", i, paths[i], r.Path, r.Index)
		}
		if r.Error != nil {
			t.Errorf("unexpected error for %s: %v", r.Path, r.Error)
		}
	}
	if streamed != len(paths) {
		t.Errorf("expected %d streamed results, got %d", len(paths), streamed)
	}

	sum := Summarize(results)
	if sum.Succeeded != 5 || sum.ByRoute[model.RouteManualReview] != 1 || sum.ByRoute[model.RouteAutoApprove] != 4 {
		t.Errorf("unexpected summary: %+v", sum)
	}
	if sum.AutoApproved != 2000 || sum.TotalRequested != 2500 {
		t.Errorf("unexpected amounts: %+v", sum)
	}
}

func TestBatchProcessor_ErrorsAndPanics(t *testing.T) {
	proc := &mockProcessor{
		fail:   map[string]bool{"bad.txt": true},
		panics: map[string]bool{"boom.txt": true},
	}
	results := NewBatchProcessor(proc, 2).ProcessPaths(context.Background(), []string{"ok.txt", "bad.txt", "boom.txt"})

	if results[0].Error != nil {
		t.Errorf("expected ok.txt to succeed, got %v", results[0].Error)
	}
	if results[1].Error == nil || results[1].Report != nil {
		t.Error("expected bad.txt to fail without report")
	}
	if results[2].Error == nil || !strings.Contains(results[2].Error.Error(), "panic processing boom.txt") {
		t.Errorf("expected recovered panic, got %v", results[2].Error)
	}

	sum := Summarize(results)
	if sum.Failed != 2 || sum.Succeeded != 1 {
		t.Errorf("unexpected summary: %+v", sum)
	}
}

func TestBatchProcessor_Empty(t *testing.T) {
	results := NewBatchProcessor(&mockProcessor{}, 2).ProcessPaths(context.Background(), nil)
	if len(results) != 0 {
		t.Errorf("expected 0 results, got %d", len(results))
	}
}

func TestBatchProcessor_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := NewBatchProcessor(&mockProcessor{}, 2).ProcessPaths(ctx, []string{"a", "b", "c"})
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for _, r := range results {
		if r == nil {
			t.Fatal("expected every slot to be filled")
		}
	}
}

func TestReadPathsFromFile(t *testing.T) {
	dir := t.TempDir()
	abs := filepath.Join(dir, "abs.pdf")
	content := "claims/one.txt\n# comment\n\n  claims/two.hocr  \nclaims/one.txt\n" + abs + "\n"

	list := filepath.Join(dir, "list.txt")
	if err := os.WriteFile(list, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	paths, err := ReadPathsFromFile(list)
	if err != nil {
		t.Fatalf("ReadPathsFromFile failed: %v", err)
	}

	expected := []string{
		filepath.Join(dir, "claims/one.txt"),
		filepath.Join(dir, "claims/two.hocr"),
		abs,
	}
	if !reflect.DeepEqual(paths, expected) {
		t.Errorf("expected %v, got %v", expected, paths)
	}
}

func TestReadPathsFromFile_Missing(t *testing.T) {
	if _, err := ReadPathsFromFile(filepath.Join(t.TempDir(), "nope.txt")); err == nil {
		t.Error("expected error for missing list file")
	}
}

func TestExpandPaths(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.txt", "a.pdf", "skip.exe", ".hidden/c.txt", "sub/d.json"} {
		p := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	explicit := filepath.Join(dir, "skip.exe")

	paths, err := ExpandPaths([]string{dir, explicit, dir}, []string{"txt", ".pdf", "json"})
	if err != nil {
		t.Fatalf("ExpandPaths failed: %v", err)
	}

	expected := []string{
		filepath.Join(dir, "a.pdf"),
		filepath.Join(dir, "b.txt"),
		filepath.Join(dir, "sub/d.json"),
		explicit,
	}
	if !reflect.DeepEqual(paths, expected) {
		t.Errorf("expected %v, got %v", expected, paths)
	}
}
