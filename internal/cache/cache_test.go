package cache

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/claimguard/internal/model"
)

func TestExtractionKey(t *testing.T) {
	a := ExtractionKey("openai", "gpt-4o-mini", model.DocAccidentReport, "text")
	b := ExtractionKey("OpenAI", "GPT-4o-mini", model.DocAccidentReport, "text")
	c := ExtractionKey("openai", "gpt-4o-mini", model.DocPoliceReport, "text")
	d := ExtractionKey("openai", "gpt-4o-mini", model.DocAccidentReport, "text!")

	if !strings.HasPrefix(a, "claimguard:v1:") {
		t.Errorf("Expected key prefix, got %s", a)
	}
	if a != b {
		t.Error("Expected provider and model to be case-insensitive")
	}
	if a == c || a == d {
		t.Error("Expected different inputs to yield different keys")
	}
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore(time.Minute, time.Minute)

	if _, ok := s.Get("k"); ok {
		t.Fatal("Expected miss on empty store")
	}
	_ = s.Set("k", []byte("v"), 0)
	if v, ok := s.Get("k"); !ok || string(v) != "v" {
		t.Errorf("Expected hit with v, got %q %v", v, ok)
	}
	if s.Len() != 1 {
		t.Errorf("Expected 1 item, got %d", s.Len())
	}
	_ = s.Delete("k")
	if _, ok := s.Get("k"); ok {
		t.Error("Expected miss after delete")
	}
}

func TestDiskStore_RoundTripAndExpiry(t *testing.T) {
	dir := t.TempDir()
	s := NewDiskStore(dir, time.Hour)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	key := ExtractionKey("p", "m", model.DocOther, "text")
	if err := s.Set(key, []byte("payload"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	if v, ok := s.Get(key); !ok || string(v) != "payload" {
		t.Fatalf("Expected payload, got %q %v", v, ok)
	}

	now = now.Add(2 * time.Hour)
	if _, ok := s.Get(key); ok {
		t.Error("Expected expired entry to miss")
	}
	if _, err := os.Stat(s.path(key)); !os.IsNotExist(err) {
		t.Error("Expected expired file to be removed")
	}
}

func TestDiskStore_CorruptFileIsMiss(t *testing.T) {
	dir := t.TempDir()
	s := NewDiskStore(dir, time.Hour)
	key := keyPrefix + "abcdef"

	path := s.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, ok := s.Get(key); ok {
		t.Error("Expected corrupt entry to miss")
	}
	if filepath.Base(filepath.Dir(path)) != "ab" {
		t.Errorf("Expected shard directory ab, got %s", filepath.Dir(path))
	}
}

func TestDiskStore_Prune(t *testing.T) {
	dir := t.TempDir()
	s := NewDiskStore(dir, time.Hour)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	_ = s.Set(keyPrefix+"aa1", []byte("1"), time.Minute)
	_ = s.Set(keyPrefix+"bb2", []byte("2"), 3*time.Hour)

	now = now.Add(time.Hour)
	removed, err := s.Prune()
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("Expected 1 pruned entry, got %d", removed)
	}
	if _, ok := s.Get(keyPrefix + "bb2"); !ok {
		t.Error("Expected live entry to survive prune")
	}
}

func TestLayered_PromotesDiskHits(t *testing.T) {
	dir := t.TempDir()
	c := NewLayered(time.Minute, dir, time.Hour)

	_ = c.disk.Set("k", []byte("v"), 0)

	if v, ok := c.Get("k"); !ok || string(v) != "v" {
		t.Fatalf("Expected disk hit, got %q %v", v, ok)
	}
	if _, ok := c.memory.Get("k"); !ok {
		t.Error("Expected disk hit to be promoted to memory")
	}
	_, _ = c.Get("k")
	_, _ = c.Get("missing")

	stats := c.Stats()
	if stats.DiskHits != 1 || stats.MemoryHits != 1 || stats.Misses != 1 {
		t.Errorf("Unexpected stats: %+v", stats)
	}
}

func TestExtractionRoundTrip(t *testing.T) {
	s := NewMemoryStore(time.Minute, time.Minute)
	ext := model.Extraction{
		Method:     model.ExtractionLLM,
		Provider:   "openai",
		Confidence: 0.8,
		Fields:     model.FromMap(map[string]any{"claimant_name": "Jane", "claim_amount": 1500.5}),
	}

	if err := PutExtraction(s, "k", ext, 0); err != nil {
		t.Fatalf("PutExtraction failed: %v", err)
	}
	got, ok := GetExtraction(s, "k")
	if !ok {
		t.Fatal("Expected hit")
	}
	if got.Provider != "openai" || got.Confidence != 0.8 {
		t.Errorf("Unexpected extraction: %+v", got)
	}
	if amount, _ := got.Fields.Get(model.FieldClaimAmount).Float(); amount != 1500.5 {
		t.Errorf("Expected claim amount 1500.5, got %v", amount)
	}

	_ = s.Set("bad", []byte("nope"), 0)
	if _, ok := GetExtraction(s, "bad"); ok {
		t.Error("Expected corrupt payload to miss")
	}
	if _, ok := s.Get("bad"); ok {
		t.Error("Expected corrupt payload to be deleted")
	}
}
