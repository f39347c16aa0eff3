package state

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestComputeID(t *testing.T) {
	id := ComputeID("2024년 세법 개정안 발표", "https://x/1")

	if len(id) != 16 {
		t.Errorf("len(id) = %d, want 16", len(id))
	}
	if id != ComputeID("2024년 세법 개정안 발표", "https://x/1") {
		t.Error("ComputeID is not deterministic")
	}
	if id != ComputeID("  2024년 세법 개정안 발표\t", " https://x/1\n") {
		t.Error("ComputeID is sensitive to surrounding whitespace")
	}
	if id == ComputeID("2024년 세법 개정안 발표", "https://x/2") {
		t.Error("different URLs yield the same identity")
	}
	if id == ComputeID("다른 제목", "https://x/1") {
		t.Error("different titles yield the same identity")
	}
}

func TestLoadMissingFileReturnsEmptyState(t *testing.T) {
	st := NewStore(filepath.Join(t.TempDir(), "absent", "state.json"))

	s, err := st.Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if s.Len() != 0 {
		t.Errorf("Len = %d, want 0", s.Len())
	}
}

func TestLoadCorruptFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := NewStore(path).Load(); err == nil {
		t.Fatal("Load of corrupt state succeeded, want error")
	}
}

func TestSaveLoadRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "state.json")
	st := NewStore(path)

	s := NewState()
	s.MarkSent(ComputeID("a", "https://x/a"))
	s.MarkSent(ComputeID("b", "https://x/b"))

	if err := st.Save(s); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	loaded, err := st.Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if loaded.Len() != 2 {
		t.Fatalf("Len = %d, want 2", loaded.Len())
	}
	if !loaded.Seen(ComputeID("a", "https://x/a")) {
		t.Error("identity of item a lost in roundtrip")
	}
	if loaded.Seen(ComputeID("c", "https://x/c")) {
		t.Error("Seen reports an identity that was never marked")
	}
}

func TestSaveWritesStableHumanReadableJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	st := NewStore(path)

	s := NewState()
	s.MarkSent("bbbbbbbbbbbbbbbb")
	s.MarkSent("aaaaaaaaaaaaaaaa")

	if err := st.Save(s); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	first, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	var f struct {
		SentIDs []string `json:"sent_ids"`
	}
	if err := json.Unmarshal(first, &f); err != nil {
		t.Fatalf("state file is not valid JSON: %v", err)
	}
	if len(f.SentIDs) != 2 || f.SentIDs[0] != "aaaaaaaaaaaaaaaa" {
		t.Errorf("sent_ids = %v, want sorted ids", f.SentIDs)
	}

	// Saving the same state again must produce identical bytes.
	if err := st.Save(s); err != nil {
		t.Fatalf("second Save error: %v", err)
	}
	second, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(first) != string(second) {
		t.Error("repeated Save of the same state produced different bytes")
	}
}
