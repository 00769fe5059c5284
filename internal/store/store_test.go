package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "corechess-store-test-*")
	if err != nil {
		t.Fatalf("MkdirTemp: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tmpDir) })

	s, err := Open(filepath.Join(tmpDir, "db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	return s
}

func TestFirstLaunch(t *testing.T) {
	s := openTestStore(t)

	first, err := s.IsFirstLaunch()
	if err != nil {
		t.Fatalf("IsFirstLaunch: %v", err)
	}
	if !first {
		t.Error("expected first launch to be true on a fresh store")
	}

	if err := s.MarkFirstLaunchComplete(); err != nil {
		t.Fatalf("MarkFirstLaunchComplete: %v", err)
	}

	first, err = s.IsFirstLaunch()
	if err != nil {
		t.Fatalf("IsFirstLaunch: %v", err)
	}
	if first {
		t.Error("expected first launch to be false after marking complete")
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	s := openTestStore(t)

	loaded, err := s.LoadSettings()
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}
	if loaded.TTSizeMB != 64 {
		t.Errorf("expected default TTSizeMB=64, got %d", loaded.TTSizeMB)
	}

	want := &Settings{TTSizeMB: 256}
	if err := s.SaveSettings(want); err != nil {
		t.Fatalf("SaveSettings: %v", err)
	}

	got, err := s.LoadSettings()
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}
	if got.TTSizeMB != 256 {
		t.Errorf("expected TTSizeMB=256, got %d", got.TTSizeMB)
	}
}

func TestRecordSearch(t *testing.T) {
	s := openTestStore(t)

	if err := s.RecordSearch(1000, 50*time.Millisecond); err != nil {
		t.Fatalf("RecordSearch: %v", err)
	}
	if err := s.RecordSearch(2000, 75*time.Millisecond); err != nil {
		t.Fatalf("RecordSearch: %v", err)
	}

	counters, err := s.LoadCounters()
	if err != nil {
		t.Fatalf("LoadCounters: %v", err)
	}

	if counters.SearchesRun != 2 {
		t.Errorf("expected SearchesRun=2, got %d", counters.SearchesRun)
	}
	if counters.TotalNodes != 3000 {
		t.Errorf("expected TotalNodes=3000, got %d", counters.TotalNodes)
	}
	if counters.TotalTime != 125*time.Millisecond {
		t.Errorf("expected TotalTime=125ms, got %v", counters.TotalTime)
	}
}

func TestRecordPerftCapsHistory(t *testing.T) {
	s := openTestStore(t)

	for i := 0; i < 60; i++ {
		err := s.RecordPerft(PerftRecord{
			FEN:   "startpos",
			Depth: 5,
			Nodes: uint64(i),
		})
		if err != nil {
			t.Fatalf("RecordPerft: %v", err)
		}
	}

	counters, err := s.LoadCounters()
	if err != nil {
		t.Fatalf("LoadCounters: %v", err)
	}

	if len(counters.PerftRecords) != 50 {
		t.Errorf("expected 50 retained perft records, got %d", len(counters.PerftRecords))
	}
	if counters.PerftRecords[len(counters.PerftRecords)-1].Nodes != 59 {
		t.Errorf("expected most recent record to have Nodes=59, got %d", counters.PerftRecords[len(counters.PerftRecords)-1].Nodes)
	}
}

func TestDefaultDataDir(t *testing.T) {
	dataDir, err := DefaultDataDir()
	if err != nil {
		t.Fatalf("DefaultDataDir: %v", err)
	}
	if dataDir == "" {
		t.Error("DefaultDataDir returned empty path")
	}

	if _, err := os.Stat(dataDir); os.IsNotExist(err) {
		t.Errorf("data directory was not created: %s", dataDir)
	}
}
