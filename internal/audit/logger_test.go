package audit

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func readEntries(t *testing.T, path string) []Entry {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Failed to open audit log: %v", err)
	}
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var entry Entry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			t.Fatalf("Failed to unmarshal audit entry %q: %v", scanner.Text(), err)
		}
		entries = append(entries, entry)
	}
	return entries
}

func TestNewLogger(t *testing.T) {
	tempDir := filepath.Join(t.TempDir(), "nested")

	logger, err := NewLogger(tempDir)
	if err != nil {
		t.Fatalf("NewLogger() failed: %v", err)
	}
	defer func() { _ = logger.Close() }()

	expectedPath := filepath.Join(tempDir, "audit.jsonl")
	if logger.GetFilePath() != expectedPath {
		t.Errorf("Expected file path %s, got %s", expectedPath, logger.GetFilePath())
	}
	if _, err := os.Stat(tempDir); err != nil {
		t.Errorf("Audit directory was not created: %v", err)
	}
}

func TestLogCommand(t *testing.T) {
	logger, err := NewLogger(t.TempDir())
	if err != nil {
		t.Fatalf("NewLogger() failed: %v", err)
	}
	defer func() { _ = logger.Close() }()

	ctx := WithUser(context.Background(), "web")
	params := map[string]interface{}{"power": 30, "durationMs": 500}
	logger.LogCommand(ctx, 1, "PAC1", "SHOCK", params, OutcomeSuccess, nil, 120*time.Millisecond)
	logger.LogCommand(context.Background(), 3, "", "BEEP", nil, OutcomeRejected, fmt.Errorf("receiver 3: %w", errors.New("OUT_OF_RANGE")), 0)

	entries := readEntries(t, logger.GetFilePath())
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}

	first := entries[0]
	if first.User != "web" || first.Receiver != 1 || first.ReceiverName != "PAC1" || first.Action != "SHOCK" {
		t.Errorf("Unexpected entry: %+v", first)
	}
	if first.Code != OutcomeSuccess || first.LatencyMs != 120 {
		t.Errorf("Unexpected outcome: %+v", first)
	}
	if first.Params["power"] != float64(30) {
		t.Errorf("Expected power 30, got %v", first.Params["power"])
	}

	second := entries[1]
	if second.User != "local" {
		t.Errorf("Expected default user local, got %s", second.User)
	}
	if second.Outcome != OutcomeRejected || second.Code != "OUT_OF_RANGE" {
		t.Errorf("Unexpected outcome: %+v", second)
	}
	if second.Params == nil {
		t.Error("Params must never be null")
	}
}

func TestConcurrentLogging(t *testing.T) {
	logger, err := NewLogger(t.TempDir())
	if err != nil {
		t.Fatalf("NewLogger() failed: %v", err)
	}
	defer func() { _ = logger.Close() }()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			logger.LogCommand(context.Background(), i, "", "BEEP", nil, OutcomeSuccess, nil, 0)
		}(i)
	}
	wg.Wait()

	if n := len(readEntries(t, logger.GetFilePath())); n != 20 {
		t.Errorf("Expected 20 entries, got %d", n)
	}
}

func TestRotate(t *testing.T) {
	dir := t.TempDir()
	logger, err := NewLogger(dir)
	if err != nil {
		t.Fatalf("NewLogger() failed: %v", err)
	}

	logger.LogCommand(context.Background(), 1, "", "BEEP", nil, OutcomeSuccess, nil, 0)
	if err := logger.Rotate(); err != nil {
		t.Fatalf("Rotate() failed: %v", err)
	}
	logger.LogCommand(context.Background(), 2, "", "BEEP", nil, OutcomeSuccess, nil, 0)

	entries := readEntries(t, logger.GetFilePath())
	if len(entries) != 1 || entries[0].Receiver != 2 {
		t.Errorf("Expected only the entry written after rotation, got %+v", entries)
	}

	if err := logger.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}
	if err := logger.Rotate(); err == nil {
		t.Error("Rotate() on a closed logger should fail")
	}
	// writing after close is a no-op
	logger.LogCommand(context.Background(), 3, "", "BEEP", nil, OutcomeSuccess, nil, 0)
}
