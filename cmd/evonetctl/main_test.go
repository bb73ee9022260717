package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"evonet/internal/model"
	"evonet/internal/storage"
)

func captureStdout(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	orig := stdout
	stdout = &buf
	t.Cleanup(func() { stdout = orig })
	return &buf
}

func TestRunRequiresCommand(t *testing.T) {
	if err := run(context.Background(), nil); err == nil {
		t.Fatal("expected missing command error")
	}
	err := run(context.Background(), []string{"mutate"})
	if err == nil || !strings.Contains(err.Error(), "unknown command") {
		t.Fatalf("expected unknown command error, got %v", err)
	}
	if !strings.Contains(err.Error(), "-tags sqlite") {
		t.Fatalf("usage must name the sqlite build tag, got %q", err)
	}
}

func TestEvolveWritesSnapshot(t *testing.T) {
	out := captureStdout(t)
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "evonet.ini")
	cfg := "[Replicator]\nn_node_copies = 1\nn_node_additions = 1\nn_link_additions = 2\nn_weight_changes = 3\nnamer = counter\n\n[Baseline]\nn_inputs = 2\nn_hidden = 2\nn_outputs = 1\n\n[Run]\ngenerations = 3\nrun_id = cli\n"
	if err := os.WriteFile(cfgPath, []byte(cfg), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	snapshotPath := filepath.Join(dir, "final.json")

	if err := run(context.Background(), []string{"evolve", "--config", cfgPath, "--seed", "7", "--out", snapshotPath}); err != nil {
		t.Fatalf("evolve: %v", err)
	}
	if !strings.Contains(out.String(), "evolved run_id=cli generations=3") {
		t.Fatalf("unexpected output: %s", out.String())
	}
	if !strings.Contains(out.String(), "lineage records=") {
		t.Fatalf("expected lineage summary, got %s", out.String())
	}

	data, err := os.ReadFile(snapshotPath)
	if err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	snapshot, err := storage.DecodeSnapshot(data)
	if err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	m, err := model.FromSnapshot(snapshot)
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	if err := m.CheckIntegrity(); err != nil {
		t.Fatalf("evolved model is inconsistent: %v", err)
	}
	if m.ID != "cli" {
		t.Fatalf("expected model id cli, got %s", m.ID)
	}
}

func TestEvolveRejectsInvalidConfig(t *testing.T) {
	captureStdout(t)
	cfgPath := filepath.Join(t.TempDir(), "bad.ini")
	if err := os.WriteFile(cfgPath, []byte("[Baseline]\nn_outputs = 1\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if err := run(context.Background(), []string{"evolve", "--config", cfgPath}); err == nil {
		t.Fatal("expected config error")
	}
}

func TestShowRequiresID(t *testing.T) {
	if err := run(context.Background(), []string{"show", "--store", "memory"}); err == nil {
		t.Fatal("expected missing id error")
	}
	if err := run(context.Background(), []string{"show", "--store", "memory", "--id", "absent"}); err == nil || !strings.Contains(err.Error(), "model not found") {
		t.Fatalf("expected model not found, got %v", err)
	}
}
