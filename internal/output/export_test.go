package output

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v3"

	"saturate/internal/runner"
)

func TestWriteResultsJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.json")
	if err := WriteResults(path, sampleRunResult()); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	var decoded runner.Result
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("results file is not valid JSON: %v", err)
	}
	if decoded.Workers != 32 {
		t.Errorf("workers = %d", decoded.Workers)
	}
}

func TestWriteResultsYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.yaml")
	if err := WriteResults(path, sampleRunResult()); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	var decoded runner.Result
	if err := yaml.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("results file is not valid YAML: %v", err)
	}
	if decoded.AvgThroughputMBps != 10 {
		t.Errorf("avg throughput = %v", decoded.AvgThroughputMBps)
	}
}

func TestWriteResultsEmptyPath(t *testing.T) {
	if err := WriteResults("", sampleRunResult()); err == nil {
		t.Fatal("expected error for empty path")
	}
}
