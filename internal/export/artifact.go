package export

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"htas-bench/internal/stats"
)

// Artifact is the on-disk record of one full benchmark run: every policy's
// aggregate statistics plus enough metadata to reproduce the run.
type Artifact struct {
	Version int `json:"version"`

	CreatedAt time.Time `json:"created_at"`

	BenchmarkName string `json:"benchmark_name"`
	DurationTicks uint32 `json:"duration_ticks"`
	TickMicros    uint64 `json:"tick_micros"`
	Hostname      string `json:"hostname"`

	// Results keyed by policy selector ("baseline", "htas", "dynamic").
	Results map[string]*stats.Stats `json:"results"`
}

// DefaultSpoolDir resolves the artifact directory, overridable by
// environment.
func DefaultSpoolDir() string {
	if v := strings.TrimSpace(os.Getenv("HTAS_BENCH_SPOOL_DIR")); v != "" {
		return v
	}
	return "spool"
}

// WriteArtifact writes a gzip-compressed JSON artifact to disk atomically
// and returns the final file path.
func WriteArtifact(dir string, artifact *Artifact) (string, error) {
	if artifact == nil {
		return "", fmt.Errorf("artifact is nil")
	}
	if dir == "" {
		dir = DefaultSpoolDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	name := artifact.BenchmarkName
	if name == "" {
		name = "benchmark"
	}
	final := filepath.Join(dir, fmt.Sprintf("%s-%d.json.gz", name, artifact.CreatedAt.Unix()))

	tmp, err := os.CreateTemp(dir, ".artifact-*")
	if err != nil {
		return "", err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	gz := gzip.NewWriter(tmp)
	enc := json.NewEncoder(gz)
	if err := enc.Encode(artifact); err != nil {
		tmp.Close()
		return "", err
	}
	if err := gz.Close(); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}

	if err := os.Rename(tmpName, final); err != nil {
		return "", err
	}
	return final, nil
}

// ReadArtifact loads a spooled artifact back from disk.
func ReadArtifact(path string) (*Artifact, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer gz.Close()

	var artifact Artifact
	if err := json.NewDecoder(gz).Decode(&artifact); err != nil {
		return nil, err
	}
	return &artifact, nil
}
