package worker

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/emptyOVO/brckit-go/agg"
	log "github.com/sirupsen/logrus"
)

// SpillDir resolves where intermediate files go: dir when set, otherwise
// /dev/shm when it exists, otherwise the OS temp dir.
func SpillDir(dir string) string {
	if dir != "" {
		return dir
	}
	baseDir := "/dev/shm"
	if info, err := os.Stat(baseDir); err != nil || !info.IsDir() {
		baseDir = os.TempDir()
	}
	return baseDir
}

// Spill writes the partial result of one partition to an intermediate file
// and returns its name.
func Spill(dir, runID string, partition int, r agg.Result) (string, error) {
	fname := filepath.Join(dir, fmt.Sprintf("imd-%v-%v.bin", runID, partition))
	if err := os.MkdirAll(filepath.Dir(fname), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(fname, EncodePartial(r), 0o644); err != nil {
		_ = os.Remove(fname)
		return "", fmt.Errorf("spill partition %d: %w", partition, err)
	}
	log.WithFields(log.Fields{"partition": partition, "file": fname}).Trace("[Worker] Wrote intermediate file")
	return fname, nil
}

// LoadSpill reads back an intermediate file and removes it.
func LoadSpill(fname string) (agg.Result, error) {
	b, err := os.ReadFile(fname)
	if err != nil {
		return nil, err
	}
	defer os.Remove(fname)
	r, err := DecodePartial(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fname, err)
	}
	return r, nil
}
