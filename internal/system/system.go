// Package system inspects the host: resources for sizing batch runs,
// available encoders and the newest inputs in a directory.
package system

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// Snapshot is the host state at one instant.
type Snapshot struct {
	LogicalCPUs     int
	TotalMemory     uint64
	AvailableMemory uint64
}

// Take reads the current host state. Missing counters fall back to the Go
// runtime's view.
func Take() Snapshot {
	s := Snapshot{LogicalCPUs: runtime.NumCPU()}
	if n, err := cpu.Counts(true); err == nil && n > 0 {
		s.LogicalCPUs = n
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		s.TotalMemory = vm.Total
		s.AvailableMemory = vm.Available
	}
	return s
}

// JobMemory is the working set budgeted per concurrent compile.
const JobMemory = 256 << 20

// Parallelism picks how many jobs to run at once: at most one per CPU, and
// no more than available memory allows.
func (s Snapshot) Parallelism(jobs int) int {
	n := s.LogicalCPUs
	if s.AvailableMemory > 0 {
		if byMem := int(s.AvailableMemory / JobMemory); byMem < n {
			n = byMem
		}
	}
	if jobs > 0 && jobs < n {
		n = jobs
	}
	if n < 1 {
		n = 1
	}
	return n
}

// BestH264Encoder returns the first hardware H.264 encoder the engine at
// binary reports, or libx264.
func BestH264Encoder(ctx context.Context, binary string) string {
	out, err := exec.CommandContext(ctx, binary, "-hide_banner", "-encoders").CombinedOutput()
	if err != nil {
		return "libx264"
	}
	for _, name := range []string{"h264_videotoolbox", "h264_nvenc"} {
		if strings.Contains(string(out), name) {
			return name
		}
	}
	return "libx264"
}

// AudioExts are the narration formats picked up from a tutorial directory.
var AudioExts = []string{".mp3", ".wav", ".m4a", ".ogg", ".aac", ".flac"}

// FindLatest returns the most recently modified file in dir whose
// extension is one of exts.
func FindLatest(dir string, exts []string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	var (
		latest     string
		latestTime time.Time
	)
	for _, e := range entries {
		if e.IsDir() || !hasExt(e.Name(), exts) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if latest == "" || info.ModTime().After(latestTime) {
			latest, latestTime = filepath.Join(dir, e.Name()), info.ModTime()
		}
	}
	if latest == "" {
		return "", fmt.Errorf("no %s files in %s", strings.Join(exts, "/"), dir)
	}
	return latest, nil
}

func hasExt(name string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}
