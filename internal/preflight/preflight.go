package preflight

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"golang.org/x/sys/unix"

	"audiocheck/internal/config"
	"audiocheck/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes every preflight check for the given config.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	results = append(results, CheckDirectoryAccess("Cache directory", cfg.Paths.CacheDir))
	results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	if cfg.Check.MinFreeMiB > 0 {
		results = append(results, CheckFreeSpace("Cache volume", cfg.Paths.CacheDir, uint64(cfg.Check.MinFreeMiB)*1024*1024))
	}
	results = append(results, CheckVerifier(cfg.VerifierBinary()))
	return results
}

// Failures returns the failed results.
func Failures(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}

// Summarize joins failed results into one error message, or returns nil.
func Summarize(results []Result) error {
	failed := Failures(results)
	if len(failed) == 0 {
		return nil
	}
	parts := make([]string, 0, len(failed))
	for _, r := range failed {
		parts = append(parts, fmt.Sprintf("%s: %s", r.Name, r.Detail))
	}
	return fmt.Errorf("preflight failed: %s", strings.Join(parts, "; "))
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckFreeSpace verifies the filesystem holding path has at least minBytes available.
func CheckFreeSpace(name, path string, minBytes uint64) Result {
	var stat unix.Statfs_t
	if err := unix.Statfs(filepath.Clean(path), &stat); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: statfs: %v)", path, err)}
	}
	free := stat.Bavail * uint64(stat.Bsize)
	if free < minBytes {
		return Result{Name: name, Detail: fmt.Sprintf("%s free, %s required", humanize.IBytes(free), humanize.IBytes(minBytes))}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s free", humanize.IBytes(free))}
}

// CheckVerifier verifies the verifier binary resolves.
func CheckVerifier(binary string) Result {
	status := deps.CheckBinaries(deps.VerifierRequirements(binary))[0]
	if !status.Available {
		return Result{Name: status.Name, Detail: status.Detail}
	}
	return Result{Name: status.Name, Passed: true, Detail: status.Command}
}
