package verifier

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"audiocheck/internal/ledger"
)

// Result is the verdict for one file.
type Result struct {
	Status  ledger.Status
	Message string
}

// Passed reports whether the checker accepted the file.
func (r Result) Passed() bool {
	return r.Status == ledger.StatusPassed
}

// Verifier checks a single file.
type Verifier interface {
	Verify(ctx context.Context, path string) Result
}

// Func adapts an ordinary function to the Verifier interface.
type Func func(ctx context.Context, path string) Result

// Verify implements Verifier.
func (f Func) Verify(ctx context.Context, path string) Result {
	return f(ctx, path)
}

// FFmpeg decodes files with ffmpeg, discarding the output.
type FFmpeg struct {
	Binary  string
	Args    []string
	Timeout time.Duration
}

// Command returns the argument vector used to check path.
func (f FFmpeg) Command(path string) []string {
	binary := strings.TrimSpace(f.Binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	args := []string{binary, "-v", "error"}
	args = append(args, f.Args...)
	return append(args, "-i", path, "-f", "null", "-")
}

// Verify implements Verifier.
func (f FFmpeg) Verify(ctx context.Context, path string) Result {
	if ctx == nil {
		ctx = context.Background()
	}
	if f.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.Timeout)
		defer cancel()
	}

	argv := f.Command(path)
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	cmd.WaitDelay = 2 * time.Second
	runErr := cmd.Run()
	diagnostic := strings.TrimSpace(stderr.String())

	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return Result{Status: ledger.StatusFailed, Message: fmt.Sprintf("verifier timed out after %s", f.Timeout)}
	case runErr != nil && diagnostic != "":
		return Result{Status: ledger.StatusFailed, Message: diagnostic}
	case runErr != nil:
		return Result{Status: ledger.StatusFailed, Message: fmt.Sprintf("run %s: %v", argv[0], runErr)}
	case diagnostic != "":
		return Result{Status: ledger.StatusFailed, Message: diagnostic}
	default:
		return Result{Status: ledger.StatusPassed}
	}
}
