// Package fingerprint derives the cheap (mtime) and expensive (content digest)
// fingerprints used to decide whether a cached verdict is still valid.
package fingerprint

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"
)

// ChunkSize is the read size used while streaming file content into the digest.
const ChunkSize = 8 * 1024

var (
	// ErrNotFound reports that the path no longer exists.
	ErrNotFound = errors.New("file not found")
	// ErrUnreadable reports a permission or I/O failure while reading a file.
	ErrUnreadable = errors.New("file unreadable")
)

// Resolver produces fingerprints for a path.
type Resolver interface {
	// Stat returns the modification time as fractional epoch seconds.
	Stat(path string) (float64, error)
	// Digest returns the hex content digest of the file.
	Digest(path string) (string, error)
}

// OS resolves fingerprints from the local filesystem.
type OS struct{}

// Stat implements Resolver.
func (OS) Stat(path string) (float64, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, fmt.Errorf("stat %s: %w", path, ErrNotFound)
		}
		return 0, fmt.Errorf("stat %s: %w: %w", path, ErrUnreadable, err)
	}
	return Seconds(info.ModTime()), nil
}

// Digest implements Resolver. The MD5 digest matches databases written by
// earlier releases; it identifies content changes and is not a security control.
func (OS) Digest(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("open %s: %w", path, ErrNotFound)
		}
		return "", fmt.Errorf("open %s: %w: %w", path, ErrUnreadable, err)
	}
	defer file.Close()

	hasher := md5.New()
	buf := make([]byte, ChunkSize)
	if _, err := io.CopyBuffer(hasher, struct{ io.Reader }{file}, buf); err != nil {
		return "", fmt.Errorf("read %s: %w: %w", path, ErrUnreadable, err)
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// Seconds converts a modification time to the fractional epoch seconds stored
// alongside each verdict.
func Seconds(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}
