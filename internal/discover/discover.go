// Package discover enumerates the audio files a check run should consider.
package discover

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/text/unicode/norm"
)

// ErrNotAudio reports a single-file target without an audio extension.
var ErrNotAudio = errors.New("not an audio file")

// Options selects which files qualify.
type Options struct {
	// Extensions are lowercase with a leading dot.
	Extensions []string
	// Exclude holds doublestar globs matched against slash-separated paths
	// relative to the scanned root. Both sides are compared in NFC, so a
	// typed "Björk/**" also skips a directory whose name was written decomposed.
	Exclude []string
}

// Discover returns the absolute paths of audio files under target, sorted
// for deterministic processing order. A target naming a single file is
// returned as-is when its extension qualifies.
func Discover(target string, opts Options) ([]string, error) {
	root, err := filepath.Abs(target)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", target, err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", target, err)
	}

	allowed := make(map[string]bool, len(opts.Extensions))
	for _, ext := range opts.Extensions {
		allowed[strings.ToLower(ext)] = true
	}

	if !info.IsDir() {
		if !allowed[strings.ToLower(filepath.Ext(root))] {
			return nil, fmt.Errorf("%s: %w", target, ErrNotAudio)
		}
		return []string{root}, nil
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		if rel != "." && excluded(opts.Exclude, filepath.ToSlash(rel)) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if allowed[strings.ToLower(filepath.Ext(path))] {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

func excluded(globs []string, rel string) bool {
	if len(globs) == 0 {
		return false
	}
	rel = norm.NFC.String(rel)
	for _, g := range globs {
		if ok, err := doublestar.Match(norm.NFC.String(g), rel); err == nil && ok {
			return true
		}
	}
	return false
}
