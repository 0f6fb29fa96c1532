// Package decision decides, per file, whether a stored verdict can be reused,
// whether only its recorded mtime needs refreshing, or whether the verifier
// must run again.
//
// The cheap fingerprint (mtime) is consulted first; the content digest is
// computed only when the mtime changed or no verdict exists.
package decision

import (
	"context"
	"errors"
	"fmt"

	"audiocheck/internal/fingerprint"
	"audiocheck/internal/ledger"
	"audiocheck/internal/verifier"
)

// Action is the engine's conclusion for one file.
type Action int

const (
	// UseCached reuses the stored verdict unchanged.
	UseCached Action = iota
	// UpdateMtime reuses the stored verdict and refreshes its mtime.
	UpdateMtime
	// RunVerifier requires a full verification.
	RunVerifier
	// FileNotFound reports that the file vanished.
	FileNotFound
	// Error reports that the file could not be evaluated.
	Error
)

func (a Action) String() string {
	switch a {
	case UseCached:
		return "USE_CACHED"
	case UpdateMtime:
		return "UPDATE_MTIME"
	case RunVerifier:
		return "RUN_VERIFIER"
	case FileNotFound:
		return "FILE_NOT_FOUND"
	default:
		return "ERROR"
	}
}

const (
	// MessageCached accompanies a reused verdict.
	MessageCached = "Cached result"
	// MessageHashMatch accompanies a reused verdict whose mtime changed.
	MessageHashMatch = "Cached result (hash matches)"
	// MessageNotFound accompanies a vanished file.
	MessageNotFound = "File not found"
)

// Lookup finds the stored verdict for a path.
type Lookup interface {
	Lookup(ctx context.Context, path string) (ledger.Record, bool, error)
}

// Decision carries what the engine concluded and the fingerprints it computed.
// Hash is set only when a digest was taken; Mtime is set whenever the file was
// statted.
type Decision struct {
	Action       Action
	Path         string
	StoredStatus ledger.Status
	Partition    ledger.Partition
	Hash         string
	Mtime        float64
}

// Engine evaluates files against the store.
type Engine struct {
	lookup   Lookup
	resolver fingerprint.Resolver
	verifier verifier.Verifier
}

// NewEngine constructs an engine. The verifier may be nil when only Decide is used.
func NewEngine(lookup Lookup, resolver fingerprint.Resolver, v verifier.Verifier) *Engine {
	if resolver == nil {
		resolver = fingerprint.OS{}
	}
	return &Engine{lookup: lookup, resolver: resolver, verifier: v}
}

// Decide evaluates one path. A vanished file yields FileNotFound with a nil
// error; unreadable files and lookup failures return an error.
func (e *Engine) Decide(ctx context.Context, path string, force bool) (Decision, error) {
	d := Decision{Path: path}

	mtime, err := e.resolver.Stat(path)
	if err != nil {
		if errors.Is(err, fingerprint.ErrNotFound) {
			d.Action = FileNotFound
			return d, nil
		}
		return d, err
	}
	d.Mtime = mtime

	if force {
		return e.withDigest(d)
	}

	rec, ok, err := e.lookup.Lookup(ctx, path)
	if err != nil {
		return d, fmt.Errorf("lookup stored verdict: %w", err)
	}
	if !ok {
		return e.withDigest(d)
	}
	d.StoredStatus = rec.Status
	d.Partition = rec.Partition

	if rec.HasMtime && rec.Mtime == mtime {
		d.Action = UseCached
		return d, nil
	}

	d, err = e.withDigest(d)
	if err != nil {
		return d, err
	}
	if d.Hash == rec.Hash {
		d.Action = UpdateMtime
	}
	return d, nil
}

func (e *Engine) withDigest(d Decision) (Decision, error) {
	hash, err := e.resolver.Digest(d.Path)
	if err != nil {
		if errors.Is(err, fingerprint.ErrNotFound) {
			d.Action = FileNotFound
			return d, nil
		}
		return d, err
	}
	d.Hash = hash
	d.Action = RunVerifier
	return d, nil
}
