package decision

import (
	"context"

	"audiocheck/internal/ledger"
)

// Outcome is the result reported for one file after any verification ran.
type Outcome struct {
	Action    Action
	Path      string
	Status    ledger.Status
	Message   string
	Partition ledger.Partition
	Hash      string
	Mtime     float64
	Err       error
}

// Verdict reports whether the outcome carries a PASSED or FAILED status.
func (o Outcome) Verdict() bool {
	return o.Action != FileNotFound && o.Action != Error
}

// Line renders the outcome the way result logs and verbose output show it.
func (o Outcome) Line() string {
	label := string(o.Status)
	switch o.Action {
	case FileNotFound:
		label = "NOT_FOUND"
	case Error:
		label = "ERROR"
	}
	line := label + " " + o.Path
	if o.Message != "" {
		line += ": " + o.Message
	}
	return line
}

// Process decides what to do with path and runs the verifier when required.
func (e *Engine) Process(ctx context.Context, path string, force bool) Outcome {
	d, err := e.Decide(ctx, path, force)
	out := Outcome{
		Action:    d.Action,
		Path:      path,
		Partition: d.Partition,
		Hash:      d.Hash,
		Mtime:     d.Mtime,
	}
	if err != nil {
		out.Action = Error
		out.Message = err.Error()
		out.Err = err
		return out
	}

	switch d.Action {
	case UseCached:
		out.Status = d.StoredStatus
		out.Message = MessageCached
	case UpdateMtime:
		out.Status = d.StoredStatus
		out.Message = MessageHashMatch
	case FileNotFound:
		out.Message = MessageNotFound
	case RunVerifier:
		res := e.verifier.Verify(ctx, path)
		out.Status = res.Status
		out.Message = res.Message
		out.Partition = ledger.PartitionFor(res.Status)
	}
	return out
}
