// Package verifier runs the external integrity checker against one file and
// turns its diagnostics into a PASSED or FAILED verdict.
//
// Key types:
//   - Verifier: the interface the decision engine calls
//   - FFmpeg: decodes the whole file with ffmpeg and treats any stderr output
//     as corruption
//   - Func: adapts a plain function, used by tests and alternate checkers
//
// Verify never returns an error. Launch failures, non-zero exits and timeouts
// all become FAILED results carrying the diagnostic text.
package verifier
