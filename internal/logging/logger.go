package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"audiocheck/internal/config"
)

// Options describes logger construction parameters.
type Options struct {
	Level  string
	Format string
	// Outputs defaults to stderr when empty.
	Outputs []string
	RunID   string
}

// New constructs a slog logger using the provided options.
func New(opts Options) (*slog.Logger, error) {
	level := parseLevel(opts.Level)
	levelVar := new(slog.LevelVar)
	levelVar.Set(level)

	outputWriter, err := openWriters(opts.Outputs)
	if err != nil {
		return nil, err
	}

	addSource := level <= slog.LevelDebug

	format := strings.ToLower(strings.TrimSpace(opts.Format))
	if format == "" {
		format = "console"
	}

	var handler slog.Handler
	switch format {
	case "json":
		handler = newJSONHandler(outputWriter, levelVar, addSource)
	case "console":
		handler = newPrettyHandler(outputWriter, levelVar, addSource)
	default:
		return nil, fmt.Errorf("log format: unsupported value %q", opts.Format)
	}

	if runID := strings.TrimSpace(opts.RunID); runID != "" {
		handler = newRunIDHandler(handler, runID)
	}

	return slog.New(handler), nil
}

// RunLogPath returns the per-run log file location inside logDir.
func RunLogPath(logDir, runID string) string {
	return filepath.Join(logDir, fmt.Sprintf("audiocheck-%s.log", runID))
}

// NewFromConfig creates a logger using application config defaults. Console
// output goes to stderr in the configured format; when a log directory is
// configured, every record is also written as JSON to a per-run log file.
func NewFromConfig(cfg *config.Config, runID string) (*slog.Logger, error) {
	if cfg == nil {
		return New(Options{Level: "info", Format: "console", RunID: runID})
	}

	logger, err := New(Options{
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		Outputs: cfg.Logging.Outputs,
		RunID:   runID,
	})
	if err != nil {
		return nil, err
	}
	if cfg.Paths.LogDir == "" || runID == "" {
		return logger, nil
	}

	path := RunLogPath(cfg.Paths.LogDir, runID)
	writer, err := openWriters([]string{path})
	if err != nil {
		return nil, fmt.Errorf("open run log: %w", err)
	}
	levelVar := new(slog.LevelVar)
	levelVar.Set(parseLevel(cfg.Logging.Level))
	fileHandler := newRunIDHandler(newJSONHandler(writer, levelVar, false), runID)
	return TeeLogger(logger, fileHandler), nil
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	case "info", "":
		return slog.LevelInfo
	default:
		return slog.LevelInfo
	}
}

func openWriters(outputs []string) (io.Writer, error) {
	seen := map[string]struct{}{}
	var writers []io.Writer
	for _, path := range outputs {
		trimmed := strings.TrimSpace(path)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}

		switch trimmed {
		case "stdout":
			writers = append(writers, os.Stdout)
		case "stderr":
			writers = append(writers, os.Stderr)
		default:
			if err := ensureLogDir(trimmed); err != nil {
				return nil, err
			}
			file, err := os.OpenFile(trimmed, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o664)
			if err != nil {
				return nil, fmt.Errorf("open log file %s: %w", trimmed, err)
			}
			writers = append(writers, file)
		}
	}

	if len(writers) == 0 {
		return os.Stderr, nil
	}
	if len(writers) == 1 {
		return writers[0], nil
	}
	return io.MultiWriter(writers...), nil
}

func ensureLogDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func newJSONHandler(w io.Writer, lvl *slog.LevelVar, addSource bool) slog.Handler {
	opts := slog.HandlerOptions{
		Level:     lvl,
		AddSource: addSource,
		ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
			switch attr.Key {
			case slog.TimeKey:
				attr.Key = "ts"
				if attr.Value.Kind() == slog.KindTime {
					attr.Value = slog.StringValue(attr.Value.Time().UTC().Format(time.RFC3339))
				}
			case slog.LevelKey:
				attr.Value = slog.StringValue(strings.ToLower(attr.Value.String()))
			case slog.SourceKey:
				if src, ok := attr.Value.Any().(*slog.Source); ok && src != nil {
					attr.Value = slog.StringValue(fmt.Sprintf("%s:%d", filepath.Base(src.File), src.Line))
				}
			}
			return attr
		},
	}
	return slog.NewJSONHandler(w, &opts)
}
