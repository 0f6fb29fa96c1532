package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"audiocheck/internal/config"
)

// FakeFFmpegScript behaves like `ffmpeg -v error ... -i <path> -f null -`: it
// prints a decode error to stderr for any argument containing "corrupt" and
// stays silent otherwise.
const FakeFFmpegScript = `#!/bin/sh
for arg in "$@"; do
  case "$arg" in
    *corrupt*) echo "Invalid data found when processing input" >&2 ;;
  esac
done
exit 0
`

// FakeFFprobeScript answers `ffprobe ... -of json -- <path>` with canned
// metadata chosen by the file name: "*.mp3" is MP3, "*aac*.m4a" is AAC,
// "*lowres*" is 8-bit 22.05 kHz mono FLAC, anything else 24/96 stereo FLAC.
// Paths containing "corrupt" fail with a decode error.
const FakeFFprobeScript = `#!/bin/sh
for arg in "$@"; do path="$arg"; done
case "$path" in
  *corrupt*)
    echo "$path: Invalid data found when processing input" >&2
    exit 1 ;;
  *.mp3)
    codec=mp3; rate=44100; depth=""; ch=2; br=320000 ;;
  *aac*.m4a)
    codec=aac; rate=44100; depth=""; ch=2; br=256000 ;;
  *lowres*)
    codec=flac; rate=22050; depth=8; ch=1; br=180000 ;;
  *)
    codec=flac; rate=96000; depth=24; ch=2; br=3000000 ;;
esac
cat <<JSON
{"streams":[{"index":0,"codec_name":"$codec","codec_type":"audio","sample_rate":"$rate","channels":$ch,"bits_per_raw_sample":"$depth"}],
 "format":{"filename":"$path","duration":"180.000000","bit_rate":"$br"}}
JSON
`

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.CacheDir = filepath.Join(base, "cache")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Check.Workers = 2
	cfgVal.Check.MinFreeMiB = 0

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithBatchSize overrides the flush cadence.
func WithBatchSize(size int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Check.BatchSize = size
	}
}

// WithWorkers overrides the worker count.
func WithWorkers(n int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Check.Workers = n
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. The verifier binary gets FakeFFmpegScript, "ffprobe"
// gets FakeFFprobeScript and any other name exits 0 silently. If names is empty, the configured verifier is stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{b.cfg.VerifierBinary()}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		for _, name := range names {
			script := "#!/bin/sh\nexit 0\n"
			switch name {
			case b.cfg.VerifierBinary():
				script = FakeFFmpegScript
			case "ffprobe":
				script = FakeFFprobeScript
			}
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, []byte(script), 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}

		oldPath := os.Getenv("PATH")
		if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
			b.t.Fatalf("set PATH: %v", err)
		}
		b.t.Cleanup(func() {
			_ = os.Setenv("PATH", oldPath)
		})
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.CacheDir)
}

// MusicDir returns a library directory under the config's temp root.
func MusicDir(cfg *config.Config) string {
	return filepath.Join(BaseDir(cfg), "music")
}
