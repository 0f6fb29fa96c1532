package config

const (
	defaultCacheDir         = "~/.local/share/audiocheck/cache"
	defaultLogDir           = "~/.local/share/audiocheck/logs"
	defaultLogRetentionDays = 60
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	defaultBatchSize        = 100
	defaultMinFreeMiB       = 64
	defaultVerifierBinary   = "ffmpeg"
	defaultDatabaseName     = "integrity_check.db"
)

// DefaultExtensions lists the audio container extensions checked when the
// configuration does not override them.
var DefaultExtensions = []string{".flac", ".wav", ".m4a", ".mp3", ".ogg", ".opus", ".ape", ".wv", ".wma"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			CacheDir: defaultCacheDir,
			LogDir:   defaultLogDir,
		},
		Check: Check{
			Workers:    0,
			BatchSize:  defaultBatchSize,
			Extensions: append([]string(nil), DefaultExtensions...),
			MinFreeMiB: defaultMinFreeMiB,
		},
		Verifier: Verifier{
			Binary: defaultVerifierBinary,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
