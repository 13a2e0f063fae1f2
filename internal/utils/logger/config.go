// internal/utils/logger/config.go
package logger

type Config struct {
	// LogFile receives JSON lines through a rotating writer. Empty disables
	// the file sink.
	LogFile    string
	MaxSize    int  // megabytes
	MaxAge     int  // days
	MaxBackups int  // files
	Compress   bool // gzip rotated files

	// Level is a zap level name ("debug", "info", ...). Development forces
	// debug.
	Level       string
	Development bool
	// Quiet drops the console sink, leaving only the file.
	Quiet bool
}

// DefaultConfig returns the configuration used when none is given.
func DefaultConfig() *Config {
	return &Config{
		LogFile:    "bondcurve.log",
		MaxSize:    100,
		MaxAge:     7,
		MaxBackups: 3,
		Compress:   true,
		Level:      "info",
	}
}
