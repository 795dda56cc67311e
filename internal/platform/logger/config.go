package logger

import (
	"strings"

	"go.uber.org/zap/zapcore"
)

// LoggerConfig is filled from the service configuration (LOG_LEVEL, LOG_FORMAT,
// LOG_OUTPUT_FILE). The logger package itself never reads the environment.
type LoggerConfig struct {
	Level      string
	Format     string
	OutputFile string
}

// DefaultConfig is what the bootstrap logger uses before configuration is loaded.
func DefaultConfig() *LoggerConfig {
	return &LoggerConfig{Level: "info", Format: "json", OutputFile: "stdout"}
}

// ToZapLevel parses Level. "warning" is accepted as "warn"; anything unparsable is info.
func (c *LoggerConfig) ToZapLevel() zapcore.Level {
	name := strings.ToLower(strings.TrimSpace(c.Level))
	if name == "warning" {
		name = "warn"
	}
	lvl, err := zapcore.ParseLevel(name)
	if err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}

func (c *LoggerConfig) console() bool {
	f := strings.ToLower(c.Format)
	return f == "console" || f == "text"
}
