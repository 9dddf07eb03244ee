package config

import (
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func (l *LogConfig) normalize() []string {
	var warnings []string
	if l.Level == "" {
		l.Level = "info"
	} else if _, err := l.level(); err != nil {
		warnings = append(warnings, fmt.Sprintf("log.level: %v; using \"info\"", err))
		l.Level = "info"
	}
	switch f := strings.ToLower(l.Format); f {
	case "":
		l.Format = "console"
	case "console", "json":
		l.Format = f
	default:
		warnings = append(warnings, fmt.Sprintf("log.format: unknown format %q; using \"console\"", l.Format))
		l.Format = "console"
	}
	return warnings
}

func (l *LogConfig) level() (zapcore.Level, error) {
	return zapcore.ParseLevel(l.Level)
}

// NewLogger builds a logger writing to w. Verbose forces the debug level.
func (l *LogConfig) NewLogger(w io.Writer, verbose bool) *zap.Logger {
	lvl, err := l.level()
	if err != nil {
		lvl = zap.InfoLevel
	}
	if verbose {
		lvl = zap.DebugLevel
	}

	var enc zapcore.Encoder
	if strings.EqualFold(l.Format, "json") {
		enc = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	} else {
		ec := zap.NewDevelopmentEncoderConfig()
		ec.TimeKey = ""
		ec.CallerKey = ""
		enc = zapcore.NewConsoleEncoder(ec)
	}
	return zap.New(zapcore.NewCore(enc, zapcore.AddSync(w), lvl))
}
