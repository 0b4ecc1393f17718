// Package logging builds the zap loggers used across the service.
//
// Every line is a single JSON object with "ts" (RFC3339Nano in the configured
// location), "level" and "msg" keys, followed by the structured fields.
package logging

import (
	"io"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a JSON logger writing to w. Timestamps are rendered in loc.
// An unknown level falls back to info.
func New(w io.Writer, loc *time.Location, level string) *zap.Logger {
	if loc == nil {
		loc = time.UTC
	}
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}

	encCfg := zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		MessageKey:     "msg",
		NameKey:        "logger",
		CallerKey:      zapcore.OmitKey,
		StacktraceKey:  zapcore.OmitKey,
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeDuration: zapcore.MillisDurationEncoder,
		EncodeTime: func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
			enc.AppendString(t.In(loc).Format(time.RFC3339Nano))
		},
	}

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(w), lvl)
	return zap.New(core)
}

// NewStdout is New bound to os.Stdout.
func NewStdout(loc *time.Location, level string) *zap.Logger {
	return New(os.Stdout, loc, level)
}

// Location resolves an IANA time zone name, falling back to UTC.
func Location(name string) *time.Location {
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}
