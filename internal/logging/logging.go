package logging

import (
	"io"
	"unicode/utf8"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	// VerbosityQuiet disables logging.
	VerbosityQuiet = 0
	// VerbosityInfo logs one line per RPC call with abbreviated params.
	VerbosityInfo = 1
	// VerbosityDebug logs full request and response bodies.
	VerbosityDebug = 2

	abbreviateOver = 24
	abbreviateKeep = 8
)

// New returns a console logger writing to w at the level selected by verbosity.
func New(w io.Writer, verbosity int) *zap.Logger {
	if w == nil || verbosity <= VerbosityQuiet {
		return zap.NewNop()
	}
	level := zapcore.InfoLevel
	if verbosity >= VerbosityDebug {
		level = zapcore.DebugLevel
	}
	enc := zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		MessageKey:     "message",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeTime:     zapcore.TimeEncoderOfLayout("15:04:05.000"),
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
	})
	return zap.New(zapcore.NewCore(enc, zapcore.AddSync(w), zap.NewAtomicLevelAt(level)))
}

// Abbreviate shortens long strings to "first…last" so hashes and module bytes stay
// readable at info level.
func Abbreviate(s string) string {
	if utf8.RuneCountInString(s) <= abbreviateOver {
		return s
	}
	runes := []rune(s)
	return string(runes[:abbreviateKeep]) + "…" + string(runes[len(runes)-abbreviateKeep:])
}

// AbbreviateJSON walks a decoded JSON value and abbreviates every long string in it.
func AbbreviateJSON(v any) any {
	switch t := v.(type) {
	case string:
		return Abbreviate(t)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[k] = AbbreviateJSON(item)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = AbbreviateJSON(item)
		}
		return out
	default:
		return v
	}
}
