package logging

import (
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options selects level and sinks. An empty Dir logs to stdout only.
type Options struct {
	Level string // debug | info | warn | error
	Dir   string
}

// NewLogger builds the JSON logger used by every service. Each call mints
// a fresh boot_id so log lines from one boot can be grouped.
func NewLogger(o Options) (*zap.Logger, error) {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "ts"
	enc := zapcore.NewJSONEncoder(cfg)
	lvl := ParseLevel(o.Level)

	cores := []zapcore.Core{
		zapcore.NewCore(enc, zapcore.Lock(os.Stdout), lvl),
	}
	if o.Dir != "" {
		if err := os.MkdirAll(o.Dir, 0o755); err != nil {
			return nil, err
		}
		w := zapcore.AddSync(&lumberjack.Logger{
			Filename:   filepath.Join(o.Dir, "badge.log"),
			MaxSize:    5, // MB
			MaxBackups: 3,
			MaxAge:     14, // days
			Compress:   true,
		})
		cores = append(cores, zapcore.NewCore(enc.Clone(), w, lvl))
	}
	return zap.New(zapcore.NewTee(cores...)).With(zap.String("boot_id", uuid.NewString())), nil
}

// ParseLevel maps a config string to a zap level, defaulting to info.
func ParseLevel(s string) zapcore.Level {
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(s)); err != nil || s == "" {
		return zapcore.InfoLevel
	}
	return l
}
