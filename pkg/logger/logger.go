package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	Log   *zap.Logger
	Sugar *zap.SugaredLogger
)

func init() {
	core := zapcore.NewCore(newEncoder(), zapcore.Lock(os.Stderr), LevelFromEnv())
	Log = zap.New(core, zap.AddCaller())
	Sugar = Log.Sugar()
}

func newEncoder() zapcore.Encoder {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(t.Format("2006/01/02 15:04:05"))
	}
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	encoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

	// Console encoder keeps the log file readable; nodes are usually run by hand on a LAN.
	return zapcore.NewConsoleEncoder(encoderConfig)
}

// LevelFromEnv reads DFS_LOG_LEVEL, then LOG_LEVEL. Unknown values keep info.
func LevelFromEnv() zapcore.Level {
	levelStr := strings.TrimSpace(os.Getenv("DFS_LOG_LEVEL"))
	if levelStr == "" {
		levelStr = strings.TrimSpace(os.Getenv("LOG_LEVEL"))
	}
	return ParseLevel(levelStr)
}

// ParseLevel turns "debug", "WARN", ... into a zap level, defaulting to info.
func ParseLevel(s string) zapcore.Level {
	level := zapcore.InfoLevel
	if s != "" {
		_ = level.UnmarshalText([]byte(strings.ToLower(s)))
	}
	return level
}

// Setup replaces the global loggers with one that appends to the file at
// path. With console set, entries are mirrored to stderr as well; the
// interactive shell turns that off so log lines don't trample the prompt.
func Setup(path string, level zapcore.Level, console bool) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}

	encoder := newEncoder()
	cores := []zapcore.Core{zapcore.NewCore(encoder, zapcore.AddSync(file), level)}
	if console {
		cores = append(cores, zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), level))
	}
	core := zapcore.NewTee(cores...)

	Log = zap.New(core, zap.AddCaller())
	Sugar = Log.Sugar()
	return nil
}

// Sync flushes buffered entries. Errors from syncing stderr are ignored.
func Sync() {
	_ = Log.Sync()
}
