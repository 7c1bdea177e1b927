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

// Field is a structured log field
type Field = zap.Field

// Logger is the logging interface handed to every module
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	Fatal(msg string, fields ...Field)
	With(fields ...Field) Logger
	Sync() error
}

// Config holds logger settings
type Config struct {
	Environment string
	LogPath     string
	Level       string
}

type zapLogger struct {
	zl *zap.Logger
}

// NewLogger builds a zap backed logger. Development uses a colored console
// encoder, every other environment writes JSON. When LogPath is set the
// output is also written to LogPath/app.log.
func NewLogger(config Config) (Logger, error) {
	level := zap.NewAtomicLevel()
	if err := level.UnmarshalText([]byte(strings.ToLower(config.Level))); err != nil {
		level.SetLevel(zapcore.InfoLevel)
	}

	var encoder zapcore.Encoder
	if isDevelopment(config.Environment) {
		encCfg := zap.NewDevelopmentEncoderConfig()
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encCfg.EncodeTime = zapcore.TimeEncoderOfLayout(time.DateTime)
		encoder = zapcore.NewConsoleEncoder(encCfg)
	} else {
		encCfg := zap.NewProductionEncoderConfig()
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewJSONEncoder(encCfg)
	}

	cores := []zapcore.Core{
		zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), level),
	}

	if config.LogPath != "" {
		if err := os.MkdirAll(config.LogPath, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		file, err := os.OpenFile(filepath.Join(config.LogPath, "app.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		fileEncoder := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
		cores = append(cores, zapcore.NewCore(fileEncoder, zapcore.AddSync(file), level))
	}

	zl := zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddCallerSkip(1))
	return &zapLogger{zl: zl}, nil
}

// NewNop returns a logger that discards everything
func NewNop() Logger {
	return &zapLogger{zl: zap.NewNop()}
}

// NewFromZap wraps an existing zap logger (tests use zaptest/observer)
func NewFromZap(zl *zap.Logger) Logger {
	return &zapLogger{zl: zl}
}

func isDevelopment(env string) bool {
	switch strings.ToLower(env) {
	case "", "dev", "development", "local":
		return true
	}
	return false
}

func (l *zapLogger) Debug(msg string, fields ...Field) { l.zl.Debug(msg, fields...) }
func (l *zapLogger) Info(msg string, fields ...Field)  { l.zl.Info(msg, fields...) }
func (l *zapLogger) Warn(msg string, fields ...Field)  { l.zl.Warn(msg, fields...) }
func (l *zapLogger) Error(msg string, fields ...Field) { l.zl.Error(msg, fields...) }
func (l *zapLogger) Fatal(msg string, fields ...Field) { l.zl.Fatal(msg, fields...) }

func (l *zapLogger) With(fields ...Field) Logger {
	return &zapLogger{zl: l.zl.With(fields...)}
}

func (l *zapLogger) Sync() error {
	return l.zl.Sync()
}

func String(key, val string) Field                 { return zap.String(key, val) }
func Int(key string, val int) Field                { return zap.Int(key, val) }
func Uint(key string, val uint) Field              { return zap.Uint(key, val) }
func Int64(key string, val int64) Field            { return zap.Int64(key, val) }
func Bool(key string, val bool) Field              { return zap.Bool(key, val) }
func Duration(key string, val time.Duration) Field { return zap.Duration(key, val) }
func Any(key string, val any) Field                { return zap.Any(key, val) }

// Err adds the error under the "error" key
func Err(err error) Field { return zap.Error(err) }
