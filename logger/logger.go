// Package logger builds the process zap logger: a development console core,
// optionally teed with a JSON core written to time rotated files.
package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const DefaultPattern = "nafee3-%Y-%m-%d.log"

type Config struct {
	Level        string        `yaml:"level"`
	Path         string        `yaml:"path"`
	Pattern      string        `yaml:"pattern"`
	RotationTime time.Duration `yaml:"rotationTime"`
	MaxAge       time.Duration `yaml:"maxAge"`
}

// New returns a logger writing to stderr and, when cfg.Path is set, to
// rotated files under cfg.Path.
func New(cfg Config) (*zap.Logger, error) {
	level := zapcore.DebugLevel
	if cfg.Level != "" {
		l, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, err
		}

		level = l
	}

	console := zapcore.NewCore(
		zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
		zapcore.Lock(os.Stderr),
		level,
	)

	if cfg.Path == "" {
		return zap.New(console, zap.AddCaller(), zap.Development()), nil
	}

	w, err := rotatingWriter(cfg)
	if err != nil {
		return nil, err
	}

	file := zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		zapcore.AddSync(w),
		level,
	)

	return zap.New(zapcore.NewTee(console, file), zap.AddCaller()), nil
}

func rotatingWriter(cfg Config) (*rotatelogs.RotateLogs, error) {
	if err := os.MkdirAll(cfg.Path, 0o755); err != nil {
		return nil, err
	}

	pattern := cfg.Pattern
	if pattern == "" {
		pattern = DefaultPattern
	}

	rotationTime := cfg.RotationTime
	if rotationTime <= 0 {
		rotationTime = 24 * time.Hour
	}

	maxAge := cfg.MaxAge
	if maxAge <= 0 {
		maxAge = 7 * 24 * time.Hour
	}

	w, err := rotatelogs.New(
		filepath.Join(cfg.Path, pattern),
		rotatelogs.WithRotationTime(rotationTime),
		rotatelogs.WithMaxAge(maxAge),
	)

	if err != nil {
		return nil, fmt.Errorf("rotate logs: %w", err)
	}

	return w, nil
}
