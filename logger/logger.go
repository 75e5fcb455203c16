// Package logger provides the global structured logger for webpify.
//
// Long batch runs want two sinks at once: a human-readable console stream
// and a timestamped log file that survives the run. Both are zap cores
// behind one SugaredLogger.
package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Logger is the global logger instance
	Logger *zap.SugaredLogger
	// JSONOutput tracks whether JSON output is enabled
	JSONOutput bool
)

func init() {
	// Initialize with a safe no-op logger at package load time.
	// This prevents nil pointer panics if the logger is used before
	// Initialize() is called.
	Logger = zap.NewNop().Sugar()
}

// Initialize sets up the global logger based on the JSON output preference.
func Initialize(jsonOutput bool) error {
	core, err := consoleCore(jsonOutput)
	if err != nil {
		return err
	}
	JSONOutput = jsonOutput
	Logger = zap.New(core).Sugar()
	return nil
}

// InitializeWithFile sets up the global logger with an additional file sink
// in dir, named webpify_YYYYMMDD_HHMMSS.log. The file always receives the
// console encoding regardless of the JSON preference, so it stays readable
// when tailed during a run. Returns the log file path.
func InitializeWithFile(jsonOutput bool, dir string) (string, error) {
	core, err := consoleCore(jsonOutput)
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, fmt.Sprintf("webpify_%s.log", time.Now().Format("20060102_150405")))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to open log file: %w", err)
	}

	fileCore := zapcore.NewCore(
		zapcore.NewConsoleEncoder(fileEncoderConfig()),
		zapcore.AddSync(f),
		zap.InfoLevel,
	)

	JSONOutput = jsonOutput
	Logger = zap.New(zapcore.NewTee(core, fileCore)).Sugar()
	return path, nil
}

func consoleCore(jsonOutput bool) (zapcore.Core, error) {
	if jsonOutput {
		// JSON structured output for machine consumption
		cfg := zap.NewProductionEncoderConfig()
		return zapcore.NewCore(
			zapcore.NewJSONEncoder(cfg),
			zapcore.AddSync(os.Stdout),
			zap.InfoLevel,
		), nil
	}

	// Human-readable console output with minimal, calm formatting
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	return zapcore.NewCore(
		zapcore.NewConsoleEncoder(cfg),
		zapcore.AddSync(os.Stdout),
		zap.InfoLevel,
	), nil
}

func fileEncoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	return cfg
}
