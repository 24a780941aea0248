package config

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger returns a debug logger writing to <dataDir>/debug.log, or a
// no-op logger when debug is off. The returned func flushes and closes the
// file.
func NewLogger(dataDir string, debug bool) (*zap.Logger, func(), error) {
	if !debug {
		return zap.NewNop(), func() {}, nil
	}

	logPath := DebugLogPath(dataDir)
	// 0600: prompts and replies may contain source code and keys
	f, err := os.OpenFile(logPath, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open debug log at %s: %w", logPath, err)
	}

	encoderCfg := zap.NewDevelopmentEncoderConfig()
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderCfg), zapcore.AddSync(f), zapcore.DebugLevel)
	logger := zap.New(core, zap.AddCaller())
	logger.Info("debug logging started", zap.String("path", logPath))

	return logger, func() {
		_ = logger.Sync()
		_ = f.Close()
	}, nil
}
