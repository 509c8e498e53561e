package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var logger = zap.NewNop().Sugar()

// InitLogger initializes the loggers. Info, error and debug entries go to
// separate daily files under logs/ as JSON lines.
func InitLogger() error {
	logsDir := "logs"
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return fmt.Errorf("failed to create logs directory: %v", err)
	}

	timestamp := time.Now().Format("2006-01-02")
	open := func(kind string) (zapcore.WriteSyncer, error) {
		f, err := os.OpenFile(
			filepath.Join(logsDir, fmt.Sprintf("%s-%s.log", kind, timestamp)),
			os.O_APPEND|os.O_CREATE|os.O_WRONLY,
			0644,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s log file: %v", kind, err)
		}
		return zapcore.AddSync(f), nil
	}

	infoFile, err := open("info")
	if err != nil {
		return err
	}
	errorFile, err := open("error")
	if err != nil {
		return err
	}
	debugFile, err := open("debug")
	if err != nil {
		return err
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "time"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	enc := zapcore.NewJSONEncoder(encCfg)

	core := zapcore.NewTee(
		zapcore.NewCore(enc, infoFile, zap.LevelEnablerFunc(func(l zapcore.Level) bool {
			return l == zapcore.InfoLevel || l == zapcore.WarnLevel
		})),
		zapcore.NewCore(enc, errorFile, zapcore.ErrorLevel),
		zapcore.NewCore(enc, debugFile, zap.LevelEnablerFunc(func(l zapcore.Level) bool {
			return l == zapcore.DebugLevel
		})),
	)
	SetLogger(zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)))
	return nil
}

// SetLogger replaces the package logger.
func SetLogger(l *zap.Logger) {
	logger = l.Sugar()
}

// Logger returns the underlying sugared logger.
func Logger() *zap.SugaredLogger {
	return logger
}

// SyncLogger flushes buffered entries.
func SyncLogger() {
	_ = logger.Sync()
}

// LogInfo logs an informational message
func LogInfo(format string, v ...interface{}) {
	logger.Infof(format, v...)
}

// LogError logs an error message
func LogError(format string, v ...interface{}) {
	logger.Errorf(format, v...)
}

// LogDebug logs a debug message
func LogDebug(format string, v ...interface{}) {
	logger.Debugf(format, v...)
}

// LogRequest logs HTTP request details
func LogRequest(method, path, ip string, status int, duration time.Duration) {
	logger.Infow("request",
		"method", method,
		"path", path,
		"ip", ip,
		"status", status,
		"duration", duration,
	)
}

// LogErrorWithStack logs an error with stack trace
func LogErrorWithStack(err error, stack []byte) {
	logger.Errorw("panic recovered", "error", err, "stack", string(stack))
}
