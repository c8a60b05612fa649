package logging

import (
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	initOnce sync.Once
	logger   *zap.Logger
	exitFunc = os.Exit
)

// L returns the shared application logger, initializing it on first use.
func L() *zap.Logger {
	initOnce.Do(func() {
		logger = newLogger()
	})
	return logger
}

// S returns the sugared form of the shared logger.
func S() *zap.SugaredLogger {
	return L().Sugar()
}

func newLogger() *zap.Logger {
	level := parseLevel(os.Getenv("KONTAKT_LOG_LEVEL"))

	var cfg zap.Config
	switch strings.ToLower(os.Getenv("KONTAKT_LOG_FORMAT")) {
	case "json", "structured":
		cfg = zap.NewProductionConfig()
	default:
		cfg = zap.NewDevelopmentConfig()
		// Console output goes to stderr so JSON output remains clean if enabled later.
		cfg.OutputPaths = []string{"stderr"}
	}
	cfg.Level = zap.NewAtomicLevelAt(level)

	built, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return built
}

func parseLevel(value string) zapcore.Level {
	switch strings.ToLower(value) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// With returns a child logger with additional key-value attributes.
func With(args ...any) *zap.SugaredLogger {
	return S().With(args...)
}

// Fatal logs the message at error level and exits with status 1.
func Fatal(msg string, args ...any) {
	S().Errorw(msg, args...)
	exitFunc(1)
}
