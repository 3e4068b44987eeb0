package logger

import (
	"strings"
	"sync"

	"go.uber.org/zap"
)

var (
	mu    sync.RWMutex
	base  *zap.Logger
	sugar *zap.SugaredLogger
)

// InitLogger builds the process logger. mode is "dev" (console, debug level)
// or "prod" (JSON, info level). A non-empty filename adds a file sink next to
// stderr. Stdout is left to command output.
func InitLogger(filename string, mode string) error {
	l, err := newConfig(filename, mode).Build()
	if err != nil {
		return err
	}
	Use(l)
	return nil
}

func newConfig(filename, mode string) zap.Config {
	var cfg zap.Config
	switch strings.ToLower(mode) {
	case "prod", "production":
		cfg = zap.NewProductionConfig()
	default:
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.OutputPaths = []string{"stderr"}
	if filename != "" {
		cfg.OutputPaths = append(cfg.OutputPaths, filename)
	}
	cfg.ErrorOutputPaths = []string{"stderr"}
	return cfg
}

// Use swaps the process logger. Tests pass zap.NewNop() or an observer core.
func Use(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	base = l
	sugar = l.Sugar()
}

// Init installs a development logger if none is set yet.
func Init() {
	mu.RLock()
	ready := sugar != nil
	mu.RUnlock()
	if ready {
		return
	}
	l, err := zap.NewDevelopment()
	if err != nil {
		l = zap.NewNop()
	}
	Use(l)
}

// Close flushes buffered entries.
func Close() {
	mu.RLock()
	defer mu.RUnlock()
	if base != nil {
		_ = base.Sync()
	}
}

func get() *zap.SugaredLogger {
	Init()
	mu.RLock()
	defer mu.RUnlock()
	return sugar
}

func Debugf(format string, v ...interface{}) {
	get().Debugf(format, v...)
}

func Info(format string, v ...interface{}) {
	get().Infof(format, v...)
}

func Infof(format string, v ...interface{}) {
	Info(format, v...)
}

// Infow logs msg with key/value pairs.
func Infow(msg string, keysAndValues ...interface{}) {
	get().Infow(msg, keysAndValues...)
}

func Warn(format string, v ...interface{}) {
	get().Warnf(format, v...)
}

func Warnf(format string, v ...interface{}) {
	Warn(format, v...)
}

// Warnw logs msg with key/value pairs.
func Warnw(msg string, keysAndValues ...interface{}) {
	get().Warnw(msg, keysAndValues...)
}

func Error(format string, v ...interface{}) {
	get().Errorf(format, v...)
}

func Errorf(format string, v ...interface{}) {
	Error(format, v...)
}
