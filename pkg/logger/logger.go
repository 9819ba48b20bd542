package logger

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	base  *zap.Logger
	sugar *zap.SugaredLogger
	mu    sync.RWMutex
)

func init() {
	Configure(os.Getenv("ENVIRONMENT"))
}

// Configure rebuilds the package logger. Development mode logs at debug level
// with the console encoder; anything else uses the JSON production encoder.
func Configure(environment string) {
	var cfg zap.Config
	if environment == "development" {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "time"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		l = zap.NewNop()
	}
	Set(l)
}

// Set replaces the package logger. Tests use it with zaptest/observer loggers.
func Set(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	base = l
	sugar = l.Sugar()
}

// L returns the underlying structured logger.
func L() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

func s() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return sugar
}

func Info(format string, v ...interface{}) {
	s().Infof(format, v...)
}

func Error(format string, v ...interface{}) {
	s().Errorf(format, v...)
}

func Debug(format string, v ...interface{}) {
	s().Debugf(format, v...)
}

func Warn(format string, v ...interface{}) {
	s().Warnf(format, v...)
}

// Fatal logs and exits the process.
func Fatal(format string, v ...interface{}) {
	s().Fatalf(format, v...)
}

// With returns a sugared logger carrying the given key/value pairs.
func With(keysAndValues ...interface{}) *zap.SugaredLogger {
	return s().With(keysAndValues...)
}

// Sync flushes buffered entries. Call it before the process exits.
func Sync() {
	_ = L().Sync()
}
