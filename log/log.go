// Package log exposes leveled sub-loggers for the exchange integration
// subsystems. Call sites address a subsystem sub-logger so output can be
// filtered per concern; the backend is logrus.
package log

import (
	"io"
	"sync"

	"github.com/sirupsen/logrus"
)

// Global subsystem sub-loggers
var (
	Global      *SubLogger
	ExchangeSys *SubLogger
	RequestSys  *SubLogger
)

var (
	mu      sync.RWMutex
	backend = logrus.New()
)

func init() {
	backend.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "02/01/2006 15:04:05",
	})
	Global = NewSubLogger("LOG")
	ExchangeSys = NewSubLogger("EXCHANGE")
	RequestSys = NewSubLogger("REQUEST")
}

// SubLogger tags log events with the subsystem that raised them
type SubLogger struct {
	name  string
	entry *logrus.Entry
}

// NewSubLogger instantiates a new sub-logger for the supplied subsystem name
func NewSubLogger(name string) *SubLogger {
	return &SubLogger{name: name, entry: backend.WithField("subsystem", name)}
}

// SetLevel sets the minimum level emitted by all sub-loggers
func SetLevel(level logrus.Level) {
	mu.Lock()
	defer mu.Unlock()
	backend.SetLevel(level)
}

// SetOutput redirects all sub-logger output, primarily for tests
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	backend.SetOutput(w)
}

// Debugf takes a sub-logger and formats a debug level event
func Debugf(sl *SubLogger, format string, v ...interface{}) {
	mu.RLock()
	defer mu.RUnlock()
	sl.entry.Debugf(format, v...)
}

// Infof takes a sub-logger and formats an info level event
func Infof(sl *SubLogger, format string, v ...interface{}) {
	mu.RLock()
	defer mu.RUnlock()
	sl.entry.Infof(format, v...)
}

// Warnf takes a sub-logger and formats a warning level event
func Warnf(sl *SubLogger, format string, v ...interface{}) {
	mu.RLock()
	defer mu.RUnlock()
	sl.entry.Warnf(format, v...)
}

// Errorf takes a sub-logger and formats an error level event
func Errorf(sl *SubLogger, format string, v ...interface{}) {
	mu.RLock()
	defer mu.RUnlock()
	sl.entry.Errorf(format, v...)
}

// Warnln takes a sub-logger and logs a warning level event
func Warnln(sl *SubLogger, v ...interface{}) {
	mu.RLock()
	defer mu.RUnlock()
	sl.entry.Warnln(v...)
}

// Errorln takes a sub-logger and logs an error level event
func Errorln(sl *SubLogger, v ...interface{}) {
	mu.RLock()
	defer mu.RUnlock()
	sl.entry.Errorln(v...)
}
