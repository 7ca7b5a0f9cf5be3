package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

// LogLevel represents the severity level of log messages.
type LogLevel int

// Log level constants defining message severity.
const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
	FATAL
)

// ParseLogLevel converts a string log level to its LogLevel constant.
func ParseLogLevel(level string) LogLevel {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return DEBUG
	case "INFO":
		return INFO
	case "WARN", "WARNING":
		return WARN
	case "ERROR":
		return ERROR
	case "FATAL":
		return FATAL
	default:
		return INFO
	}
}

// Logger provides leveled logging with log rotation.
type Logger struct {
	debugLogger *log.Logger
	infoLogger  *log.Logger
	warnLogger  *log.Logger
	errorLogger *log.Logger
	fatalLogger *log.Logger
	level       LogLevel
	mu          sync.RWMutex
}

var instance *Logger
var once sync.Once

// Init initializes the global logger instance at the given level.
// Logs go to stdout and, when logPath is non-empty, to a rotating file.
func Init(logPath string, level LogLevel) {
	once.Do(func() {
		instance = NewLogger(logPath, level)
	})
}

// NewLogger creates a new logger instance with default rotation settings
// (10 MB per file, 3 backups, 28 days retention, compressed).
func NewLogger(logPath string, level LogLevel) *Logger {
	var out io.Writer = os.Stdout

	if logPath != "" {
		dir := filepath.Dir(logPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("cannot create log directory: %v", err)
		}

		logFile := &lumberjack.Logger{
			Filename:   logPath,
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     28,
			Compress:   true,
		}
		out = io.MultiWriter(os.Stdout, logFile)
	}

	l := &Logger{level: level}

	flags := log.LstdFlags | log.Lshortfile
	l.debugLogger = log.New(out, "[DEBUG] ", flags)
	l.infoLogger = log.New(out, "[INFO] ", flags)
	l.warnLogger = log.New(out, "[WARN] ", flags)
	l.errorLogger = log.New(out, "[ERROR] ", flags)
	l.fatalLogger = log.New(out, "[FATAL] ", flags)

	return l
}

// SetLevel changes the minimum log level for filtering messages.
func (l *Logger) SetLevel(level LogLevel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

func (l *Logger) shouldLog(level LogLevel) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return level >= l.level
}

// Debugf logs a formatted debug-level message.
func (l *Logger) Debugf(format string, v ...interface{}) {
	if l.shouldLog(DEBUG) {
		l.debugLogger.Output(2, fmt.Sprintf(format, v...))
	}
}

// Infof logs a formatted info-level message.
func (l *Logger) Infof(format string, v ...interface{}) {
	if l.shouldLog(INFO) {
		l.infoLogger.Output(2, fmt.Sprintf(format, v...))
	}
}

// Warnf logs a formatted warning-level message.
func (l *Logger) Warnf(format string, v ...interface{}) {
	if l.shouldLog(WARN) {
		l.warnLogger.Output(2, fmt.Sprintf(format, v...))
	}
}

// Errorf logs a formatted error-level message.
func (l *Logger) Errorf(format string, v ...interface{}) {
	if l.shouldLog(ERROR) {
		l.errorLogger.Output(2, fmt.Sprintf(format, v...))
	}
}

// Fatalf logs a formatted fatal-level message and exits the program.
func (l *Logger) Fatalf(format string, v ...interface{}) {
	if l.shouldLog(FATAL) {
		l.fatalLogger.Output(2, fmt.Sprintf(format, v...))
		os.Exit(1)
	}
}

// Global convenience functions. Safe to call before Init; they fall back to
// a plain stdout logger.

func global() *Logger {
	if instance == nil {
		Init("", INFO)
	}
	return instance
}

// Debugf logs a formatted debug-level message using the global logger.
func Debugf(format string, v ...interface{}) {
	global().Debugf(format, v...)
}

// Infof logs a formatted info-level message using the global logger.
func Infof(format string, v ...interface{}) {
	global().Infof(format, v...)
}

// Warnf logs a formatted warning-level message using the global logger.
func Warnf(format string, v ...interface{}) {
	global().Warnf(format, v...)
}

// Errorf logs a formatted error-level message using the global logger.
func Errorf(format string, v ...interface{}) {
	global().Errorf(format, v...)
}

// Fatalf logs a formatted fatal-level message using the global logger and exits.
func Fatalf(format string, v ...interface{}) {
	global().Fatalf(format, v...)
}
