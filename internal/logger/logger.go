package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

var (
	blue   = "\x1b[34m"
	yellow = "\x1b[33m"
	red    = "\x1b[31m"
	green  = "\x1b[32m"
	reset  = "\x1b[0m"
)

const (
	levelDebug = iota
	levelInfo
	levelWarn
	levelError
)

var (
	mu        sync.Mutex
	out       io.Writer = os.Stdout
	threshold           = levelInfo
)

// SetLevel sets the lowest level that is printed (debug, info, warn, error).
// Unknown values fall back to info.
func SetLevel(level string) {
	mu.Lock()
	defer mu.Unlock()
	threshold = parseLevel(level)
}

// SetOutput redirects log lines, mostly useful in tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out = w
}

func parseLevel(level string) int {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return levelDebug
	case "warn", "warning":
		return levelWarn
	case "error", "err":
		return levelError
	default:
		return levelInfo
	}
}

func prefix(level string) string {
	var color string
	switch strings.ToUpper(level) {
	case "DEBUG":
		color = blue
	case "INFO":
		color = green
	case "WARNING", "WARN":
		color = yellow
	case "ERROR", "ERR":
		color = red
	default:
		color = reset
	}
	return fmt.Sprintf("[%s%s%s] - %s - ", color, strings.ToUpper(level), reset, time.Now().Format("2006-01-02T15:04:05"))
}

func write(lvl int, level, format string, a ...interface{}) {
	mu.Lock()
	defer mu.Unlock()
	if lvl < threshold {
		return
	}
	msg := fmt.Sprintf(format, a...)
	fmt.Fprintf(out, "%s%s\n", prefix(level), msg)
}

func Debugf(format string, a ...interface{}) {
	write(levelDebug, "DEBUG", format, a...)
}

func Infof(format string, a ...interface{}) {
	write(levelInfo, "INFO", format, a...)
}

func Warnf(format string, a ...interface{}) {
	write(levelWarn, "WARNING", format, a...)
}

func Errorf(format string, a ...interface{}) {
	write(levelError, "ERROR", format, a...)
}

func Fatalf(format string, a ...interface{}) {
	Errorf(format, a...)
	os.Exit(1)
}
