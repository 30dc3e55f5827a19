// Package logger provides prefixed, asynchronous logging so that network
// and UI code never blocks on log output. A bubbletea program owns the
// terminal, so everything is written through the standard log package,
// which the entrypoint redirects to a file.
package logger

import (
	"fmt"
	"log"
	"sync"
)

const asyncBufferSize = 4096

var (
	prefix   string
	logLevel = levelInfo
	ch       chan string
	once     sync.Once
)

type level int

const (
	levelDebug level = iota
	levelInfo
)

// SetLevel applies the configured verbosity. Anything other than
// "debug" or "trace" means info.
func SetLevel(level string) {
	switch level {
	case "debug", "trace":
		logLevel = levelDebug
	default:
		logLevel = levelInfo
	}
}

func initWorker() {
	ch = make(chan string, asyncBufferSize)
	go func() {
		for msg := range ch {
			log.Print(msg)
		}
	}()
}

func enqueue(msg string) {
	once.Do(initWorker)
	select {
	case ch <- msg:
	default:
		// Buffer full: drop rather than block the event loop.
	}
}

// SetPrefix sets the tag prepended to every subsequent line, e.g. "socket".
func SetPrefix(p string) {
	prefix = p
}

func tag() string {
	if prefix == "" {
		return ""
	}
	return "[" + prefix + "] "
}

// Info logs at info level.
func Info(v ...any) {
	enqueue(tag() + fmt.Sprint(v...))
}

// Infof logs a formatted line at info level.
func Infof(format string, v ...any) {
	enqueue(tag() + fmt.Sprintf(format, v...))
}

// Error logs an error line.
func Error(v ...any) {
	enqueue(tag() + "ERROR: " + fmt.Sprint(v...))
}

// Errorf logs a formatted error line.
func Errorf(format string, v ...any) {
	enqueue(tag() + "ERROR: " + fmt.Sprintf(format, v...))
}

// Debugf logs only when LOG_LEVEL=debug.
func Debugf(format string, v ...any) {
	if logLevel == levelDebug {
		enqueue(tag() + fmt.Sprintf(format, v...))
	}
}
