package app

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Logger prints human lines by default and NDJSON records with --verbose.
// Both go to stdout (stderr after UseStderr) and, ANSI-stripped, to the optional log file.
type Logger struct {
	verbose bool
	stderr  bool
	file    *os.File
	mu      sync.Mutex
	zl      zerolog.Logger
}

var ansiEscape = regexp.MustCompile(`\x1b\[[0-9;]*m`)

type lineSink struct{ l *Logger }

func (s lineSink) Write(p []byte) (int, error) {
	s.l.writeLine(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

func NewLogger(verbose bool, logFile string) (*Logger, error) {
	l := &Logger{verbose: verbose}
	if strings.TrimSpace(logFile) != "" {
		dir := filepath.Dir(logFile)
		if dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, err
			}
		}
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, err
		}
		l.file = f
	}
	if verbose {
		l.zl = zerolog.New(lineSink{l}).
			Level(zerolog.DebugLevel).
			Hook(zerolog.HookFunc(func(e *zerolog.Event, _ zerolog.Level, _ string) {
				e.Str("ts", time.Now().Format(time.RFC3339Nano))
			}))
	} else {
		l.zl = zerolog.New(zerolog.ConsoleWriter{
			Out:          lineSink{l},
			NoColor:      true,
			PartsExclude: []string{zerolog.TimestampFieldName},
		}).Level(zerolog.InfoLevel)
	}
	return l, nil
}

func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

func (l *Logger) writeLine(line string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stderr {
		fmt.Fprintln(os.Stderr, line)
	} else {
		fmt.Println(line)
	}
	if l.file != nil {
		_, _ = l.file.WriteString(ansiEscape.ReplaceAllString(line, "") + "\n")
	}
}

// UseStderr moves console output off stdout, for commands that stream data there.
func (l *Logger) UseStderr() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stderr = true
}

// Zerolog is handed to components that log on their own.
func (l *Logger) Zerolog() zerolog.Logger {
	return l.zl
}

func (l *Logger) Info(msg string) {
	if l.verbose {
		l.Event("info", map[string]any{"message": msg})
		return
	}
	l.writeLine(msg)
}

func (l *Logger) Event(event string, fields map[string]any) {
	if !l.verbose {
		return
	}
	l.zl.Log().Str("event", event).Fields(fields).Send()
}
