package log

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Logger struct {
	mu     *sync.Mutex
	writer io.Writer
	fields map[string]any
	exit   func(int)

	Name  string
	Level LogLevel

	TimeFormat string
	NoColor    bool
	JSON       bool
}

type LoggerOptions struct {
	// File enables rotated file output next to (or instead of) the terminal.
	File       string
	NoTerminal bool
	NoColor    bool
	JSON       bool
	Rotation   *LoggerRotation
	// Writer replaces the terminal output, mostly useful for tests.
	Writer io.Writer
}

type LoggerRotation struct {
	MaxSize    int
	MaxBackups int
	MaxAge     int
	Compress   bool
}

type logEntry struct {
	Timestamp string         `json:"timestamp"`
	Level     string         `json:"level"`
	Service   string         `json:"service,omitempty"`
	Message   string         `json:"message"`
	Fields    map[string]any `json:"fields,omitempty"`
}

func DefaultRotation() *LoggerRotation {
	return &LoggerRotation{
		MaxSize:    128,
		MaxBackups: 5,
		MaxAge:     16,
		Compress:   false,
	}
}

func NewLogger(name string, level LogLevel, opts LoggerOptions) *Logger {
	l := &Logger{
		mu:    &sync.Mutex{},
		exit:  os.Exit,
		Name:  name,
		Level: level,

		TimeFormat: "2006-01-02 15:04:05",
		NoColor:    opts.NoColor || opts.NoTerminal || opts.Writer != nil,
		JSON:       opts.JSON,
	}

	l.writer = setupWriter(opts)
	return l
}

// Discard returns a logger that drops every message.
func Discard() *Logger {
	return &Logger{
		mu:     &sync.Mutex{},
		writer: io.Discard,
		exit:   os.Exit,
		Level:  Off,
	}
}

func setupWriter(opts LoggerOptions) io.Writer {
	var writers []io.Writer

	if opts.Writer != nil {
		writers = append(writers, opts.Writer)
	} else if !opts.NoTerminal {
		writers = append(writers, os.Stdout)
	}

	if opts.File != "" {
		rotation := opts.Rotation
		if rotation == nil {
			rotation = DefaultRotation()
		}

		writers = append(writers, &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    rotation.MaxSize,
			MaxBackups: rotation.MaxBackups,
			MaxAge:     rotation.MaxAge,
			Compress:   rotation.Compress,
		})
	}

	if len(writers) == 0 {
		writers = append(writers, os.Stdout)
	}

	return io.MultiWriter(writers...)
}

func (l *Logger) log(level LogLevel, msg string, args ...any) {
	if l == nil || level < l.Level || l.Level == Off {
		return
	}

	timestamp := time.Now().Format(l.TimeFormat)
	formattedMsg := fmt.Sprintf(msg, args...)

	l.mu.Lock()
	if l.JSON {
		entry := logEntry{
			Timestamp: timestamp,
			Level:     level.String(),
			Service:   l.Name,
			Message:   formattedMsg,
			Fields:    l.fields,
		}

		jsonBytes, _ := json.Marshal(entry)
		fmt.Fprintf(l.writer, "%s\n", jsonBytes)
	} else {
		prefix := fmt.Sprintf("[%s] %-5s", timestamp, level)
		if l.Name != "" {
			prefix = fmt.Sprintf("%s [%s]", prefix, l.Name)
		}
		if fields := l.formatFields(); fields != "" {
			formattedMsg = formattedMsg + " " + fields
		}

		if !l.NoColor {
			fmt.Fprintf(l.writer, "%s%s %s%s\n", Color(level), prefix, formattedMsg, colorReset)
		} else {
			fmt.Fprintf(l.writer, "%s %s\n", prefix, formattedMsg)
		}
	}
	l.mu.Unlock()

	if level == Fatal {
		l.exit(1)
	}
}

func (l *Logger) formatFields() string {
	if len(l.fields) == 0 {
		return ""
	}

	keys := make([]string, 0, len(l.fields))
	for key := range l.fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", key, l.fields[key]))
	}
	return strings.Join(parts, " ")
}

func (l *Logger) Debug(msg string, args ...any) {
	l.log(Debug, msg, args...)
}

func (l *Logger) Info(msg string, args ...any) {
	l.log(Info, msg, args...)
}

func (l *Logger) Warn(msg string, args ...any) {
	l.log(Warn, msg, args...)
}

func (l *Logger) Error(msg string, args ...any) {
	l.log(Error, msg, args...)
}

func (l *Logger) Fatal(msg string, args ...any) {
	l.log(Fatal, msg, args...)
}

func (l *Logger) clone() *Logger {
	fields := make(map[string]any, len(l.fields))
	for key, value := range l.fields {
		fields[key] = value
	}

	return &Logger{
		mu:     l.mu, // Share the same writer lock
		writer: l.writer,
		fields: fields,
		exit:   l.exit,

		Name:  l.Name,
		Level: l.Level,

		TimeFormat: l.TimeFormat,
		NoColor:    l.NoColor,
		JSON:       l.JSON,
	}
}

// Named returns a child logger whose name is appended to the parent's name.
func (l *Logger) Named(name string) *Logger {
	child := l.clone()
	if l.Name == "" {
		child.Name = name
	} else {
		child.Name = fmt.Sprintf("%s/%s", l.Name, name)
	}
	return child
}

// With returns a child logger that attaches key=value to every message.
func (l *Logger) With(key string, value any) *Logger {
	child := l.clone()
	child.fields[key] = value
	return child
}
