package log

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

type Logger struct {
	mu     *sync.Mutex
	writer io.Writer
	fields map[string]any

	Name  string
	Level LogLevel

	TimeFormat string
	File       string
	NoColor    bool
	JSON       bool
	NoTerminal bool
	Rotation   *LoggerRotation
}

type LoggerRotation struct {
	MaxSize    int
	MaxBackups int
	MaxAge     int
	Compress   bool
}

type LoggerOptions struct {
	Level      LogLevel
	File       string
	JSON       bool
	NoColor    bool
	NoTerminal bool
}

type logEntry struct {
	Timestamp string         `json:"timestamp"`
	Level     string         `json:"level"`
	Service   string         `json:"service,omitempty"`
	Message   string         `json:"message"`
	Fields    map[string]any `json:"fields,omitempty"`
}

func NewLogger(name string, opts LoggerOptions) *Logger {
	l := &Logger{
		mu:         &sync.Mutex{},
		Name:       name,
		Level:      opts.Level,
		File:       opts.File,
		JSON:       opts.JSON,
		NoColor:    opts.NoColor,
		NoTerminal: opts.NoTerminal,

		TimeFormat: "2006-01-02 15:04:05",
		Rotation: &LoggerRotation{
			MaxSize:    128,
			MaxBackups: 5,
			MaxAge:     16,
			Compress:   false,
		},
	}

	l.setupWriter()

	return l
}

// NewWriterLogger logs into w without color; used by tests and the local shell.
func NewWriterLogger(name string, level LogLevel, w io.Writer) *Logger {
	return &Logger{
		mu:         &sync.Mutex{},
		writer:     w,
		Name:       name,
		Level:      level,
		NoColor:    true,
		NoTerminal: true,
		TimeFormat: "2006-01-02 15:04:05",
	}
}

// Discard returns a logger that drops every entry.
func Discard() *Logger {
	return NewWriterLogger("", Fatal+1, io.Discard)
}

func (l *Logger) setupWriter() {
	var writers []io.Writer

	if !l.NoTerminal {
		writers = append(writers, os.Stdout)
	}

	if l.File != "" {
		fileWriter := &lumberjack.Logger{
			Filename:   l.File,
			MaxSize:    l.Rotation.MaxSize,
			MaxBackups: l.Rotation.MaxBackups,
			MaxAge:     l.Rotation.MaxAge,
			Compress:   l.Rotation.Compress,
		}
		writers = append(writers, fileWriter)
	}

	if len(writers) == 0 {
		writers = append(writers, os.Stdout)
	}

	l.writer = io.MultiWriter(writers...)
}

func (l *Logger) log(level LogLevel, msg string, args ...any) {
	if level < l.Level {
		return
	}

	timestamp := time.Now().Format(l.TimeFormat)
	formattedMsg := msg
	if len(args) > 0 {
		formattedMsg = fmt.Sprintf(msg, args...)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.JSON {
		entry := logEntry{
			Timestamp: timestamp,
			Level:     level.String(),
			Message:   formattedMsg,
			Fields:    l.fields,
		}
		if l.Name != "" {
			entry.Service = l.Name
		}

		jsonBytes, _ := json.Marshal(entry)
		fmt.Fprintf(l.writer, "%s\n", jsonBytes)
	} else {
		prefix := fmt.Sprintf("[%s] %-5s", timestamp, level)
		if l.Name != "" {
			prefix = fmt.Sprintf("%s [%s]", prefix, l.Name)
		}
		if suffix := l.formatFields(); suffix != "" {
			formattedMsg = formattedMsg + " " + suffix
		}

		if !l.NoTerminal && !l.NoColor {
			fmt.Fprintf(l.writer, "%s%s %s\033[0m\n", level.Color(), prefix, formattedMsg)
		} else {
			fmt.Fprintf(l.writer, "%s %s\n", prefix, formattedMsg)
		}
	}

	if level == Fatal {
		os.Exit(1)
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

		Name:  l.Name,
		Level: l.Level,

		TimeFormat: l.TimeFormat,
		File:       l.File,
		NoColor:    l.NoColor,
		NoTerminal: l.NoTerminal,
		JSON:       l.JSON,
		Rotation:   l.Rotation,
	}
}

func (l *Logger) Named(name string) *Logger {
	child := l.clone()
	if l.Name == "" {
		child.Name = name
	} else {
		child.Name = fmt.Sprintf("%s/%s", l.Name, name)
	}
	return child
}

// With returns a child logger that appends key=value to every entry.
func (l *Logger) With(key string, value any) *Logger {
	child := l.clone()
	child.fields[key] = value
	return child
}
