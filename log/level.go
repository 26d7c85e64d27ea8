package log

import (
	"fmt"
	"strings"
)

type LogLevel int

const (
	Debug LogLevel = iota
	Info
	Warn
	Error
	Fatal
)

func (l LogLevel) String() string {
	switch l {
	case Debug:
		return "DEBUG"
	case Info:
		return "INFO"
	case Warn:
		return "WARN"
	case Error:
		return "ERROR"
	case Fatal:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a configured level name into a LogLevel.
func ParseLevel(level string) (LogLevel, error) {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return Debug, nil
	case "INFO", "":
		return Info, nil
	case "WARN", "WARNING":
		return Warn, nil
	case "ERROR":
		return Error, nil
	case "FATAL":
		return Fatal, nil
	default:
		return Info, fmt.Errorf("invalid log level '%s'", level)
	}
}

// Color returns the ANSI escape used for terminal output of l.
func (l LogLevel) Color() string {
	switch l {
	case Debug:
		return "\033[34m"
	case Info:
		return "\033[32m"
	case Warn:
		return "\033[33m"
	case Error, Fatal:
		return "\033[31m"
	default:
		return "\033[0m"
	}
}
