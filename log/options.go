package log

import (
	"fmt"
	"strings"
)

// Level is a log level. It implements the pflag.Value interface.
type Level uint

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = []string{"DEBUG", "INFO", "WARN", "ERROR"}

// String returns the string representation of a Level.
func (l *Level) String() string {
	if int(*l) >= len(levelNames) {
		panic("log: unsupported log level")
	}
	return levelNames[*l]
}

// Set parses a level name, case-insensitively.
func (l *Level) Set(s string) error {
	for i, name := range levelNames {
		if strings.EqualFold(s, name) {
			*l = Level(i)
			return nil
		}
	}
	return fmt.Errorf("log: invalid log level: '%s'", s)
}

// Type returns the list of supported Levels.
func (l *Level) Type() string {
	return "[" + strings.Join(levelNames, ",") + "]"
}

// Format is a log output format. It implements the pflag.Value interface.
type Format uint

const (
	FmtLogfmt Format = iota
	FmtJSON
)

var formatNames = []string{"logfmt", "JSON"}

// String returns the string representation of a Format.
func (f *Format) String() string {
	if int(*f) >= len(formatNames) {
		panic("log: unsupported format")
	}
	return formatNames[*f]
}

// Set parses a format name, case-insensitively.
func (f *Format) Set(s string) error {
	for i, name := range formatNames {
		if strings.EqualFold(s, name) {
			*f = Format(i)
			return nil
		}
	}
	return fmt.Errorf("log: invalid log format: '%s'", s)
}

// Type returns the list of supported Formats.
func (f *Format) Type() string {
	return "[" + strings.Join(formatNames, ",") + "]"
}
