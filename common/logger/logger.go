package logger

import (
	"io"
	"log"
	"os"
	"strings"
)

type LogLevel int

const (
	ERROR LogLevel = iota
	WARN
	INFO
	DEBUG
	TRACE
)

const flags = log.Ldate | log.Ltime | log.Lshortfile

var (
	nullWriter = &NullWriter{}
	Info       *log.Logger
	Warn       *log.Logger
	Error      *log.Logger
	Debug      *log.Logger
	Trace      *log.Logger
)

func StringToLogLevel(value string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "error":
		return ERROR
	case "warn", "warning":
		return WARN
	case "info":
		return INFO
	case "debug":
		return DEBUG
	case "trace":
		return TRACE
	}
	log.Printf("Invalid log level: '%s'. Returning INFO", value)
	return INFO
}

func (s LogLevel) String() string {
	switch s {
	case ERROR:
		return "ERROR"
	case WARN:
		return "WARN"
	case INFO:
		return "INFO"
	case DEBUG:
		return "DEBUG"
	case TRACE:
		return "TRACE"
	}
	return "UNKNOWN"
}

type NullWriter struct {
	io.Writer
}

func (s *NullWriter) Write(p []byte) (n int, err error) {
	return len(p), nil
}

// Loggers discard everything until Initialize is called so that
// packages can be used from tests without any setup.
func init() {
	setAll(ERROR-1, nullWriter, nullWriter)
}

func Initialize(logLevel LogLevel) {
	log.Printf("Initialize loggers: '%s'", logLevel.String())
	setAll(logLevel, os.Stdout, os.Stderr)
}

// InitializeWithWriter routes every enabled level to the same writer.
func InitializeWithWriter(logLevel LogLevel, writer io.Writer) {
	setAll(logLevel, writer, writer)
}

func setAll(logLevel LogLevel, out io.Writer, errOut io.Writer) {
	Error = log.New(writerFor(logLevel, ERROR, errOut), "ERROR: ", flags)
	Warn = log.New(writerFor(logLevel, WARN, out), "WARN:  ", flags)
	Info = log.New(writerFor(logLevel, INFO, out), "INFO:  ", flags)
	Debug = log.New(writerFor(logLevel, DEBUG, out), "DEBUG: ", flags)
	Trace = log.New(writerFor(logLevel, TRACE, out), "TRACE: ", flags)
}

func writerFor(current LogLevel, level LogLevel, writer io.Writer) io.Writer {
	if current >= level {
		return writer
	}
	return nullWriter
}
