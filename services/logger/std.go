package logsvc

import (
	"log"

	"github.com/shiksha/lms/core"
)

// StdLogger is a plain stdlib-backed core.Logger for DEV and tests.
type StdLogger struct {
	std   *log.Logger
	debug bool
}

var _ core.Logger = (*StdLogger)(nil)

func NewStdLogger(std *log.Logger) *StdLogger {
	return &StdLogger{std: std, debug: core.Conf.Debug}
}

func (l StdLogger) log(level, msg string, args []interface{}) {
	l.std.Printf("%s: %s", level, msg)
	for _, arg := range args {
		l.std.Printf("%+v\n", arg)
	}
}

func (l StdLogger) Debug(msg string, args ...interface{}) {
	if l.debug {
		l.log("DEBUG", msg, args)
	}
}

func (l StdLogger) Info(msg string, args ...interface{}) {
	l.log("INFO", msg, args)
}

func (l StdLogger) Warn(msg string, args ...interface{}) {
	l.log("WARN", msg, args)
}

func (l StdLogger) Error(msg string, args ...interface{}) {
	l.log("ERROR", msg, args)
}

func (l StdLogger) Fatal(msg string, args ...interface{}) {
	l.log("FATAL", msg, args)
	l.std.Fatal(msg)
}
