package logging

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

var (
	once      sync.Once
	singleton *log.Logger
)

func get() *log.Logger {
	once.Do(func() {
		singleton = log.NewWithOptions(os.Stderr, log.Options{
			ReportTimestamp: true,
			TimeFormat:      time.TimeOnly,
			Prefix:          "export",
		})
	})
	return singleton
}

// SetLevel accepts "debug", "info", "warn", "error" or "fatal".
func SetLevel(level string) error {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return err
	}
	get().SetLevel(lvl)
	return nil
}

// SetOutput redirects log output, mostly for tests.
func SetOutput(w io.Writer) { get().SetOutput(w) }

func Debug(msg string, keyvals ...interface{}) { get().Debug(msg, keyvals...) }

func Info(msg string, keyvals ...interface{}) { get().Info(msg, keyvals...) }

func Warn(msg string, keyvals ...interface{}) { get().Warn(msg, keyvals...) }

func Error(msg string, keyvals ...interface{}) { get().Error(msg, keyvals...) }
