package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
)

var (
	mu      sync.Mutex
	logFile *os.File
)

/*
Init configures the default charmbracelet logger. Output goes to stderr, or
to path when it is set, which keeps stdout free for the stdio transport.
*/
func Init(level, path string) error {
	lvl, err := ParseLevel(level)

	if err != nil {
		return err
	}

	var out io.Writer = os.Stderr

	if path != "" {
		file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)

		if err != nil {
			return fmt.Errorf("failed to open log file %s: %w", path, err)
		}

		mu.Lock()
		closeFile()
		logFile = file
		mu.Unlock()

		out = file
	}

	log.SetDefault(log.NewWithOptions(out, log.Options{
		Level:           lvl,
		ReportTimestamp: true,
		ReportCaller:    lvl == log.DebugLevel,
	}))

	log.Debug("logging initialized", "level", lvl, "file", path)
	return nil
}

/*
ParseLevel accepts the usual level names, including "warning".
*/
func ParseLevel(level string) (log.Level, error) {
	level = strings.ToLower(strings.TrimSpace(level))

	switch level {
	case "":
		return log.InfoLevel, nil
	case "warning":
		level = "warn"
	}

	lvl, err := log.ParseLevel(level)

	if err != nil {
		return log.InfoLevel, fmt.Errorf("unknown log level %q", level)
	}

	return lvl, nil
}

// Close closes the log file, if any.
func Close() {
	mu.Lock()
	defer mu.Unlock()

	closeFile()
}

func closeFile() {
	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}
}
