package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is the process-wide logger. Init configures it from config; until
// then it writes text to stderr at info level.
var Logger = logrus.New()

// Options controls Init.
type Options struct {
	Level string
	// File enables size-rotated file output when set.
	File string
	JSON bool
}

// Init configures Logger. It returns the writer in use so callers can close
// rotated files on shutdown.
func Init(opts Options) (io.Writer, error) {
	level := logrus.InfoLevel
	if opts.Level != "" {
		parsed, err := logrus.ParseLevel(opts.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		level = parsed
	}

	var out io.Writer = os.Stdout
	if opts.File != "" {
		out = &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     28,
			Compress:   true,
		}
	}

	Logger.SetOutput(out)
	Logger.SetLevel(level)
	if opts.JSON {
		Logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		Logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return out, nil
}
