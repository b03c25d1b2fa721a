package log

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogFile is the optional log file opened by Init.
var LogFile *os.File

// Init configures the global zerolog logger. Messages always go to stderr;
// if logPath is not empty they are also appended to that file.
func Init(level string, logPath string) error {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("failed to parse log level: %v", err)
	}

	writers := []io.Writer{os.Stderr}
	if logPath != "" {
		LogFile, err = os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0664)
		if err != nil {
			return fmt.Errorf("failed to open log file: %v", err)
		}
		writers = append(writers, LogFile)
	}

	writer := zerolog.MultiLevelWriter(writers...)
	log.Logger = zerolog.New(writer).Level(lvl).With().Timestamp().Logger()
	zerolog.SetGlobalLevel(lvl)
	return nil
}
