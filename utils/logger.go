package utils

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Logger is the process-wide structured logger
var Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

// InitLogger switches to a human readable console writer in development
func InitLogger(dev bool) {
	var out io.Writer = os.Stdout
	if dev {
		out = zerolog.ConsoleWriter{Out: os.Stdout}
	}
	Logger = zerolog.New(out).With().Timestamp().Logger()
}
