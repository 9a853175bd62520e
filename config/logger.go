package config

import (
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
)

var Log *logrus.Logger

// InitLogger configures the package logger. format is "json" or "text".
func InitLogger(level, format string) error {
	l, err := NewLogger(os.Stdout, level, format)
	if err != nil {
		return err
	}
	Log = l
	return nil
}

// NewLogger builds a logger writing to out.
func NewLogger(out io.Writer, level, format string) (*logrus.Logger, error) {
	l := logrus.New()
	l.SetOutput(out)

	switch format {
	case "", "json":
		l.SetFormatter(&logrus.JSONFormatter{})
	case "text":
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return nil, errors.Newf("unknown log format %q", format)
	}

	if level == "" {
		level = "info"
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, errors.Wrap(err, "parsing log level")
	}
	l.SetLevel(lvl)
	return l, nil
}
