package logger

import (
	"fmt"
	"io"
	"os"

	"github.com/josephlewis42/forkshell/core/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// New creates a logger writing to the configured log file, or to stderr if
// none is set. The returned close function flushes and releases the file.
func New(cfg *config.Configuration, stderr io.Writer) (*zap.SugaredLogger, func() error, error) {
	if cfg.Log.Path == "" {
		log, err := NewWriter(cfg.Log, zapcore.AddSync(stderr))
		if err != nil {
			return nil, nil, err
		}
		return log, log.Sync, nil
	}

	fd, err := cfg.OpenAppLog()
	if err != nil {
		return nil, nil, fmt.Errorf("open log: %w", err)
	}
	log, err := NewWriter(cfg.Log, zapcore.AddSync(fd))
	if err != nil {
		fd.Close()
		return nil, nil, err
	}
	return log, func() error {
		log.Sync()
		return fd.Close()
	}, nil
}

// NewWriter creates a logger with the configured level and encoding that
// writes to w.
func NewWriter(opts config.Log, w zapcore.WriteSyncer) (*zap.SugaredLogger, error) {
	level, err := zapcore.ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	var encoder zapcore.Encoder
	switch opts.Format {
	case FormatJSON:
		encoder = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	case FormatConsole, "":
		encoder = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	default:
		return nil, fmt.Errorf("unknown log format %q", opts.Format)
	}

	core := zapcore.NewCore(encoder, w, level)
	return zap.New(core).Sugar().With("pid", os.Getpid()), nil
}
