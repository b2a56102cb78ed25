// Package logging builds the process logger from configuration.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/rpggio/crowdfund/internal/config"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Output is an open log destination. Level may be changed while running.
type Output struct {
	Logger *slog.Logger
	Level  *slog.LevelVar
	closer io.Closer
}

// Close flushes and closes the log file, if any.
func (o *Output) Close() error {
	if o.closer == nil {
		return nil
	}
	return o.closer.Close()
}

// SetLevel applies a level name; unknown names are rejected and leave the
// level unchanged.
func (o *Output) SetLevel(name string) error {
	level, err := config.ParseLevel(name)
	if err != nil {
		return err
	}
	o.Level.Set(level)
	return nil
}

// New returns a text logger for cfg. In stdio mode logs go to stderr to keep
// stdout clean for JSON-RPC; a configured file takes precedence and is
// rotated by size.
func New(cfg config.LogConfig, stdio bool) (*Output, error) {
	out := &Output{Level: new(slog.LevelVar)}
	if err := out.SetLevel(cfg.Level); err != nil {
		return nil, err
	}

	var w io.Writer = os.Stdout
	if stdio {
		w = os.Stderr
	}
	if cfg.File != "" {
		if err := ensureLogDir(cfg.File); err != nil {
			return nil, err
		}
		rotating := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
		}
		w, out.closer = rotating, rotating
	}

	out.Logger = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: out.Level}))
	return out, nil
}

func ensureLogDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
