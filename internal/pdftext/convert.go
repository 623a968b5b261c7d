// Package pdftext shells out to the poppler pdftotext utility to turn a
// receipt PDF into plain text. The conversion itself is never done
// in-process.
package pdftext

import (
	"context"
	"log/slog"
	"time"
)

type Config struct {
	Pdftotext string        // binary name or absolute path; if empty -> "pdftotext"
	Timeout   time.Duration // per-file conversion budget, default 1m
}

// Converter invokes the external pdftotext binary.
type Converter struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewConverter(cfg Config, logger *slog.Logger) *Converter {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = time.Minute
	}
	return &Converter{cfg: cfg, runner: execRunner{}, logger: logger}
}

// NewConverterWithRunner is used by tests to stub the subprocess.
func NewConverterWithRunner(cfg Config, runner Runner, logger *slog.Logger) *Converter {
	c := NewConverter(cfg, logger)
	c.runner = runner
	return c
}

// Convert runs `pdftotext <path> -` and returns captured stdout as UTF-8
// text. The process is bounded by the configured timeout; exec failure is
// returned to the caller for classification.
func (c *Converter) Convert(ctx context.Context, path string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	out, _, err := c.runner.Run(ctx, c.cfg.Pdftotext, path, "-")
	if err != nil {
		return "", err
	}
	return string(out), nil
}
