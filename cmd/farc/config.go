package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/meigma/farc"
)

// Environment variables providing flag defaults.
const (
	envLogLevel  = "FARC_LOG_LEVEL"
	envLogFormat = "FARC_LOG_FORMAT"
	envWorkers   = "FARC_WORKERS"
)

type config struct {
	logLevel  string
	logFormat string
	workers   int
}

// configFromEnv returns the defaults for the global flags.
func configFromEnv() config {
	cfg := config{
		logLevel:  "warn",
		logFormat: "text",
		workers:   farc.DefaultReadWorkers,
	}
	if v := os.Getenv(envLogLevel); v != "" {
		cfg.logLevel = v
	}
	if v := os.Getenv(envLogFormat); v != "" {
		cfg.logFormat = v
	}
	if v, err := strconv.Atoi(os.Getenv(envWorkers)); err == nil && v > 0 {
		cfg.workers = v
	}
	return cfg
}

// newLogger builds the handler selected by cfg, writing to w.
func (cfg *config) newLogger(w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.logLevel)); err != nil {
		return nil, fmt.Errorf("invalid log level %q", cfg.logLevel)
	}
	opts := &slog.HandlerOptions{Level: level}

	switch strings.ToLower(cfg.logFormat) {
	case "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("invalid log format %q", cfg.logFormat)
	}
}
