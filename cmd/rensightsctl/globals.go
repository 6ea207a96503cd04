package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/rensights/admin-dashboard/components/listing/httpapi"
	"github.com/rensights/admin-dashboard/pkg/admin"
	"github.com/rensights/admin-dashboard/pkg/config"
	"github.com/rensights/admin-dashboard/pkg/logging"
	"github.com/rensights/admin-dashboard/pkg/telemetry"
)

// Globals are accepted by every command.
type Globals struct {
	Config   string `short:"c" type:"path" env:"RENSIGHTS_CONFIG" help:"YAML config file."`
	Output   string `short:"o" enum:"table,json,yaml" default:"table" help:"Output format (table, json, yaml)."`
	LogLevel string `name:"log-level" help:"Override the configured log level."`

	stdout io.Writer
	stdin  io.Reader
}

func (g *Globals) out() io.Writer {
	if g.stdout != nil {
		return g.stdout
	}
	return os.Stdout
}

func (g *Globals) in() io.Reader {
	if g.stdin != nil {
		return g.stdin
	}
	return os.Stdin
}

func (g *Globals) settings() (*config.Config, error) {
	settings, err := config.Load(g.Config)
	if err != nil {
		return nil, err
	}
	if g.LogLevel != "" {
		settings.LogLevel = g.LogLevel
	}
	return settings, nil
}

func (g *Globals) logger(settings *config.Config) (*logrus.Logger, error) {
	return logging.New(logging.Options{Level: settings.LogLevel, Format: settings.LogFormat})
}

// open builds the admin core with the configured token store.
func (g *Globals) open(ctx context.Context, extra ...func(*admin.Config)) (*admin.Admin, error) {
	settings, err := g.settings()
	if err != nil {
		return nil, err
	}
	logger, err := g.logger(settings)
	if err != nil {
		return nil, err
	}
	cfg := admin.Config{
		Settings:  settings,
		Logger:    logger,
		Telemetry: telemetry.Multi{telemetry.NewLogrus(logger)},
	}
	for _, fn := range extra {
		fn(&cfg)
	}
	return admin.New(ctx, cfg)
}

func (g *Globals) executor(a *admin.Admin, resource string) (httpapi.Executor, error) {
	exec, ok := a.Executor(resource)
	if !ok {
		return nil, fmt.Errorf("rensightsctl: unknown resource %q", resource)
	}
	return exec, nil
}

// confirm asks on stdin unless yes is already set.
func (g *Globals) confirm(prompt string, yes bool) bool {
	if yes {
		return true
	}
	fmt.Fprintf(g.out(), "%s [y/N]: ", prompt)
	line, err := bufio.NewReader(g.in()).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}
