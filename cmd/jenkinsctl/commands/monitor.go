package commands

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"git.home.luguber.info/inful/jenkinsrest/internal/jenkins"
	"git.home.luguber.info/inful/jenkinsrest/internal/metrics"
	"git.home.luguber.info/inful/jenkinsrest/internal/monitor"
)

// MonitorCmd implements the 'monitor' command.
type MonitorCmd struct {
	Listen   string        `help:"Metrics listen address (default from config)"`
	Interval time.Duration `help:"Poll interval (default from config)"`
}

func (m *MonitorCmd) Run(g *Global, root *CLI) error {
	cfg, err := g.loadConfig(root)
	if err != nil {
		return err
	}
	listen := cfg.Monitor.Listen
	if m.Listen != "" {
		listen = m.Listen
	}
	interval := cfg.Monitor.Interval
	if m.Interval > 0 {
		interval = m.Interval
	}

	reg := prom.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	opts := []jenkins.Option{jenkins.WithLogger(g.Logger), jenkins.WithRecorder(metrics.NewPrometheusRecorder(reg))}
	c, err := jenkins.New(cfg, append(opts, g.clientOptions...)...)
	if err != nil {
		return err
	}
	defer c.Close()

	mon, err := monitor.New(c, monitor.NewGauges(reg), interval, g.Logger)
	if err != nil {
		return err
	}
	if err := mon.Start(g.Ctx); err != nil {
		return err
	}
	defer func() { _ = mon.Stop() }()

	return monitor.Serve(g.Ctx, listen, reg, g.Logger)
}
