// Package monitor polls a Jenkins controller on a schedule and exports its
// health as Prometheus gauges.
package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/jenkinsrest/internal/foundation/errors"
	"git.home.luguber.info/inful/jenkinsrest/internal/jenkins"
	"git.home.luguber.info/inful/jenkinsrest/internal/logfields"
)

// Source is the part of the Jenkins client the monitor reads.
type Source interface {
	SystemInfo(ctx context.Context) (jenkins.SystemInfo, error)
	Queue(ctx context.Context) ([]jenkins.QueueItem, error)
	OverallLoad(ctx context.Context) (jenkins.OverallLoad, error)
}

// Gauges holds the exported controller metrics.
type Gauges struct {
	up             prom.Gauge
	queueLength    prom.Gauge
	executorsBusy  prom.Gauge
	executorsTotal prom.Gauge
	info           *prom.GaugeVec
	pollDuration   prom.Histogram
	lastSuccess    prom.Gauge
}

// NewGauges registers the controller gauges on reg.
func NewGauges(reg prom.Registerer) *Gauges {
	g := &Gauges{
		up: prom.NewGauge(prom.GaugeOpts{
			Namespace: "jenkins", Name: "up",
			Help: "Whether the last poll of the controller succeeded",
		}),
		queueLength: prom.NewGauge(prom.GaugeOpts{
			Namespace: "jenkins", Name: "queue_length",
			Help: "Items waiting in the build queue",
		}),
		executorsBusy: prom.NewGauge(prom.GaugeOpts{
			Namespace: "jenkins", Name: "executors_busy",
			Help: "Busy executors, latest 10 second sample",
		}),
		executorsTotal: prom.NewGauge(prom.GaugeOpts{
			Namespace: "jenkins", Name: "executors_total",
			Help: "Total executors, latest 10 second sample",
		}),
		info: prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: "jenkins", Name: "info",
			Help: "Controller version, always 1",
		}, []string{"version"}),
		pollDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "jenkins", Name: "poll_duration_seconds",
			Help:    "Duration of a full controller poll",
			Buckets: prom.DefBuckets,
		}),
		lastSuccess: prom.NewGauge(prom.GaugeOpts{
			Namespace: "jenkins", Name: "last_success_timestamp_seconds",
			Help: "Unix time of the last successful poll",
		}),
	}
	if reg != nil {
		reg.MustRegister(g.up, g.queueLength, g.executorsBusy, g.executorsTotal, g.info, g.pollDuration, g.lastSuccess)
	}
	return g
}

// Monitor polls Source every interval.
type Monitor struct {
	source   Source
	gauges   *Gauges
	interval time.Duration
	timeout  time.Duration
	logger   *slog.Logger
	now      func() time.Time

	scheduler gocron.Scheduler
}

// New creates a monitor. Polls time out after the interval.
func New(source Source, gauges *Gauges, interval time.Duration, logger *slog.Logger) (*Monitor, error) {
	if source == nil || gauges == nil {
		return nil, errors.InvalidRequestError("monitor needs a source and gauges").Build()
	}
	if interval <= 0 {
		return nil, errors.InvalidRequestError("monitor interval must be positive").
			WithContext("interval", interval).
			Build()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{
		source:   source,
		gauges:   gauges,
		interval: interval,
		timeout:  interval,
		logger:   logger,
		now:      time.Now,
	}, nil
}

// Poll reads the controller once and updates the gauges. On failure
// jenkins_up drops to 0 and the other gauges keep their last values.
func (m *Monitor) Poll(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	start := m.now()
	err := m.poll(ctx)
	m.gauges.pollDuration.Observe(m.now().Sub(start).Seconds())
	if err != nil {
		m.gauges.up.Set(0)
		return err
	}
	m.gauges.up.Set(1)
	m.gauges.lastSuccess.Set(float64(m.now().Unix()))
	return nil
}

func (m *Monitor) poll(ctx context.Context) error {
	info, err := m.source.SystemInfo(ctx)
	if err != nil {
		return err
	}
	items, err := m.source.Queue(ctx)
	if err != nil {
		return err
	}
	load, err := m.source.OverallLoad(ctx)
	if err != nil {
		return err
	}

	m.gauges.info.Reset()
	m.gauges.info.WithLabelValues(info.JenkinsVersion).Set(1)
	m.gauges.queueLength.Set(float64(len(items)))
	m.gauges.executorsBusy.Set(load.BusyExecutors.Latest())
	m.gauges.executorsTotal.Set(load.TotalExecutors.Latest())
	return nil
}

// Start schedules polling, running the first poll immediately. Polls never
// overlap; a slow poll delays the next one.
func (m *Monitor) Start(ctx context.Context) error {
	s, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	_, err = s.NewJob(
		gocron.DurationJob(m.interval),
		gocron.NewTask(m.scheduledPoll, ctx),
		gocron.WithName("jenkins-poll"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		_ = s.Shutdown()
		return fmt.Errorf("failed to create poll job: %w", err)
	}

	m.logger.Info("Starting monitor", slog.Duration("interval", m.interval))
	m.scheduler = s
	s.Start()
	return nil
}

// Stop shuts the scheduler down, waiting for a running poll.
func (m *Monitor) Stop() error {
	if m.scheduler == nil {
		return nil
	}
	m.logger.Info("Stopping monitor")
	return m.scheduler.Shutdown()
}

func (m *Monitor) scheduledPoll(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if err := m.Poll(ctx); err != nil {
		m.logger.Warn("Controller poll failed",
			logfields.Kind(string(errors.KindOf(err))),
			logfields.Error(err))
		return
	}
	m.logger.Debug("Controller poll succeeded")
}
