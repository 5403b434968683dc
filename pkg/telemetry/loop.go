package telemetry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
	"k8s.io/utils/clock"

	"github.com/k8snetworkplumbingwg/flowpipe/pkg/flow/types"
)

// StatsReader reads meter counters
type StatsReader interface {
	// ReadStats reads all counters of meterID on port
	ReadStats(port uint16, meterID uint32) (types.MeterStats, error)
}

// Config is the configuration of the telemetry Loop
type Config struct {
	// Ports are the ports whose meter is sampled
	Ports   []uint16
	MeterID uint32
	// Interval is the sampling period
	Interval time.Duration
	// Tick is the sleep between timer services
	Tick time.Duration
	// ArmAttempts is the number of attempts to arm the timer
	ArmAttempts uint
	// ArmDelay is the wait between attempts to arm the timer
	ArmDelay time.Duration
}

// DefaultConfig returns the default Config, a 10s sampling period serviced every second
func DefaultConfig() Config {
	return Config{
		Interval:    10 * time.Second,
		Tick:        time.Second,
		ArmAttempts: 10,
		ArmDelay:    time.Second,
	}
}

// NewLoop creates a new Loop
func NewLoop(reader StatsReader, timer Timer, clk clock.Clock, collector *Collector, cfg Config,
	log klog.Logger) *Loop {
	if collector == nil {
		collector = NewCollector()
	}
	return &Loop{
		reader:    reader,
		timer:     timer,
		clock:     clk,
		collector: collector,
		cfg:       cfg,
		log:       log,
	}
}

// Loop periodically samples hardware meter counters
type Loop struct {
	reader    StatsReader
	timer     Timer
	clock     clock.Clock
	collector *Collector
	cfg       Config
	log       klog.Logger
}

// Run arms the sampling timer and services it until ctx is done. if the timer cannot be
// armed the loop returns early, leaving telemetry disabled.
func (l *Loop) Run(ctx context.Context) {
	if err := l.arm(ctx); err != nil {
		l.log.Error(err, "telemetry disabled")
		return
	}
	defer l.timer.Stop()
	l.log.Info("telemetry loop started", "interval", l.cfg.Interval, "ports", l.cfg.Ports)

	for {
		if l.timer.Service() {
			l.Collect()
		}
		select {
		case <-ctx.Done():
			l.log.Info("telemetry loop stopped")
			return
		case <-l.clock.After(l.cfg.Tick):
		}
	}
}

func (l *Loop) arm(ctx context.Context) error {
	attempts := l.cfg.ArmAttempts
	if attempts == 0 {
		attempts = 1
	}
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, l.timer.Arm(l.cfg.Interval)
	},
		backoff.WithBackOff(backoff.NewConstantBackOff(l.cfg.ArmDelay)),
		backoff.WithMaxTries(attempts),
		backoff.WithNotify(func(err error, next time.Duration) {
			l.log.V(2).Info("failed to arm stats timer, retrying", "error", err.Error(), "in", next)
		}))
	if err != nil {
		return errors.Wrapf(err, "failed to arm stats timer after %d attempts", attempts)
	}
	return nil
}

// Collect reads the meter counters of every port. read failures are logged and counted,
// they never stop the loop.
func (l *Loop) Collect() {
	for _, port := range l.cfg.Ports {
		stats, err := l.reader.ReadStats(port, l.cfg.MeterID)
		if err != nil {
			l.log.Error(err, "failed to read meter stats", "port", port, "meter", l.cfg.MeterID)
			l.collector.ReadFailed()
			continue
		}
		if prev, ok := l.collector.Last(port, l.cfg.MeterID); ok && Decreased(prev, stats) {
			l.log.Info("meter counters went backwards", "port", port, "meter", l.cfg.MeterID,
				"previous", prev, "current", stats)
		}
		l.collector.Update(port, l.cfg.MeterID, stats)
		l.log.Info("meter stats", "port", port, "meter", l.cfg.MeterID,
			"dropped-bytes", stats.DroppedBytes, "dropped-packets", stats.DroppedPackets)
	}
}

// Decreased returns true if any counter of cur is smaller than in prev
func Decreased(prev, cur types.MeterStats) bool {
	return cur.GreenBytes < prev.GreenBytes ||
		cur.YellowBytes < prev.YellowBytes ||
		cur.RedBytes < prev.RedBytes ||
		cur.DroppedBytes < prev.DroppedBytes ||
		cur.GreenPackets < prev.GreenPackets ||
		cur.YellowPackets < prev.YellowPackets ||
		cur.RedPackets < prev.RedPackets ||
		cur.DroppedPackets < prev.DroppedPackets
}
