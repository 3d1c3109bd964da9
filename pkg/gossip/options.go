package gossip

import (
	"errors"
	"log/slog"

	leg_metrics "github.com/armon/go-metrics"
	"github.com/hashicorp/go-metrics"
	"github.com/hashicorp/memberlist"
	"github.com/raskyld/zbytes"
)

var ErrInvalidCfg = errors.New("gossip: invalid configuration")

type config struct {
	mlCfg          *memberlist.Config
	logHandler     slog.Handler
	msink          metrics.MetricSink
	metricLabels   []metrics.Label
	registry       *zbytes.Registry
	inboxSize      int
	retransmitMult int
}

// Option to pass to [New].
type Option func(*config) error

// WithListenOn specifies which interface memberlist binds to.
func WithListenOn(addr string, port int) Option {
	return func(c *config) error {
		c.mlCfg.BindAddr = addr
		c.mlCfg.BindPort = port
		return nil
	}
}

// WithHostname specifies which name should be exposed to other
// peers when joining the cluster. For a well-behaving cluster, the name
// MUST be unique.
func WithHostname(hostname string) Option {
	return func(c *config) error {
		if hostname != "" {
			c.mlCfg.Name = hostname
		}
		return nil
	}
}

// WithLog specifies which `slog.Handler` to use.
func WithLog(handler slog.Handler) Option {
	return func(c *config) error {
		c.logHandler = handler
		return nil
	}
}

// WithMetricLabels adds static labels to all metrics produced by the
// delegate and by memberlist.
func WithMetricLabels(labels []metrics.Label) Option {
	return func(c *config) error {
		c.metricLabels = labels

		// memberlist still reports through armon/go-metrics.
		c.mlCfg.MetricLabels = make([]leg_metrics.Label, len(labels))
		for i, label := range labels {
			c.mlCfg.MetricLabels[i] = leg_metrics.Label{
				Name:  label.Name,
				Value: label.Value,
			}
		}
		return nil
	}
}

// WithMetricSink allows you to chose how to collect the metrics emitted by
// the delegate.
func WithMetricSink(ms metrics.MetricSink) Option {
	return func(c *config) error {
		if ms == nil {
			ms = &metrics.BlackholeSink{}
		}
		c.msink = ms
		return nil
	}
}

// WithRegistry makes every decode of peers' payloads go through reg.
func WithRegistry(reg *zbytes.Registry) Option {
	return func(c *config) error {
		c.registry = reg
		return nil
	}
}

// WithInboxSize sets how many user messages are buffered before new ones
// are dropped.
func WithInboxSize(size int) Option {
	return func(c *config) error {
		if size < 0 {
			return errors.New("negative inbox size")
		}
		c.inboxSize = size
		return nil
	}
}

// WithRetransmitMult sets how many times a broadcast is retransmitted,
// as a multiplier of the log of the cluster size.
func WithRetransmitMult(mult int) Option {
	return func(c *config) error {
		if mult <= 0 {
			return errors.New("retransmit multiplier must be positive")
		}
		c.retransmitMult = mult
		return nil
	}
}

// WithMemberlistConfig lets the caller tune the memberlist configuration
// directly, e.g. to use `memberlist.DefaultLocalConfig` timings. Delegate,
// Events and Logger are overwritten by [New].
func WithMemberlistConfig(tune func(*memberlist.Config)) Option {
	return func(c *config) error {
		tune(c.mlCfg)
		return nil
	}
}
