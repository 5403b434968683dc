package server

import (
	"flag"
	"strconv"
	"sync"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"k8s.io/klog/v2"

	"github.com/k8snetworkplumbingwg/flowpipe/pkg/config"
)

// Options stores option for the command
type Options struct {
	// ConfigPath is the path to a YAML configuration file
	ConfigPath string

	fs  *pflag.FlagSet
	cfg *config.Config
	// linkNetdevs holds --link-netdevs as given on the command line
	linkNetdevs map[string]string
}

// NewOptions initializes Options
func NewOptions() *Options {
	return &Options{cfg: config.Default()}
}

var klogFlagsOnce sync.Once

// AddFlags adds command line flags into command
func (o *Options) AddFlags(fs *pflag.FlagSet) {
	klogFlagsOnce.Do(func() { klog.InitFlags(nil) })
	o.fs = fs
	fs.SortFlags = false
	fs.StringVar(&o.ConfigPath, "config", o.ConfigPath, "Path to a YAML configuration file. Flags explicitly set on the command line override its values.")
	fs.StringVar(&o.cfg.Driver, "driver", o.cfg.Driver, "NIC driver runtime to use. one of: sim")
	fs.Uint16Var(&o.cfg.SimPorts, "sim-ports", o.cfg.SimPorts, "Number of ports exposed by the sim driver.")
	fs.BoolVar(&o.cfg.Isolate, "isolate", o.cfg.Isolate, "Enable isolate mode: only IPv4 (GRE on the tunnel port) traffic is steered into the pipeline.")
	fs.Uint16Var(&o.cfg.TunnelPort, "tunnel-port", o.cfg.TunnelPort, "Port receiving GRE encapsulated traffic in isolate mode.")
	fs.Uint16Var(&o.cfg.StdQueues, "std-queues", o.cfg.StdQueues, "Number of standard RX/TX queues per port.")
	fs.Uint16Var(&o.cfg.HairpinQueues, "hairpin-queues", o.cfg.HairpinQueues, "Number of hairpin queues per port.")
	fs.Uint16Var(&o.cfg.RxDescriptors, "rx-descriptors", o.cfg.RxDescriptors, "Number of descriptors per RX queue.")
	fs.Uint16Var(&o.cfg.TxDescriptors, "tx-descriptors", o.cfg.TxDescriptors, "Number of descriptors per TX queue.")
	fs.DurationVar(&o.cfg.LinkCheckInterval, "link-check-interval", o.cfg.LinkCheckInterval, "Interval between link checks after port start.")
	fs.IntVar(&o.cfg.LinkCheckAttempts, "link-check-attempts", o.cfg.LinkCheckAttempts, "Number of link checks before port start fails.")
	fs.StringToStringVar(&o.linkNetdevs, "link-netdevs", nil, "Port to PCI address mapping, e.g 0=0000:03:00.0. link state of these ports is read from their uplink netdev.")
	fs.StringVar(&o.cfg.RulesDumpPath, "rules-dump-path", o.cfg.RulesDumpPath, "If non-empty, will use this path to store the default chain rules for troubleshooting.")
	fs.StringVar(&o.cfg.MetricsBindAddress, "metrics-bind-address", o.cfg.MetricsBindAddress, "If non-empty, prometheus metrics are served on this address.")
	fs.DurationVar(&o.cfg.IdleSleep, "idle-sleep", o.cfg.IdleSleep, "Dataplane loop sleep between passes over all queues, 0 busy polls.")
	fs.BoolVar(&o.cfg.Retransmit, "retransmit", o.cfg.Retransmit, "Send received miss traffic back on the queue it arrived on.")
	fs.AddGoFlagSet(flag.CommandLine)
}

// flagged lists the flags backed by config.Config fields
var flagged = []string{
	"driver", "sim-ports", "isolate", "tunnel-port", "std-queues", "hairpin-queues", "rx-descriptors",
	"tx-descriptors", "link-check-interval", "link-check-attempts", "rules-dump-path",
	"metrics-bind-address", "idle-sleep", "retransmit",
}

// Config returns the validated configuration: the configuration file (or defaults) overridden
// by flags explicitly set on the command line
func (o *Options) Config() (*config.Config, error) {
	cfg := o.cfg
	if o.ConfigPath != "" {
		fileCfg, err := config.Load(o.ConfigPath)
		if err != nil {
			return nil, err
		}
		o.overrideChanged(fileCfg)
		cfg = fileCfg
	}

	if o.fs != nil && o.fs.Changed("link-netdevs") {
		devs, err := parseLinkNetdevs(o.linkNetdevs)
		if err != nil {
			return nil, err
		}
		cfg.LinkNetdevs = devs
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return cfg, nil
}

// overrideChanged copies the values of flags set on the command line into dst
//
//nolint:gocyclo
func (o *Options) overrideChanged(dst *config.Config) {
	if o.fs == nil {
		return
	}
	for _, name := range flagged {
		if !o.fs.Changed(name) {
			continue
		}
		switch name {
		case "driver":
			dst.Driver = o.cfg.Driver
		case "sim-ports":
			dst.SimPorts = o.cfg.SimPorts
		case "isolate":
			dst.Isolate = o.cfg.Isolate
		case "tunnel-port":
			dst.TunnelPort = o.cfg.TunnelPort
		case "std-queues":
			dst.StdQueues = o.cfg.StdQueues
		case "hairpin-queues":
			dst.HairpinQueues = o.cfg.HairpinQueues
		case "rx-descriptors":
			dst.RxDescriptors = o.cfg.RxDescriptors
		case "tx-descriptors":
			dst.TxDescriptors = o.cfg.TxDescriptors
		case "link-check-interval":
			dst.LinkCheckInterval = o.cfg.LinkCheckInterval
		case "link-check-attempts":
			dst.LinkCheckAttempts = o.cfg.LinkCheckAttempts
		case "rules-dump-path":
			dst.RulesDumpPath = o.cfg.RulesDumpPath
		case "metrics-bind-address":
			dst.MetricsBindAddress = o.cfg.MetricsBindAddress
		case "idle-sleep":
			dst.IdleSleep = o.cfg.IdleSleep
		case "retransmit":
			dst.Retransmit = o.cfg.Retransmit
		}
	}
}

func parseLinkNetdevs(in map[string]string) (map[uint16]string, error) {
	out := make(map[uint16]string, len(in))
	for k, v := range in {
		port, err := strconv.ParseUint(k, 10, 16)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid port %q in --link-netdevs", k)
		}
		out[uint16(port)] = v
	}
	return out, nil
}
