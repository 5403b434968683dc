package config

import (
	"bytes"
	"io"
	"os"
	"time"

	"github.com/c2h5oh/datasize"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	// DriverSim is the in-memory NIC driver
	DriverSim = "sim"
)

// Config is the flowpipe configuration
type Config struct {
	// Driver is the NIC driver runtime to use
	Driver string `yaml:"driver"`
	// SimPorts is the number of ports exposed by the sim driver
	SimPorts uint16 `yaml:"sim_ports"`
	// Isolate restricts the default chain to explicitly matched traffic
	Isolate bool `yaml:"isolate"`
	// TunnelPort is the port receiving GRE encapsulated traffic in isolate mode
	TunnelPort uint16 `yaml:"tunnel_port"`
	// StdQueues is the number of standard RX/TX queues per port
	StdQueues uint16 `yaml:"std_queues"`
	// HairpinQueues is the number of hairpin queues per port, taking the highest queue indices
	HairpinQueues uint16 `yaml:"hairpin_queues"`
	RxDescriptors uint16 `yaml:"rx_descriptors"`
	TxDescriptors uint16 `yaml:"tx_descriptors"`
	// LinkCheckInterval is the delay between link polls after port start
	LinkCheckInterval time.Duration `yaml:"link_check_interval"`
	// LinkCheckAttempts is the number of link polls before start is considered failed
	LinkCheckAttempts int `yaml:"link_check_attempts"`
	// LinkNetdevs maps a port to the PCI address of its device. when set, link state of the port
	// is read from the uplink netdev of the device instead of the driver
	LinkNetdevs map[uint16]string `yaml:"link_netdevs"`

	Meter     MeterConfig     `yaml:"meter"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// RulesDumpPath if non-empty, the default chain is saved to this path for troubleshooting
	RulesDumpPath string `yaml:"rules_dump_path"`
	// MetricsBindAddress if non-empty, prometheus metrics are served on this address
	MetricsBindAddress string `yaml:"metrics_bind_address"`
	// IdleSleep is the dataplane loop sleep between passes over all queues, zero busy polls
	IdleSleep time.Duration `yaml:"idle_sleep"`
	// Retransmit sends received packets back on the queue they arrived on, otherwise they are freed
	Retransmit bool `yaml:"retransmit"`
}

// MeterConfig is the configuration of the per port meter
type MeterConfig struct {
	PolicyID  uint32 `yaml:"policy_id"`
	ProfileID uint32 `yaml:"profile_id"`
	MeterID   uint32 `yaml:"meter_id"`
	// OwnerPort is the port on which the shared policy is added, no metered rule is installed on it
	OwnerPort uint16 `yaml:"owner_port"`
	// CIR is the committed information rate per second
	CIR datasize.ByteSize `yaml:"cir"`
	// CBS is the committed burst size
	CBS datasize.ByteSize `yaml:"cbs"`
	// EBS is the excess burst size
	EBS datasize.ByteSize `yaml:"ebs"`
}

// TelemetryConfig is the configuration of the telemetry loop
type TelemetryConfig struct {
	// Interval is the meter stats sampling period
	Interval time.Duration `yaml:"interval"`
	// Tick is the sleep between timer services
	Tick time.Duration `yaml:"tick"`
	// ArmAttempts is the number of attempts to arm the stats timer
	ArmAttempts uint `yaml:"arm_attempts"`
	// ArmDelay is the delay between attempts to arm the stats timer
	ArmDelay time.Duration `yaml:"arm_delay"`
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Driver:            DriverSim,
		SimPorts:          2,
		StdQueues:         8,
		HairpinQueues:     1,
		RxDescriptors:     512,
		TxDescriptors:     512,
		LinkCheckInterval: time.Second,
		LinkCheckAttempts: 90,
		LinkNetdevs:       map[uint16]string{},
		Meter: MeterConfig{
			PolicyID:  25,
			ProfileID: 0,
			MeterID:   0,
			OwnerPort: 0,
			CIR:       10 * datasize.KB,
			CBS:       10 * datasize.KB,
			EBS:       0,
		},
		Telemetry: TelemetryConfig{
			Interval:    10 * time.Second,
			Tick:        time.Second,
			ArmAttempts: 10,
			ArmDelay:    time.Second,
		},
		Retransmit: true,
	}
}

// Load loads configuration from a YAML file at the specified path, on top of Default()
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}
	return Parse(data)
}

// Parse parses YAML configuration on top of Default(). unknown keys are rejected
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	// an empty document decodes to io.EOF
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Wrap(err, "failed to parse YAML configuration")
	}
	return cfg, nil
}

// Queues returns the total number of queues configured per port
func (c *Config) Queues() uint16 {
	return c.StdQueues + c.HairpinQueues
}

// Validate returns an error if the configuration cannot be used to bring up the pipeline
//
//nolint:gocyclo
func (c *Config) Validate() error {
	if c.Driver != DriverSim {
		return errors.Errorf("unknown driver %q", c.Driver)
	}
	if c.SimPorts == 0 {
		return errors.New("sim_ports must be at least 1")
	}
	if c.StdQueues == 0 {
		return errors.New("std_queues must be at least 1")
	}
	// the default chain steers marked traffic to a single reserved last queue
	if c.HairpinQueues != 1 {
		return errors.Errorf("hairpin_queues must be 1, got %d", c.HairpinQueues)
	}
	if c.RxDescriptors == 0 || c.TxDescriptors == 0 {
		return errors.New("rx_descriptors and tx_descriptors must be at least 1")
	}
	if c.LinkCheckInterval <= 0 || c.LinkCheckAttempts < 1 {
		return errors.New("link_check_interval and link_check_attempts must be positive")
	}
	if c.Isolate && c.TunnelPort >= c.SimPorts {
		return errors.Errorf("tunnel_port %d out of range, %d ports available", c.TunnelPort, c.SimPorts)
	}
	for port, pci := range c.LinkNetdevs {
		if port >= c.SimPorts {
			return errors.Errorf("link_netdevs port %d out of range, %d ports available", port, c.SimPorts)
		}
		if pci == "" {
			return errors.Errorf("link_netdevs port %d has an empty PCI address", port)
		}
	}
	if c.Meter.OwnerPort >= c.SimPorts {
		return errors.Errorf("meter owner_port %d out of range, %d ports available", c.Meter.OwnerPort, c.SimPorts)
	}
	if c.Meter.CIR == 0 || c.Meter.CBS == 0 {
		return errors.New("meter cir and cbs must be non zero")
	}
	if c.Telemetry.Interval <= 0 || c.Telemetry.Tick <= 0 || c.Telemetry.ArmDelay < 0 {
		return errors.New("telemetry interval and tick must be positive")
	}
	if c.Telemetry.ArmAttempts == 0 {
		return errors.New("telemetry arm_attempts must be at least 1")
	}
	if c.IdleSleep < 0 {
		return errors.New("idle_sleep cannot be negative")
	}
	return nil
}
