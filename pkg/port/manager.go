package port

import (
	"sort"
	"time"

	"github.com/pkg/errors"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	"k8s.io/apimachinery/pkg/util/wait"
	"k8s.io/klog/v2"

	"github.com/k8snetworkplumbingwg/flowpipe/pkg/nic"
)

// Config is the configuration applied to every port
type Config struct {
	StdQueues     uint16
	HairpinQueues uint16
	RxDescriptors uint16
	TxDescriptors uint16
	// TxOffloads are the requested TX offloads, reduced to what the device supports
	TxOffloads nic.TxOffload
	// Isolate enables isolate mode before configuration, promiscuous mode is enabled otherwise
	Isolate           bool
	LinkCheckInterval time.Duration
	LinkCheckAttempts int
}

// DefaultConfig returns the default Config
func DefaultConfig() Config {
	return Config{
		StdQueues:         8,
		HairpinQueues:     1,
		RxDescriptors:     512,
		TxDescriptors:     512,
		TxOffloads:        nic.DefaultTxOffloads,
		LinkCheckInterval: time.Second,
		LinkCheckAttempts: 90,
	}
}

// Unbinder releases hairpin bindings before ports are stopped
type Unbinder interface {
	Unbind() error
}

// Manager drives ports through their lifecycle
type Manager interface {
	// Configure enables isolate mode if requested, configures queues and offloads of port
	// and sets up its standard queues
	Configure(port uint16) error
	// Start starts port and waits for its link to come up
	Start(port uint16) error
	// Teardown flushes rules on all ports, unbinds hairpin queues then stops and closes all ports.
	// all steps are attempted, the returned error aggregates the failures
	Teardown(unbinder Unbinder) error
	// State returns the lifecycle state of port
	State(port uint16) State
	// LastQueue returns the highest queue index configured on port
	LastQueue(port uint16) uint16
}

// NewManagerImpl creates a new ManagerImpl
func NewManagerImpl(
	portAPI nic.PortAPI, ruleAPI nic.RuleAPI, linkChecker LinkChecker, cfg Config, log klog.Logger) *ManagerImpl {
	return &ManagerImpl{
		portAPI:     portAPI,
		ruleAPI:     ruleAPI,
		linkChecker: linkChecker,
		cfg:         cfg,
		log:         log,
		states:      make(map[uint16]State),
	}
}

// ManagerImpl is an implementation of Manager interface
type ManagerImpl struct {
	portAPI     nic.PortAPI
	ruleAPI     nic.RuleAPI
	linkChecker LinkChecker
	cfg         Config
	log         klog.Logger
	states      map[uint16]State
}

// State implements Manager interface
func (m *ManagerImpl) State(port uint16) State {
	if s, ok := m.states[port]; ok {
		return s
	}
	return StateUnconfigured
}

// LastQueue implements Manager interface
func (m *ManagerImpl) LastQueue(port uint16) uint16 {
	return m.cfg.StdQueues + m.cfg.HairpinQueues - 1
}

func (m *ManagerImpl) checkTransition(port uint16, next State) error {
	cur := m.State(port)
	if !cur.CanTransition(next) {
		return &TransitionError{Port: port, From: cur, To: next}
	}
	return nil
}

// Configure implements Manager interface
func (m *ManagerImpl) Configure(port uint16) error {
	if err := m.checkTransition(port, StateConfigured); err != nil {
		return err
	}
	if m.cfg.StdQueues == 0 {
		return errors.New("at least one standard queue is required")
	}

	if m.cfg.Isolate {
		if err := m.portAPI.Isolate(port, true); err != nil {
			return errors.Wrapf(err, "failed to enable isolate mode on port %d", port)
		}
		m.log.Info("enabled isolate mode", "port", port)
	}

	info, err := m.portAPI.DeviceInfo(port)
	if err != nil {
		return errors.Wrapf(err, "failed to get device info of port %d", port)
	}

	offloads := m.cfg.TxOffloads & info.TxOffloadCapa
	if offloads != m.cfg.TxOffloads {
		m.log.V(2).Info("device does not support all requested tx offloads", "port", port,
			"requested", m.cfg.TxOffloads, "supported", info.TxOffloadCapa)
	}

	queues := m.cfg.StdQueues + m.cfg.HairpinQueues
	m.log.Info("initializing port", "port", port, "driver", info.DriverName, "queues", queues)
	conf := nic.PortConf{RxQueues: queues, TxQueues: queues, TxOffloads: offloads}
	if err := m.portAPI.Configure(port, conf); err != nil {
		return errors.Wrapf(err, "cannot configure port %d", port)
	}
	// from here on the port has to be closed on teardown
	m.states[port] = StateConfigured

	for q := uint16(0); q < m.cfg.StdQueues; q++ {
		if err := m.portAPI.SetupRxQueue(port, q, nic.QueueConf{Descriptors: m.cfg.RxDescriptors}); err != nil {
			return errors.Wrapf(err, "rx queue %d setup failed on port %d", q, port)
		}
	}
	for q := uint16(0); q < m.cfg.StdQueues; q++ {
		txConf := nic.QueueConf{Descriptors: m.cfg.TxDescriptors, TxOffloads: offloads}
		if err := m.portAPI.SetupTxQueue(port, q, txConf); err != nil {
			return errors.Wrapf(err, "tx queue %d setup failed on port %d", q, port)
		}
	}

	if !m.cfg.Isolate {
		if err := m.portAPI.Promiscuous(port); err != nil {
			return errors.Wrapf(err, "promiscuous mode enable failed on port %d", port)
		}
	}

	m.log.Info("initializing port done", "port", port)
	return nil
}

// Start implements Manager interface
func (m *ManagerImpl) Start(port uint16) error {
	if err := m.checkTransition(port, StateStarted); err != nil {
		return err
	}
	if err := m.portAPI.Start(port); err != nil {
		return errors.Wrapf(err, "failed to start port %d", port)
	}
	m.states[port] = StateStarted

	if err := m.waitLink(port); err != nil {
		return err
	}
	m.log.Info("port started, link is up", "port", port)
	return nil
}

// waitLink polls the link of port every LinkCheckInterval, up to LinkCheckAttempts times
func (m *ManagerImpl) waitLink(port uint16) error {
	var lastErr error
	attempts := 0
	backoff := wait.Backoff{
		Duration: m.cfg.LinkCheckInterval,
		Factor:   1,
		Steps:    m.cfg.LinkCheckAttempts,
	}

	err := wait.ExponentialBackoff(backoff, func() (bool, error) {
		attempts++
		up, err := m.linkChecker.LinkUp(port)
		lastErr = err
		if err != nil {
			m.log.V(4).Info("link get failed", "port", port, "attempt", attempts, "error", err.Error())
			return false, nil
		}
		return up, nil
	})
	if err == nil {
		return nil
	}

	if lastErr != nil {
		return errors.Wrapf(lastErr, "link get is failing on port %d", port)
	}
	return errors.Errorf("link is still down on port %d after %d attempts", port, attempts)
}

// ports returns the ports known to the manager in ascending order
func (m *ManagerImpl) ports() []uint16 {
	ports := make([]uint16, 0, len(m.states))
	for p := range m.states {
		ports = append(ports, p)
	}
	sort.Slice(ports, func(i, j int) bool { return ports[i] < ports[j] })
	return ports
}

// Teardown implements Manager interface
func (m *ManagerImpl) Teardown(unbinder Unbinder) error {
	var errs []error
	ports := m.ports()

	// rules may reference hairpin queues, flush them first
	for _, p := range ports {
		if m.State(p) == StateClosed {
			continue
		}
		if err := m.ruleAPI.Flush(p); err != nil {
			m.log.Error(err, "failed to flush rules", "port", p)
			errs = append(errs, errors.Wrapf(err, "failed to flush rules on port %d", p))
		}
	}

	if unbinder != nil {
		if err := unbinder.Unbind(); err != nil {
			m.log.Error(err, "failed to unbind hairpin queues")
			errs = append(errs, err)
		}
	}

	for _, p := range ports {
		if m.State(p) == StateStarted {
			if err := m.portAPI.Stop(p); err != nil {
				m.log.Error(err, "failed to stop port", "port", p)
				errs = append(errs, errors.Wrapf(err, "failed to stop port %d", p))
			} else {
				m.states[p] = StateStopped
			}
		}
		if !m.State(p).CanTransition(StateClosed) {
			continue
		}
		if err := m.portAPI.Close(p); err != nil {
			m.log.Error(err, "failed to close port", "port", p)
			errs = append(errs, errors.Wrapf(err, "failed to close port %d", p))
			continue
		}
		m.states[p] = StateClosed
		m.log.Info("port closed", "port", p)
	}

	return utilerrors.NewAggregate(errs)
}
