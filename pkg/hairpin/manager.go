package hairpin

import (
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/k8snetworkplumbingwg/flowpipe/pkg/nic"
)

// Manager wires hairpin queues between ports
type Manager interface {
	// SetupQueues sets up count hairpin queues on every port. two ports are peered with each other,
	// otherwise every port is peered with itself
	SetupQueues(ports []uint16, count uint16) error
	// Bind binds the hairpin queues of a two port pair, no-op for any other number of ports
	Bind(ports []uint16) error
	// Unbind undoes Bind if a pair was bound. the pair is considered unbound even on failure
	Unbind() error
	// Enabled returns false if the device has no hairpin capability
	Enabled() bool
	// QueueIndex returns the queue marked traffic of port is steered to, given the last queue index of port
	QueueIndex(port uint16, lastQueue uint16) uint16
}

// NewManagerImpl creates a new ManagerImpl
func NewManagerImpl(hairpinAPI nic.HairpinAPI, log klog.Logger) *ManagerImpl {
	return &ManagerImpl{
		hairpinAPI: hairpinAPI,
		log:        log,
		enabled:    true,
	}
}

// ManagerImpl is an implementation of Manager interface
type ManagerImpl struct {
	hairpinAPI nic.HairpinAPI
	log        klog.Logger
	enabled    bool
	// bound is the pair bound by Bind, nil if none
	bound []uint16
}

// peers returns the hairpin peer of every port
func peers(ports []uint16) map[uint16]uint16 {
	p := make(map[uint16]uint16, len(ports))
	if len(ports) == 2 {
		p[ports[0]] = ports[1]
		p[ports[1]] = ports[0]
		return p
	}
	for _, port := range ports {
		p[port] = port
	}
	return p
}

// SetupQueues implements Manager interface.
// if the device reports nic.ErrNotSupported for the first port, hairpin is disabled and no error is returned.
func (m *ManagerImpl) SetupQueues(ports []uint16, count uint16) error {
	if len(ports) == 0 {
		return errors.New("no ports provided")
	}
	if count == 0 {
		return errors.New("hairpin queue count must be non zero")
	}

	peerOf := peers(ports)
	for idx, port := range ports {
		peer := peerOf[port]
		err := m.hairpinAPI.HairpinSetup(port, count, peer)
		if err != nil {
			if idx == 0 && nic.IsNotSupported(err) {
				m.log.Error(err, "hairpin is not supported by device, marked traffic falls back to queue 0")
				m.enabled = false
				return nil
			}
			return errors.Wrapf(err, "failed to setup hairpin queues on port %d peer %d", port, peer)
		}
		m.log.V(4).Info("hairpin queues setup", "port", port, "peer", peer, "count", count)
	}
	return nil
}

// Bind implements Manager interface
func (m *ManagerImpl) Bind(ports []uint16) error {
	if !m.enabled || len(ports) != 2 {
		m.log.V(4).Info("skipping hairpin bind", "enabled", m.enabled, "ports", len(ports))
		return nil
	}
	if m.bound != nil {
		return errors.Errorf("hairpin pair %v already bound", m.bound)
	}

	if err := m.hairpinAPI.HairpinBind(ports[0], ports[1]); err != nil {
		return errors.Wrapf(err, "failed to bind hairpin queues of port %d to port %d", ports[0], ports[1])
	}
	m.bound = []uint16{ports[0], ports[1]}
	m.log.Info("hairpin queues bound", "tx-port", ports[0], "rx-port", ports[1])
	return nil
}

// Unbind implements Manager interface
func (m *ManagerImpl) Unbind() error {
	if m.bound == nil {
		return nil
	}
	pair := m.bound
	m.bound = nil
	if err := m.hairpinAPI.HairpinUnbind(pair[0], pair[1]); err != nil {
		return errors.Wrapf(err, "failed to unbind hairpin queues of port %d from port %d", pair[0], pair[1])
	}
	m.log.Info("hairpin queues unbound", "tx-port", pair[0], "rx-port", pair[1])
	return nil
}

// Enabled implements Manager interface
func (m *ManagerImpl) Enabled() bool {
	return m.enabled
}

// QueueIndex implements Manager interface
func (m *ManagerImpl) QueueIndex(port uint16, lastQueue uint16) uint16 {
	if !m.enabled {
		return 0
	}
	return lastQueue
}
