package nic

import (
	"github.com/k8snetworkplumbingwg/flowpipe/pkg/flow/types"
)

// PortAPI defines an interface to enumerate, configure and control NIC ports
type PortAPI interface {
	// Ports returns the ids of all available ports
	Ports() []uint16
	// DeviceInfo returns the capabilities of a port
	DeviceInfo(port uint16) (DeviceInfo, error)
	// Configure sets the number of queues and the offloads of a port
	Configure(port uint16, conf PortConf) error
	// SetupRxQueue sets up a standard receive queue
	SetupRxQueue(port, queue uint16, conf QueueConf) error
	// SetupTxQueue sets up a standard transmit queue
	SetupTxQueue(port, queue uint16, conf QueueConf) error
	// Promiscuous enables promiscuous mode on a port
	Promiscuous(port uint16) error
	// Isolate restricts ingress traffic of a port to packets matched by explicit rules,
	// must be called before Configure
	Isolate(port uint16, enable bool) error
	// Start starts a port
	Start(port uint16) error
	// Stop stops a port
	Stop(port uint16) error
	// Close releases a port
	Close(port uint16) error
	// LinkGet returns the link state of a port without waiting
	LinkGet(port uint16) (LinkState, error)
}

// RuleAPI defines an interface to program hardware match-action rules
type RuleAPI interface {
	// Validate checks whether hardware would accept the rule, without installing it
	Validate(rule *types.Rule) error
	// Create installs the rule and returns its handle
	Create(rule *types.Rule) (*types.Handle, error)
	// Flush destroys all rules of a port
	Flush(port uint16) error
}

// MeterAPI defines an interface to program hardware meters
type MeterAPI interface {
	// ProfileAdd adds a meter profile to a port
	ProfileAdd(port uint16, profileID uint32, profile types.MeterProfile) error
	// PolicyAdd adds a meter policy to a port
	PolicyAdd(port uint16, policyID uint32, policy types.MeterPolicy) error
	// MeterCreate creates a meter instance on a port
	MeterCreate(port uint16, meterID uint32, params types.MeterParams) error
	// StatsRead reads meter counters selected by mask, a zero mask selects all counters
	StatsRead(port uint16, meterID uint32, mask types.StatsMask) (types.MeterStats, error)
}

// HairpinAPI defines an interface to wire hairpin queues between ports
type HairpinAPI interface {
	// HairpinSetup sets up count hairpin RX/TX queue pairs on port, peered with peerPort.
	// hairpin queues take the highest queue indices configured on the port
	HairpinSetup(port uint16, count uint16, peerPort uint16) error
	// HairpinBind binds the hairpin TX queues of txPort to the RX queues of rxPort
	HairpinBind(txPort, rxPort uint16) error
	// HairpinUnbind undoes HairpinBind
	HairpinUnbind(txPort, rxPort uint16) error
}

// QueueAPI defines an interface to poll packets on standard queues
type QueueAPI interface {
	// RxBurst receives up to max packets from a queue
	RxBurst(port, queue uint16, max int) []*Packet
	// TxBurst transmits packets on a queue, returns the number of packets accepted.
	// accepted packets are owned by the driver, the rest remain owned by the caller
	TxBurst(port, queue uint16, pkts []*Packet) int
	// Free releases a packet buffer back to the driver
	Free(pkt *Packet)
}

// Driver is the NIC driver runtime
type Driver interface {
	PortAPI
	RuleAPI
	MeterAPI
	HairpinAPI
	QueueAPI
}
