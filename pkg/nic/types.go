package nic

// TxOffload is a bit set of transmit offload capabilities
type TxOffload uint64

const (
	TxOffloadVLANInsert TxOffload = 1 << iota
	TxOffloadIPv4Cksum
	TxOffloadUDPCksum
	TxOffloadTCPCksum
	TxOffloadSCTPCksum
	TxOffloadTCPTSO

	// DefaultTxOffloads is the set of offloads requested for every port
	DefaultTxOffloads = TxOffloadVLANInsert | TxOffloadIPv4Cksum | TxOffloadUDPCksum |
		TxOffloadTCPCksum | TxOffloadSCTPCksum | TxOffloadTCPTSO
)

// Has returns true if all bits of other are set in t
func (t TxOffload) Has(other TxOffload) bool {
	return t&other == other
}

// DeviceInfo describes the capabilities of a port
type DeviceInfo struct {
	// DriverName is the name of the driver backing the port
	DriverName string
	// TxOffloadCapa is the set of transmit offloads supported by the device
	TxOffloadCapa TxOffload
	// MaxRxQueues is the maximum number of receive queues
	MaxRxQueues uint16
	// MaxTxQueues is the maximum number of transmit queues
	MaxTxQueues uint16
}

// PortConf is the configuration applied to a port before queues are set up
type PortConf struct {
	RxQueues   uint16
	TxQueues   uint16
	TxOffloads TxOffload
}

// QueueConf is the configuration of a single standard queue
type QueueConf struct {
	Descriptors uint16
	// TxOffloads applies to TX queues only
	TxOffloads TxOffload
}

// LinkState is the link status of a port
type LinkState struct {
	Up        bool
	SpeedMbps uint32
	Duplex    bool
}

// OlFlags are receive metadata flags attached to a packet by hardware
type OlFlags uint64

const (
	OlFlagRSSHash OlFlags = 1 << iota
	OlFlagFDIR
	OlFlagFDIRID
	OlFlagFDIRFlex
	OlFlagMark
)

// Has returns true if all bits of other are set in f
func (f OlFlags) Has(other OlFlags) bool {
	return f&other == other
}

// FDIRInfo is the flow director metadata of a packet, which fields are valid depends on OlFlags
type FDIRInfo struct {
	Hi   uint32
	Lo   uint32
	Hash uint16
	ID   uint16
}

// Packet is a received (or to be transmitted) packet buffer
type Packet struct {
	Data    []byte
	OlFlags OlFlags
	RSSHash uint32
	FDIR    FDIRInfo
	Mark    uint32
}
