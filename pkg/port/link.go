package port

import (
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/k8snetworkplumbingwg/flowpipe/pkg/nic"
)

// LinkChecker reads the link state of a port
type LinkChecker interface {
	// LinkUp returns true if the link of port is up
	LinkUp(port uint16) (bool, error)
}

// NetdevLinkReader reads the link state of the netdev backing a PCI device
type NetdevLinkReader interface {
	// LinkUp returns true if the netdev of pciAddress is up, along with the netdev name
	LinkUp(pciAddress string) (bool, string, error)
}

// NewDriverLinkChecker creates a new DriverLinkChecker
func NewDriverLinkChecker(portAPI nic.PortAPI) *DriverLinkChecker {
	return &DriverLinkChecker{portAPI: portAPI}
}

// DriverLinkChecker is a LinkChecker asking the NIC driver for the link state
type DriverLinkChecker struct {
	portAPI nic.PortAPI
}

// LinkUp implements LinkChecker interface
func (c *DriverLinkChecker) LinkUp(port uint16) (bool, error) {
	l, err := c.portAPI.LinkGet(port)
	if err != nil {
		return false, err
	}
	return l.Up, nil
}

// NewNetdevLinkChecker creates a new NetdevLinkChecker. devices maps ports to PCI addresses,
// ports not in devices are checked with fallback
func NewNetdevLinkChecker(
	reader NetdevLinkReader, devices map[uint16]string, fallback LinkChecker, log klog.Logger) *NetdevLinkChecker {
	return &NetdevLinkChecker{reader: reader, devices: devices, fallback: fallback, log: log}
}

// NetdevLinkChecker is a LinkChecker reading the operational state of the kernel netdev of a port
type NetdevLinkChecker struct {
	reader   NetdevLinkReader
	devices  map[uint16]string
	fallback LinkChecker
	log      klog.Logger
}

// LinkUp implements LinkChecker interface
func (c *NetdevLinkChecker) LinkUp(port uint16) (bool, error) {
	pci, ok := c.devices[port]
	if !ok {
		if c.fallback == nil {
			return false, errors.Errorf("no device for port %d", port)
		}
		return c.fallback.LinkUp(port)
	}

	up, netdev, err := c.reader.LinkUp(pci)
	if err != nil {
		return false, err
	}
	c.log.V(4).Info("netdev link state", "port", port, "pci-address", pci, "netdev", netdev, "up", up)
	return up, nil
}
