package net

import (
	"github.com/pkg/errors"
	"github.com/vishvananda/netlink"
)

// LinkStateReader reads the operational state of the kernel netdev backing a PCI network device
type LinkStateReader struct {
	sriovnetProvider SriovnetProvider
	netlinkProvider  NetlinkProvider
}

// NewLinkStateReader creates a new LinkStateReader
func NewLinkStateReader(sriovnetProvider SriovnetProvider, netlinkProvider NetlinkProvider) *LinkStateReader {
	return &LinkStateReader{sriovnetProvider: sriovnetProvider, netlinkProvider: netlinkProvider}
}

// LinkUp returns true if the uplink netdev of pciAddress is operationally up,
// along with the netdev name
func (r *LinkStateReader) LinkUp(pciAddress string) (bool, string, error) {
	netdev, err := r.sriovnetProvider.GetUplinkRepresentor(pciAddress)
	if err != nil {
		return false, "", errors.Wrapf(err, "failed to get uplink netdev for device %s", pciAddress)
	}

	link, err := r.netlinkProvider.LinkByName(netdev)
	if err != nil {
		return false, netdev, errors.Wrapf(err, "failed to get link for netdev %s", netdev)
	}

	attrs := link.Attrs()
	if attrs == nil {
		return false, netdev, errors.Errorf("no attributes for link %s", netdev)
	}
	return attrs.OperState == netlink.OperUp, netdev, nil
}
