package net_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/pkg/errors"
	"github.com/vishvananda/netlink"

	"github.com/k8snetworkplumbingwg/flowpipe/pkg/net"
	"github.com/k8snetworkplumbingwg/flowpipe/pkg/net/mocks"
)

var _ = Describe("LinkStateReader tests", func() {
	var sriovnetMock *mocks.SriovnetProvider
	var netlinkMock *mocks.NetlinkProvider
	var reader *net.LinkStateReader
	pciAddr := "0000:03:00.0"

	BeforeEach(func() {
		sriovnetMock = mocks.NewSriovnetProvider(GinkgoT())
		netlinkMock = mocks.NewNetlinkProvider(GinkgoT())
		reader = net.NewLinkStateReader(sriovnetMock, netlinkMock)
	})

	It("returns true when uplink netdev is up", func() {
		sriovnetMock.On("GetUplinkRepresentor", pciAddr).Return("p0", nil)
		netlinkMock.On("LinkByName", "p0").Return(
			&netlink.Device{LinkAttrs: netlink.LinkAttrs{Name: "p0", OperState: netlink.OperUp}}, nil)

		up, netdev, err := reader.LinkUp(pciAddr)
		Expect(err).ToNot(HaveOccurred())
		Expect(up).To(BeTrue())
		Expect(netdev).To(Equal("p0"))
	})

	It("returns false when uplink netdev is down", func() {
		sriovnetMock.On("GetUplinkRepresentor", pciAddr).Return("p0", nil)
		netlinkMock.On("LinkByName", "p0").Return(
			&netlink.Device{LinkAttrs: netlink.LinkAttrs{Name: "p0", OperState: netlink.OperDown}}, nil)

		up, _, err := reader.LinkUp(pciAddr)
		Expect(err).ToNot(HaveOccurred())
		Expect(up).To(BeFalse())
	})

	It("fails when uplink netdev cannot be resolved", func() {
		sriovnetMock.On("GetUplinkRepresentor", pciAddr).Return("", errors.New("test error!"))

		_, _, err := reader.LinkUp(pciAddr)
		Expect(err).To(HaveOccurred())
	})

	It("fails when link cannot be read", func() {
		sriovnetMock.On("GetUplinkRepresentor", pciAddr).Return("p0", nil)
		netlinkMock.On("LinkByName", "p0").Return(nil, errors.New("test error!"))

		_, netdev, err := reader.LinkUp(pciAddr)
		Expect(err).To(HaveOccurred())
		Expect(netdev).To(Equal("p0"))
	})
})
