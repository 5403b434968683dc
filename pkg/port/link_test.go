package port_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/pkg/errors"
	"github.com/vishvananda/netlink"
	klog "k8s.io/klog/v2"

	netwrappers "github.com/k8snetworkplumbingwg/flowpipe/pkg/net"
	netmocks "github.com/k8snetworkplumbingwg/flowpipe/pkg/net/mocks"
	"github.com/k8snetworkplumbingwg/flowpipe/pkg/nic"
	nicmocks "github.com/k8snetworkplumbingwg/flowpipe/pkg/nic/mocks"
	"github.com/k8snetworkplumbingwg/flowpipe/pkg/port"
)

var _ = Describe("LinkChecker tests", func() {
	Context("DriverLinkChecker", func() {
		var portMock *nicmocks.PortAPI
		var checker port.LinkChecker

		BeforeEach(func() {
			portMock = nicmocks.NewPortAPI(GinkgoT())
			checker = port.NewDriverLinkChecker(portMock)
		})

		It("returns link state of driver", func() {
			portMock.On("LinkGet", uint16(0)).Return(nic.LinkState{Up: true}, nil).Once()
			portMock.On("LinkGet", uint16(1)).Return(nic.LinkState{}, nil).Once()
			up, err := checker.LinkUp(0)
			Expect(err).ToNot(HaveOccurred())
			Expect(up).To(BeTrue())
			up, err = checker.LinkUp(1)
			Expect(err).ToNot(HaveOccurred())
			Expect(up).To(BeFalse())
		})

		It("returns driver error", func() {
			portMock.On("LinkGet", uint16(0)).Return(nic.LinkState{}, errors.New("test error!"))
			_, err := checker.LinkUp(0)
			Expect(err).To(HaveOccurred())
		})
	})

	Context("NetdevLinkChecker", func() {
		var sriovnetMock *netmocks.SriovnetProvider
		var netlinkMock *netmocks.NetlinkProvider
		var portMock *nicmocks.PortAPI
		var checker port.LinkChecker
		pciAddr := "0000:03:00.0"

		BeforeEach(func() {
			sriovnetMock = netmocks.NewSriovnetProvider(GinkgoT())
			netlinkMock = netmocks.NewNetlinkProvider(GinkgoT())
			portMock = nicmocks.NewPortAPI(GinkgoT())
			reader := netwrappers.NewLinkStateReader(sriovnetMock, netlinkMock)
			checker = port.NewNetdevLinkChecker(reader, map[uint16]string{0: pciAddr},
				port.NewDriverLinkChecker(portMock), klog.NewKlogr().WithName("netdev-link-checker-test"))
		})

		It("reads link state of the uplink netdev", func() {
			sriovnetMock.On("GetUplinkRepresentor", pciAddr).Return("p0", nil)
			netlinkMock.On("LinkByName", "p0").Return(
				&netlink.Device{LinkAttrs: netlink.LinkAttrs{Name: "p0", OperState: netlink.OperUp}}, nil)

			up, err := checker.LinkUp(0)
			Expect(err).ToNot(HaveOccurred())
			Expect(up).To(BeTrue())
		})

		It("returns error if netdev cannot be resolved", func() {
			sriovnetMock.On("GetUplinkRepresentor", pciAddr).Return("", errors.New("test error!"))

			_, err := checker.LinkUp(0)
			Expect(err).To(MatchError(ContainSubstring("test error!")))
		})

		It("falls back for ports without device", func() {
			portMock.On("LinkGet", uint16(1)).Return(nic.LinkState{Up: true}, nil)

			up, err := checker.LinkUp(1)
			Expect(err).ToNot(HaveOccurred())
			Expect(up).To(BeTrue())
		})

		It("fails for ports without device and no fallback", func() {
			c := port.NewNetdevLinkChecker(netwrappers.NewLinkStateReader(sriovnetMock, netlinkMock),
				map[uint16]string{}, nil, klog.NewKlogr())
			_, err := c.LinkUp(1)
			Expect(err).To(HaveOccurred())
		})
	})
})
