package meter_test

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/mock"
	klog "k8s.io/klog/v2"
	"k8s.io/klog/v2/ktesting"

	"github.com/k8snetworkplumbingwg/flowpipe/pkg/flow/generator"
	"github.com/k8snetworkplumbingwg/flowpipe/pkg/flow/types"
	"github.com/k8snetworkplumbingwg/flowpipe/pkg/meter"
	"github.com/k8snetworkplumbingwg/flowpipe/pkg/nic"
	"github.com/k8snetworkplumbingwg/flowpipe/pkg/nic/driver/sim"
	nicmocks "github.com/k8snetworkplumbingwg/flowpipe/pkg/nic/mocks"
)

var _ = Describe("Meter Manager tests", func() {
	var logger klog.Logger

	BeforeEach(func() {
		logger = klog.NewKlogr().WithName("meter-manager-test")
		DeferCleanup(klog.Flush)
	})

	It("DefaultConfig() is srTCM at 10KiB/s", func() {
		cfg := meter.DefaultConfig()
		Expect(cfg.PolicyID).To(BeEquivalentTo(25))
		Expect(cfg.Profile).To(Equal(types.MeterProfile{
			Algorithm: types.MeterAlgorithmSrTCM, CIR: 10240, CBS: 10240, EBS: 0}))
	})

	It("DropRedPolicy() drops red only", func() {
		p := meter.DropRedPolicy()
		Expect(p.Green).To(BeEmpty())
		Expect(p.Yellow).To(BeEmpty())
		Expect(p.Red).To(Equal([]types.Action{types.NewDropAction()}))
	})

	Context("with mocked driver", func() {
		var meterMock *nicmocks.MeterAPI
		var ruleMock *nicmocks.RuleAPI
		var mgr meter.Manager
		expectedParams := types.MeterParams{
			ProfileID: 0, PolicyID: 25, Enable: true, UsePrevColor: false, StatsMask: types.StatsMaskAll}

		BeforeEach(func() {
			meterMock = nicmocks.NewMeterAPI(GinkgoT())
			ruleMock = nicmocks.NewRuleAPI(GinkgoT())
			mgr = meter.NewManagerImpl(meterMock, ruleMock, meter.DefaultConfig(), logger)
		})

		It("adds policy once then profile and meter per port", func() {
			meterMock.On("PolicyAdd", uint16(0), uint32(25), meter.DropRedPolicy()).Return(nil).Once()
			meterMock.On("ProfileAdd", mock.Anything, uint32(0), meter.DefaultConfig().Profile).Return(nil).Twice()
			meterMock.On("MeterCreate", mock.Anything, uint32(0), expectedParams).Return(nil).Twice()

			Expect(mgr.Provision(0)).To(Succeed())
			Expect(mgr.Provision(1)).To(Succeed())
			meterMock.AssertNumberOfCalls(GinkgoT(), "PolicyAdd", 1)
		})

		It("logs repeated and failed policy adds as warnings", func() {
			testLogger := ktesting.NewLogger(GinkgoT(), ktesting.NewConfig(ktesting.Verbosity(0)))
			mgr = meter.NewManagerImpl(meterMock, ruleMock, meter.DefaultConfig(), testLogger)
			meterMock.On("PolicyAdd", uint16(0), uint32(25), mock.Anything).Return(nic.ErrExists).Once()
			meterMock.On("ProfileAdd", mock.Anything, uint32(0), mock.Anything).Return(nil)
			meterMock.On("MeterCreate", mock.Anything, uint32(0), expectedParams).Return(nil)

			Expect(mgr.Provision(0)).To(Succeed())
			Expect(mgr.Provision(0)).To(Succeed())

			warnings := make([]string, 0)
			for _, entry := range testLogger.GetSink().(ktesting.Underlier).GetBuffer().Data() {
				Expect(entry.Type).To(Equal(ktesting.LogInfo))
				Expect(entry.Verbosity).To(BeZero())
				if strings.HasPrefix(entry.Message, "warning:") {
					warnings = append(warnings, entry.Message)
				}
			}
			Expect(warnings).To(Equal([]string{
				"warning: failed to add meter policy, continuing",
				"warning: meter policy already added, skipping",
			}))
		})

		It("continues when policy add fails", func() {
			meterMock.On("PolicyAdd", uint16(0), uint32(25), mock.Anything).Return(nic.ErrExists)
			meterMock.On("ProfileAdd", uint16(0), uint32(0), mock.Anything).Return(nil)
			meterMock.On("MeterCreate", uint16(0), uint32(0), expectedParams).Return(nil)

			Expect(mgr.Provision(0)).To(Succeed())
		})

		It("fails when profile add fails", func() {
			meterMock.On("PolicyAdd", uint16(0), uint32(25), mock.Anything).Return(nil)
			meterMock.On("ProfileAdd", uint16(0), uint32(0), mock.Anything).Return(errors.New("test error!"))

			Expect(mgr.Provision(0)).To(MatchError(ContainSubstring("failed to add meter profile")))
			meterMock.AssertNotCalled(GinkgoT(), "MeterCreate", mock.Anything, mock.Anything, mock.Anything)
		})

		It("fails when meter create fails", func() {
			meterMock.On("PolicyAdd", uint16(0), uint32(25), mock.Anything).Return(nil)
			meterMock.On("ProfileAdd", uint16(0), uint32(0), mock.Anything).Return(nil)
			meterMock.On("MeterCreate", uint16(0), uint32(0), mock.Anything).Return(errors.New("test error!"))

			Expect(mgr.Provision(0)).To(MatchError(ContainSubstring("test error!")))
		})

		It("installs the metered rule", func() {
			expected := generator.MeteredRule(1, 0)
			ruleMock.On("Create", mock.MatchedBy(func(r *types.Rule) bool { return expected.Equals(r) })).
				Return(&types.Handle{ID: "h1"}, nil)

			h, err := mgr.AttachMeterAndQueue(1, 0)
			Expect(err).ToNot(HaveOccurred())
			Expect(h.ID).To(Equal("h1"))
		})

		It("returns error when metered rule is rejected", func() {
			ruleMock.On("Create", mock.Anything).Return(nil, errors.New("test error!"))

			_, err := mgr.AttachMeterAndQueue(1, 0)
			Expect(err).To(MatchError(ContainSubstring("failed to create metered rule on port 1")))
		})

		It("reads stats with all counters mask", func() {
			stats := types.MeterStats{GreenBytes: 10, DroppedPackets: 2}
			meterMock.On("StatsRead", uint16(1), uint32(0), types.StatsMask(0)).Return(stats, nil)

			s, err := mgr.ReadStats(1, 0)
			Expect(err).ToNot(HaveOccurred())
			Expect(s).To(Equal(stats))
		})

		It("returns zeroed stats on read failure", func() {
			meterMock.On("StatsRead", uint16(1), uint32(0), types.StatsMask(0)).
				Return(types.MeterStats{GreenBytes: 5}, errors.New("test error!"))

			s, err := mgr.ReadStats(1, 0)
			Expect(err).To(HaveOccurred())
			Expect(s).To(Equal(types.MeterStats{}))
		})
	})

	Context("with sim driver", func() {
		var d *sim.Driver
		var mgr meter.Manager

		BeforeEach(func() {
			d = sim.New(sim.WithPorts(2))
			mgr = meter.NewManagerImpl(d, d, meter.DefaultConfig(), logger)
		})

		It("reports zero drops right after provisioning", func() {
			for _, p := range d.Ports() {
				Expect(mgr.Provision(p)).To(Succeed())
				s, err := mgr.ReadStats(p, 0)
				Expect(err).ToNot(HaveOccurred())
				Expect(s.DroppedBytes).To(BeZero())
				Expect(s.DroppedPackets).To(BeZero())
			}
		})

		It("tolerates a second manager adding the same policy", func() {
			Expect(mgr.Provision(0)).To(Succeed())
			other := meter.NewManagerImpl(d, d, meter.DefaultConfig(), logger)
			Expect(other.Provision(1)).To(Succeed())
		})

		It("returns non decreasing stats while traffic flows", func() {
			Expect(mgr.Provision(1)).To(Succeed())
			prev := types.MeterStats{}
			for i := 0; i < 3; i++ {
				Expect(d.AddMeterTraffic(1, 0, types.MeterStats{
					GreenBytes: 100, GreenPackets: 1, DroppedBytes: 64, DroppedPackets: 1})).To(Succeed())
				s, err := mgr.ReadStats(1, 0)
				Expect(err).ToNot(HaveOccurred())
				Expect(s.GreenBytes).To(BeNumerically(">=", prev.GreenBytes))
				Expect(s.DroppedBytes).To(BeNumerically(">=", prev.DroppedBytes))
				Expect(s.DroppedPackets).To(BeNumerically(">", prev.DroppedPackets))
				prev = s
			}
		})

		It("fails on unknown meter", func() {
			_, err := mgr.ReadStats(0, 3)
			Expect(errors.Is(err, nic.ErrNotFound)).To(BeTrue())
		})
	})
})
