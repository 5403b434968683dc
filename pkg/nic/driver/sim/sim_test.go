package sim_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/pkg/errors"

	"github.com/k8snetworkplumbingwg/flowpipe/pkg/flow/types"
	"github.com/k8snetworkplumbingwg/flowpipe/pkg/nic"
	"github.com/k8snetworkplumbingwg/flowpipe/pkg/nic/driver/sim"
)

func startPort(d *sim.Driver, port uint16) {
	ExpectWithOffset(1, d.Configure(port, nic.PortConf{RxQueues: 3, TxQueues: 3})).To(Succeed())
	ExpectWithOffset(1, d.SetupRxQueue(port, 0, nic.QueueConf{Descriptors: 512})).To(Succeed())
	ExpectWithOffset(1, d.SetupTxQueue(port, 0, nic.QueueConf{Descriptors: 512})).To(Succeed())
	ExpectWithOffset(1, d.Start(port)).To(Succeed())
}

var _ = Describe("Sim driver tests", func() {
	var d *sim.Driver

	BeforeEach(func() {
		d = sim.New(sim.WithPorts(2))
	})

	Context("Ports", func() {
		It("enumerates ports", func() {
			Expect(d.Ports()).To(Equal([]uint16{0, 1}))
		})

		It("defaults to a single port", func() {
			Expect(sim.New().Ports()).To(Equal([]uint16{0}))
		})

		It("fails on unknown port", func() {
			_, err := d.DeviceInfo(5)
			Expect(errors.Is(err, nic.ErrInvalidPort)).To(BeTrue())
		})

		It("rejects isolate after configure", func() {
			Expect(d.Configure(0, nic.PortConf{RxQueues: 2, TxQueues: 2})).To(Succeed())
			Expect(d.Isolate(0, true)).ToNot(Succeed())
		})

		It("rejects offloads beyond capability", func() {
			d = sim.New(sim.WithTxOffloadCapa(nic.TxOffloadVLANInsert))
			err := d.Configure(0, nic.PortConf{RxQueues: 2, TxQueues: 2, TxOffloads: nic.DefaultTxOffloads})
			Expect(nic.IsNotSupported(err)).To(BeTrue())
		})

		It("reports link after configured delay", func() {
			d = sim.New(sim.WithLinkDelay(2))
			startPort(d, 0)
			for i := 0; i < 2; i++ {
				l, err := d.LinkGet(0)
				Expect(err).ToNot(HaveOccurred())
				Expect(l.Up).To(BeFalse())
			}
			l, err := d.LinkGet(0)
			Expect(err).ToNot(HaveOccurred())
			Expect(l.Up).To(BeTrue())
		})

		It("rejects close of a started port", func() {
			startPort(d, 0)
			Expect(d.Close(0)).ToNot(Succeed())
			Expect(d.Stop(0)).To(Succeed())
			Expect(d.Close(0)).To(Succeed())
		})
	})

	Context("Rules", func() {
		BeforeEach(func() {
			startPort(d, 0)
		})

		It("creates rules with unique handles", func() {
			r := types.NewRuleBuilder().WithDomain(types.DomainTransfer).
				WithItem(types.NewEthItem()).WithAction(types.NewJumpAction(1)).Build()
			h1, err := d.Create(r)
			Expect(err).ToNot(HaveOccurred())
			h2, err := d.Create(r)
			Expect(err).ToNot(HaveOccurred())
			Expect(h1.ID).ToNot(Equal(h2.ID))
			Expect(d.Rules(0)).To(HaveLen(2))
		})

		It("rejects a malformed rule", func() {
			r := types.NewRuleBuilder().WithDomain(types.DomainTransfer).
				WithItem(types.NewEthItem()).WithAction(types.NewMarkAction(1)).Build()
			Expect(d.Validate(r)).To(MatchError(ContainSubstring("malformed rule")))
		})

		It("rejects a queue index out of range", func() {
			r := types.NewRuleBuilder().WithDomain(types.DomainIngress).
				WithItem(types.NewMarkItem(1)).WithAction(types.NewQueueAction(3)).Build()
			_, err := d.Create(r)
			Expect(err).To(HaveOccurred())
		})

		It("rejects a meter action referencing a missing meter", func() {
			r := types.NewRuleBuilder().WithDomain(types.DomainTransfer).
				WithItem(types.NewEthItem()).
				WithAction(types.NewMeterAction(0)).
				WithAction(types.NewPortIDAction(0)).Build()
			_, err := d.Create(r)
			Expect(errors.Is(err, nic.ErrNotFound)).To(BeTrue())
		})

		It("flushes rules", func() {
			r := types.NewRuleBuilder().WithDomain(types.DomainTransfer).
				WithItem(types.NewEthItem()).WithAction(types.NewDropAction()).Build()
			_, err := d.Create(r)
			Expect(err).ToNot(HaveOccurred())
			Expect(d.Flush(0)).To(Succeed())
			Expect(d.Rules(0)).To(BeEmpty())
		})

		It("returns injected failures", func() {
			d.FailOn(sim.OpCreate, 0, sim.ErrInjected)
			r := types.NewRuleBuilder().WithDomain(types.DomainTransfer).
				WithItem(types.NewEthItem()).WithAction(types.NewDropAction()).Build()
			_, err := d.Create(r)
			Expect(errors.Is(err, sim.ErrInjected)).To(BeTrue())
			var nicErr *nic.Error
			Expect(errors.As(err, &nicErr)).To(BeTrue())
			Expect(nicErr.Op).To(Equal("create"))

			d.ClearFailure(sim.OpCreate, 0)
			_, err = d.Create(r)
			Expect(err).ToNot(HaveOccurred())
		})
	})

	Context("Meters", func() {
		profile := types.MeterProfile{Algorithm: types.MeterAlgorithmSrTCM, CIR: 10240, CBS: 10240}

		It("creates a meter bound to profile and shared policy", func() {
			Expect(d.PolicyAdd(0, 25, types.MeterPolicy{Red: []types.Action{types.NewDropAction()}})).To(Succeed())
			for _, p := range []uint16{0, 1} {
				Expect(d.ProfileAdd(p, 0, profile)).To(Succeed())
				Expect(d.MeterCreate(p, 0, types.MeterParams{PolicyID: 25, Enable: true,
					StatsMask: types.StatsMaskAll})).To(Succeed())
			}
		})

		It("rejects duplicate policy", func() {
			Expect(d.PolicyAdd(0, 25, types.MeterPolicy{})).To(Succeed())
			Expect(errors.Is(d.PolicyAdd(1, 25, types.MeterPolicy{}), nic.ErrExists)).To(BeTrue())
		})

		It("rejects meter without policy", func() {
			Expect(d.ProfileAdd(0, 0, profile)).To(Succeed())
			Expect(d.MeterCreate(0, 0, types.MeterParams{PolicyID: 25})).ToNot(Succeed())
		})

		It("reads accumulated stats, zero mask selects all", func() {
			Expect(d.PolicyAdd(0, 25, types.MeterPolicy{})).To(Succeed())
			Expect(d.ProfileAdd(0, 0, profile)).To(Succeed())
			Expect(d.MeterCreate(0, 0, types.MeterParams{PolicyID: 25, StatsMask: types.StatsMaskAll})).To(Succeed())
			Expect(d.AddMeterTraffic(0, 0, types.MeterStats{GreenBytes: 100, DroppedPackets: 2})).To(Succeed())
			Expect(d.AddMeterTraffic(0, 0, types.MeterStats{GreenBytes: 50})).To(Succeed())

			s, err := d.StatsRead(0, 0, 0)
			Expect(err).ToNot(HaveOccurred())
			Expect(s).To(Equal(types.MeterStats{GreenBytes: 150, DroppedPackets: 2}))

			s, err = d.StatsRead(0, 0, types.StatsPktsDropped)
			Expect(err).ToNot(HaveOccurred())
			Expect(s).To(Equal(types.MeterStats{DroppedPackets: 2}))
		})
	})

	Context("Hairpin", func() {
		BeforeEach(func() {
			for _, p := range []uint16{0, 1} {
				Expect(d.Configure(p, nic.PortConf{RxQueues: 3, TxQueues: 3})).To(Succeed())
			}
		})

		It("binds peered started ports", func() {
			Expect(d.HairpinSetup(0, 1, 1)).To(Succeed())
			Expect(d.HairpinSetup(1, 1, 0)).To(Succeed())
			Expect(d.HairpinBind(0, 1)).ToNot(Succeed())
			Expect(d.Start(0)).To(Succeed())
			Expect(d.Start(1)).To(Succeed())
			Expect(d.HairpinBind(0, 1)).To(Succeed())
			Expect(d.HairpinBound(1)).To(BeTrue())
			Expect(d.HairpinUnbind(0, 1)).To(Succeed())
			Expect(d.HairpinBound(0)).To(BeFalse())
			Expect(d.Calls(sim.OpHairpinBind, sim.OpHairpinUnbind)).To(HaveLen(3))
		})

		It("returns ErrNotSupported without hairpin capability", func() {
			d = sim.New(sim.WithoutHairpin())
			Expect(nic.IsNotSupported(d.HairpinSetup(0, 1, 0))).To(BeTrue())
		})
	})

	Context("Queues", func() {
		BeforeEach(func() {
			startPort(d, 0)
		})

		It("accounts packet buffers", func() {
			for i := 0; i < 3; i++ {
				Expect(d.InjectRx(0, 0, &nic.Packet{Data: []byte{0x1}})).To(Succeed())
			}
			Expect(d.Outstanding()).To(Equal(3))
			pkts := d.RxBurst(0, 0, 2)
			Expect(pkts).To(HaveLen(2))
			Expect(d.TxBurst(0, 0, pkts[:1])).To(Equal(1))
			d.Free(pkts[1])
			Expect(d.Outstanding()).To(Equal(1))
			Expect(d.Transmitted()).To(Equal(1))
		})

		It("limits tx burst", func() {
			d = sim.New(sim.WithTxLimit(1))
			startPort(d, 0)
			Expect(d.TxBurst(0, 0, []*nic.Packet{{}, {}})).To(Equal(1))
		})

		It("rejects injection on a queue which is not set up", func() {
			Expect(d.InjectRx(0, 2, &nic.Packet{})).ToNot(Succeed())
		})
	})
})
