package types_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/k8snetworkplumbingwg/flowpipe/pkg/flow/types"
)

var _ = Describe("Action tests", func() {
	Describe("Action Interface", func() {
		DescribeTable("Type() and Terminating()",
			func(a types.Action, expectedType types.ActionType, terminating bool) {
				Expect(a.Type()).To(Equal(expectedType))
				Expect(a.Terminating()).To(Equal(terminating))
			},
			Entry("jump", types.NewJumpAction(1), types.ActionTypeJump, true),
			Entry("mark", types.NewMarkAction(1), types.ActionTypeMark, false),
			Entry("set_tag", types.NewSetTagAction(0xD0A0, 1, 0xffffffff), types.ActionTypeSetTag, false),
			Entry("meter", types.NewMeterAction(0), types.ActionTypeMeter, false),
			Entry("queue", types.NewQueueAction(8), types.ActionTypeQueue, true),
			Entry("port_id", types.NewPortIDAction(1), types.ActionTypePortID, true),
			Entry("drop", types.NewDropAction(), types.ActionTypeDrop, true),
			Entry("end", types.NewEndAction(), types.ActionTypeEnd, false),
		)

		Context("Equals()", func() {
			It("returns true if Actions are equal", func() {
				Expect(types.NewJumpAction(1).Equals(types.NewJumpAction(1))).To(BeTrue())
				Expect(types.NewDropAction().Equals(types.NewDropAction())).To(BeTrue())
			})

			It("returns false if Actions are not equal", func() {
				Expect(types.NewJumpAction(1).Equals(types.NewJumpAction(2))).To(BeFalse())
				Expect(types.NewQueueAction(1).Equals(types.NewJumpAction(1))).To(BeFalse())
			})
		})

		DescribeTable("CmdLineGenerator",
			func(a types.Action, expectedArgs []string) {
				Expect(a.GenCmdLineArgs()).To(Equal(expectedArgs))
			},
			Entry("jump", types.NewJumpAction(4294967294), []string{"jump", "group", "4294967294"}),
			Entry("mark", types.NewMarkAction(1), []string{"mark", "id", "1"}),
			Entry("set_tag", types.NewSetTagAction(0xD0A0, 1, 0xffffffff),
				[]string{"set_tag", "data", "0xd0a0", "index", "1", "mask", "0xffffffff"}),
			Entry("meter", types.NewMeterAction(0), []string{"meter", "mtr_id", "0"}),
			Entry("queue", types.NewQueueAction(8), []string{"queue", "index", "8"}),
			Entry("port_id", types.NewPortIDAction(1), []string{"port_id", "id", "1"}),
			Entry("drop", types.NewDropAction(), []string{"drop"}),
		)
	})
})

var _ = Describe("Item tests", func() {
	DescribeTable("CmdLineGenerator",
		func(i types.Item, expectedArgs []string) {
			Expect(i.GenCmdLineArgs()).To(Equal(expectedArgs))
		},
		Entry("any eth", types.NewEthItem(), []string{"eth"}),
		Entry("eth with type", types.NewEthItemWithType(types.EtherTypeIPv4), []string{"eth", "type", "is", "0x800"}),
		Entry("any ipv4", types.NewIPv4Item(), []string{"ipv4"}),
		Entry("gre", types.NewGREItem(types.EtherTypeTEB), []string{"gre", "protocol", "is", "0x6558"}),
		Entry("tag", types.NewTagItem(0xD0A0, 1), []string{"tag", "data", "is", "0xd0a0", "index", "is", "1"}),
		Entry("mark", types.NewMarkItem(1), []string{"mark", "id", "is", "1"}),
		Entry("end", types.NewEndItem(), []string{"end"}),
	)

	Context("Equals()", func() {
		It("treats nil spec as distinct from a set spec", func() {
			Expect(types.NewEthItem().Equals(types.NewEthItemWithType(types.EtherTypeIPv4))).To(BeFalse())
		})

		It("compares spec values", func() {
			Expect(types.NewIPv4ItemWithProto(47).Equals(types.NewIPv4ItemWithProto(47))).To(BeTrue())
			Expect(types.NewIPv4ItemWithProto(47).Equals(types.NewIPv4ItemWithProto(6))).To(BeFalse())
		})

		It("returns false for different item types", func() {
			Expect(types.NewMarkItem(1).Equals(types.NewTagItem(1, 0))).To(BeFalse())
		})
	})
})

var _ = Describe("Meter types tests", func() {
	It("StatsMaskAll selects eight counters", func() {
		count := 0
		for m := types.StatsMask(1); m <= types.StatsPktsDropped; m <<= 1 {
			if types.StatsMaskAll.Has(m) {
				count++
			}
		}
		Expect(count).To(Equal(8))
	})

	It("Masked zeroes unselected counters", func() {
		s := types.MeterStats{GreenBytes: 1, DroppedBytes: 2, DroppedPackets: 3}
		Expect(s.Masked(types.StatsBytesDropped)).To(Equal(types.MeterStats{DroppedBytes: 2}))
		Expect(s.Masked(types.StatsMaskAll)).To(Equal(s))
	})

	It("compares policies", func() {
		p1 := types.MeterPolicy{Red: []types.Action{types.NewDropAction()}}
		p2 := types.MeterPolicy{Red: []types.Action{types.NewDropAction()}}
		p3 := types.MeterPolicy{Green: []types.Action{types.NewDropAction()}}
		Expect(p1.Equals(&p2)).To(BeTrue())
		Expect(p1.Equals(&p3)).To(BeFalse())
	})
})
