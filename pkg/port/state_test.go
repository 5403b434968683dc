package port_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/k8snetworkplumbingwg/flowpipe/pkg/port"
)

var _ = Describe("State tests", func() {
	DescribeTable("CanTransition()",
		func(from, to port.State, allowed bool) {
			Expect(from.CanTransition(to)).To(Equal(allowed))
		},
		Entry("unconfigured to configured", port.StateUnconfigured, port.StateConfigured, true),
		Entry("unconfigured to started", port.StateUnconfigured, port.StateStarted, false),
		Entry("configured to started", port.StateConfigured, port.StateStarted, true),
		Entry("configured to closed", port.StateConfigured, port.StateClosed, true),
		Entry("started to stopped", port.StateStarted, port.StateStopped, true),
		Entry("started to closed", port.StateStarted, port.StateClosed, false),
		Entry("stopped to closed", port.StateStopped, port.StateClosed, true),
		Entry("stopped to started", port.StateStopped, port.StateStarted, true),
		Entry("closed to started", port.StateClosed, port.StateStarted, false),
	)

	It("TransitionError describes the transition", func() {
		err := &port.TransitionError{Port: 3, From: port.StateClosed, To: port.StateStarted}
		Expect(err.Error()).To(Equal("port 3 cannot move from closed to started"))
	})
})
