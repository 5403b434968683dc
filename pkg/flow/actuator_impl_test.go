package flow_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/mock"
	klog "k8s.io/klog/v2"

	"github.com/k8snetworkplumbingwg/flowpipe/pkg/flow"
	"github.com/k8snetworkplumbingwg/flowpipe/pkg/flow/generator"
	"github.com/k8snetworkplumbingwg/flowpipe/pkg/flow/types"
	nicmocks "github.com/k8snetworkplumbingwg/flowpipe/pkg/nic/mocks"
)

func ruleMatch(rule *types.Rule) func(r *types.Rule) bool {
	return func(r *types.Rule) bool {
		return rule.Equals(r)
	}
}

var _ = Describe("Actuator tests", func() {
	var actuator flow.Actuator
	var ruleMock *nicmocks.RuleAPI
	var logger klog.Logger

	BeforeEach(func() {
		logger = klog.NewKlogr().WithName("actuator-test")
		DeferCleanup(klog.Flush)

		ruleMock = nicmocks.NewRuleAPI(GinkgoT())
		actuator = flow.NewActuatorImpl(ruleMock, logger)
	})

	Context("Bad input", func() {
		It("fails with no objects", func() {
			Expect(actuator.Actuate(nil)).ToNot(Succeed())
			Expect(actuator.Actuate(&generator.Objects{})).ToNot(Succeed())
		})

		It("fails with duplicate rules without calling driver", func() {
			objs := &generator.Objects{Rules: []generator.Entry{
				{Kind: generator.EntryKindMiss, Rule: dropRule(0, types.DomainTransfer, 1)},
				{Kind: generator.EntryKindMiss, Rule: dropRule(0, types.DomainTransfer, 1)},
			}}
			Expect(actuator.Actuate(objs)).To(MatchError(ContainSubstring("duplicate")))
		})

		It("fails on broken chain without calling driver", func() {
			objs := &generator.Objects{Rules: []generator.Entry{
				{Kind: generator.EntryKindRootJump, Rule: jumpRule(0, types.DomainTransfer, 0, 1)},
			}}
			Expect(actuator.Actuate(objs)).To(MatchError(ContainSubstring("inconsistent rule chain")))
		})
	})

	Context("Actuate default chain", func() {
		var objs *generator.Objects

		BeforeEach(func() {
			var err error
			objs, err = generator.NewChainGenerator(generator.ModeDefault, 0).
				GenerateDefaultChain([]generator.PortInfo{{ID: 0, HairpinQueue: 8}})
			Expect(err).ToNot(HaveOccurred())
		})

		It("creates rules in order and sets handles", func() {
			created := make([]*types.Rule, 0)
			ruleMock.On("Create", mock.Anything).Run(func(args mock.Arguments) {
				created = append(created, args.Get(0).(*types.Rule))
			}).Return(&types.Handle{ID: "h"}, nil)

			Expect(actuator.Actuate(objs)).To(Succeed())
			Expect(created).To(Equal(objs.RuleList()))
			for _, r := range objs.RuleList() {
				Expect(r.Installed()).To(BeTrue())
			}
			ruleMock.AssertNotCalled(GinkgoT(), "Validate", mock.Anything)
		})

		It("aborts on first create failure", func() {
			first := objs.Rules[0].Rule
			ruleMock.On("Create", mock.MatchedBy(ruleMatch(first))).Return(&types.Handle{ID: "h"}, nil).Once()
			ruleMock.On("Create", mock.Anything).Return(nil, errors.New("test error!")).Once()

			err := actuator.Actuate(objs)
			Expect(err).To(MatchError(ContainSubstring("test error!")))
			Expect(objs.Rules[0].Rule.Installed()).To(BeTrue())
			Expect(objs.Rules[1].Rule.Installed()).To(BeFalse())
			ruleMock.AssertNumberOfCalls(GinkgoT(), "Create", 2)
		})

		It("does not create rules installed by a previous call", func() {
			ruleMock.On("Create", mock.Anything).Return(&types.Handle{ID: "h"}, nil).Times(len(objs.Rules))
			Expect(actuator.Actuate(objs)).To(Succeed())

			again, err := generator.NewChainGenerator(generator.ModeDefault, 0).
				GenerateDefaultChain([]generator.PortInfo{{ID: 0, HairpinQueue: 8}})
			Expect(err).ToNot(HaveOccurred())
			Expect(actuator.Actuate(again)).To(Succeed())
			Expect(actuator.Actuate(objs)).To(Succeed())

			ruleMock.AssertNumberOfCalls(GinkgoT(), "Create", len(objs.Rules))
			for _, r := range again.RuleList() {
				Expect(r.Handle).To(Equal(&types.Handle{ID: "h"}))
			}
		})

		It("creates only the rules of newly added ports", func() {
			ruleMock.On("Create", mock.Anything).Return(&types.Handle{ID: "h"}, nil)
			Expect(actuator.Actuate(objs)).To(Succeed())

			twoPorts, err := generator.NewChainGenerator(generator.ModeDefault, 0).
				GenerateDefaultChain([]generator.PortInfo{{ID: 0, HairpinQueue: 8}, {ID: 1, HairpinQueue: 8}})
			Expect(err).ToNot(HaveOccurred())
			Expect(actuator.Actuate(twoPorts)).To(Succeed())

			ruleMock.AssertNumberOfCalls(GinkgoT(), "Create", len(twoPorts.Rules))
			for _, r := range twoPorts.RuleList() {
				Expect(r.Installed()).To(BeTrue())
			}
		})

		It("fails when installed rules are missing from the new chain", func() {
			ruleMock.On("Create", mock.Anything).Return(&types.Handle{ID: "h"}, nil).Times(len(objs.Rules))
			Expect(actuator.Actuate(objs)).To(Succeed())

			otherQueue, err := generator.NewChainGenerator(generator.ModeDefault, 0).
				GenerateDefaultChain([]generator.PortInfo{{ID: 0, HairpinQueue: 3}})
			Expect(err).ToNot(HaveOccurred())
			Expect(actuator.Actuate(otherQueue)).To(MatchError(ContainSubstring("not part of the new chain")))
			ruleMock.AssertNumberOfCalls(GinkgoT(), "Create", len(objs.Rules))
		})
	})

	Context("Actuate isolate chain", func() {
		var objs *generator.Objects

		BeforeEach(func() {
			var err error
			objs, err = generator.NewChainGenerator(generator.ModeIsolate, 0).
				GenerateDefaultChain([]generator.PortInfo{{ID: 0, HairpinQueue: 8}})
			Expect(err).ToNot(HaveOccurred())
		})

		It("validates isolate rules before creating them", func() {
			calls := make([]string, 0)
			ruleMock.On("Validate", mock.Anything).Run(func(args mock.Arguments) {
				calls = append(calls, "validate")
			}).Return(nil)
			ruleMock.On("Create", mock.Anything).Run(func(args mock.Arguments) {
				calls = append(calls, "create")
			}).Return(&types.Handle{ID: "h"}, nil)

			Expect(actuator.Actuate(objs)).To(Succeed())
			// two isolate rules are validated, miss, miss-terminal and hairpin rules are not
			Expect(calls).To(Equal([]string{"validate", "create", "validate", "create", "create", "create", "create"}))
		})

		It("fails without creating if validation fails", func() {
			ruleMock.On("Validate", mock.Anything).Return(errors.New("test error!"))

			Expect(actuator.Actuate(objs)).To(MatchError(ContainSubstring("failed to validate")))
			ruleMock.AssertNotCalled(GinkgoT(), "Create", mock.Anything)
		})
	})
})
