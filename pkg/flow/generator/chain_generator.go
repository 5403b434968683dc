package generator

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/k8snetworkplumbingwg/flowpipe/pkg/flow/types"
)

// Mode selects how root rules steer traffic into FirstTable
type Mode string

const (
	// ModeDefault jumps all ethernet traffic to FirstTable
	ModeDefault Mode = "default"
	// ModeIsolate only jumps explicitly matched traffic to FirstTable, all other traffic stays with the kernel
	ModeIsolate Mode = "isolate"
)

// NewChainGenerator creates a new ChainGenerator instance
func NewChainGenerator(mode Mode, tunnelPort uint16) *ChainGenerator {
	return &ChainGenerator{mode: mode, tunnelPort: tunnelPort}
}

// ChainGenerator is an implementation of Generator interface
type ChainGenerator struct {
	mode Mode
	// tunnelPort is the port receiving GRE encapsulated traffic in isolate mode
	tunnelPort uint16
}

// GenerateDefaultChain implements Generator interface
// It renders the rules of the default chain, in install order:
//  1. root rules in group 0 at MinFlowPriority jumping to FirstTable. in default mode a transfer and
//     an ingress rule per port matching all ethernet traffic. in isolate mode a transfer pass over
//     all ports followed by an ingress pass, matching GRE/TEB on the tunnel port and IPv4 elsewhere.
//  2. a miss rule per port in FirstTable at MaxFlowPriority jumping to MissTableID, followed by
//     the MissTableID rule returning traffic to the port
//  3. a hairpin selection rule per port in FirstTable at MinFlowPriority steering packets
//     carrying HairpinFlowMark to the port hairpin queue
func (g *ChainGenerator) GenerateDefaultChain(ports []PortInfo) (*Objects, error) {
	if len(ports) == 0 {
		return nil, errors.New("no ports provided")
	}
	seen := make(map[uint16]struct{}, len(ports))
	for _, p := range ports {
		if _, ok := seen[p.ID]; ok {
			return nil, fmt.Errorf("duplicate port %d", p.ID)
		}
		seen[p.ID] = struct{}{}
	}

	objs := &Objects{Rules: make([]Entry, 0, len(ports)*5)}

	switch g.mode {
	case ModeDefault:
		for _, p := range ports {
			objs.Rules = append(objs.Rules,
				Entry{Kind: EntryKindRootJump, Rule: rootJumpRule(p.ID, types.DomainTransfer)},
				Entry{Kind: EntryKindRootJump, Rule: rootJumpRule(p.ID, types.DomainIngress)})
		}
	case ModeIsolate:
		if _, ok := seen[g.tunnelPort]; !ok {
			return nil, fmt.Errorf("tunnel port %d is not one of the provided ports", g.tunnelPort)
		}
		for _, domain := range []types.Domain{types.DomainTransfer, types.DomainIngress} {
			for _, p := range ports {
				objs.Rules = append(objs.Rules,
					Entry{Kind: EntryKindIsolateJump, Rule: g.isolateJumpRule(p.ID, domain), Validate: true})
			}
		}
	default:
		return nil, fmt.Errorf("unknown chain mode %q", g.mode)
	}

	for _, p := range ports {
		objs.Rules = append(objs.Rules,
			Entry{Kind: EntryKindMiss, Rule: missRule(p.ID)},
			Entry{Kind: EntryKindMissTerminal, Rule: missTerminalRule(p.ID)})
	}

	for _, p := range ports {
		objs.Rules = append(objs.Rules, Entry{Kind: EntryKindHairpinSelect, Rule: hairpinSelectRule(p.ID, p.HairpinQueue)})
	}

	return objs, nil
}

func rootJumpRule(port uint16, domain types.Domain) *types.Rule {
	return types.NewRuleBuilder().
		WithPort(port).
		WithDomain(domain).
		WithGroup(RootGroup).
		WithPriority(MinFlowPriority).
		WithItem(types.NewEthItem()).
		WithAction(types.NewJumpAction(FirstTable)).
		Build()
}

func (g *ChainGenerator) isolateJumpRule(port uint16, domain types.Domain) *types.Rule {
	rb := types.NewRuleBuilder().
		WithPort(port).
		WithDomain(domain).
		WithGroup(RootGroup).
		WithPriority(MinFlowPriority).
		WithItem(types.NewEthItemWithType(types.EtherTypeIPv4))

	if port == g.tunnelPort {
		rb.WithItem(types.NewIPv4ItemWithProto(types.IPProtoGRE)).
			WithItem(types.NewGREItem(types.EtherTypeTEB))
	} else {
		rb.WithItem(types.NewIPv4Item())
	}

	return rb.WithAction(types.NewJumpAction(FirstTable)).Build()
}

func missRule(port uint16) *types.Rule {
	return types.NewRuleBuilder().
		WithPort(port).
		WithDomain(types.DomainTransfer).
		WithGroup(FirstTable).
		WithPriority(MaxFlowPriority).
		WithItem(types.NewEthItem()).
		WithAction(types.NewJumpAction(MissTableID)).
		Build()
}

func missTerminalRule(port uint16) *types.Rule {
	return types.NewRuleBuilder().
		WithPort(port).
		WithDomain(types.DomainTransfer).
		WithGroup(MissTableID).
		WithPriority(MaxFlowPriority).
		WithItem(types.NewEthItem()).
		WithAction(types.NewPortIDAction(port)).
		Build()
}

func hairpinSelectRule(port uint16, queue uint16) *types.Rule {
	return types.NewRuleBuilder().
		WithPort(port).
		WithDomain(types.DomainIngress).
		WithGroup(FirstTable).
		WithPriority(MinFlowPriority).
		WithItem(types.NewMarkItem(HairpinFlowMark)).
		WithAction(types.NewQueueAction(queue)).
		Build()
}

// MeteredRule returns the FirstTable transfer rule which marks IPv4 traffic of port with
// HairpinFlowMark, passes it through meterID and forwards it back to port
func MeteredRule(port uint16, meterID uint32) *types.Rule {
	return types.NewRuleBuilder().
		WithPort(port).
		WithDomain(types.DomainTransfer).
		WithGroup(FirstTable).
		WithPriority(MinFlowPriority).
		WithItem(types.NewEthItem()).
		WithItem(types.NewIPv4Item()).
		WithAction(types.NewMarkAction(HairpinFlowMark)).
		WithAction(types.NewMeterAction(meterID)).
		WithAction(types.NewPortIDAction(port)).
		Build()
}
