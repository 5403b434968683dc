package generator

import (
	"github.com/k8snetworkplumbingwg/flowpipe/pkg/flow/types"
)

// EntryKind identifies the role of a rule in the default chain
type EntryKind string

const (
	EntryKindRootJump      EntryKind = "root-jump"
	EntryKindIsolateJump   EntryKind = "isolate-jump"
	EntryKindMiss          EntryKind = "miss"
	EntryKindMissTerminal  EntryKind = "miss-terminal"
	EntryKindHairpinSelect EntryKind = "hairpin-select"
	EntryKindMeter         EntryKind = "meter"
)

// Entry is a single rule of Objects
type Entry struct {
	Kind EntryKind
	Rule *types.Rule
	// Validate requests a dry-run of the rule against hardware before it is created
	Validate bool
}

// Objects is a struct containing the rules to install, in install order
type Objects struct {
	Rules []Entry
}

// RuleList returns the rules of Objects in install order
func (o *Objects) RuleList() []*types.Rule {
	rules := make([]*types.Rule, 0, len(o.Rules))
	for _, e := range o.Rules {
		rules = append(rules, e.Rule)
	}
	return rules
}

// PortInfo is the per port input of a Generator
type PortInfo struct {
	ID uint16
	// HairpinQueue is the queue index marked traffic is steered to
	HairpinQueue uint16
}

// Generator is an interface to generate the default rule chain of a set of ports
type Generator interface {
	// GenerateDefaultChain creates Objects that correspond to the default chain of the provided ports
	GenerateDefaultChain(ports []PortInfo) (*Objects, error)
}
