package flow

import (
	"fmt"

	"github.com/k8snetworkplumbingwg/flowpipe/pkg/flow/types"
)

// RuleSet interface defines an API for Rule set, which allows
// to perform set operations on a collection of Rules
type RuleSet interface {
	// Add adds rule element to set, returns false if an equal rule is already in the set
	Add(rule *types.Rule) bool
	// Has returns true if rule element is in the set, else returns false
	Has(rule *types.Rule) bool
	// Len returns the number of elements in the set
	Len() int
	// Difference returns the difference between this and other RuleSet, that is, elements in this RuleSet
	// and not the other RuleSet
	Difference(other RuleSet) RuleSet
	// List returns the Rule elements in RuleSet, in insertion order
	List() []*types.Rule
	// CheckChain returns an error if a rule jumps to a group which has no rule
	// on the same port and domain
	CheckChain() error
}

// NewRuleSetImpl returns a new *RuleSetImpl
func NewRuleSetImpl() *RuleSetImpl {
	return &RuleSetImpl{
		items: make([]*types.Rule, 0),
	}
}

// RuleSetImpl implements RuleSet
type RuleSetImpl struct {
	items []*types.Rule
}

// Add implements RuleSet
func (r *RuleSetImpl) Add(rule *types.Rule) bool {
	if r.Has(rule) {
		return false
	}
	r.items = append(r.items, rule)
	return true
}

// Has implements RuleSet
func (r *RuleSetImpl) Has(rule *types.Rule) bool {
	for _, rl := range r.items {
		if rule.Equals(rl) {
			return true
		}
	}
	return false
}

// Len implements RuleSet
func (r *RuleSetImpl) Len() int {
	return len(r.items)
}

// Difference implements RuleSet
func (r *RuleSetImpl) Difference(other RuleSet) RuleSet {
	rs := NewRuleSetImpl()
	for _, rl := range r.items {
		if !other.Has(rl) {
			rs.Add(rl)
		}
	}
	return rs
}

// List implements RuleSet
func (r *RuleSetImpl) List() []*types.Rule {
	return r.items
}

type groupKey struct {
	port   uint16
	domain types.Domain
	group  uint32
}

// CheckChain implements RuleSet
func (r *RuleSetImpl) CheckChain() error {
	groups := make(map[groupKey]struct{}, len(r.items))
	for _, rl := range r.items {
		groups[groupKey{port: rl.Port, domain: rl.Domain, group: rl.Group}] = struct{}{}
	}

	for _, rl := range r.items {
		target, ok := rl.JumpTarget()
		if !ok {
			continue
		}
		if target == rl.Group {
			return fmt.Errorf("rule on port %d %s group %d priority %d jumps to its own group",
				rl.Port, rl.Domain, rl.Group, rl.Priority)
		}
		if _, ok := groups[groupKey{port: rl.Port, domain: rl.Domain, group: target}]; !ok {
			return fmt.Errorf("rule on port %d %s group %d priority %d jumps to group %d which has no rules",
				rl.Port, rl.Domain, rl.Group, rl.Priority, target)
		}
	}
	return nil
}
