package flow

import (
	"strings"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/k8snetworkplumbingwg/flowpipe/pkg/flow/generator"
	"github.com/k8snetworkplumbingwg/flowpipe/pkg/flow/types"
	"github.com/k8snetworkplumbingwg/flowpipe/pkg/nic"
)

// NewActuatorImpl creates a new ActuatorImpl
func NewActuatorImpl(ruleAPI nic.RuleAPI, log klog.Logger) *ActuatorImpl {
	return &ActuatorImpl{ruleAPI: ruleAPI, log: log, installed: NewRuleSetImpl()}
}

// ActuatorImpl is an implementation of Actuator interface using provided RuleAPI to install rules
type ActuatorImpl struct {
	ruleAPI nic.RuleAPI
	log     klog.Logger
	// installed holds the rules created by this actuator
	installed RuleSet
}

// Actuate is an implementation of Actuator interface. it installs the rules of Objects strictly in
// order, after checking that every jump lands on a group populated by Objects. rules already installed
// by a previous call are not created again, they get the handle of the installed rule. Objects must
// contain every rule installed by a previous call, as rules are never removed individually.
// the first failure aborts the installation, rules installed up to that point are left in place to
// be flushed by the caller. on success every rule in Objects has its Handle set.
func (a *ActuatorImpl) Actuate(objects *generator.Objects) error {
	if objects == nil || len(objects.Rules) == 0 {
		return errors.New("no rules to install")
	}

	desired := NewRuleSetImpl()
	for idx, r := range objects.RuleList() {
		kind := objects.Rules[idx].Kind
		if r == nil {
			return errors.Errorf("%s entry without a rule", kind)
		}
		if !desired.Add(r) {
			return errors.Errorf("duplicate %s rule on port %d group %d priority %d",
				kind, r.Port, r.Group, r.Priority)
		}
	}

	if err := desired.CheckChain(); err != nil {
		return errors.Wrap(err, "inconsistent rule chain")
	}

	if stale := a.installed.Difference(desired); stale.Len() > 0 {
		return errors.Errorf("%d installed rules are not part of the new chain, first: %+v",
			stale.Len(), stale.List()[0].Summary())
	}

	created := 0
	for idx, e := range objects.Rules {
		r := e.Rule
		if prev := a.installedRule(r); prev != nil {
			a.log.V(4).Info("rule already installed", "index", idx, "kind", e.Kind, "rule", r.Summary())
			r.Handle = prev.Handle
			continue
		}

		a.log.V(4).Info("installing rule", "index", idx, "kind", e.Kind, "port", r.Port,
			"group", r.Group, "priority", r.Priority, "rule", strings.Join(r.GenCmdLineArgs(), " "))

		if e.Validate {
			if err := a.ruleAPI.Validate(r); err != nil {
				return errors.Wrapf(err, "failed to validate %s rule on port %d", e.Kind, r.Port)
			}
		}

		h, err := a.ruleAPI.Create(r)
		if err != nil {
			return errors.Wrapf(err, "failed to create %s rule on port %d", e.Kind, r.Port)
		}
		r.Handle = h
		a.installed.Add(r)
		created++
	}

	a.log.Info("installed rules", "count", len(objects.Rules), "created", created)
	return nil
}

// installedRule returns the installed rule equal to rule, nil if there is none
func (a *ActuatorImpl) installedRule(rule *types.Rule) *types.Rule {
	for _, r := range a.installed.List() {
		if r.Installed() && r.Equals(rule) {
			return r
		}
	}
	return nil
}
