package types

import (
	"github.com/pkg/errors"
)

var (
	// ErrInvalidDomain is returned by Validate when the rule domain is unknown
	ErrInvalidDomain = errors.New("invalid rule domain")
	// ErrPatternNotTerminated is returned by Validate when the pattern does not end with exactly one End item
	ErrPatternNotTerminated = errors.New("pattern must end with a single end item")
	// ErrActionsNotTerminated is returned by Validate when the actions do not end with exactly one End action
	ErrActionsNotTerminated = errors.New("actions must end with a single end action")
	// ErrNoDisposition is returned by Validate when the actions lack a terminating disposition
	ErrNoDisposition = errors.New("actions must contain exactly one terminating disposition (drop, queue, port_id or jump)")
)

// Handle is an opaque reference to a rule accepted by hardware
type Handle struct {
	ID string
}

// RuleAttrs holds the attributes of a rule
type RuleAttrs struct {
	Port     uint16
	Domain   Domain
	Group    uint32
	Priority uint32
}

// Equals compares this RuleAttrs with other, returns true if they are equal or false otherwise
func (ra *RuleAttrs) Equals(other *RuleAttrs) bool {
	if ra == other {
		return true
	}
	if ra == nil || other == nil {
		return false
	}
	return *ra == *other
}

// GenCmdLineArgs implements CmdLineGenerator interface
func (ra *RuleAttrs) GenCmdLineArgs() []string {
	return []string{dec(ra.Port), "group", dec(ra.Group), "priority", dec(ra.Priority), string(ra.Domain)}
}

// Rule is a single hardware match-action rule request
type Rule struct {
	RuleAttrs
	// Pattern is the ordered list of match items, terminated by EndItem
	Pattern []Item
	// Actions is the ordered list of actions, terminated by EndAction
	Actions []Action
	// Handle is set once hardware has accepted the rule, nil until then
	Handle *Handle
}

// Attrs returns the RuleAttrs of the rule
func (r *Rule) Attrs() *RuleAttrs {
	return &r.RuleAttrs
}

// Installed returns true if the rule was accepted by hardware
func (r *Rule) Installed() bool {
	return r.Handle != nil
}

// Validate checks the structural invariants of a rule: a known domain, a pattern and an
// action list terminated by their End sentinel, and exactly one terminating disposition.
func (r *Rule) Validate() error {
	if !r.Domain.Valid() {
		return errors.Wrapf(ErrInvalidDomain, "domain %q", r.Domain)
	}

	for idx, item := range r.Pattern {
		isEnd := item.Type() == ItemTypeEnd
		if isEnd != (idx == len(r.Pattern)-1) {
			return ErrPatternNotTerminated
		}
	}
	if len(r.Pattern) == 0 {
		return ErrPatternNotTerminated
	}

	dispositions := 0
	for idx, act := range r.Actions {
		isEnd := act.Type() == ActionTypeEnd
		if isEnd != (idx == len(r.Actions)-1) {
			return ErrActionsNotTerminated
		}
		if act.Terminating() {
			dispositions++
		}
	}
	if len(r.Actions) == 0 {
		return ErrActionsNotTerminated
	}
	if dispositions != 1 {
		return ErrNoDisposition
	}
	return nil
}

// JumpTarget returns the group the rule jumps to, if it has a JumpAction
func (r *Rule) JumpTarget() (uint32, bool) {
	for _, act := range r.Actions {
		if jump, ok := act.(*JumpAction); ok {
			return jump.Group, true
		}
	}
	return 0, false
}

// Equals compares this Rule with other, returns true if they are equal or false otherwise.
// Handle is not part of the comparison.
func (r *Rule) Equals(other *Rule) bool {
	if r == other {
		return true
	}
	if r == nil || other == nil {
		return false
	}

	if !r.Attrs().Equals(other.Attrs()) {
		return false
	}

	// pattern and actions equal (order matters)
	if len(r.Pattern) != len(other.Pattern) {
		return false
	}
	for i := range r.Pattern {
		if !r.Pattern[i].Equals(other.Pattern[i]) {
			return false
		}
	}
	return actionsEqual(r.Actions, other.Actions)
}

func (r *Rule) patternSegments() [][]string {
	segments := make([][]string, 0, len(r.Pattern))
	for _, item := range r.Pattern {
		segments = append(segments, item.GenCmdLineArgs())
	}
	return segments
}

func (r *Rule) actionSegments() [][]string {
	segments := make([][]string, 0, len(r.Actions))
	for _, act := range r.Actions {
		segments = append(segments, act.GenCmdLineArgs())
	}
	return segments
}

// GenCmdLineArgs implements CmdLineGenerator interface. the result is the testpmd
// "flow create" command that would install the rule.
func (r *Rule) GenCmdLineArgs() []string {
	args := []string{"flow", "create"}
	args = append(args, r.RuleAttrs.GenCmdLineArgs()...)
	args = append(args, "pattern")
	args = append(args, joinSegments(r.patternSegments())...)
	args = append(args, "actions")
	args = append(args, joinSegments(r.actionSegments())...)
	return args
}

// RuleSummary is a comparable digest of a rule
type RuleSummary struct {
	Port     uint16
	Domain   Domain
	Group    uint32
	Priority uint32
	Match    string
	Actions  string
}

// Summary returns the RuleSummary of the rule
func (r *Rule) Summary() RuleSummary {
	return RuleSummary{
		Port:     r.Port,
		Domain:   r.Domain,
		Group:    r.Group,
		Priority: r.Priority,
		Match:    summarize(r.patternSegments()),
		Actions:  summarize(r.actionSegments()),
	}
}

// Builders

// NewRuleBuilder returns a new RuleBuilder
func NewRuleBuilder() *RuleBuilder {
	return &RuleBuilder{
		rule: Rule{
			Pattern: make([]Item, 0),
			Actions: make([]Action, 0),
		},
	}
}

// RuleBuilder is a Rule builder
type RuleBuilder struct {
	rule Rule
}

// WithPort adds Port to RuleBuilder
func (rb *RuleBuilder) WithPort(p uint16) *RuleBuilder {
	rb.rule.Port = p
	return rb
}

// WithDomain adds Domain to RuleBuilder
func (rb *RuleBuilder) WithDomain(d Domain) *RuleBuilder {
	rb.rule.Domain = d
	return rb
}

// WithGroup adds Group to RuleBuilder
func (rb *RuleBuilder) WithGroup(g uint32) *RuleBuilder {
	rb.rule.Group = g
	return rb
}

// WithPriority adds Priority to RuleBuilder
func (rb *RuleBuilder) WithPriority(p uint32) *RuleBuilder {
	rb.rule.Priority = p
	return rb
}

// WithItem appends a match Item to RuleBuilder
func (rb *RuleBuilder) WithItem(item Item) *RuleBuilder {
	rb.rule.Pattern = append(rb.rule.Pattern, item)
	return rb
}

// WithAction appends an Action to RuleBuilder
func (rb *RuleBuilder) WithAction(a Action) *RuleBuilder {
	rb.rule.Actions = append(rb.rule.Actions, a)
	return rb
}

// Build builds and returns a new Rule instance, appending End sentinels to pattern and actions
// when missing. The returned rule owns its pattern and actions slices, items and actions
// themselves are shared with the builder.
func (rb *RuleBuilder) Build() *Rule {
	pattern := append(make([]Item, 0, len(rb.rule.Pattern)+1), rb.rule.Pattern...)
	if len(pattern) == 0 || pattern[len(pattern)-1].Type() != ItemTypeEnd {
		pattern = append(pattern, NewEndItem())
	}

	actions := append(make([]Action, 0, len(rb.rule.Actions)+1), rb.rule.Actions...)
	if len(actions) == 0 || actions[len(actions)-1].Type() != ActionTypeEnd {
		actions = append(actions, NewEndAction())
	}

	return &Rule{
		RuleAttrs: rb.rule.RuleAttrs,
		Pattern:   pattern,
		Actions:   actions,
	}
}
