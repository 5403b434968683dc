package types

// CmdLineGenerator is an interface for generating testpmd style command line args for a flow object
type CmdLineGenerator interface {
	// GenCmdLineArgs returns command line arguments which represent the object in
	// testpmd "flow create" syntax
	GenCmdLineArgs() []string
}

const (
	// Values for RuleAttrs.Domain
	DomainIngress  Domain = "ingress"
	DomainEgress   Domain = "egress"
	DomainTransfer Domain = "transfer"
)

// Domain is the traffic path a rule applies to. A rule belongs to exactly one Domain.
type Domain string

// Valid returns true if d is one of the known domains
func (d Domain) Valid() bool {
	switch d {
	case DomainIngress, DomainEgress, DomainTransfer:
		return true
	}
	return false
}
