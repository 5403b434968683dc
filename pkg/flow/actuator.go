package flow

import (
	"github.com/k8snetworkplumbingwg/flowpipe/pkg/flow/generator"
)

// Actuator is an interface that applies specified rule Objects on NIC ports
type Actuator interface {
	// Actuate applies the rules in Objects, in order
	Actuate(objects *generator.Objects) error
}
