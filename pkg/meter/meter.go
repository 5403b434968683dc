package meter

import (
	"github.com/k8snetworkplumbingwg/flowpipe/pkg/flow/types"
)

// Config holds the identifiers and rate limiter shape of the per port meter
type Config struct {
	PolicyID  uint32
	ProfileID uint32
	MeterID   uint32
	// OwnerPort is the port whose traffic is not metered
	OwnerPort uint16
	Profile   types.MeterProfile
}

// DefaultConfig returns the default Config: policy 25, profile 0, meter 0 at 10KiB/s with a 10KiB burst
func DefaultConfig() Config {
	return Config{
		PolicyID:  25,
		ProfileID: 0,
		MeterID:   0,
		OwnerPort: 0,
		Profile: types.MeterProfile{
			Algorithm: types.MeterAlgorithmSrTCM,
			CIR:       10 * 1024,
			CBS:       10 * 1024,
			EBS:       0,
		},
	}
}

// DropRedPolicy returns the shared meter policy: green and yellow pass, red is dropped
func DropRedPolicy() types.MeterPolicy {
	return types.MeterPolicy{
		Green:  []types.Action{},
		Yellow: []types.Action{},
		Red:    []types.Action{types.NewDropAction()},
	}
}

// Manager provisions meters on ports and binds them to rules
type Manager interface {
	// Provision adds the shared policy (once), then the profile and meter instance of port
	Provision(port uint16) error
	// AttachMeterAndQueue installs the rule passing IPv4 traffic of port through meterID
	AttachMeterAndQueue(port uint16, meterID uint32) (*types.Handle, error)
	// ReadStats reads all counters of meterID on port
	ReadStats(port uint16, meterID uint32) (types.MeterStats, error)
	// Config returns the Config of the Manager
	Config() Config
}
