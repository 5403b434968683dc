package meter

import (
	"strings"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/k8snetworkplumbingwg/flowpipe/pkg/flow/generator"
	"github.com/k8snetworkplumbingwg/flowpipe/pkg/flow/types"
	"github.com/k8snetworkplumbingwg/flowpipe/pkg/nic"
)

// NewManagerImpl creates a new ManagerImpl
func NewManagerImpl(meterAPI nic.MeterAPI, ruleAPI nic.RuleAPI, cfg Config, log klog.Logger) *ManagerImpl {
	return &ManagerImpl{
		meterAPI: meterAPI,
		ruleAPI:  ruleAPI,
		cfg:      cfg,
		log:      log,
	}
}

// ManagerImpl is an implementation of Manager interface
type ManagerImpl struct {
	meterAPI nic.MeterAPI
	ruleAPI  nic.RuleAPI
	cfg      Config
	log      klog.Logger
	// policyAdded is set once the shared policy add was attempted
	policyAdded bool
}

// Provision implements Manager interface.
// A failure to add the shared policy is logged, profile and meter failures are returned.
func (m *ManagerImpl) Provision(port uint16) error {
	if m.policyAdded {
		m.log.Info("warning: meter policy already added, skipping", "policy", m.cfg.PolicyID, "port", port)
	} else {
		m.policyAdded = true
		if err := m.meterAPI.PolicyAdd(port, m.cfg.PolicyID, DropRedPolicy()); err != nil {
			m.log.Info("warning: failed to add meter policy, continuing", "policy", m.cfg.PolicyID,
				"port", port, "error", err.Error())
		} else {
			m.log.V(4).Info("added meter policy", "policy", m.cfg.PolicyID, "port", port)
		}
	}

	if err := m.meterAPI.ProfileAdd(port, m.cfg.ProfileID, m.cfg.Profile); err != nil {
		return errors.Wrapf(err, "failed to add meter profile %d on port %d", m.cfg.ProfileID, port)
	}
	m.log.V(4).Info("added meter profile", "profile", m.cfg.ProfileID, "port", port,
		"cir", m.cfg.Profile.CIR, "cbs", m.cfg.Profile.CBS, "ebs", m.cfg.Profile.EBS)

	params := types.MeterParams{
		ProfileID:    m.cfg.ProfileID,
		PolicyID:     m.cfg.PolicyID,
		Enable:       true,
		UsePrevColor: false,
		StatsMask:    types.StatsMaskAll,
	}
	if err := m.meterAPI.MeterCreate(port, m.cfg.MeterID, params); err != nil {
		return errors.Wrapf(err, "failed to create meter %d on port %d", m.cfg.MeterID, port)
	}
	m.log.Info("provisioned meter", "meter", m.cfg.MeterID, "port", port)
	return nil
}

// AttachMeterAndQueue implements Manager interface
func (m *ManagerImpl) AttachMeterAndQueue(port uint16, meterID uint32) (*types.Handle, error) {
	r := generator.MeteredRule(port, meterID)
	m.log.V(4).Info("installing metered rule", "port", port, "meter", meterID,
		"rule", strings.Join(r.GenCmdLineArgs(), " "))

	h, err := m.ruleAPI.Create(r)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create metered rule on port %d", port)
	}
	r.Handle = h
	return h, nil
}

// ReadStats implements Manager interface
func (m *ManagerImpl) ReadStats(port uint16, meterID uint32) (types.MeterStats, error) {
	stats, err := m.meterAPI.StatsRead(port, meterID, 0)
	if err != nil {
		return types.MeterStats{}, errors.Wrapf(err, "failed to read stats of meter %d on port %d", meterID, port)
	}
	return stats, nil
}

// Config implements Manager interface
func (m *ManagerImpl) Config() Config {
	return m.cfg
}
