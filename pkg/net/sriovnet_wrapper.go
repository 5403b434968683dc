package net

import (
	"github.com/Mellanox/sriovnet"
)

// SriovnetProvider is a wrapper interface on top of sriovnet
type SriovnetProvider interface {
	// GetUplinkRepresentor gets a VF or PF PCI address (e.g '0000:03:00.4') and
	// returns the uplink represntor netdev name for that VF or PF.
	GetUplinkRepresentor(pciAddress string) (string, error)
}

func NewSriovnetProviderImpl() *SriovnetProviderImpl {
	return &SriovnetProviderImpl{}
}

type SriovnetProviderImpl struct{}

func (s *SriovnetProviderImpl) GetUplinkRepresentor(pciAddress string) (string, error) {
	return sriovnet.GetUplinkRepresentor(pciAddress)
}
