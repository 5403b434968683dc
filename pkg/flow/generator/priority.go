package generator

import (
	"math"
)

const (
	// RootGroup is the group every packet starts evaluation in
	RootGroup uint32 = 0
	// FirstTable is the group root rules jump to
	FirstTable uint32 = 1
	// MissTableID is the group traffic not matched in FirstTable is sent to
	MissTableID uint32 = math.MaxUint32 - 1
)

const (
	// MinFlowPriority is the numerically smallest priority, evaluated first
	MinFlowPriority uint32 = 1
	// MaxFlowPriority is the numerically largest priority, evaluated last
	MaxFlowPriority uint32 = 10
)

const (
	// HairpinFlowMark is the mark value which steers a packet to the hairpin queue
	HairpinFlowMark uint32 = 1
	// InvalidFlowMark is never set on a packet
	InvalidFlowMark uint32 = 0
)
