package types

const (
	// MeterAlgorithmSrTCM is the single rate three color marker (RFC 2697), the only supported algorithm
	MeterAlgorithmSrTCM MeterAlgorithm = "srtcm_rfc2697"
)

// MeterAlgorithm is the rate limiting algorithm of a meter profile
type MeterAlgorithm string

// MeterProfile is the rate limiter shape of a meter, sizes are in bytes
type MeterProfile struct {
	Algorithm MeterAlgorithm
	// CIR is the committed information rate in bytes per second
	CIR uint64
	// CBS is the committed burst size in bytes
	CBS uint64
	// EBS is the excess burst size in bytes, ignored by srTCM
	EBS uint64
}

// MeterPolicy maps each meter color to a list of actions, an empty list lets the packet through unchanged
type MeterPolicy struct {
	Green  []Action
	Yellow []Action
	Red    []Action
}

// Equals compares this MeterPolicy with other, returns true if they are equal or false otherwise
func (mp *MeterPolicy) Equals(other *MeterPolicy) bool {
	if mp == other {
		return true
	}
	if mp == nil || other == nil {
		return false
	}
	return actionsEqual(mp.Green, other.Green) &&
		actionsEqual(mp.Yellow, other.Yellow) &&
		actionsEqual(mp.Red, other.Red)
}

// StatsMask selects meter counters
type StatsMask uint64

const (
	StatsBytesGreen StatsMask = 1 << iota
	StatsBytesYellow
	StatsBytesRed
	StatsBytesDropped
	StatsPktsGreen
	StatsPktsYellow
	StatsPktsRed
	StatsPktsDropped

	// StatsMaskAll selects all meter counters
	StatsMaskAll = StatsBytesGreen | StatsBytesYellow | StatsBytesRed | StatsBytesDropped |
		StatsPktsGreen | StatsPktsYellow | StatsPktsRed | StatsPktsDropped
)

// Has returns true if all bits of other are set in m
func (m StatsMask) Has(other StatsMask) bool {
	return m&other == other
}

// MeterParams are the parameters of a meter instance
type MeterParams struct {
	ProfileID    uint32
	PolicyID     uint32
	Enable       bool
	UsePrevColor bool
	StatsMask    StatsMask
}

// MeterStats holds meter counters accumulated by hardware
type MeterStats struct {
	GreenBytes     uint64
	YellowBytes    uint64
	RedBytes       uint64
	DroppedBytes   uint64
	GreenPackets   uint64
	YellowPackets  uint64
	RedPackets     uint64
	DroppedPackets uint64
}

// Masked returns a copy of s with counters not selected by mask zeroed
func (s MeterStats) Masked(mask StatsMask) MeterStats {
	out := MeterStats{}
	if mask.Has(StatsBytesGreen) {
		out.GreenBytes = s.GreenBytes
	}
	if mask.Has(StatsBytesYellow) {
		out.YellowBytes = s.YellowBytes
	}
	if mask.Has(StatsBytesRed) {
		out.RedBytes = s.RedBytes
	}
	if mask.Has(StatsBytesDropped) {
		out.DroppedBytes = s.DroppedBytes
	}
	if mask.Has(StatsPktsGreen) {
		out.GreenPackets = s.GreenPackets
	}
	if mask.Has(StatsPktsYellow) {
		out.YellowPackets = s.YellowPackets
	}
	if mask.Has(StatsPktsRed) {
		out.RedPackets = s.RedPackets
	}
	if mask.Has(StatsPktsDropped) {
		out.DroppedPackets = s.DroppedPackets
	}
	return out
}
