package sim

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/k8snetworkplumbingwg/flowpipe/pkg/flow/types"
	"github.com/k8snetworkplumbingwg/flowpipe/pkg/nic"
)

// Op identifies a driver call
type Op string

const (
	OpIsolate       Op = "isolate"
	OpConfigure     Op = "configure"
	OpRxQueueSetup  Op = "rx-queue-setup"
	OpTxQueueSetup  Op = "tx-queue-setup"
	OpPromiscuous   Op = "promiscuous"
	OpStart         Op = "start"
	OpStop          Op = "stop"
	OpClose         Op = "close"
	OpLinkGet       Op = "link-get"
	OpValidate      Op = "validate"
	OpCreate        Op = "create"
	OpFlush         Op = "flush"
	OpProfileAdd    Op = "profile-add"
	OpPolicyAdd     Op = "policy-add"
	OpMeterCreate   Op = "meter-create"
	OpStatsRead     Op = "stats-read"
	OpHairpinSetup  Op = "hairpin-setup"
	OpHairpinBind   Op = "hairpin-bind"
	OpHairpinUnbind Op = "hairpin-unbind"
)

// ErrInjected is a convenience error for FailOn
var ErrInjected = errors.New("injected error")

// Call is an entry of the driver call log
type Call struct {
	Op   Op
	Port uint16
	// Peer is the second port of hairpin calls
	Peer uint16
}

// String implements fmt.Stringer
func (c Call) String() string {
	switch c.Op {
	case OpHairpinSetup, OpHairpinBind, OpHairpinUnbind:
		return fmt.Sprintf("%s %d %d", c.Op, c.Port, c.Peer)
	}
	return fmt.Sprintf("%s %d", c.Op, c.Port)
}

type portState int

const (
	portStateDetached portState = iota
	portStateConfigured
	portStateStarted
	portStateStopped
	portStateClosed
)

type meterInstance struct {
	params types.MeterParams
	stats  types.MeterStats
}

type port struct {
	info     nic.DeviceInfo
	state    portState
	conf     nic.PortConf
	isolated bool
	promisc  bool

	rxQueues map[uint16]nic.QueueConf
	txQueues map[uint16]nic.QueueConf
	rx       map[uint16][]*nic.Packet
	tx       map[uint16][]*nic.Packet

	hairpinCount uint16
	hairpinPeer  uint16
	hairpinBound bool

	linkPolls   int
	linkDelay   int
	linkForceDn bool

	rules    []*types.Rule
	profiles map[uint32]types.MeterProfile
	meters   map[uint32]*meterInstance
}

// Driver is an in-memory implementation of nic.Driver. It keeps a log of calls and
// supports injecting failures and traffic, all methods are safe for concurrent use.
type Driver struct {
	mu sync.Mutex

	ports        map[uint16]*port
	portIDs      []uint16
	policies     map[uint32]types.MeterPolicy
	numPorts     int
	linkDelay    int
	txCapa       nic.TxOffload
	noHairpin    bool
	txLimit      int
	failures     map[failureKey]error
	calls        []Call
	outstanding  int
	transmitted  int
	handlePrefix string
}

type failureKey struct {
	op   Op
	port uint16
}

// Option configures a Driver
type Option func(d *Driver)

// WithPorts sets the number of ports of the driver
func WithPorts(n int) Option {
	return func(d *Driver) {
		d.numPorts = n
	}
}

// WithoutHairpin makes HairpinSetup return nic.ErrNotSupported
func WithoutHairpin() Option {
	return func(d *Driver) {
		d.noHairpin = true
	}
}

// WithLinkDelay makes link report down for the first n link polls after start
func WithLinkDelay(n int) Option {
	return func(d *Driver) {
		d.linkDelay = n
	}
}

// WithTxOffloadCapa sets the transmit offload capability reported by every port
func WithTxOffloadCapa(capa nic.TxOffload) Option {
	return func(d *Driver) {
		d.txCapa = capa
	}
}

// WithTxLimit limits the number of packets accepted by a single TxBurst call, 0 means unlimited
func WithTxLimit(n int) Option {
	return func(d *Driver) {
		d.txLimit = n
	}
}

func newPort(name string, txCapa nic.TxOffload, linkDelay int) *port {
	return &port{
		info: nic.DeviceInfo{
			DriverName:    name,
			TxOffloadCapa: txCapa,
			MaxRxQueues:   64,
			MaxTxQueues:   64,
		},
		linkDelay: linkDelay,
		rxQueues:  make(map[uint16]nic.QueueConf),
		txQueues:  make(map[uint16]nic.QueueConf),
		rx:        make(map[uint16][]*nic.Packet),
		tx:        make(map[uint16][]*nic.Packet),
		profiles:  make(map[uint32]types.MeterProfile),
		meters:    make(map[uint32]*meterInstance),
	}
}

// New creates a new simulated Driver, by default with a single port
func New(opts ...Option) *Driver {
	d := &Driver{
		policies:     make(map[uint32]types.MeterPolicy),
		failures:     make(map[failureKey]error),
		handlePrefix: "sim",
		numPorts:     1,
		txCapa:       nic.DefaultTxOffloads,
	}
	for _, o := range opts {
		o(d)
	}

	d.ports = make(map[uint16]*port, d.numPorts)
	d.portIDs = make([]uint16, 0, d.numPorts)
	for i := 0; i < d.numPorts; i++ {
		id := uint16(i)
		d.ports[id] = newPort(fmt.Sprintf("sim%d", i), d.txCapa, d.linkDelay)
		d.portIDs = append(d.portIDs, id)
	}
	return d
}

// FailOn makes the next and all later calls of op on port return err
func (d *Driver) FailOn(op Op, port uint16, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failures[failureKey{op: op, port: port}] = err
}

// ClearFailure removes a failure set by FailOn
func (d *Driver) ClearFailure(op Op, port uint16) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.failures, failureKey{op: op, port: port})
}

// SetLinkDown forces the link of port down
func (d *Driver) SetLinkDown(portID uint16, down bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if p, ok := d.ports[portID]; ok {
		p.linkForceDn = down
	}
}

// Calls returns the call log, filtered by ops if any are provided
func (d *Driver) Calls(ops ...Op) []Call {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Call, 0, len(d.calls))
	for _, c := range d.calls {
		if len(ops) == 0 || containsOp(ops, c.Op) {
			out = append(out, c)
		}
	}
	return out
}

// Rules returns the rules installed on port, in install order
func (d *Driver) Rules(portID uint16) []*types.Rule {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.ports[portID]
	if !ok {
		return nil
	}
	return append([]*types.Rule{}, p.rules...)
}

// IsPromiscuous returns true if promiscuous mode is enabled on port
func (d *Driver) IsPromiscuous(portID uint16) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.ports[portID]
	return ok && p.promisc
}

// IsIsolated returns true if isolate mode is enabled on port
func (d *Driver) IsIsolated(portID uint16) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.ports[portID]
	return ok && p.isolated
}

// PortConf returns the configuration applied to port
func (d *Driver) PortConf(portID uint16) nic.PortConf {
	d.mu.Lock()
	defer d.mu.Unlock()
	if p, ok := d.ports[portID]; ok {
		return p.conf
	}
	return nic.PortConf{}
}

// HairpinBound returns true if the hairpin queues of port are bound to a peer
func (d *Driver) HairpinBound(portID uint16) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.ports[portID]
	return ok && p.hairpinBound
}

// InjectRx queues pkt for reception on the given port and queue.
// the packet buffer is accounted as outstanding until it is transmitted or freed.
func (d *Driver) InjectRx(portID, queue uint16, pkt *nic.Packet) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, err := d.getPort("inject-rx", portID)
	if err != nil {
		return err
	}
	if _, ok := p.rxQueues[queue]; !ok {
		return nic.NewError("inject-rx", portID, nic.ErrNotFound, fmt.Sprintf("rx queue %d is not set up", queue))
	}
	p.rx[queue] = append(p.rx[queue], pkt)
	d.outstanding++
	return nil
}

// AddMeterTraffic accumulates counters on a meter instance
func (d *Driver) AddMeterTraffic(portID uint16, meterID uint32, delta types.MeterStats) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, err := d.getPort(OpStatsRead, portID)
	if err != nil {
		return err
	}
	m, ok := p.meters[meterID]
	if !ok {
		return nic.NewError(string(OpStatsRead), portID, nic.ErrNotFound, fmt.Sprintf("meter %d", meterID))
	}
	m.stats.GreenBytes += delta.GreenBytes
	m.stats.YellowBytes += delta.YellowBytes
	m.stats.RedBytes += delta.RedBytes
	m.stats.DroppedBytes += delta.DroppedBytes
	m.stats.GreenPackets += delta.GreenPackets
	m.stats.YellowPackets += delta.YellowPackets
	m.stats.RedPackets += delta.RedPackets
	m.stats.DroppedPackets += delta.DroppedPackets
	return nil
}

// Outstanding returns the number of packet buffers handed out by RxBurst (or pending
// reception) which were neither transmitted nor freed
func (d *Driver) Outstanding() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.outstanding
}

// Transmitted returns the number of packets accepted by TxBurst
func (d *Driver) Transmitted() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.transmitted
}

func containsOp(ops []Op, op Op) bool {
	for _, o := range ops {
		if o == op {
			return true
		}
	}
	return false
}

// record logs the call and returns the injected failure for it, if any. must be called with mu held.
func (d *Driver) record(op Op, portID, peer uint16) error {
	d.calls = append(d.calls, Call{Op: op, Port: portID, Peer: peer})
	if err, ok := d.failures[failureKey{op: op, port: portID}]; ok {
		return nic.NewError(string(op), portID, err, "injected failure")
	}
	return nil
}

func (d *Driver) getPort(op Op, portID uint16) (*port, error) {
	p, ok := d.ports[portID]
	if !ok {
		return nil, nic.NewError(string(op), portID, nic.ErrInvalidPort, "")
	}
	return p, nil
}

// PortAPI

// Ports implements nic.PortAPI
func (d *Driver) Ports() []uint16 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]uint16{}, d.portIDs...)
}

// DeviceInfo implements nic.PortAPI
func (d *Driver) DeviceInfo(portID uint16) (nic.DeviceInfo, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, err := d.getPort("device-info", portID)
	if err != nil {
		return nic.DeviceInfo{}, err
	}
	return p.info, nil
}

// Configure implements nic.PortAPI
func (d *Driver) Configure(portID uint16, conf nic.PortConf) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.record(OpConfigure, portID, 0); err != nil {
		return err
	}
	p, err := d.getPort(OpConfigure, portID)
	if err != nil {
		return err
	}
	if p.state != portStateDetached && p.state != portStateStopped {
		return nic.NewError(string(OpConfigure), portID, nil, "port must be stopped to be configured")
	}
	if conf.RxQueues != conf.TxQueues {
		return nic.NewError(string(OpConfigure), portID, nil, "rx and tx queue counts differ")
	}
	if conf.RxQueues == 0 || conf.RxQueues > p.info.MaxRxQueues {
		return nic.NewError(string(OpConfigure), portID, nil, fmt.Sprintf("invalid queue count %d", conf.RxQueues))
	}
	if !p.info.TxOffloadCapa.Has(conf.TxOffloads) {
		return nic.NewError(string(OpConfigure), portID, nic.ErrNotSupported, "requested tx offloads exceed capability")
	}
	p.conf = conf
	p.state = portStateConfigured
	return nil
}

func (d *Driver) setupQueue(op Op, portID, queue uint16, conf nic.QueueConf, queues map[uint16]nic.QueueConf,
	p *port) error {
	if p.state != portStateConfigured {
		return nic.NewError(string(op), portID, nil, "port is not configured")
	}
	if queue >= p.conf.RxQueues-p.hairpinCount {
		return nic.NewError(string(op), portID, nil, fmt.Sprintf("queue %d out of range", queue))
	}
	if conf.Descriptors == 0 {
		return nic.NewError(string(op), portID, nil, "zero descriptors")
	}
	queues[queue] = conf
	return nil
}

// SetupRxQueue implements nic.PortAPI
func (d *Driver) SetupRxQueue(portID, queue uint16, conf nic.QueueConf) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.record(OpRxQueueSetup, portID, 0); err != nil {
		return err
	}
	p, err := d.getPort(OpRxQueueSetup, portID)
	if err != nil {
		return err
	}
	return d.setupQueue(OpRxQueueSetup, portID, queue, conf, p.rxQueues, p)
}

// SetupTxQueue implements nic.PortAPI
func (d *Driver) SetupTxQueue(portID, queue uint16, conf nic.QueueConf) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.record(OpTxQueueSetup, portID, 0); err != nil {
		return err
	}
	p, err := d.getPort(OpTxQueueSetup, portID)
	if err != nil {
		return err
	}
	return d.setupQueue(OpTxQueueSetup, portID, queue, conf, p.txQueues, p)
}

// Promiscuous implements nic.PortAPI
func (d *Driver) Promiscuous(portID uint16) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.record(OpPromiscuous, portID, 0); err != nil {
		return err
	}
	p, err := d.getPort(OpPromiscuous, portID)
	if err != nil {
		return err
	}
	p.promisc = true
	return nil
}

// Isolate implements nic.PortAPI
func (d *Driver) Isolate(portID uint16, enable bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.record(OpIsolate, portID, 0); err != nil {
		return err
	}
	p, err := d.getPort(OpIsolate, portID)
	if err != nil {
		return err
	}
	if p.state != portStateDetached {
		return nic.NewError(string(OpIsolate), portID, nil, "isolate mode must be set before configure")
	}
	p.isolated = enable
	return nil
}

// Start implements nic.PortAPI
func (d *Driver) Start(portID uint16) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.record(OpStart, portID, 0); err != nil {
		return err
	}
	p, err := d.getPort(OpStart, portID)
	if err != nil {
		return err
	}
	if p.state != portStateConfigured && p.state != portStateStopped {
		return nic.NewError(string(OpStart), portID, nil, "port is not configured")
	}
	p.state = portStateStarted
	p.linkPolls = 0
	return nil
}

// Stop implements nic.PortAPI
func (d *Driver) Stop(portID uint16) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.record(OpStop, portID, 0); err != nil {
		return err
	}
	p, err := d.getPort(OpStop, portID)
	if err != nil {
		return err
	}
	if p.state != portStateStarted {
		return nic.NewError(string(OpStop), portID, nil, "port is not started")
	}
	p.state = portStateStopped
	return nil
}

// Close implements nic.PortAPI
func (d *Driver) Close(portID uint16) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.record(OpClose, portID, 0); err != nil {
		return err
	}
	p, err := d.getPort(OpClose, portID)
	if err != nil {
		return err
	}
	if p.state == portStateStarted {
		return nic.NewError(string(OpClose), portID, nil, "port must be stopped before close")
	}
	// pending rx buffers are released with the port
	for q, pkts := range p.rx {
		d.outstanding -= len(pkts)
		delete(p.rx, q)
	}
	p.state = portStateClosed
	return nil
}

// LinkGet implements nic.PortAPI
func (d *Driver) LinkGet(portID uint16) (nic.LinkState, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.record(OpLinkGet, portID, 0); err != nil {
		return nic.LinkState{}, err
	}
	p, err := d.getPort(OpLinkGet, portID)
	if err != nil {
		return nic.LinkState{}, err
	}
	if p.state != portStateStarted || p.linkForceDn {
		return nic.LinkState{}, nil
	}
	p.linkPolls++
	if p.linkPolls <= p.linkDelay {
		return nic.LinkState{}, nil
	}
	return nic.LinkState{Up: true, SpeedMbps: 100000, Duplex: true}, nil
}

// RuleAPI

func (d *Driver) checkRule(op Op, rule *types.Rule) (*port, error) {
	p, err := d.getPort(op, rule.Port)
	if err != nil {
		return nil, err
	}
	if err := rule.Validate(); err != nil {
		return nil, nic.NewError(string(op), rule.Port, err, "malformed rule")
	}
	for _, a := range rule.Actions {
		switch act := a.(type) {
		case *types.QueueAction:
			if act.Index >= p.conf.RxQueues {
				return nil, nic.NewError(string(op), rule.Port, nil, fmt.Sprintf("queue index %d out of range", act.Index))
			}
		case *types.PortIDAction:
			if _, ok := d.ports[act.ID]; !ok {
				return nil, nic.NewError(string(op), rule.Port, nic.ErrInvalidPort, fmt.Sprintf("port_id %d", act.ID))
			}
		case *types.MeterAction:
			if _, ok := p.meters[act.MeterID]; !ok {
				return nil, nic.NewError(string(op), rule.Port, nic.ErrNotFound, fmt.Sprintf("meter %d", act.MeterID))
			}
		}
	}
	return p, nil
}

// Validate implements nic.RuleAPI
func (d *Driver) Validate(rule *types.Rule) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.record(OpValidate, rule.Port, 0); err != nil {
		return err
	}
	_, err := d.checkRule(OpValidate, rule)
	return err
}

// Create implements nic.RuleAPI
func (d *Driver) Create(rule *types.Rule) (*types.Handle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.record(OpCreate, rule.Port, 0); err != nil {
		return nil, err
	}
	p, err := d.checkRule(OpCreate, rule)
	if err != nil {
		return nil, err
	}
	h := &types.Handle{ID: d.handlePrefix + "-" + uuid.NewString()}
	p.rules = append(p.rules, rule)
	return h, nil
}

// Flush implements nic.RuleAPI
func (d *Driver) Flush(portID uint16) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.record(OpFlush, portID, 0); err != nil {
		return err
	}
	p, err := d.getPort(OpFlush, portID)
	if err != nil {
		return err
	}
	p.rules = nil
	return nil
}

// MeterAPI

// ProfileAdd implements nic.MeterAPI
func (d *Driver) ProfileAdd(portID uint16, profileID uint32, profile types.MeterProfile) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.record(OpProfileAdd, portID, 0); err != nil {
		return err
	}
	p, err := d.getPort(OpProfileAdd, portID)
	if err != nil {
		return err
	}
	if profile.Algorithm != types.MeterAlgorithmSrTCM {
		return nic.NewError(string(OpProfileAdd), portID, nic.ErrNotSupported, string(profile.Algorithm))
	}
	if _, ok := p.profiles[profileID]; ok {
		return nic.NewError(string(OpProfileAdd), portID, nic.ErrExists, fmt.Sprintf("profile %d", profileID))
	}
	p.profiles[profileID] = profile
	return nil
}

// PolicyAdd implements nic.MeterAPI. policies are shared by all ports.
func (d *Driver) PolicyAdd(portID uint16, policyID uint32, policy types.MeterPolicy) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.record(OpPolicyAdd, portID, 0); err != nil {
		return err
	}
	if _, err := d.getPort(OpPolicyAdd, portID); err != nil {
		return err
	}
	if _, ok := d.policies[policyID]; ok {
		return nic.NewError(string(OpPolicyAdd), portID, nic.ErrExists, fmt.Sprintf("policy %d", policyID))
	}
	d.policies[policyID] = policy
	return nil
}

// MeterCreate implements nic.MeterAPI
func (d *Driver) MeterCreate(portID uint16, meterID uint32, params types.MeterParams) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.record(OpMeterCreate, portID, 0); err != nil {
		return err
	}
	p, err := d.getPort(OpMeterCreate, portID)
	if err != nil {
		return err
	}
	if _, ok := p.profiles[params.ProfileID]; !ok {
		return nic.NewError(string(OpMeterCreate), portID, nic.ErrNotFound, fmt.Sprintf("profile %d", params.ProfileID))
	}
	if _, ok := d.policies[params.PolicyID]; !ok {
		return nic.NewError(string(OpMeterCreate), portID, nic.ErrNotFound, fmt.Sprintf("policy %d", params.PolicyID))
	}
	if _, ok := p.meters[meterID]; ok {
		return nic.NewError(string(OpMeterCreate), portID, nic.ErrExists, fmt.Sprintf("meter %d", meterID))
	}
	p.meters[meterID] = &meterInstance{params: params}
	return nil
}

// StatsRead implements nic.MeterAPI
func (d *Driver) StatsRead(portID uint16, meterID uint32, mask types.StatsMask) (types.MeterStats, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.record(OpStatsRead, portID, 0); err != nil {
		return types.MeterStats{}, err
	}
	p, err := d.getPort(OpStatsRead, portID)
	if err != nil {
		return types.MeterStats{}, err
	}
	m, ok := p.meters[meterID]
	if !ok {
		return types.MeterStats{}, nic.NewError(string(OpStatsRead), portID, nic.ErrNotFound, fmt.Sprintf("meter %d", meterID))
	}
	if mask == 0 {
		mask = types.StatsMaskAll
	}
	// counters not enabled on the meter are never reported
	return m.stats.Masked(mask & m.params.StatsMask), nil
}

// HairpinAPI

// HairpinSetup implements nic.HairpinAPI
func (d *Driver) HairpinSetup(portID uint16, count uint16, peerPort uint16) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.record(OpHairpinSetup, portID, peerPort); err != nil {
		return err
	}
	if d.noHairpin {
		return nic.NewError(string(OpHairpinSetup), portID, nic.ErrNotSupported, "device has no hairpin capability")
	}
	p, err := d.getPort(OpHairpinSetup, portID)
	if err != nil {
		return err
	}
	if _, err := d.getPort(OpHairpinSetup, peerPort); err != nil {
		return err
	}
	if p.state != portStateConfigured {
		return nic.NewError(string(OpHairpinSetup), portID, nil, "port is not configured")
	}
	if count == 0 || count >= p.conf.RxQueues {
		return nic.NewError(string(OpHairpinSetup), portID, nil, fmt.Sprintf("invalid hairpin queue count %d", count))
	}
	p.hairpinCount = count
	p.hairpinPeer = peerPort
	return nil
}

// HairpinBind implements nic.HairpinAPI
func (d *Driver) HairpinBind(txPort, rxPort uint16) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.record(OpHairpinBind, txPort, rxPort); err != nil {
		return err
	}
	tx, err := d.getPort(OpHairpinBind, txPort)
	if err != nil {
		return err
	}
	rx, err := d.getPort(OpHairpinBind, rxPort)
	if err != nil {
		return err
	}
	if tx.state != portStateStarted || rx.state != portStateStarted {
		return nic.NewError(string(OpHairpinBind), txPort, nil, "both ports must be started")
	}
	if tx.hairpinCount == 0 || tx.hairpinPeer != rxPort {
		return nic.NewError(string(OpHairpinBind), txPort, nil, fmt.Sprintf("hairpin queues are not peered with port %d", rxPort))
	}
	tx.hairpinBound = true
	rx.hairpinBound = true
	return nil
}

// HairpinUnbind implements nic.HairpinAPI
func (d *Driver) HairpinUnbind(txPort, rxPort uint16) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.record(OpHairpinUnbind, txPort, rxPort); err != nil {
		return err
	}
	tx, err := d.getPort(OpHairpinUnbind, txPort)
	if err != nil {
		return err
	}
	rx, err := d.getPort(OpHairpinUnbind, rxPort)
	if err != nil {
		return err
	}
	if !tx.hairpinBound {
		return nic.NewError(string(OpHairpinUnbind), txPort, nil, "hairpin queues are not bound")
	}
	tx.hairpinBound = false
	rx.hairpinBound = false
	return nil
}

// QueueAPI

// RxBurst implements nic.QueueAPI
func (d *Driver) RxBurst(portID, queue uint16, max int) []*nic.Packet {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.ports[portID]
	if !ok || p.state != portStateStarted || max <= 0 {
		return nil
	}
	pending := p.rx[queue]
	n := len(pending)
	if n > max {
		n = max
	}
	if n == 0 {
		return nil
	}
	burst := append([]*nic.Packet{}, pending[:n]...)
	p.rx[queue] = pending[n:]
	return burst
}

// TxBurst implements nic.QueueAPI
func (d *Driver) TxBurst(portID, queue uint16, pkts []*nic.Packet) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.ports[portID]
	if !ok || p.state != portStateStarted {
		return 0
	}
	if _, ok := p.txQueues[queue]; !ok {
		return 0
	}
	n := len(pkts)
	if d.txLimit > 0 && n > d.txLimit {
		n = d.txLimit
	}
	p.tx[queue] = append(p.tx[queue], pkts[:n]...)
	d.transmitted += n
	d.outstanding -= n
	return n
}

// Free implements nic.QueueAPI
func (d *Driver) Free(pkt *nic.Packet) {
	if pkt == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.outstanding--
}

// static check
var _ nic.Driver = &Driver{}
