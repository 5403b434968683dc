package types

const (
	// Action types
	ActionTypeJump   ActionType = "jump"
	ActionTypeMark   ActionType = "mark"
	ActionTypeSetTag ActionType = "set_tag"
	ActionTypeMeter  ActionType = "meter"
	ActionTypeQueue  ActionType = "queue"
	ActionTypePortID ActionType = "port_id"
	ActionTypeDrop   ActionType = "drop"
	ActionTypeEnd    ActionType = "end"
)

// ActionType is the flow Action type
type ActionType string

// Action is an interface which represents a flow action
type Action interface {
	// Type returns the action type
	Type() ActionType
	// Terminating returns true if the action determines the final disposition of a packet
	Terminating() bool
	// Equals compares this Action with other, returns true if they are equal or false otherwise
	Equals(other Action) bool

	// Driver Specific related Interfaces
	CmdLineGenerator
}

// JumpAction moves packet evaluation to another group
type JumpAction struct {
	Group uint32
}

// NewJumpAction creates a new JumpAction
func NewJumpAction(group uint32) *JumpAction {
	return &JumpAction{Group: group}
}

// Type implements Action interface
func (a *JumpAction) Type() ActionType {
	return ActionTypeJump
}

// Terminating implements Action interface
func (a *JumpAction) Terminating() bool {
	return true
}

// Equals implements Action interface
func (a *JumpAction) Equals(other Action) bool {
	o, ok := other.(*JumpAction)
	if !ok {
		return false
	}
	return a.Group == o.Group
}

// GenCmdLineArgs implements CmdLineGenerator interface
func (a *JumpAction) GenCmdLineArgs() []string {
	return []string{string(ActionTypeJump), "group", dec(a.Group)}
}

// MarkAction attaches a mark value to the packet
type MarkAction struct {
	ID uint32
}

// NewMarkAction creates a new MarkAction
func NewMarkAction(id uint32) *MarkAction {
	return &MarkAction{ID: id}
}

// Type implements Action interface
func (a *MarkAction) Type() ActionType {
	return ActionTypeMark
}

// Terminating implements Action interface
func (a *MarkAction) Terminating() bool {
	return false
}

// Equals implements Action interface
func (a *MarkAction) Equals(other Action) bool {
	o, ok := other.(*MarkAction)
	if !ok {
		return false
	}
	return a.ID == o.ID
}

// GenCmdLineArgs implements CmdLineGenerator interface
func (a *MarkAction) GenCmdLineArgs() []string {
	return []string{string(ActionTypeMark), "id", dec(a.ID)}
}

// SetTagAction writes data into a tag register which can be matched by later groups
type SetTagAction struct {
	Data  uint32
	Index uint8
	Mask  uint32
}

// NewSetTagAction creates a new SetTagAction
func NewSetTagAction(data uint32, index uint8, mask uint32) *SetTagAction {
	return &SetTagAction{Data: data, Index: index, Mask: mask}
}

// Type implements Action interface
func (a *SetTagAction) Type() ActionType {
	return ActionTypeSetTag
}

// Terminating implements Action interface
func (a *SetTagAction) Terminating() bool {
	return false
}

// Equals implements Action interface
func (a *SetTagAction) Equals(other Action) bool {
	o, ok := other.(*SetTagAction)
	if !ok {
		return false
	}
	return *a == *o
}

// GenCmdLineArgs implements CmdLineGenerator interface
func (a *SetTagAction) GenCmdLineArgs() []string {
	return []string{string(ActionTypeSetTag), "data", hex(a.Data), "index", dec(a.Index), "mask", hex(a.Mask)}
}

// MeterAction passes the packet through a meter instance
type MeterAction struct {
	MeterID uint32
}

// NewMeterAction creates a new MeterAction
func NewMeterAction(meterID uint32) *MeterAction {
	return &MeterAction{MeterID: meterID}
}

// Type implements Action interface
func (a *MeterAction) Type() ActionType {
	return ActionTypeMeter
}

// Terminating implements Action interface
func (a *MeterAction) Terminating() bool {
	return false
}

// Equals implements Action interface
func (a *MeterAction) Equals(other Action) bool {
	o, ok := other.(*MeterAction)
	if !ok {
		return false
	}
	return a.MeterID == o.MeterID
}

// GenCmdLineArgs implements CmdLineGenerator interface
func (a *MeterAction) GenCmdLineArgs() []string {
	return []string{string(ActionTypeMeter), "mtr_id", dec(a.MeterID)}
}

// QueueAction delivers the packet to a receive queue
type QueueAction struct {
	Index uint16
}

// NewQueueAction creates a new QueueAction
func NewQueueAction(index uint16) *QueueAction {
	return &QueueAction{Index: index}
}

// Type implements Action interface
func (a *QueueAction) Type() ActionType {
	return ActionTypeQueue
}

// Terminating implements Action interface
func (a *QueueAction) Terminating() bool {
	return true
}

// Equals implements Action interface
func (a *QueueAction) Equals(other Action) bool {
	o, ok := other.(*QueueAction)
	if !ok {
		return false
	}
	return a.Index == o.Index
}

// GenCmdLineArgs implements CmdLineGenerator interface
func (a *QueueAction) GenCmdLineArgs() []string {
	return []string{string(ActionTypeQueue), "index", dec(a.Index)}
}

// PortIDAction forwards the packet to a port
type PortIDAction struct {
	ID uint16
}

// NewPortIDAction creates a new PortIDAction
func NewPortIDAction(id uint16) *PortIDAction {
	return &PortIDAction{ID: id}
}

// Type implements Action interface
func (a *PortIDAction) Type() ActionType {
	return ActionTypePortID
}

// Terminating implements Action interface
func (a *PortIDAction) Terminating() bool {
	return true
}

// Equals implements Action interface
func (a *PortIDAction) Equals(other Action) bool {
	o, ok := other.(*PortIDAction)
	if !ok {
		return false
	}
	return a.ID == o.ID
}

// GenCmdLineArgs implements CmdLineGenerator interface
func (a *PortIDAction) GenCmdLineArgs() []string {
	return []string{string(ActionTypePortID), "id", dec(a.ID)}
}

// DropAction drops the packet
type DropAction struct{}

// NewDropAction creates a new DropAction
func NewDropAction() *DropAction {
	return &DropAction{}
}

// Type implements Action interface
func (a *DropAction) Type() ActionType {
	return ActionTypeDrop
}

// Terminating implements Action interface
func (a *DropAction) Terminating() bool {
	return true
}

// Equals implements Action interface
func (a *DropAction) Equals(other Action) bool {
	_, ok := other.(*DropAction)
	return ok
}

// GenCmdLineArgs implements CmdLineGenerator interface
func (a *DropAction) GenCmdLineArgs() []string {
	return []string{string(ActionTypeDrop)}
}

// EndAction terminates an action list
type EndAction struct{}

// NewEndAction creates a new EndAction
func NewEndAction() *EndAction {
	return &EndAction{}
}

// Type implements Action interface
func (a *EndAction) Type() ActionType {
	return ActionTypeEnd
}

// Terminating implements Action interface. End is a list sentinel, not a disposition.
func (a *EndAction) Terminating() bool {
	return false
}

// Equals implements Action interface
func (a *EndAction) Equals(other Action) bool {
	_, ok := other.(*EndAction)
	return ok
}

// GenCmdLineArgs implements CmdLineGenerator interface
func (a *EndAction) GenCmdLineArgs() []string {
	return []string{string(ActionTypeEnd)}
}

// actionsEqual compares two action lists, order matters
func actionsEqual(first, second []Action) bool {
	if len(first) != len(second) {
		return false
	}
	for i := range first {
		if !first[i].Equals(second[i]) {
			return false
		}
	}
	return true
}
