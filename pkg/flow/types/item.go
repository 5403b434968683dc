package types

const (
	// Item types
	ItemTypeEth  ItemType = "eth"
	ItemTypeIPv4 ItemType = "ipv4"
	ItemTypeGRE  ItemType = "gre"
	ItemTypeTag  ItemType = "tag"
	ItemTypeMark ItemType = "mark"
	ItemTypeEnd  ItemType = "end"

	// EtherTypeIPv4 is the ethernet type of IPv4 packets
	EtherTypeIPv4 uint16 = 0x0800
	// EtherTypeTEB is the transparent ethernet bridging protocol carried by GRE
	EtherTypeTEB uint16 = 0x6558
	// IPProtoGRE is the IPv4 next protocol value of GRE
	IPProtoGRE uint8 = 47
)

// ItemType is the type of pattern item
type ItemType string

// Item is an interface which represents a single match item of a rule pattern.
// an Item with no spec fields set matches any packet which has the item's header.
type Item interface {
	// Type returns the item type
	Type() ItemType
	// Equals compares this Item with other, returns true if they are equal or false otherwise
	Equals(other Item) bool

	// Driver Specific related Interfaces
	CmdLineGenerator
}

// EthItem matches an ethernet header
type EthItem struct {
	EtherType *uint16
}

// NewEthItem creates an EthItem matching any ethernet frame
func NewEthItem() *EthItem {
	return &EthItem{}
}

// NewEthItemWithType creates an EthItem matching the given ethernet type
func NewEthItemWithType(etherType uint16) *EthItem {
	return &EthItem{EtherType: &etherType}
}

// Type implements Item interface
func (e *EthItem) Type() ItemType {
	return ItemTypeEth
}

// Equals implements Item interface
func (e *EthItem) Equals(other Item) bool {
	o, ok := other.(*EthItem)
	if !ok {
		return false
	}
	return compare(e.EtherType, o.EtherType, nil)
}

// GenCmdLineArgs implements CmdLineGenerator interface
func (e *EthItem) GenCmdLineArgs() []string {
	args := []string{string(ItemTypeEth)}
	if e.EtherType != nil {
		args = append(args, "type", "is", hex(*e.EtherType))
	}
	return args
}

// IPv4Item matches an IPv4 header
type IPv4Item struct {
	NextProto *uint8
}

// NewIPv4Item creates an IPv4Item matching any IPv4 packet
func NewIPv4Item() *IPv4Item {
	return &IPv4Item{}
}

// NewIPv4ItemWithProto creates an IPv4Item matching the given next protocol
func NewIPv4ItemWithProto(proto uint8) *IPv4Item {
	return &IPv4Item{NextProto: &proto}
}

// Type implements Item interface
func (i *IPv4Item) Type() ItemType {
	return ItemTypeIPv4
}

// Equals implements Item interface
func (i *IPv4Item) Equals(other Item) bool {
	o, ok := other.(*IPv4Item)
	if !ok {
		return false
	}
	return compare(i.NextProto, o.NextProto, nil)
}

// GenCmdLineArgs implements CmdLineGenerator interface
func (i *IPv4Item) GenCmdLineArgs() []string {
	args := []string{string(ItemTypeIPv4)}
	if i.NextProto != nil {
		args = append(args, "proto", "is", dec(*i.NextProto))
	}
	return args
}

// GREItem matches a GRE header
type GREItem struct {
	Protocol *uint16
}

// NewGREItem creates a GREItem matching the given GRE protocol
func NewGREItem(protocol uint16) *GREItem {
	return &GREItem{Protocol: &protocol}
}

// Type implements Item interface
func (g *GREItem) Type() ItemType {
	return ItemTypeGRE
}

// Equals implements Item interface
func (g *GREItem) Equals(other Item) bool {
	o, ok := other.(*GREItem)
	if !ok {
		return false
	}
	return compare(g.Protocol, o.Protocol, nil)
}

// GenCmdLineArgs implements CmdLineGenerator interface
func (g *GREItem) GenCmdLineArgs() []string {
	args := []string{string(ItemTypeGRE)}
	if g.Protocol != nil {
		args = append(args, "protocol", "is", hex(*g.Protocol))
	}
	return args
}

// TagItem matches the value of a tag register previously set by a SetTagAction
type TagItem struct {
	Data  uint32
	Index uint8
}

// NewTagItem creates a new TagItem
func NewTagItem(data uint32, index uint8) *TagItem {
	return &TagItem{Data: data, Index: index}
}

// Type implements Item interface
func (t *TagItem) Type() ItemType {
	return ItemTypeTag
}

// Equals implements Item interface
func (t *TagItem) Equals(other Item) bool {
	o, ok := other.(*TagItem)
	if !ok {
		return false
	}
	return *t == *o
}

// GenCmdLineArgs implements CmdLineGenerator interface
func (t *TagItem) GenCmdLineArgs() []string {
	return []string{string(ItemTypeTag), "data", "is", hex(t.Data), "index", "is", dec(t.Index)}
}

// MarkItem matches packets carrying the given mark value
type MarkItem struct {
	ID uint32
}

// NewMarkItem creates a new MarkItem
func NewMarkItem(id uint32) *MarkItem {
	return &MarkItem{ID: id}
}

// Type implements Item interface
func (m *MarkItem) Type() ItemType {
	return ItemTypeMark
}

// Equals implements Item interface
func (m *MarkItem) Equals(other Item) bool {
	o, ok := other.(*MarkItem)
	if !ok {
		return false
	}
	return m.ID == o.ID
}

// GenCmdLineArgs implements CmdLineGenerator interface
func (m *MarkItem) GenCmdLineArgs() []string {
	return []string{string(ItemTypeMark), "id", "is", dec(m.ID)}
}

// EndItem terminates a pattern
type EndItem struct{}

// NewEndItem creates a new EndItem
func NewEndItem() *EndItem {
	return &EndItem{}
}

// Type implements Item interface
func (e *EndItem) Type() ItemType {
	return ItemTypeEnd
}

// Equals implements Item interface
func (e *EndItem) Equals(other Item) bool {
	_, ok := other.(*EndItem)
	return ok
}

// GenCmdLineArgs implements CmdLineGenerator interface
func (e *EndItem) GenCmdLineArgs() []string {
	return []string{string(ItemTypeEnd)}
}
