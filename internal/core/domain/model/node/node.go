// Package node describes logistics locations: warehouses, settlements, construction
// sites and the service slots that limit concurrent loading and unloading.
package node

import (
	"errors"
	"fmt"

	"logistics/internal/core/domain/model/kernel"
	"logistics/internal/pkg/errs"
	"logistics/internal/pkg/guard"
)

// ErrNodeIsNotConstructed is returned when a zero-value Node is used.
var ErrNodeIsNotConstructed = errors.New("Node must be created via NewNode constructor")

// Kind classifies a node.
type Kind int

const (
	KindUnknown Kind = iota
	KindWarehouse
	KindSettlement
	KindTileCell
	KindConstructionSite
	KindOutpost
)

var kindNames = map[Kind]string{
	KindUnknown:          "Unknown",
	KindWarehouse:        "Warehouse",
	KindSettlement:       "Settlement",
	KindTileCell:         "TileCell",
	KindConstructionSite: "ConstructionSite",
	KindOutpost:          "Outpost",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "Unknown"
}

// ParseKind maps a name such as "Warehouse" to its Kind.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s && k != KindUnknown {
			return k, nil
		}
	}
	return KindUnknown, errs.NewValueIsInvalidErrorWithCause("node kind", fmt.Errorf("%q is not a node kind", s))
}

// ServiceType is the kind of slot a shipment occupies at a node.
type ServiceType int

const (
	ServiceUnknown ServiceType = iota
	ServiceLoad
	ServiceUnload
)

func (s ServiceType) String() string {
	switch s {
	case ServiceLoad:
		return "Load"
	case ServiceUnload:
		return "Unload"
	default:
		return "Unknown"
	}
}

// ServiceFlags is the set of services a node offers; routes may require some of them at
// both endpoints.
type ServiceFlags uint8

const (
	FlagLoading ServiceFlags = 1 << iota
	FlagUnloading
	FlagRefuel
	FlagRepair
	FlagCustoms
)

// Has reports whether every flag in want is offered.
func (f ServiceFlags) Has(want ServiceFlags) bool {
	return f&want == want
}

// Services is the slot descriptor of a node.
type Services struct {
	LoadSlots   int
	UnloadSlots int
	Offered     ServiceFlags
}

// Slots returns the slot capacity for a service type.
func (s Services) Slots(t ServiceType) int {
	switch t {
	case ServiceLoad:
		return s.LoadSlots
	case ServiceUnload:
		return s.UnloadSlots
	default:
		return 0
	}
}

// Node is the read model of a location supplied by the world collaborator.
type Node struct {
	id         kernel.UUID
	name       string
	kind       Kind
	position   kernel.Location
	risk       float64
	restricted bool
	covert     bool
	services   Services
	guard      guard.ConstructorGuard
}

// Attributes carries the optional routing attributes of a node.
type Attributes struct {
	// Risk is the hazard level in [0, 1] compared against a route's risk tolerance.
	Risk float64
	// Restricted nodes are only reachable by profiles that allow restricted cargo.
	Restricted bool
	// Covert nodes can serve routes that require secrecy.
	Covert bool
}

// NewNode validates and builds a Node.
func NewNode(
	id kernel.UUID,
	name string,
	kind Kind,
	position kernel.Location,
	services Services,
	attrs Attributes,
) (*Node, error) {
	n := &Node{
		id:         id,
		name:       name,
		kind:       kind,
		position:   position,
		risk:       attrs.Risk,
		restricted: attrs.Restricted,
		covert:     attrs.Covert,
		services:   services,
		guard:      guard.NewConstructorGuard(),
	}

	var kindErr error
	if kind == KindUnknown {
		kindErr = errs.NewValueIsRequiredError("node kind")
	}
	var riskErr error
	if attrs.Risk < 0 || attrs.Risk > 1 {
		riskErr = errs.NewValueIsOutOfRangeError("risk", attrs.Risk, 0, 1)
	}
	var slotErr error
	if services.LoadSlots < 0 || services.UnloadSlots < 0 {
		slotErr = errs.NewValueIsInvalidErrorWithCause("services", errors.New("slot capacity cannot be negative"))
	}

	if err := errors.Join(id.Validate(), position.Validate(), kindErr, riskErr, slotErr); err != nil {
		return nil, err
	}
	return n, nil
}

// Validate reports whether the node was built by NewNode.
func (n *Node) Validate() error {
	if n == nil {
		return ErrNodeIsNotConstructed
	}
	return n.guard.Validate(ErrNodeIsNotConstructed)
}

func (n *Node) ID() kernel.UUID           { return n.id }
func (n *Node) Name() string              { return n.name }
func (n *Node) Kind() Kind                { return n.kind }
func (n *Node) Position() kernel.Location { return n.position }
func (n *Node) Risk() float64             { return n.risk }
func (n *Node) Restricted() bool          { return n.restricted }
func (n *Node) Covert() bool              { return n.covert }
func (n *Node) Services() Services        { return n.services }
