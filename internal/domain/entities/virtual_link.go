package entities

import (
	"errors"
	"regexp"
	"strings"

	"topolink-agent/internal/domain/constants"
)

// LinkType is the kind of virtual link managed for a logical port
type LinkType string

const (
	LinkTypePlain LinkType = "plain"
	LinkTypeVLAN  LinkType = "vlan"
)

// LinkState is the operational state reported by the kernel
type LinkState string

const (
	LinkStateUp             LinkState = "UP"
	LinkStateDown           LinkState = "DOWN"
	LinkStateUnknown        LinkState = "UNKNOWN"
	LinkStateLowerLayerDown LinkState = "LOWERLAYERDOWN"
)

var (
	ErrInvalidInterfaceName = errors.New("invalid interface name")
	ErrInvalidPortName      = errors.New("invalid logical port name")
	ErrInvalidVLANID        = errors.New("vlan id out of range")
	ErrMissingParent        = errors.New("vlan link requires a parent interface")
)

var interfaceNameRegex = regexp.MustCompile(`^[A-Za-z0-9_.\-]+$`)

// VirtualLink describes a real interface known to the kernel and, once
// registered, owned by a logical port.
type VirtualLink struct {
	Name   string
	Type   LinkType
	Parent string
	VLANID int

	// Kind is the raw kernel link kind (dummy, veth, vlan, ...), empty for physical links
	Kind string
	// State is the operational state; AdminUp reflects the UP flag
	State   LinkState
	AdminUp bool

	// Owned marks links the agent created; bound links belong to the topology and are never deleted
	Owned bool
}

// Validate checks the descriptor is internally consistent
func (l VirtualLink) Validate() error {
	if !IsValidInterfaceName(l.Name) {
		return ErrInvalidInterfaceName
	}
	if l.Type == LinkTypeVLAN {
		if l.Parent == "" {
			return ErrMissingParent
		}
		if !IsValidVLANID(l.VLANID) {
			return ErrInvalidVLANID
		}
	}
	return nil
}

// IsVLAN reports whether the link is a VLAN sub-interface
func (l VirtualLink) IsVLAN() bool {
	return l.Type == LinkTypeVLAN
}

// Matches reports whether an observed link satisfies this descriptor's identity.
// Kernel state is not compared.
func (l VirtualLink) Matches(observed VirtualLink) bool {
	if l.Name != observed.Name || l.Type != observed.Type {
		return false
	}
	if l.Type == LinkTypeVLAN {
		return l.VLANID == observed.VLANID && (observed.Parent == "" || l.Parent == observed.Parent)
	}
	return true
}

// PortMapping is one logical port → real interface entry of a node
type PortMapping struct {
	LogicalPort string
	Link        VirtualLink
}

// IsValidInterfaceName checks a kernel interface name
func IsValidInterfaceName(name string) bool {
	if name == "" || len(name) > constants.MaxInterfaceNameLength {
		return false
	}
	if name == "." || name == ".." {
		return false
	}
	return interfaceNameRegex.MatchString(name)
}

// IsValidPortName checks a logical port label
func IsValidPortName(name string) bool {
	return strings.TrimSpace(name) != "" && !strings.ContainsAny(name, " \t\n/")
}

// IsValidVLANID checks an 802.1Q VLAN id
func IsValidVLANID(id int) bool {
	return id >= constants.MinVLANID && id <= constants.MaxVLANID
}
