package iproute

import (
	"strconv"

	"topolink-agent/internal/domain/constants"
	"topolink-agent/internal/domain/interfaces"
)

// Commands builds iproute2 commands
type Commands struct {
	binary string
}

// NewCommands creates a command builder for the given ip binary
func NewCommands(binary string) *Commands {
	if binary == "" {
		binary = constants.DefaultIPBinary
	}
	return &Commands{binary: binary}
}

func (c *Commands) ip(args ...string) interfaces.Command {
	return interfaces.Command{Name: c.binary, Args: args}
}

// AddVLAN creates a VLAN sub-interface on top of parent
func (c *Commands) AddVLAN(parent, name string, vlanID int) interfaces.Command {
	return c.ip("link", "add", "link", parent, "name", name, "type", "vlan", "id", strconv.Itoa(vlanID))
}

// AddLink creates a link of the given kind (dummy, veth, ...)
func (c *Commands) AddLink(name, kind string) interfaces.Command {
	return c.ip("link", "add", "name", name, "type", kind)
}

// DeleteLink deletes a link
func (c *Commands) DeleteLink(name string) interfaces.Command {
	return c.ip("link", "del", "dev", name)
}

// SetLinkState brings a link administratively up or down
func (c *Commands) SetLinkState(name string, up bool) interfaces.Command {
	state := "down"
	if up {
		state = "up"
	}
	return c.ip("link", "set", "dev", name, state)
}

// ShowLink lists a single link with details, one line per link
func (c *Commands) ShowLink(name string) interfaces.Command {
	return c.ip("-d", "-o", "link", "show", "dev", name)
}

// ListLinks lists every link with details, one line per link
func (c *Commands) ListLinks() interfaces.Command {
	return c.ip("-d", "-o", "link", "show")
}

// AddAddress assigns an address in CIDR form to a link
func (c *Commands) AddAddress(cidr, name string) interfaces.Command {
	return c.ip("addr", "add", cidr, "dev", name)
}
