package registry

import (
	"sort"
	"sync"

	"topolink-agent/internal/domain/entities"
	"topolink-agent/internal/domain/errors"

	"github.com/samber/lo"
)

// PortRegistry maps a node's logical ports to real interfaces. Both sides of
// the mapping are unique. It is a cache of confirmed kernel operations and
// never queries the kernel itself.
type PortRegistry struct {
	mu      sync.Mutex
	byPort  map[string]entities.VirtualLink
	byIface map[string]string
}

// NewPortRegistry creates an empty registry
func NewPortRegistry() *PortRegistry {
	return &PortRegistry{
		byPort:  make(map[string]entities.VirtualLink),
		byIface: make(map[string]string),
	}
}

// Register maps port to link.Name
func (r *PortRegistry) Register(port string, link entities.VirtualLink) error {
	if !entities.IsValidPortName(port) {
		return errors.NewValidationError("invalid logical port name: "+port, entities.ErrInvalidPortName)
	}
	if err := link.Validate(); err != nil {
		return errors.NewValidationError("invalid link for port "+port, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byPort[port]; ok {
		return errors.NewDuplicatePortError(port)
	}
	if owner, ok := r.byIface[link.Name]; ok {
		return errors.NewDuplicateInterfaceError(link.Name, owner)
	}

	r.byPort[port] = link
	r.byIface[link.Name] = port
	return nil
}

// Unregister removes the mapping for port and returns the removed link
func (r *PortRegistry) Unregister(port string) (entities.VirtualLink, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	link, ok := r.byPort[port]
	if !ok {
		return entities.VirtualLink{}, errors.NewUnknownPortError(port)
	}
	delete(r.byPort, port)
	delete(r.byIface, link.Name)
	return link, nil
}

// Resolve returns the link mapped to port
func (r *PortRegistry) Resolve(port string) (entities.VirtualLink, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	link, ok := r.byPort[port]
	if !ok {
		return entities.VirtualLink{}, errors.NewUnknownPortError(port)
	}
	return link, nil
}

// Owner returns the logical port mapped to a real interface name
func (r *PortRegistry) Owner(realName string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	port, ok := r.byIface[realName]
	return port, ok
}

// CheckAvailable reports the error Register would return for port and realName,
// without registering anything.
func (r *PortRegistry) CheckAvailable(port, realName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byPort[port]; ok {
		return errors.NewDuplicatePortError(port)
	}
	if owner, ok := r.byIface[realName]; ok {
		return errors.NewDuplicateInterfaceError(realName, owner)
	}
	return nil
}

// Dependents returns the logical ports whose VLAN link sits on parent, sorted
func (r *PortRegistry) Dependents(parent string) []string {
	r.mu.Lock()
	var ports []string
	for port, link := range r.byPort {
		if link.IsVLAN() && link.Parent == parent {
			ports = append(ports, port)
		}
	}
	r.mu.Unlock()

	sort.Strings(ports)
	return ports
}

// Ports returns a snapshot of all mappings sorted by logical port
func (r *PortRegistry) Ports() []entities.PortMapping {
	r.mu.Lock()
	mappings := lo.MapToSlice(r.byPort, func(port string, link entities.VirtualLink) entities.PortMapping {
		return entities.PortMapping{LogicalPort: port, Link: link}
	})
	r.mu.Unlock()

	sort.Slice(mappings, func(i, j int) bool {
		return mappings[i].LogicalPort < mappings[j].LogicalPort
	})
	return mappings
}

// Len returns the number of mapped ports
func (r *PortRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byPort)
}
