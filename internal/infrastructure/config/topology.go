package config

import (
	"fmt"
	"sort"

	"topolink-agent/internal/domain/entities"
	"topolink-agent/internal/domain/errors"
	"topolink-agent/internal/domain/interfaces"

	"gopkg.in/yaml.v3"
)

// Topology is the set of nodes and pre-existing ports the agent starts with.
//
//	nodes:
//	  - name: nodeA
//	    namespace: ns-a
//	    ports:
//	      if01: eth1
type Topology struct {
	Nodes []NodeTopology `yaml:"nodes"`
}

// NodeTopology describes one node and the interfaces already attached to it
type NodeTopology struct {
	Name      string            `yaml:"name"`
	Namespace string            `yaml:"namespace,omitempty"`
	Container string            `yaml:"container,omitempty"`
	Ports     map[string]string `yaml:"ports,omitempty"`
}

// Context returns the node's execution context
func (n NodeTopology) Context() entities.NodeContext {
	return entities.NodeContext{
		Name:      n.Name,
		Namespace: n.Namespace,
		Container: n.Container,
	}
}

// SortedPorts returns the logical port names in order
func (n NodeTopology) SortedPorts() []string {
	ports := make([]string, 0, len(n.Ports))
	for port := range n.Ports {
		ports = append(ports, port)
	}
	sort.Strings(ports)
	return ports
}

// TopologyLoader reads a topology file
type TopologyLoader struct {
	fs interfaces.FileSystem
}

// NewTopologyLoader creates a new TopologyLoader
func NewTopologyLoader(fs interfaces.FileSystem) *TopologyLoader {
	return &TopologyLoader{fs: fs}
}

// Load reads and validates the topology at path
func (l *TopologyLoader) Load(path string) (*Topology, error) {
	if !l.fs.Exists(path) {
		return nil, errors.NewNotFoundError(fmt.Sprintf("topology file %s not found", path))
	}

	data, err := l.fs.ReadFile(path)
	if err != nil {
		return nil, errors.NewSystemError(fmt.Sprintf("failed to read topology file %s", path), err)
	}

	return ParseTopology(data)
}

// ParseTopology decodes and validates a YAML topology
func ParseTopology(data []byte) (*Topology, error) {
	var topology Topology
	if err := yaml.Unmarshal(data, &topology); err != nil {
		return nil, errors.NewValidationError("failed to parse topology", err)
	}

	seen := make(map[string]bool, len(topology.Nodes))
	for i, node := range topology.Nodes {
		if err := node.Context().Validate(); err != nil {
			return nil, errors.NewValidationError(fmt.Sprintf("node #%d", i+1), err)
		}
		if seen[node.Name] {
			return nil, errors.NewValidationError(fmt.Sprintf("node %q listed twice", node.Name), nil)
		}
		seen[node.Name] = true

		owners := make(map[string]string, len(node.Ports))
		for _, port := range node.SortedPorts() {
			realName := node.Ports[port]
			if !entities.IsValidPortName(port) {
				return nil, errors.NewValidationError(
					fmt.Sprintf("node %s: invalid logical port %q", node.Name, port), entities.ErrInvalidPortName)
			}
			if !entities.IsValidInterfaceName(realName) {
				return nil, errors.NewValidationError(
					fmt.Sprintf("node %s: invalid interface name %q for port %s", node.Name, realName, port),
					entities.ErrInvalidInterfaceName)
			}
			if owner, ok := owners[realName]; ok {
				return nil, errors.NewValidationError(
					fmt.Sprintf("node %s: interface %s mapped by both %s and %s", node.Name, realName, owner, port), nil)
			}
			owners[realName] = port
		}
	}

	return &topology, nil
}
