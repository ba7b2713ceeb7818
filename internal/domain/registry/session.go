package registry

import (
	"fmt"
	"sort"
	"sync"

	"topolink-agent/internal/domain/entities"
	"topolink-agent/internal/domain/errors"

	"github.com/samber/lo"
)

// NodeHandle bundles a node's context with its port registry.
type NodeHandle struct {
	Context  entities.NodeContext
	Registry *PortRegistry

	// serializes mutating workflows on this node
	opMu sync.Mutex
}

// LockOperations takes the node's workflow lock and returns its release function
func (h *NodeHandle) LockOperations() func() {
	h.opMu.Lock()
	return h.opMu.Unlock
}

// Session holds the per-node registries of one topology session. Nothing
// here outlives the process.
type Session struct {
	mu    sync.RWMutex
	nodes map[string]*NodeHandle
}

// NewSession creates an empty session
func NewSession() *Session {
	return &Session{nodes: make(map[string]*NodeHandle)}
}

// AddNode registers a node with an empty port registry
func (s *Session) AddNode(node entities.NodeContext) (*NodeHandle, error) {
	if err := node.Validate(); err != nil {
		return nil, errors.NewValidationError("invalid node context", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.nodes[node.Name]; ok {
		return nil, errors.NewValidationError(fmt.Sprintf("node %q already exists in session", node.Name), nil)
	}
	handle := &NodeHandle{Context: node, Registry: NewPortRegistry()}
	s.nodes[node.Name] = handle
	return handle, nil
}

// Node returns the handle for a node name
func (s *Session) Node(name string) (*NodeHandle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	handle, ok := s.nodes[name]
	if !ok {
		return nil, errors.NewNotFoundError(fmt.Sprintf("unknown node %q", name))
	}
	return handle, nil
}

// NodeNames returns the sorted node names
func (s *Session) NodeNames() []string {
	s.mu.RLock()
	names := lo.Keys(s.nodes)
	s.mu.RUnlock()

	sort.Strings(names)
	return names
}

// Register maps port on node
func (s *Session) Register(node, port string, link entities.VirtualLink) error {
	handle, err := s.Node(node)
	if err != nil {
		return err
	}
	return handle.Registry.Register(port, link)
}

// Unregister removes port from node
func (s *Session) Unregister(node, port string) (entities.VirtualLink, error) {
	handle, err := s.Node(node)
	if err != nil {
		return entities.VirtualLink{}, err
	}
	return handle.Registry.Unregister(port)
}

// Resolve returns the link mapped to port on node
func (s *Session) Resolve(node, port string) (entities.VirtualLink, error) {
	handle, err := s.Node(node)
	if err != nil {
		return entities.VirtualLink{}, err
	}
	return handle.Registry.Resolve(port)
}

// TotalPorts returns the number of mapped ports across all nodes
func (s *Session) TotalPorts() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return lo.SumBy(lo.Values(s.nodes), func(h *NodeHandle) int {
		return h.Registry.Len()
	})
}
