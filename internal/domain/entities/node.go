package entities

import "errors"

var ErrInvalidNodeName = errors.New("invalid node name")

// NodeContext identifies where a node's commands run. It is owned by the
// topology framework and only borrowed here.
type NodeContext struct {
	Name string
	// Namespace is a named network namespace (ip netns); empty means host
	Namespace string
	// Container runs commands through docker exec; takes precedence over Namespace
	Container string
}

// Validate checks the node context
func (n NodeContext) Validate() error {
	if n.Name == "" {
		return ErrInvalidNodeName
	}
	return nil
}

// IsHost reports whether commands run in the host namespace
func (n NodeContext) IsHost() bool {
	return n.Namespace == "" && n.Container == ""
}
