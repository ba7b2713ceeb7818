package usecases

import (
	"context"
	"fmt"
	"time"

	"topolink-agent/internal/domain/entities"
	"topolink-agent/internal/domain/errors"
	"topolink-agent/internal/domain/registry"
	"topolink-agent/internal/infrastructure/metrics"

	"github.com/sirupsen/logrus"
)

// BindPortInput is the input of BindPortUseCase
type BindPortInput struct {
	NodeName    string
	LogicalPort string
	RealName    string
}

// BindPortUseCase maps a logical port to an interface that already exists in
// the node, e.g. one attached by the topology framework.
type BindPortUseCase struct {
	session  *registry.Session
	executor *LinkExecutor
	logger   *logrus.Logger
}

// NewBindPortUseCase creates a new BindPortUseCase
func NewBindPortUseCase(session *registry.Session, executor *LinkExecutor, logger *logrus.Logger) *BindPortUseCase {
	return &BindPortUseCase{
		session:  session,
		executor: executor,
		logger:   logger,
	}
}

// Execute confirms the interface exists, then registers it as the kernel reports it
func (uc *BindPortUseCase) Execute(ctx context.Context, input BindPortInput) (*CreateLinkOutput, error) {
	start := time.Now()
	output, err := uc.execute(ctx, input)
	recordOperation("bind_port", start, err)
	return output, err
}

func (uc *BindPortUseCase) execute(ctx context.Context, input BindPortInput) (*CreateLinkOutput, error) {
	if !entities.IsValidPortName(input.LogicalPort) {
		return nil, errors.NewValidationError(
			fmt.Sprintf("invalid logical port name %q", input.LogicalPort), entities.ErrInvalidPortName)
	}
	if !entities.IsValidInterfaceName(input.RealName) {
		return nil, errors.NewValidationError(
			fmt.Sprintf("invalid interface name %q", input.RealName), entities.ErrInvalidInterfaceName)
	}

	handle, err := uc.session.Node(input.NodeName)
	if err != nil {
		return nil, err
	}

	unlock := handle.LockOperations()
	defer unlock()

	if err := handle.Registry.CheckAvailable(input.LogicalPort, input.RealName); err != nil {
		return nil, err
	}

	observed, found, err := uc.executor.Show(ctx, handle.Context, input.RealName)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errors.NewNotFoundError(
			fmt.Sprintf("interface %s does not exist on node %s", input.RealName, input.NodeName))
	}

	if observed.IsVLAN() && observed.Parent == "" {
		return nil, errors.NewValidationError(
			fmt.Sprintf("parent of VLAN interface %s on node %s could not be determined", input.RealName, input.NodeName), entities.ErrMissingParent)
	}

	link := entities.VirtualLink{
		Name:   observed.Name,
		Type:   observed.Type,
		Parent: observed.Parent,
		VLANID: observed.VLANID,
		Kind:   observed.Kind,
	}
	if err := handle.Registry.Register(input.LogicalPort, link); err != nil {
		return nil, err
	}
	metrics.SetMappedPorts(input.NodeName, handle.Registry.Len())

	operationLogger(uc.logger, "bind_port", input.NodeName, input.LogicalPort).WithFields(logrus.Fields{
		"interface": link.Name,
		"type":      link.Type,
	}).Info("Existing interface bound to logical port")

	return &CreateLinkOutput{
		LogicalPort: input.LogicalPort,
		RealName:    link.Name,
		Link:        link,
	}, nil
}

// UnbindPortInput is the input of UnbindPortUseCase
type UnbindPortInput struct {
	NodeName    string
	LogicalPort string
}

// UnbindPortUseCase detaches a logical port from a bound interface. The
// kernel is not touched.
type UnbindPortUseCase struct {
	session *registry.Session
	logger  *logrus.Logger
}

// NewUnbindPortUseCase creates a new UnbindPortUseCase
func NewUnbindPortUseCase(session *registry.Session, logger *logrus.Logger) *UnbindPortUseCase {
	return &UnbindPortUseCase{
		session: session,
		logger:  logger,
	}
}

// Execute unregisters a bound port. Links the agent created must be removed instead.
func (uc *UnbindPortUseCase) Execute(ctx context.Context, input UnbindPortInput) (*RemoveLinkOutput, error) {
	start := time.Now()
	output, err := uc.execute(input)
	recordOperation("unbind_port", start, err)
	return output, err
}

func (uc *UnbindPortUseCase) execute(input UnbindPortInput) (*RemoveLinkOutput, error) {
	handle, err := uc.session.Node(input.NodeName)
	if err != nil {
		return nil, err
	}

	unlock := handle.LockOperations()
	defer unlock()

	link, err := handle.Registry.Resolve(input.LogicalPort)
	if err != nil {
		return nil, err
	}
	if link.Owned {
		return nil, errors.NewValidationError(
			fmt.Sprintf("logical port %q owns %s; remove it instead", input.LogicalPort, link.Name), nil)
	}

	if _, err := handle.Registry.Unregister(input.LogicalPort); err != nil {
		return nil, err
	}
	metrics.SetMappedPorts(input.NodeName, handle.Registry.Len())

	operationLogger(uc.logger, "unbind_port", input.NodeName, input.LogicalPort).
		WithField("interface", link.Name).
		Info("Logical port unbound, interface left in place")

	return &RemoveLinkOutput{
		LogicalPort: input.LogicalPort,
		RealName:    link.Name,
	}, nil
}
