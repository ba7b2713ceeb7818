package usecases

import (
	"context"
	"fmt"
	"time"

	"topolink-agent/internal/domain/entities"
	"topolink-agent/internal/domain/errors"
	"topolink-agent/internal/domain/registry"
	"topolink-agent/internal/domain/services"
	"topolink-agent/internal/infrastructure/metrics"

	"github.com/sirupsen/logrus"
)

// CreateVLANLinkInput is the input of CreateVLANLinkUseCase
type CreateVLANLinkInput struct {
	NodeName    string
	LogicalPort string // the already registered base port
	VLANID      int
}

// CreateLinkOutput is the result of a successful create
type CreateLinkOutput struct {
	LogicalPort string
	RealName    string
	Link        entities.VirtualLink
}

// CreateVLANLinkUseCase creates a VLAN sub-interface on top of a mapped port
// and registers it under a derived logical port.
type CreateVLANLinkUseCase struct {
	session  *registry.Session
	executor *LinkExecutor
	naming   *services.InterfaceNamingService
	logger   *logrus.Logger
}

// NewCreateVLANLinkUseCase creates a new CreateVLANLinkUseCase
func NewCreateVLANLinkUseCase(
	session *registry.Session,
	executor *LinkExecutor,
	naming *services.InterfaceNamingService,
	logger *logrus.Logger,
) *CreateVLANLinkUseCase {
	return &CreateVLANLinkUseCase{
		session:  session,
		executor: executor,
		naming:   naming,
		logger:   logger,
	}
}

// Execute runs the workflow: resolve base port, derive names, create in the
// kernel, confirm, then register. The registry is written last.
func (uc *CreateVLANLinkUseCase) Execute(ctx context.Context, input CreateVLANLinkInput) (*CreateLinkOutput, error) {
	start := time.Now()
	output, err := uc.execute(ctx, input)
	recordOperation("create_vlan_link", start, err)
	return output, err
}

func (uc *CreateVLANLinkUseCase) execute(ctx context.Context, input CreateVLANLinkInput) (*CreateLinkOutput, error) {
	handle, err := uc.session.Node(input.NodeName)
	if err != nil {
		return nil, err
	}

	unlock := handle.LockOperations()
	defer unlock()

	log := operationLogger(uc.logger, "create_vlan_link", input.NodeName, input.LogicalPort).
		WithField("vlan_id", input.VLANID)

	// 1. The base port must already be mapped
	base, err := handle.Registry.Resolve(input.LogicalPort)
	if err != nil {
		if errors.IsUnknownPortError(err) {
			return nil, errors.NewPortNotMappedError(input.LogicalPort)
		}
		return nil, err
	}

	// 2. Deterministic names, rejected up front if already taken
	realName, err := uc.naming.VLANInterfaceName(base.Name, input.VLANID)
	if err != nil {
		return nil, err
	}
	vlanPort := uc.naming.VLANPortName(input.LogicalPort, input.VLANID)
	if err := handle.Registry.CheckAvailable(vlanPort, realName); err != nil {
		return nil, err
	}

	link := entities.VirtualLink{
		Name:   realName,
		Type:   entities.LinkTypeVLAN,
		Parent: base.Name,
		VLANID: input.VLANID,
		Kind:   "vlan",
		Owned:  true,
	}
	log = log.WithFields(logrus.Fields{"interface": realName, "parent": base.Name})
	log.Info("Creating VLAN sub-interface")

	// The kernel is mutated from here on; the workflow is not cancellable.
	ctx = context.WithoutCancel(ctx)
	node := handle.Context

	// 3-4. Create and confirm; the registry stays untouched on failure
	if _, err := uc.executor.Run(ctx, node, uc.executor.Commands().AddVLAN(base.Name, realName, input.VLANID)); err != nil {
		log.WithError(err).Error("VLAN sub-interface creation failed")
		return nil, err
	}
	if err := uc.executor.BringUpAndConfirm(ctx, node, link); err != nil {
		log.WithError(err).Error("VLAN sub-interface could not be confirmed")
		uc.executor.Compensate(ctx, log, node, realName)
		return nil, err
	}

	// 5. Register only after confirmation
	if err := handle.Registry.Register(vlanPort, link); err != nil {
		rolledBack := uc.executor.Compensate(ctx, log, node, realName)
		log.WithError(err).WithField("rolled_back", rolledBack).Error("VLAN port registration failed")
		return nil, errors.NewRegistrationFailedError(
			fmt.Sprintf("failed to register %s -> %s on node %s", vlanPort, realName, input.NodeName),
			err,
			rolledBack,
		)
	}
	metrics.SetMappedPorts(input.NodeName, handle.Registry.Len())

	log.WithField("vlan_port", vlanPort).Info("VLAN sub-interface created and registered")

	return &CreateLinkOutput{
		LogicalPort: vlanPort,
		RealName:    realName,
		Link:        link,
	}, nil
}
