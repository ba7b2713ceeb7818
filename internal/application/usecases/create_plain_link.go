package usecases

import (
	"context"
	"fmt"
	"time"

	"topolink-agent/internal/domain/constants"
	"topolink-agent/internal/domain/entities"
	"topolink-agent/internal/domain/errors"
	"topolink-agent/internal/domain/registry"
	"topolink-agent/internal/domain/services"
	"topolink-agent/internal/infrastructure/metrics"

	"github.com/sirupsen/logrus"
)

// CreatePlainLinkInput is the input of CreatePlainLinkUseCase
type CreatePlainLinkInput struct {
	NodeName    string
	LogicalPort string
	// RealName overrides the name derived from LogicalPort
	RealName string
}

// CreatePlainLinkUseCase creates a plain (dummy) link and maps a logical port to it
type CreatePlainLinkUseCase struct {
	session  *registry.Session
	executor *LinkExecutor
	naming   *services.InterfaceNamingService
	logger   *logrus.Logger
}

// NewCreatePlainLinkUseCase creates a new CreatePlainLinkUseCase
func NewCreatePlainLinkUseCase(
	session *registry.Session,
	executor *LinkExecutor,
	naming *services.InterfaceNamingService,
	logger *logrus.Logger,
) *CreatePlainLinkUseCase {
	return &CreatePlainLinkUseCase{
		session:  session,
		executor: executor,
		naming:   naming,
		logger:   logger,
	}
}

// Execute creates, confirms, then registers the link
func (uc *CreatePlainLinkUseCase) Execute(ctx context.Context, input CreatePlainLinkInput) (*CreateLinkOutput, error) {
	start := time.Now()
	output, err := uc.execute(ctx, input)
	recordOperation("create_plain_link", start, err)
	return output, err
}

func (uc *CreatePlainLinkUseCase) execute(ctx context.Context, input CreatePlainLinkInput) (*CreateLinkOutput, error) {
	if !entities.IsValidPortName(input.LogicalPort) {
		return nil, errors.NewValidationError(
			fmt.Sprintf("invalid logical port name %q", input.LogicalPort), entities.ErrInvalidPortName)
	}

	handle, err := uc.session.Node(input.NodeName)
	if err != nil {
		return nil, err
	}

	unlock := handle.LockOperations()
	defer unlock()

	realName := input.RealName
	if realName == "" {
		if realName, err = uc.naming.PlainInterfaceName(input.LogicalPort); err != nil {
			return nil, err
		}
	} else if !entities.IsValidInterfaceName(realName) {
		return nil, errors.NewValidationError(
			fmt.Sprintf("invalid interface name %q", realName), entities.ErrInvalidInterfaceName)
	}

	if err := handle.Registry.CheckAvailable(input.LogicalPort, realName); err != nil {
		return nil, err
	}

	link := entities.VirtualLink{
		Name: realName,
		Type:  entities.LinkTypePlain,
		Kind:  constants.PlainLinkKind,
		Owned: true,
	}
	log := operationLogger(uc.logger, "create_plain_link", input.NodeName, input.LogicalPort).
		WithField("interface", realName)
	log.Info("Creating plain link")

	ctx = context.WithoutCancel(ctx)
	node := handle.Context

	if _, err := uc.executor.Run(ctx, node, uc.executor.Commands().AddLink(realName, constants.PlainLinkKind)); err != nil {
		log.WithError(err).Error("Plain link creation failed")
		return nil, err
	}
	if err := uc.executor.BringUpAndConfirm(ctx, node, link); err != nil {
		log.WithError(err).Error("Plain link could not be confirmed")
		uc.executor.Compensate(ctx, log, node, realName)
		return nil, err
	}

	if err := handle.Registry.Register(input.LogicalPort, link); err != nil {
		rolledBack := uc.executor.Compensate(ctx, log, node, realName)
		log.WithError(err).WithField("rolled_back", rolledBack).Error("Plain port registration failed")
		return nil, errors.NewRegistrationFailedError(
			fmt.Sprintf("failed to register %s -> %s on node %s", input.LogicalPort, realName, input.NodeName),
			err,
			rolledBack,
		)
	}
	metrics.SetMappedPorts(input.NodeName, handle.Registry.Len())

	log.Info("Plain link created and registered")

	return &CreateLinkOutput{
		LogicalPort: input.LogicalPort,
		RealName:    realName,
		Link:        link,
	}, nil
}
