package usecases

import (
	"context"
	"fmt"
	"strings"
	"time"

	"topolink-agent/internal/domain/entities"
	"topolink-agent/internal/domain/errors"
	"topolink-agent/internal/domain/registry"
	"topolink-agent/internal/infrastructure/metrics"

	"github.com/sirupsen/logrus"
)

// RemoveLinkInput is the input of RemoveLinkUseCase
type RemoveLinkInput struct {
	NodeName    string
	LogicalPort string
	// Type restricts removal to links of this type; empty accepts any
	Type entities.LinkType
}

// RemoveLinkOutput is the result of a successful removal
type RemoveLinkOutput struct {
	LogicalPort string
	RealName    string
}

// RemoveLinkUseCase deletes the interface behind a logical port and, once the
// kernel confirms, unregisters the port.
type RemoveLinkUseCase struct {
	session  *registry.Session
	executor *LinkExecutor
	logger   *logrus.Logger
}

// NewRemoveLinkUseCase creates a new RemoveLinkUseCase
func NewRemoveLinkUseCase(session *registry.Session, executor *LinkExecutor, logger *logrus.Logger) *RemoveLinkUseCase {
	return &RemoveLinkUseCase{
		session:  session,
		executor: executor,
		logger:   logger,
	}
}

// Execute removes the link. If the delete fails the mapping is kept, since the
// interface still exists.
func (uc *RemoveLinkUseCase) Execute(ctx context.Context, input RemoveLinkInput) (*RemoveLinkOutput, error) {
	start := time.Now()
	output, err := uc.execute(ctx, input)
	operation := "remove_link"
	if input.Type != "" {
		operation = "remove_link_type_" + string(input.Type)
	}
	recordOperation(operation, start, err)
	return output, err
}

func (uc *RemoveLinkUseCase) execute(ctx context.Context, input RemoveLinkInput) (*RemoveLinkOutput, error) {
	handle, err := uc.session.Node(input.NodeName)
	if err != nil {
		return nil, err
	}

	unlock := handle.LockOperations()
	defer unlock()

	// 1. Resolve
	link, err := handle.Registry.Resolve(input.LogicalPort)
	if err != nil {
		return nil, err
	}
	if input.Type != "" && link.Type != input.Type {
		return nil, errors.NewValidationError(
			fmt.Sprintf("logical port %q is a %s link, not %s", input.LogicalPort, link.Type, input.Type), nil)
	}
	if !link.Owned {
		return nil, errors.NewValidationError(
			fmt.Sprintf("logical port %q is bound to %s, which the agent did not create; unbind it instead", input.LogicalPort, link.Name), nil)
	}
	// Deleting a parent takes its VLANs with it, which would orphan their mappings
	if dependents := handle.Registry.Dependents(link.Name); len(dependents) > 0 {
		return nil, errors.NewValidationError(
			fmt.Sprintf("logical port %q still carries VLAN ports: %s", input.LogicalPort, strings.Join(dependents, ", ")), nil)
	}

	log := operationLogger(uc.logger, "remove_link", input.NodeName, input.LogicalPort).
		WithField("interface", link.Name)
	log.Info("Removing link")

	ctx = context.WithoutCancel(ctx)
	node := handle.Context

	// 2. Delete in the kernel and confirm it is gone
	if _, err := uc.executor.Run(ctx, node, uc.executor.Commands().DeleteLink(link.Name)); err != nil {
		log.WithError(err).Error("Link deletion failed, mapping retained")
		return nil, err
	}
	if _, found, err := uc.executor.Show(ctx, node, link.Name); err != nil {
		log.WithError(err).Error("Link deletion could not be confirmed, mapping retained")
		return nil, err
	} else if found {
		log.Error("Link still present after deletion, mapping retained")
		return nil, errors.NewCommandFailedError(
			fmt.Sprintf("interface %s still present on node %s after deletion", link.Name, input.NodeName), nil, nil)
	}

	// 3. Unregister only after the kernel confirmed
	if _, err := handle.Registry.Unregister(input.LogicalPort); err != nil {
		return nil, err
	}
	metrics.SetMappedPorts(input.NodeName, handle.Registry.Len())

	log.Info("Link removed and unregistered")

	return &RemoveLinkOutput{
		LogicalPort: input.LogicalPort,
		RealName:    link.Name,
	}, nil
}
