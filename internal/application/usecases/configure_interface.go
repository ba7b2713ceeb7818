package usecases

import (
	"context"
	"fmt"
	"net"
	"time"

	"topolink-agent/internal/domain/errors"
	"topolink-agent/internal/domain/registry"

	"github.com/sirupsen/logrus"
)

// ConfigureInterfaceInput is the input of ConfigureInterfaceUseCase
type ConfigureInterfaceInput struct {
	NodeName    string
	LogicalPort string
	// Address in CIDR form, e.g. 192.168.20.20/24; empty leaves addresses alone
	Address string
	// Up brings the interface up or down; nil leaves the state as it is
	Up *bool
}

// ConfigureInterfaceOutput is the result of ConfigureInterfaceUseCase
type ConfigureInterfaceOutput struct {
	RealName string
}

// ConfigureInterfaceUseCase applies an address and/or admin state to the
// interface behind a logical port. The registry is not changed.
type ConfigureInterfaceUseCase struct {
	session  *registry.Session
	executor *LinkExecutor
	logger   *logrus.Logger
}

// NewConfigureInterfaceUseCase creates a new ConfigureInterfaceUseCase
func NewConfigureInterfaceUseCase(session *registry.Session, executor *LinkExecutor, logger *logrus.Logger) *ConfigureInterfaceUseCase {
	return &ConfigureInterfaceUseCase{
		session:  session,
		executor: executor,
		logger:   logger,
	}
}

// Execute resolves the port and runs the address and state commands in that order
func (uc *ConfigureInterfaceUseCase) Execute(ctx context.Context, input ConfigureInterfaceInput) (*ConfigureInterfaceOutput, error) {
	start := time.Now()
	output, err := uc.execute(ctx, input)
	recordOperation("configure_interface", start, err)
	return output, err
}

func (uc *ConfigureInterfaceUseCase) execute(ctx context.Context, input ConfigureInterfaceInput) (*ConfigureInterfaceOutput, error) {
	if input.Address == "" && input.Up == nil {
		return nil, errors.NewValidationError("nothing to configure: address and state are both empty", nil)
	}
	if input.Address != "" {
		if _, _, err := net.ParseCIDR(input.Address); err != nil {
			return nil, errors.NewValidationError(fmt.Sprintf("invalid address %q", input.Address), err)
		}
	}

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

	log := operationLogger(uc.logger, "configure_interface", input.NodeName, input.LogicalPort).
		WithField("interface", link.Name)

	ctx = context.WithoutCancel(ctx)
	commands := uc.executor.Commands()

	if input.Address != "" {
		if _, err := uc.executor.Run(ctx, handle.Context, commands.AddAddress(input.Address, link.Name)); err != nil {
			log.WithError(err).Error("Address assignment failed")
			return nil, err
		}
		log.WithField("address", input.Address).Info("Address assigned")
	}

	if input.Up != nil {
		if _, err := uc.executor.Run(ctx, handle.Context, commands.SetLinkState(link.Name, *input.Up)); err != nil {
			log.WithError(err).Error("Link state change failed")
			return nil, err
		}
		log.WithField("up", *input.Up).Info("Link state changed")
	}

	return &ConfigureInterfaceOutput{RealName: link.Name}, nil
}
