package usecases

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"topolink-agent/internal/domain/entities"
	"topolink-agent/internal/domain/errors"
	"topolink-agent/internal/domain/interfaces"
	"topolink-agent/internal/infrastructure/iproute"
	"topolink-agent/internal/infrastructure/metrics"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// LinkExecutor runs ip commands for the use cases and turns their raw results
// into domain errors and parsed links.
type LinkExecutor struct {
	runner   interfaces.CommandRunner
	commands *iproute.Commands
	logger   *logrus.Logger
}

// NewLinkExecutor creates a new LinkExecutor
func NewLinkExecutor(runner interfaces.CommandRunner, commands *iproute.Commands, logger *logrus.Logger) *LinkExecutor {
	return &LinkExecutor{
		runner:   runner,
		commands: commands,
		logger:   logger,
	}
}

// Commands returns the command builder
func (e *LinkExecutor) Commands() *iproute.Commands {
	return e.commands
}

// Run executes a command; a non-zero exit status, a timeout or a start
// failure all become COMMAND_FAILED.
func (e *LinkExecutor) Run(ctx context.Context, node entities.NodeContext, cmd interfaces.Command) (interfaces.CommandResult, error) {
	result, err := e.runner.Run(ctx, node, cmd)
	e.logger.WithFields(logrus.Fields{
		"node":        node.Name,
		"command":     cmd.String(),
		"exit_status": result.ExitStatus,
	}).Debug("Link command finished")
	if err != nil {
		return result, errors.NewCommandFailedError(
			fmt.Sprintf("%s did not complete on node %s", cmd, node.Name),
			&errors.CommandFailure{
				Command:    cmd.String(),
				ExitStatus: -1,
				Stderr:     strings.TrimSpace(result.Stderr),
				Kind:       string(iproute.FailureUnknown),
			},
			err,
		)
	}
	if !result.Success() {
		return result, errors.NewCommandFailedError(
			fmt.Sprintf("%s failed on node %s", cmd, node.Name),
			&errors.CommandFailure{
				Command:    cmd.String(),
				ExitStatus: result.ExitStatus,
				Stderr:     strings.TrimSpace(result.Stderr),
				Kind:       string(iproute.ClassifyFailure(result.Stderr)),
			},
			nil,
		)
	}
	return result, nil
}

// Show returns the named link as the kernel reports it. found is false when
// ip reports the device does not exist.
func (e *LinkExecutor) Show(ctx context.Context, node entities.NodeContext, name string) (entities.VirtualLink, bool, error) {
	result, err := e.Run(ctx, node, e.commands.ShowLink(name))
	if err != nil {
		var domainErr *errors.DomainError
		if stderrors.As(err, &domainErr) && domainErr.Command != nil &&
			domainErr.Command.Kind == string(iproute.FailureNotFound) {
			return entities.VirtualLink{}, false, nil
		}
		return entities.VirtualLink{}, false, err
	}

	link, found := iproute.FindLink(result.Stdout, name)
	return link, found, nil
}

// List returns every link in the node
func (e *LinkExecutor) List(ctx context.Context, node entities.NodeContext) ([]entities.VirtualLink, error) {
	result, err := e.Run(ctx, node, e.commands.ListLinks())
	if err != nil {
		return nil, err
	}
	return iproute.ParseLinkListing(result.Stdout), nil
}

// BringUpAndConfirm sets the new link up and checks the kernel reports it with
// the expected identity and the UP flag. Anything short of that is COMMAND_FAILED.
func (e *LinkExecutor) BringUpAndConfirm(ctx context.Context, node entities.NodeContext, want entities.VirtualLink) error {
	if _, err := e.Run(ctx, node, e.commands.SetLinkState(want.Name, true)); err != nil {
		return err
	}

	observed, found, err := e.Show(ctx, node, want.Name)
	if err != nil {
		return err
	}
	if !found {
		return errors.NewCommandFailedError(
			fmt.Sprintf("interface %s not present on node %s after creation", want.Name, node.Name), nil, nil)
	}
	if !want.Matches(observed) {
		return errors.NewCommandFailedError(
			fmt.Sprintf("interface %s on node %s is %s (vlan %d), expected %s (vlan %d)",
				want.Name, node.Name, observed.Type, observed.VLANID, want.Type, want.VLANID), nil, nil)
	}
	if !observed.AdminUp {
		return errors.NewCommandFailedError(
			fmt.Sprintf("interface %s on node %s was created but left down", want.Name, node.Name), nil, nil)
	}
	return nil
}

// Compensate deletes an interface this workflow created and reports whether
// the delete succeeded. Best effort: failures are logged, not returned.
func (e *LinkExecutor) Compensate(ctx context.Context, log *logrus.Entry, node entities.NodeContext, name string) bool {
	_, err := e.Run(ctx, node, e.commands.DeleteLink(name))
	metrics.RecordCompensatingDelete(err == nil)
	if err != nil {
		log.WithError(err).WithField("interface", name).Error("Compensating delete failed, interface left in kernel")
		return false
	}
	log.WithField("interface", name).Warn("Compensating delete completed")
	return true
}

// operationLogger returns a logger entry tagged with a fresh operation id
func operationLogger(logger *logrus.Logger, operation, node, port string) *logrus.Entry {
	return logger.WithFields(logrus.Fields{
		"operation_id": uuid.NewString(),
		"operation":    operation,
		"node":         node,
		"logical_port": port,
	})
}

// recordOperation records the outcome of a use case in metrics
func recordOperation(operation string, start time.Time, err error) {
	result := "success"
	if err != nil {
		result = strings.ToLower(string(errors.TypeOf(err)))
		if result == "" {
			result = "error"
		}
	}
	metrics.RecordLinkOperation(operation, result, time.Since(start).Seconds())
}
