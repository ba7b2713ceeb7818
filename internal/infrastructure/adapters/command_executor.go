package adapters

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"topolink-agent/internal/domain/constants"
	"topolink-agent/internal/domain/entities"
	"topolink-agent/internal/domain/errors"
	"topolink-agent/internal/domain/interfaces"
	"topolink-agent/internal/infrastructure/metrics"

	"github.com/sirupsen/logrus"
)

// RealCommandRunner is a CommandRunner that executes actual system commands
type RealCommandRunner struct {
	ipBinary     string
	dockerBinary string
	timeout      time.Duration
	logger       *logrus.Logger
}

// NewRealCommandRunner creates a new RealCommandRunner
func NewRealCommandRunner(ipBinary, dockerBinary string, timeout time.Duration, logger *logrus.Logger) interfaces.CommandRunner {
	if ipBinary == "" {
		ipBinary = constants.DefaultIPBinary
	}
	if dockerBinary == "" {
		dockerBinary = constants.DefaultDockerBinary
	}
	return &RealCommandRunner{
		ipBinary:     ipBinary,
		dockerBinary: dockerBinary,
		timeout:      timeout,
		logger:       logger,
	}
}

// Run executes the command once inside the node's context
func (r *RealCommandRunner) Run(ctx context.Context, node entities.NodeContext, command interfaces.Command) (interfaces.CommandResult, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	argv := r.wrap(node, command)
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	duration := time.Since(start)

	result := interfaces.CommandResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if ctx.Err() == context.DeadlineExceeded {
		metrics.RecordCommand(commandVerb(command), "timeout", duration.Seconds())
		return result, errors.NewTimeoutError(
			fmt.Sprintf("command execution timeout: %s (node: %s, timeout: %v)", command, node.Name, r.timeout),
		)
	}

	if ctx.Err() == context.Canceled {
		metrics.RecordCommand(commandVerb(command), "canceled", duration.Seconds())
		return result, errors.NewSystemError(
			fmt.Sprintf("command execution canceled: %s (node: %s)", command, node.Name),
			ctx.Err(),
		)
	}

	if err != nil {
		var exitErr *exec.ExitError
		if !stderrors.As(err, &exitErr) {
			metrics.RecordCommand(commandVerb(command), "error", duration.Seconds())
			return result, errors.NewSystemError(
				fmt.Sprintf("command execution failed: %s (node: %s)", command, node.Name),
				err,
			)
		}
		result.ExitStatus = exitErr.ExitCode()
	}

	status := "success"
	if !result.Success() {
		status = "failed"
	}
	metrics.RecordCommand(commandVerb(command), status, duration.Seconds())

	r.logger.WithFields(logrus.Fields{
		"node":        node.Name,
		"command":     command.String(),
		"exit_status": result.ExitStatus,
		"duration":    duration,
	}).Debug("Command executed")

	return result, nil
}

// wrap places the command in the node's execution context
func (r *RealCommandRunner) wrap(node entities.NodeContext, command interfaces.Command) []string {
	argv := append([]string{command.Name}, command.Args...)

	switch {
	case node.Container != "":
		return append([]string{r.dockerBinary, "exec", node.Container}, argv...)
	case node.Namespace != "" && command.Name == r.ipBinary:
		return append([]string{r.ipBinary, "-n", node.Namespace}, command.Args...)
	case node.Namespace != "":
		return append([]string{r.ipBinary, "netns", "exec", node.Namespace}, argv...)
	default:
		return argv
	}
}

// commandVerb returns a low-cardinality label such as "link add" or "addr add"
func commandVerb(command interfaces.Command) string {
	var words []string
	for _, arg := range command.Args {
		if len(arg) > 0 && arg[0] == '-' {
			continue
		}
		words = append(words, arg)
		if len(words) == 2 {
			break
		}
	}
	if len(words) == 0 {
		return command.Name
	}
	return strings.Join(words, " ")
}
