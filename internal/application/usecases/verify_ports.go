package usecases

import (
	"context"
	"time"

	"topolink-agent/internal/domain/entities"
	"topolink-agent/internal/domain/registry"
	"topolink-agent/internal/infrastructure/metrics"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

// DriftType classifies a registry entry the kernel disagrees with
type DriftType string

const (
	DriftMissing      DriftType = "missing"
	DriftTypeMismatch DriftType = "type_mismatch"
)

// PortDrift is one mapped port whose interface is missing or different
type PortDrift struct {
	LogicalPort string
	Expected    entities.VirtualLink
	Observed    *entities.VirtualLink
	Type        DriftType
}

// VerifyPortsInput is the input of VerifyPortsUseCase
type VerifyPortsInput struct {
	NodeName string
}

// VerifyPortsOutput is the result of VerifyPortsUseCase
type VerifyPortsOutput struct {
	NodeName string
	Checked  int
	Drifts   []PortDrift
}

// Consistent reports whether every mapped port matched the kernel
func (o *VerifyPortsOutput) Consistent() bool {
	return len(o.Drifts) == 0
}

// VerifyPortsUseCase checks every mapped port of a node against the kernel.
// It only reports; the registry is never rewritten from what it finds.
type VerifyPortsUseCase struct {
	session  *registry.Session
	executor *LinkExecutor
	logger   *logrus.Logger
}

// NewVerifyPortsUseCase creates a new VerifyPortsUseCase
func NewVerifyPortsUseCase(session *registry.Session, executor *LinkExecutor, logger *logrus.Logger) *VerifyPortsUseCase {
	return &VerifyPortsUseCase{
		session:  session,
		executor: executor,
		logger:   logger,
	}
}

// Execute lists the node's links once and compares them to the registry
func (uc *VerifyPortsUseCase) Execute(ctx context.Context, input VerifyPortsInput) (*VerifyPortsOutput, error) {
	start := time.Now()
	output, err := uc.execute(ctx, input)
	recordOperation("verify_ports", start, err)
	return output, err
}

func (uc *VerifyPortsUseCase) execute(ctx context.Context, input VerifyPortsInput) (*VerifyPortsOutput, error) {
	handle, err := uc.session.Node(input.NodeName)
	if err != nil {
		return nil, err
	}

	// no operation may be in flight while the invariant is checked
	unlock := handle.LockOperations()
	defer unlock()

	links, err := uc.executor.List(ctx, handle.Context)
	if err != nil {
		return nil, err
	}
	byName := lo.KeyBy(links, func(l entities.VirtualLink) string { return l.Name })

	mappings := handle.Registry.Ports()
	output := &VerifyPortsOutput{
		NodeName: input.NodeName,
		Checked:  len(mappings),
	}

	for _, mapping := range mappings {
		observed, ok := byName[mapping.Link.Name]
		switch {
		case !ok:
			output.Drifts = append(output.Drifts, PortDrift{
				LogicalPort: mapping.LogicalPort,
				Expected:    mapping.Link,
				Type:        DriftMissing,
			})
		case !mapping.Link.Matches(observed):
			output.Drifts = append(output.Drifts, PortDrift{
				LogicalPort: mapping.LogicalPort,
				Expected:    mapping.Link,
				Observed:    &observed,
				Type:        DriftTypeMismatch,
			})
		}
	}

	for _, drift := range output.Drifts {
		metrics.RecordDrift(string(drift.Type))
		uc.logger.WithFields(logrus.Fields{
			"node":         input.NodeName,
			"logical_port": drift.LogicalPort,
			"interface":    drift.Expected.Name,
			"drift_type":   drift.Type,
		}).Warn("Mapped port inconsistent with kernel")
	}

	uc.logger.WithFields(logrus.Fields{
		"node":    input.NodeName,
		"checked": output.Checked,
		"drifts":  len(output.Drifts),
	}).Debug("Port verification completed")

	return output, nil
}
