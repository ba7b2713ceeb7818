package polling

import (
	"context"
	"fmt"

	"topolink-agent/internal/application/usecases"
	"topolink-agent/internal/infrastructure/metrics"

	"github.com/sirupsen/logrus"
)

// PortVerifier checks one node's mappings against the kernel
type PortVerifier interface {
	VerifyPorts(ctx context.Context, node string) (*usecases.VerifyPortsOutput, error)
}

// NodeLister lists the nodes of the session
type NodeLister interface {
	NodeNames() []string
}

// DriftVerifier verifies every node of the session in one polling cycle.
// Drift is reported, never repaired.
type DriftVerifier struct {
	verifier PortVerifier
	nodes    NodeLister
	logger   *logrus.Logger
}

// NewDriftVerifier creates a new DriftVerifier
func NewDriftVerifier(verifier PortVerifier, nodes NodeLister, logger *logrus.Logger) *DriftVerifier {
	return &DriftVerifier{
		verifier: verifier,
		nodes:    nodes,
		logger:   logger,
	}
}

// VerifyAll checks every node. Drift is not an error; a node that could not
// be listed is, so that the polling backs off.
func (v *DriftVerifier) VerifyAll(ctx context.Context) error {
	var failed []string
	drifted := 0

	for _, node := range v.nodes.NodeNames() {
		out, err := v.verifier.VerifyPorts(ctx, node)
		if err != nil {
			v.logger.WithError(err).WithField("node", node).Warn("Port verification failed")
			failed = append(failed, node)
			continue
		}
		drifted += len(out.Drifts)
	}

	switch {
	case len(failed) > 0:
		metrics.RecordVerifyCycle("error")
		return fmt.Errorf("verification failed on %d node(s): %v", len(failed), failed)
	case drifted > 0:
		metrics.RecordVerifyCycle("drift")
		v.logger.WithField("drifts", drifted).Warn("Registry drift detected")
	default:
		metrics.RecordVerifyCycle("consistent")
	}
	return nil
}
