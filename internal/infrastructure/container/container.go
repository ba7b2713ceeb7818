package container

import (
	"context"
	"fmt"

	"topolink-agent/internal/application/usecases"
	"topolink-agent/internal/domain/errors"
	"topolink-agent/internal/domain/interfaces"
	"topolink-agent/internal/domain/registry"
	"topolink-agent/internal/domain/services"
	"topolink-agent/internal/infrastructure/adapters"
	"topolink-agent/internal/infrastructure/config"
	"topolink-agent/internal/infrastructure/health"
	"topolink-agent/internal/infrastructure/iproute"

	"github.com/sirupsen/logrus"
)

// Container wires the agent's dependencies
type Container struct {
	config *config.Config
	logger *logrus.Logger

	// infrastructure adapters
	fileSystem       interfaces.FileSystem
	commandRunner    interfaces.CommandRunner
	clock            interfaces.Clock
	namespaceChecker interfaces.NamespaceChecker

	// services
	healthService  *health.HealthService
	namingService  *services.InterfaceNamingService
	topologyLoader *config.TopologyLoader

	session    *registry.Session
	operations *usecases.LinkOperations
}

// NewContainer creates a Container running real commands on this host
func NewContainer(cfg *config.Config, logger *logrus.Logger) (*Container, error) {
	runner := adapters.NewRealCommandRunner(
		cfg.Agent.IPBinary,
		cfg.Agent.DockerBinary,
		cfg.Agent.CommandTimeout,
		logger,
	)
	return newContainer(cfg, logger, runner, adapters.NewRealNamespaceChecker(), adapters.NewRealFileSystem())
}

func newContainer(
	cfg *config.Config,
	logger *logrus.Logger,
	runner interfaces.CommandRunner,
	namespaceChecker interfaces.NamespaceChecker,
	fileSystem interfaces.FileSystem,
) (*Container, error) {
	if cfg == nil {
		return nil, errors.NewValidationError("configuration is required", nil)
	}

	c := &Container{
		config:           cfg,
		logger:           logger,
		fileSystem:       fileSystem,
		commandRunner:    runner,
		clock:            adapters.NewRealClock(),
		namespaceChecker: namespaceChecker,
	}

	c.initializeServices()
	c.initializeUseCases()

	return c, nil
}

func (c *Container) initializeServices() {
	c.healthService = health.NewHealthService(c.clock, c.logger)
	c.namingService = services.NewInterfaceNamingService()
	c.topologyLoader = config.NewTopologyLoader(c.fileSystem)
	c.session = registry.NewSession()
	c.healthService.SetSession(c.session)
}

func (c *Container) initializeUseCases() {
	executor := usecases.NewLinkExecutor(c.commandRunner, iproute.NewCommands(c.config.Agent.IPBinary), c.logger)
	c.operations = usecases.NewLinkOperations(c.session, executor, c.namingService, c.logger)
}

// LoadTopology adds the configured nodes to the session and binds their
// pre-existing ports. Without a topology file the session starts empty.
func (c *Container) LoadTopology(ctx context.Context) error {
	err := c.loadTopology(ctx)
	c.healthService.UpdateTopology(err == nil, err)
	return err
}

func (c *Container) loadTopology(ctx context.Context) error {
	path := c.config.Agent.TopologyFile
	if path == "" {
		c.logger.Info("No topology file configured, starting with an empty session")
		return nil
	}

	topology, err := c.topologyLoader.Load(path)
	if err != nil {
		return err
	}

	for _, node := range topology.Nodes {
		if err := c.addNode(node); err != nil {
			return err
		}
		for _, port := range node.SortedPorts() {
			if _, err := c.operations.BindPort(ctx, node.Name, port, node.Ports[port]); err != nil {
				return fmt.Errorf("node %s: binding %s: %w", node.Name, port, err)
			}
		}
		c.logger.WithFields(logrus.Fields{
			"node":      node.Name,
			"namespace": node.Namespace,
			"container": node.Container,
			"ports":     len(node.Ports),
		}).Info("Node loaded from topology")
	}

	return nil
}

func (c *Container) addNode(node config.NodeTopology) error {
	nodeContext := node.Context()
	// namespaces inside a container are not visible from here
	if nodeContext.Namespace != "" && nodeContext.Container == "" {
		exists, err := c.namespaceChecker.NamespaceExists(nodeContext.Namespace)
		if err != nil {
			return err
		}
		if !exists {
			return errors.NewNotFoundError(
				fmt.Sprintf("network namespace %s of node %s does not exist", nodeContext.Namespace, node.Name))
		}
	}

	_, err := c.session.AddNode(nodeContext)
	return err
}

// GetConfig returns the configuration
func (c *Container) GetConfig() *config.Config {
	return c.config
}

// GetHealthService returns the health service
func (c *Container) GetHealthService() *health.HealthService {
	return c.healthService
}

// GetLinkOperations returns the link operations facade
func (c *Container) GetLinkOperations() *usecases.LinkOperations {
	return c.operations
}

// GetSession returns the topology session
func (c *Container) GetSession() *registry.Session {
	return c.session
}
