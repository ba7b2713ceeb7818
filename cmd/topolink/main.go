// topolink runs the node-side link agent for emulated network topologies.
//
// Usage:
//
//	topolink serve     Load the topology and serve the link API
//	topolink verify    Load the topology and report mapped ports that drifted
package main

import (
	"fmt"
	"os"

	"topolink-agent/internal/infrastructure/config"
	"topolink-agent/internal/infrastructure/container"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const version = "0.1.0"

var topologyFile string

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:               "topolink",
	Short:             "Node-side link management for network topologies",
	SilenceUsage:      true,
	SilenceErrors:     true,
	CompletionOptions: cobra.CompletionOptions{HiddenDefaultCmd: true},
	Long: `topolink maps logical topology ports to kernel interfaces on each node and
creates or removes VLAN and plain links through ip commands.

Configuration comes from the environment (IP_BINARY, DOCKER_BINARY,
COMMAND_TIMEOUT, HTTP_PORT, TOPOLOGY_FILE, SHUTDOWN_TIMEOUT, LOG_LEVEL,
VERIFY_INTERVAL, VERIFY_MAX_INTERVAL).`,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&topologyFile, "topology", "t", "", "topology file (overrides TOPOLOGY_FILE)")

	rootCmd.AddCommand(
		newServeCmd(),
		newVerifyCmd(),
		newVersionCmd(),
	)
}

// setup loads configuration and builds the container
func setup() (*container.Container, *logrus.Logger, error) {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.NewEnvironmentConfigLoader().Load()
	if err != nil {
		return nil, logger, fmt.Errorf("failed to load configuration: %w", err)
	}
	if topologyFile != "" {
		cfg.Agent.TopologyFile = topologyFile
	}

	level, _ := logrus.ParseLevel(cfg.Log.Level)
	logger.SetLevel(level)

	appContainer, err := container.NewContainer(cfg, logger)
	if err != nil {
		return nil, logger, fmt.Errorf("failed to create dependency injection container: %w", err)
	}
	return appContainer, logger, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("topolink %s\n", version)
		},
	}
}
