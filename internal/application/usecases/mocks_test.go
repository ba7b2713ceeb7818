package usecases

import (
	"context"
	"io"

	"topolink-agent/internal/domain/entities"
	"topolink-agent/internal/domain/interfaces"
	"topolink-agent/internal/domain/registry"
	"topolink-agent/internal/domain/services"
	"topolink-agent/internal/infrastructure/iproute"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"
)

// MockCommandRunner is a mock of interfaces.CommandRunner
type MockCommandRunner struct {
	mock.Mock
}

func (m *MockCommandRunner) Run(ctx context.Context, node entities.NodeContext, cmd interfaces.Command) (interfaces.CommandResult, error) {
	args := m.Called(ctx, node, cmd)
	return args.Get(0).(interfaces.CommandResult), args.Error(1)
}

// commandArgs matches a command by its argument list
func commandArgs(args ...string) interface{} {
	return mock.MatchedBy(func(cmd interfaces.Command) bool {
		if len(cmd.Args) != len(args) {
			return false
		}
		for i := range args {
			if cmd.Args[i] != args[i] {
				return false
			}
		}
		return true
	})
}

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

var nodeA = entities.NodeContext{Name: "nodeA", Namespace: "ns-a"}

// testEnv wires LinkOperations over a single-node session
type testEnv struct {
	session *registry.Session
	handle  *registry.NodeHandle
	ops     *LinkOperations
}

func newTestEnv(runner interfaces.CommandRunner) *testEnv {
	session := registry.NewSession()
	handle, err := session.AddNode(nodeA)
	if err != nil {
		panic(err)
	}
	logger := newTestLogger()
	executor := NewLinkExecutor(runner, iproute.NewCommands(""), logger)
	return &testEnv{
		session: session,
		handle:  handle,
		ops:     NewLinkOperations(session, executor, services.NewInterfaceNamingService(), logger),
	}
}

// withBasePort maps if01 to an existing eth1 in both the kernel and the registry
func (e *testEnv) withBasePort(kernel *fakeKernel) *testEnv {
	kernel.addPhysical(nodeA.Name, "eth1")
	if err := e.handle.Registry.Register("if01", entities.VirtualLink{
		Name: "eth1",
		Type: entities.LinkTypePlain,
		Kind: "veth",
	}); err != nil {
		panic(err)
	}
	return e
}
