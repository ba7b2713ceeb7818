package interfaces

import (
	"context"
	"strings"
	"time"

	"topolink-agent/internal/domain/entities"
)

// Command is a fully formed networking-management command, before it is
// placed in a node's execution context.
type Command struct {
	Name string
	Args []string
}

// String renders the command for logs and error messages
func (c Command) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// CommandResult is the raw outcome of a single command invocation
type CommandResult struct {
	ExitStatus int
	Stdout     string
	Stderr     string
}

// Success reports whether the command exited with status zero
func (r CommandResult) Success() bool {
	return r.ExitStatus == 0
}

// CommandRunner executes one command in a node's context
type CommandRunner interface {
	// Run executes the command once. A non-zero exit status is reported in the
	// result, not as an error; an error means the command could not be run to
	// completion (failed to start, timed out).
	Run(ctx context.Context, node entities.NodeContext, cmd Command) (CommandResult, error)
}

// FileSystem abstracts file access
type FileSystem interface {
	// ReadFile reads a file
	ReadFile(path string) ([]byte, error)

	// Exists reports whether a file or directory exists
	Exists(path string) bool
}

// Clock abstracts time
type Clock interface {
	// Now returns the current time
	Now() time.Time
}

// NamespaceChecker verifies that a named network namespace exists
type NamespaceChecker interface {
	NamespaceExists(name string) (bool, error)
}
