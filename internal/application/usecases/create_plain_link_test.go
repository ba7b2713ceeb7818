package usecases

import (
	"context"
	"testing"

	"topolink-agent/internal/domain/entities"
	"topolink-agent/internal/domain/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePlainLink(t *testing.T) {
	tests := []struct {
		name     string
		input    CreatePlainLinkInput
		wantName string
	}{
		{
			name:     "name derived from port",
			input:    CreatePlainLinkInput{NodeName: "nodeA", LogicalPort: "mgmt0"},
			wantName: "mgmt0",
		},
		{
			name:     "invalid characters replaced",
			input:    CreatePlainLinkInput{NodeName: "nodeA", LogicalPort: "if:01"},
			wantName: "if-01",
		},
		{
			name:     "long port truncated",
			input:    CreatePlainLinkInput{NodeName: "nodeA", LogicalPort: "a-really-long-port-name"},
			wantName: "a-really-long-p",
		},
		{
			name:     "explicit real name",
			input:    CreatePlainLinkInput{NodeName: "nodeA", LogicalPort: "uplink", RealName: "dum0"},
			wantName: "dum0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kernel := newFakeKernel()
			env := newTestEnv(kernel)

			out, err := env.ops.createPlain.Execute(context.Background(), tt.input)
			require.NoError(t, err)

			assert.Equal(t, tt.wantName, out.RealName)
			assert.Equal(t, entities.LinkTypePlain, out.Link.Type)
			assert.True(t, kernel.exists("nodeA", tt.wantName))
			assert.Equal(t, "link add name "+tt.wantName+" type dummy", kernel.issued()[0])

			resolved, err := env.session.Resolve("nodeA", tt.input.LogicalPort)
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, resolved.Name)
		})
	}
}

func TestCreatePlainLink_Rejected(t *testing.T) {
	tests := []struct {
		name      string
		input     CreatePlainLinkInput
		checkType func(error) bool
	}{
		{
			name:      "blank port",
			input:     CreatePlainLinkInput{NodeName: "nodeA", LogicalPort: " "},
			checkType: errors.IsValidationError,
		},
		{
			name:      "invalid explicit name",
			input:     CreatePlainLinkInput{NodeName: "nodeA", LogicalPort: "p1", RealName: "bad name"},
			checkType: errors.IsValidationError,
		},
		{
			name:      "unknown node",
			input:     CreatePlainLinkInput{NodeName: "nodeB", LogicalPort: "p1"},
			checkType: errors.IsNotFoundError,
		},
		{
			name:      "port already mapped",
			input:     CreatePlainLinkInput{NodeName: "nodeA", LogicalPort: "if01", RealName: "dum1"},
			checkType: errors.IsDuplicateError,
		},
		{
			name:      "interface already mapped",
			input:     CreatePlainLinkInput{NodeName: "nodeA", LogicalPort: "p2", RealName: "eth1"},
			checkType: errors.IsDuplicateError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kernel := newFakeKernel()
			env := newTestEnv(kernel).withBasePort(kernel)

			_, err := env.ops.createPlain.Execute(context.Background(), tt.input)

			require.Error(t, err)
			assert.True(t, tt.checkType(err), "unexpected error: %v", err)
			assert.Empty(t, kernel.issued())
		})
	}
}

func TestCreatePlainLink_LeftDownIsCompensated(t *testing.T) {
	kernel := newFakeKernel()
	kernel.ignoreUp = true
	env := newTestEnv(kernel)

	_, err := env.ops.CreatePlainLink(context.Background(), "nodeA", "mgmt0")

	assert.True(t, errors.IsCommandFailedError(err))
	assert.False(t, kernel.exists("nodeA", "mgmt0"))
	assert.Equal(t, 0, env.handle.Registry.Len())
}
