package usecases

import (
	"context"

	"topolink-agent/internal/domain/entities"
	"topolink-agent/internal/domain/registry"
	"topolink-agent/internal/domain/services"

	"github.com/sirupsen/logrus"
)

// LinkOperations is the logical API consumed by topology test scripts
type LinkOperations struct {
	session *registry.Session

	createPlain *CreatePlainLinkUseCase
	createVLAN  *CreateVLANLinkUseCase
	remove      *RemoveLinkUseCase
	bind        *BindPortUseCase
	unbind      *UnbindPortUseCase
	configure   *ConfigureInterfaceUseCase
	verify      *VerifyPortsUseCase
}

// NewLinkOperations wires every use case around one session
func NewLinkOperations(
	session *registry.Session,
	executor *LinkExecutor,
	naming *services.InterfaceNamingService,
	logger *logrus.Logger,
) *LinkOperations {
	return &LinkOperations{
		session:     session,
		createPlain: NewCreatePlainLinkUseCase(session, executor, naming, logger),
		createVLAN:  NewCreateVLANLinkUseCase(session, executor, naming, logger),
		remove:      NewRemoveLinkUseCase(session, executor, logger),
		bind:        NewBindPortUseCase(session, executor, logger),
		unbind:      NewUnbindPortUseCase(session, logger),
		configure:   NewConfigureInterfaceUseCase(session, executor, logger),
		verify:      NewVerifyPortsUseCase(session, executor, logger),
	}
}

// Session returns the session backing these operations
func (o *LinkOperations) Session() *registry.Session {
	return o.session
}

// CreatePlainLink creates a plain link for logicalPort and returns its real name
func (o *LinkOperations) CreatePlainLink(ctx context.Context, node, logicalPort string) (string, error) {
	out, err := o.createPlain.Execute(ctx, CreatePlainLinkInput{NodeName: node, LogicalPort: logicalPort})
	if err != nil {
		return "", err
	}
	return out.RealName, nil
}

// CreatePlainLinkNamed creates a plain link with an explicit real name
func (o *LinkOperations) CreatePlainLinkNamed(ctx context.Context, node, logicalPort, realName string) (*CreateLinkOutput, error) {
	return o.createPlain.Execute(ctx, CreatePlainLinkInput{NodeName: node, LogicalPort: logicalPort, RealName: realName})
}

// CreateVLANLink creates a VLAN on top of logicalPort and returns the new port's mapping
func (o *LinkOperations) CreateVLANLink(ctx context.Context, node, logicalPort string, vlanID int) (*CreateLinkOutput, error) {
	return o.createVLAN.Execute(ctx, CreateVLANLinkInput{NodeName: node, LogicalPort: logicalPort, VLANID: vlanID})
}

// RemoveLinkTypeVLAN removes a VLAN port and returns the deleted real name
func (o *LinkOperations) RemoveLinkTypeVLAN(ctx context.Context, node, logicalPort string) (string, error) {
	return o.removeLink(ctx, node, logicalPort, entities.LinkTypeVLAN)
}

// RemovePlainLink removes a plain port and returns the deleted real name
func (o *LinkOperations) RemovePlainLink(ctx context.Context, node, logicalPort string) (string, error) {
	return o.removeLink(ctx, node, logicalPort, entities.LinkTypePlain)
}

func (o *LinkOperations) removeLink(ctx context.Context, node, logicalPort string, linkType entities.LinkType) (string, error) {
	out, err := o.remove.Execute(ctx, RemoveLinkInput{NodeName: node, LogicalPort: logicalPort, Type: linkType})
	if err != nil {
		return "", err
	}
	return out.RealName, nil
}

// ResolvePort returns the real interface name of a logical port
func (o *LinkOperations) ResolvePort(node, logicalPort string) (string, error) {
	link, err := o.session.Resolve(node, logicalPort)
	if err != nil {
		return "", err
	}
	return link.Name, nil
}

// BindPort maps logicalPort to an interface that already exists
func (o *LinkOperations) BindPort(ctx context.Context, node, logicalPort, realName string) (*CreateLinkOutput, error) {
	return o.bind.Execute(ctx, BindPortInput{NodeName: node, LogicalPort: logicalPort, RealName: realName})
}

// UnbindPort unregisters a bound port and returns its real name, leaving the interface in place
func (o *LinkOperations) UnbindPort(ctx context.Context, node, logicalPort string) (string, error) {
	out, err := o.unbind.Execute(ctx, UnbindPortInput{NodeName: node, LogicalPort: logicalPort})
	if err != nil {
		return "", err
	}
	return out.RealName, nil
}

// ConfigureInterface assigns an address and/or admin state to a port's interface
func (o *LinkOperations) ConfigureInterface(ctx context.Context, input ConfigureInterfaceInput) (*ConfigureInterfaceOutput, error) {
	return o.configure.Execute(ctx, input)
}

// VerifyPorts checks a node's mapped ports against the kernel
func (o *LinkOperations) VerifyPorts(ctx context.Context, node string) (*VerifyPortsOutput, error) {
	return o.verify.Execute(ctx, VerifyPortsInput{NodeName: node})
}

// Ports returns the node's current mappings
func (o *LinkOperations) Ports(node string) ([]entities.PortMapping, error) {
	handle, err := o.session.Node(node)
	if err != nil {
		return nil, err
	}
	return handle.Registry.Ports(), nil
}
