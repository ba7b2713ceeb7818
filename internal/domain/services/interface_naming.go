package services

import (
	"fmt"
	"regexp"
	"strconv"

	"topolink-agent/internal/domain/constants"
	"topolink-agent/internal/domain/entities"
	"topolink-agent/internal/domain/errors"
)

var invalidNameChars = regexp.MustCompile(`[^A-Za-z0-9_.\-]`)

// InterfaceNamingService derives real and logical names. The same request
// always yields the same names.
type InterfaceNamingService struct {
	separator string
}

// NewInterfaceNamingService creates a new InterfaceNamingService
func NewInterfaceNamingService() *InterfaceNamingService {
	return &InterfaceNamingService{separator: constants.VLANSeparator}
}

// VLANInterfaceName returns the kernel name of a VLAN sub-interface, e.g. eth1.10
func (s *InterfaceNamingService) VLANInterfaceName(base string, vlanID int) (string, error) {
	if !entities.IsValidVLANID(vlanID) {
		return "", errors.NewValidationError(
			fmt.Sprintf("vlan id %d out of range %d-%d", vlanID, constants.MinVLANID, constants.MaxVLANID),
			entities.ErrInvalidVLANID,
		)
	}

	name := base + s.separator + strconv.Itoa(vlanID)
	if !entities.IsValidInterfaceName(name) {
		return "", errors.NewValidationError(
			fmt.Sprintf("derived interface name %q is not a valid kernel name (max %d chars)", name, constants.MaxInterfaceNameLength),
			entities.ErrInvalidInterfaceName,
		)
	}
	return name, nil
}

// VLANPortName returns the logical port name of a VLAN, e.g. if01.10
func (s *InterfaceNamingService) VLANPortName(port string, vlanID int) string {
	return port + s.separator + strconv.Itoa(vlanID)
}

// PlainInterfaceName derives a kernel name for a plain link from its logical port
func (s *InterfaceNamingService) PlainInterfaceName(port string) (string, error) {
	name := invalidNameChars.ReplaceAllString(port, "-")
	if len(name) > constants.MaxInterfaceNameLength {
		name = name[:constants.MaxInterfaceNameLength]
	}
	if !entities.IsValidInterfaceName(name) {
		return "", errors.NewValidationError(
			fmt.Sprintf("cannot derive an interface name from port %q", port),
			entities.ErrInvalidInterfaceName,
		)
	}
	return name, nil
}
