package adapters

import (
	stderrors "errors"
	"fmt"
	"io/fs"

	"topolink-agent/internal/domain/errors"
	"topolink-agent/internal/domain/interfaces"

	"github.com/vishvananda/netns"
)

// RealNamespaceChecker resolves named network namespaces under /var/run/netns
type RealNamespaceChecker struct{}

// NewRealNamespaceChecker creates a new RealNamespaceChecker
func NewRealNamespaceChecker() interfaces.NamespaceChecker {
	return &RealNamespaceChecker{}
}

// NamespaceExists opens the namespace handle and closes it again
func (c *RealNamespaceChecker) NamespaceExists(name string) (bool, error) {
	handle, err := netns.GetFromName(name)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, errors.NewSystemError(fmt.Sprintf("failed to open network namespace %q", name), err)
	}
	defer handle.Close()

	return handle.IsOpen(), nil
}
