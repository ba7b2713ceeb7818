package adapters

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRealNamespaceChecker_Missing(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("network namespaces are linux only")
	}

	checker := NewRealNamespaceChecker()
	exists, err := checker.NamespaceExists("topolink-test-does-not-exist")

	assert.NoError(t, err)
	assert.False(t, exists)
}
