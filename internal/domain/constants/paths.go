package constants

// Command binaries
const (
	DefaultIPBinary     = "ip"
	DefaultDockerBinary = "docker"
)

// Interface naming
const (
	// VLANSeparator joins a base name and a VLAN id, e.g. eth1.10 / if01.10
	VLANSeparator = "."

	// MaxInterfaceNameLength is IFNAMSIZ minus the trailing NUL
	MaxInterfaceNameLength = 15

	// PlainLinkKind is the kernel link kind used for plain links
	PlainLinkKind = "dummy"

	MinVLANID = 1
	MaxVLANID = 4094
)

// Defaults
const (
	DefaultCommandTimeout  = 10 // seconds
	DefaultShutdownTimeout = 5  // seconds
	DefaultLogLevel        = "info"
	DefaultHTTPPort        = "8080"

	// DefaultVerifyMaxInterval caps the backoff of periodic verification
	DefaultVerifyMaxInterval = 600 // seconds
)
