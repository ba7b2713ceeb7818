package iproute

import (
	"bufio"
	"regexp"
	"strconv"
	"strings"

	"topolink-agent/internal/domain/entities"

	"github.com/samber/lo"
)

// FailureKind classifies the stderr of a failed ip command
type FailureKind string

const (
	FailureNotFound   FailureKind = "not_found"
	FailureExists     FailureKind = "exists"
	FailurePermission FailureKind = "permission"
	FailureBusy       FailureKind = "busy"
	FailureNamespace  FailureKind = "namespace"
	FailureUnknown    FailureKind = "unknown"
)

// header matches "5: eth1.10@eth1: <BROADCAST,MULTICAST,UP,LOWER_UP> mtu 1500 ..."
var headerRegex = regexp.MustCompile(`^\s*(\d+):\s+([^:\s]+):\s+<([^>]*)>(.*)$`)

var recordStartRegex = regexp.MustCompile(`^\d+:\s`)

// kinds that ip -d prints as the leading token of the link-info section
var knownKinds = map[string]bool{
	"vlan": true, "veth": true, "dummy": true, "bridge": true, "bond": true,
	"macvlan": true, "macvtap": true, "ipvlan": true, "vxlan": true, "tun": true,
	"team": true, "vrf": true, "gre": true, "gretap": true, "ipip": true,
	"sit": true, "geneve": true, "wireguard": true, "ifb": true, "nlmon": true,
}

// ParseLinkListing parses `ip [-d] [-o] link show` output. Unrecognized tokens
// are ignored and empty output yields no links.
func ParseLinkListing(stdout string) []entities.VirtualLink {
	var links []entities.VirtualLink
	for _, record := range splitRecords(stdout) {
		if link, ok := parseRecord(record); ok {
			links = append(links, link)
		}
	}
	return links
}

// FindLink returns the named link from a listing
func FindLink(stdout, name string) (entities.VirtualLink, bool) {
	return lo.Find(ParseLinkListing(stdout), func(l entities.VirtualLink) bool {
		return l.Name == name
	})
}

// InterfaceExists reports whether the listing contains the named interface
func InterfaceExists(stdout, name string) bool {
	_, ok := FindLink(stdout, name)
	return ok
}

// ClassifyFailure maps ip error text to a FailureKind
func ClassifyFailure(stderr string) FailureKind {
	s := strings.ToLower(stderr)
	switch {
	case strings.Contains(s, "cannot open network namespace"):
		return FailureNamespace
	case strings.Contains(s, "cannot find device"), strings.Contains(s, "does not exist"),
		strings.Contains(s, "no such device"):
		return FailureNotFound
	case strings.Contains(s, "file exists"):
		return FailureExists
	case strings.Contains(s, "operation not permitted"), strings.Contains(s, "permission denied"):
		return FailurePermission
	case strings.Contains(s, "device or resource busy"):
		return FailureBusy
	default:
		return FailureUnknown
	}
}

// splitRecords groups output into one segment list per link. In -o mode the
// sections of a link are joined by a backslash; otherwise continuation lines
// are indented.
func splitRecords(stdout string) [][]string {
	var records [][]string
	scanner := bufio.NewScanner(strings.NewReader(stdout))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		segments := strings.Split(line, `\`)
		if recordStartRegex.MatchString(line) {
			records = append(records, segments)
			continue
		}
		if len(records) == 0 {
			// noise before the first link, e.g. warnings
			continue
		}
		last := len(records) - 1
		records[last] = append(records[last], segments...)
	}
	return records
}

func parseRecord(segments []string) (entities.VirtualLink, bool) {
	m := headerRegex.FindStringSubmatch(segments[0])
	if m == nil {
		return entities.VirtualLink{}, false
	}

	link := entities.VirtualLink{Type: entities.LinkTypePlain}
	name, parent, _ := strings.Cut(m[2], "@")
	link.Name = name

	flags := strings.Split(m[3], ",")
	link.AdminUp = lo.Contains(flags, "UP")
	link.State = entities.LinkState(valueAfter(strings.Fields(m[4]), "state"))

	for _, segment := range segments[1:] {
		fields := strings.Fields(segment)
		if len(fields) == 0 || !knownKinds[fields[0]] {
			continue
		}
		link.Kind = fields[0]
		if link.Kind == "vlan" {
			link.Type = entities.LinkTypeVLAN
			if id, err := strconv.Atoi(valueAfter(fields, "id")); err == nil {
				link.VLANID = id
			}
		}
		break
	}

	if link.Type == entities.LinkTypeVLAN {
		link.Parent = parent
	}
	return link, true
}

func valueAfter(fields []string, key string) string {
	for i := 0; i+1 < len(fields); i++ {
		if fields[i] == key {
			return fields[i+1]
		}
	}
	return ""
}
