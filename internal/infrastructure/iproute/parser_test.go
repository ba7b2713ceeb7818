package iproute

import (
	"testing"

	"topolink-agent/internal/domain/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const oneLineListing = `1: lo: <LOOPBACK,UP,LOWER_UP> mtu 65536 qdisc noqueue state UNKNOWN mode DEFAULT group default qlen 1000\    link/loopback 00:00:00:00:00:00 brd 00:00:00:00:00:00 promiscuity 0 minmtu 0 maxmtu 0 addrgenmode eui64 numtxqueues 1 numrxqueues 1
7: eth1@if8: <BROADCAST,MULTICAST,UP,LOWER_UP> mtu 1500 qdisc noqueue state UP mode DEFAULT group default qlen 1000\    link/ether 02:42:ac:11:00:02 brd ff:ff:ff:ff:ff:ff link-netnsid 0 promiscuity 0 minmtu 68 maxmtu 65535 \    veth addrgenmode eui64 numtxqueues 1 numrxqueues 1 gso_max_size 65536 gso_max_segs 65535
9: eth1.10@eth1: <BROADCAST,MULTICAST,UP,LOWER_UP> mtu 1500 qdisc noqueue state UP mode DEFAULT group default qlen 1000\    link/ether 02:42:ac:11:00:02 brd ff:ff:ff:ff:ff:ff promiscuity 0 minmtu 0 maxmtu 65535 \    vlan protocol 802.1Q id 10 <REORDER_HDR> addrgenmode eui64 numtxqueues 1 numrxqueues 1
10: p2: <BROADCAST,NOARP> mtu 1500 qdisc noop state DOWN mode DEFAULT group default qlen 1000\    link/ether 6e:8b:4c:07:39:1d brd ff:ff:ff:ff:ff:ff promiscuity 0 minmtu 0 maxmtu 0 \    dummy addrgenmode eui64 numtxqueues 1 numrxqueues 1
`

const multiLineListing = `Warning: some future iproute2 banner
9: eth1.20@eth1: <BROADCAST,MULTICAST> mtu 1500 qdisc noop state DOWN mode DEFAULT group default qlen 1000
    link/ether 02:42:ac:11:00:02 brd ff:ff:ff:ff:ff:ff promiscuity 0 minmtu 0 maxmtu 65535 newfield 42
    vlan protocol 802.1Q id 20 <REORDER_HDR> addrgenmode eui64 numtxqueues 1
    altname enp0s1-20
`

func TestParseLinkListing_OneLine(t *testing.T) {
	links := ParseLinkListing(oneLineListing)
	require.Len(t, links, 4)

	assert.Equal(t, entities.VirtualLink{
		Name: "lo", Type: entities.LinkTypePlain, State: entities.LinkStateUnknown, AdminUp: true,
	}, links[0])

	assert.Equal(t, entities.VirtualLink{
		Name: "eth1", Type: entities.LinkTypePlain, Kind: "veth", State: entities.LinkStateUp, AdminUp: true,
	}, links[1])

	assert.Equal(t, entities.VirtualLink{
		Name: "eth1.10", Type: entities.LinkTypeVLAN, Parent: "eth1", VLANID: 10,
		Kind: "vlan", State: entities.LinkStateUp, AdminUp: true,
	}, links[2])

	assert.Equal(t, "dummy", links[3].Kind)
	assert.False(t, links[3].AdminUp)
	assert.Equal(t, entities.LinkStateDown, links[3].State)
}

func TestParseLinkListing_MultiLineWithUnknownFields(t *testing.T) {
	links := ParseLinkListing(multiLineListing)
	require.Len(t, links, 1)

	link := links[0]
	assert.Equal(t, "eth1.20", link.Name)
	assert.Equal(t, entities.LinkTypeVLAN, link.Type)
	assert.Equal(t, "eth1", link.Parent)
	assert.Equal(t, 20, link.VLANID)
	assert.False(t, link.AdminUp)
}

func TestParseLinkListing_Empty(t *testing.T) {
	assert.Empty(t, ParseLinkListing(""))
	assert.Empty(t, ParseLinkListing("\n\n"))
	assert.Empty(t, ParseLinkListing("garbage that is not a listing"))
}

func TestParseLinkListing_Deterministic(t *testing.T) {
	assert.Equal(t, ParseLinkListing(oneLineListing), ParseLinkListing(oneLineListing))
}

func TestInterfaceExists(t *testing.T) {
	assert.True(t, InterfaceExists(oneLineListing, "eth1"))
	assert.True(t, InterfaceExists(oneLineListing, "eth1.10"))
	assert.False(t, InterfaceExists(oneLineListing, "eth1.1"))
	assert.False(t, InterfaceExists(oneLineListing, "if8"))
	assert.False(t, InterfaceExists("", "eth1"))
}

func TestFindLink(t *testing.T) {
	link, ok := FindLink(oneLineListing, "p2")
	require.True(t, ok)
	assert.Equal(t, entities.LinkTypePlain, link.Type)

	_, ok = FindLink(oneLineListing, "missing")
	assert.False(t, ok)
}

func TestClassifyFailure(t *testing.T) {
	tests := []struct {
		stderr string
		want   FailureKind
	}{
		{`Cannot find device "eth9"`, FailureNotFound},
		{`Device "eth9" does not exist.`, FailureNotFound},
		{"RTNETLINK answers: File exists", FailureExists},
		{"RTNETLINK answers: Operation not permitted", FailurePermission},
		{"RTNETLINK answers: Device or resource busy", FailureBusy},
		{`Cannot open network namespace "ns1": No such file or directory`, FailureNamespace},
		{"", FailureUnknown},
		{"something new", FailureUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.stderr, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyFailure(tt.stderr))
		})
	}
}

func TestCommands(t *testing.T) {
	c := NewCommands("")

	assert.Equal(t, "ip link add link eth1 name eth1.10 type vlan id 10", c.AddVLAN("eth1", "eth1.10", 10).String())
	assert.Equal(t, "ip link add name p1 type dummy", c.AddLink("p1", "dummy").String())
	assert.Equal(t, "ip link del dev eth1.10", c.DeleteLink("eth1.10").String())
	assert.Equal(t, "ip link set dev eth1 up", c.SetLinkState("eth1", true).String())
	assert.Equal(t, "ip link set dev eth1 down", c.SetLinkState("eth1", false).String())
	assert.Equal(t, "ip -d -o link show dev eth1", c.ShowLink("eth1").String())
	assert.Equal(t, "ip -d -o link show", c.ListLinks().String())
	assert.Equal(t, "ip addr add 10.0.0.1/24 dev eth1", c.AddAddress("10.0.0.1/24", "eth1").String())

	custom := NewCommands("/sbin/ip")
	assert.Equal(t, "/sbin/ip", custom.ListLinks().Name)
}
