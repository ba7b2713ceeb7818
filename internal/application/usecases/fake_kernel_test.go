package usecases

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"topolink-agent/internal/domain/entities"
	"topolink-agent/internal/domain/interfaces"
)

type fakeLink struct {
	name   string
	kind   string
	parent string
	vlanID int
	up     bool
	index  int
}

// fakeKernel is a CommandRunner that interprets the ip commands the use cases
// issue against an in-memory link table per node.
type fakeKernel struct {
	mu        sync.Mutex
	nodes     map[string]map[string]*fakeLink
	nextIndex int

	// failures maps a command prefix to the result returned instead of running it
	failures map[string]interfaces.CommandResult
	// ignoreUp leaves links down when asked to bring them up
	ignoreUp bool
	// before runs before each command, outside the kernel lock
	before func(cmd interfaces.Command)

	commands []string
}

func newFakeKernel() *fakeKernel {
	return &fakeKernel{
		nodes:     make(map[string]map[string]*fakeLink),
		nextIndex: 2,
		failures:  make(map[string]interfaces.CommandResult),
	}
}

// addPhysical adds a pre-existing veth-style interface to a node
func (k *fakeKernel) addPhysical(node, name string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.table(node)[name] = &fakeLink{name: name, kind: "veth", up: true, index: k.index()}
}

func (k *fakeKernel) failOn(prefix string, stderr string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.failures[prefix] = interfaces.CommandResult{ExitStatus: 2, Stderr: stderr}
}

func (k *fakeKernel) exists(node, name string) bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	_, ok := k.table(node)[name]
	return ok
}

func (k *fakeKernel) issued() []string {
	k.mu.Lock()
	defer k.mu.Unlock()
	return append([]string(nil), k.commands...)
}

func (k *fakeKernel) table(node string) map[string]*fakeLink {
	t, ok := k.nodes[node]
	if !ok {
		t = make(map[string]*fakeLink)
		k.nodes[node] = t
	}
	return t
}

func (k *fakeKernel) index() int {
	k.nextIndex++
	return k.nextIndex
}

func (k *fakeKernel) Run(_ context.Context, node entities.NodeContext, cmd interfaces.Command) (interfaces.CommandResult, error) {
	if k.before != nil {
		k.before(cmd)
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	line := strings.Join(cmd.Args, " ")
	k.commands = append(k.commands, line)
	for prefix, result := range k.failures {
		if strings.HasPrefix(line, prefix) {
			return result, nil
		}
	}

	table := k.table(node.Name)
	args := cmd.Args

	switch {
	case len(args) >= 10 && args[0] == "link" && args[1] == "add" && args[2] == "link":
		parent, name := args[3], args[5]
		if _, ok := table[parent]; !ok {
			return notFound(parent), nil
		}
		if _, ok := table[name]; ok {
			return fileExists(), nil
		}
		id, _ := strconv.Atoi(args[9])
		table[name] = &fakeLink{name: name, kind: "vlan", parent: parent, vlanID: id, index: k.index()}

	case len(args) >= 6 && args[0] == "link" && args[1] == "add" && args[2] == "name":
		name := args[3]
		if _, ok := table[name]; ok {
			return fileExists(), nil
		}
		table[name] = &fakeLink{name: name, kind: args[5], index: k.index()}

	case len(args) == 5 && args[0] == "link" && args[1] == "set":
		link, ok := table[args[3]]
		if !ok {
			return notFound(args[3]), nil
		}
		if args[4] == "down" || !k.ignoreUp {
			link.up = args[4] == "up"
		}

	case len(args) == 4 && args[0] == "link" && args[1] == "del":
		name := args[3]
		if _, ok := table[name]; !ok {
			return notFound(name), nil
		}
		delete(table, name)
		for child, link := range table {
			if link.parent == name {
				delete(table, child)
			}
		}

	case len(args) == 6 && args[3] == "show":
		link, ok := table[args[5]]
		if !ok {
			return interfaces.CommandResult{ExitStatus: 1, Stderr: fmt.Sprintf("Device \"%s\" does not exist.\n", args[5])}, nil
		}
		return interfaces.CommandResult{Stdout: render(link)}, nil

	case len(args) == 4 && args[3] == "show":
		links := make([]*fakeLink, 0, len(table))
		for _, link := range table {
			links = append(links, link)
		}
		sort.Slice(links, func(i, j int) bool { return links[i].index < links[j].index })
		var b strings.Builder
		for _, link := range links {
			b.WriteString(render(link))
		}
		return interfaces.CommandResult{Stdout: b.String()}, nil

	case len(args) == 5 && args[0] == "addr" && args[1] == "add":
		if _, ok := table[args[4]]; !ok {
			return notFound(args[4]), nil
		}

	default:
		return interfaces.CommandResult{ExitStatus: 255, Stderr: "Command \"" + line + "\" is unknown\n"}, nil
	}

	return interfaces.CommandResult{}, nil
}

func notFound(name string) interfaces.CommandResult {
	return interfaces.CommandResult{ExitStatus: 1, Stderr: fmt.Sprintf("Cannot find device \"%s\"\n", name)}
}

func fileExists() interfaces.CommandResult {
	return interfaces.CommandResult{ExitStatus: 2, Stderr: "RTNETLINK answers: File exists\n"}
}

func render(link *fakeLink) string {
	flags := "BROADCAST,MULTICAST"
	state := "DOWN"
	if link.up {
		flags += ",UP,LOWER_UP"
		state = "UP"
	}
	name := link.name
	if link.parent != "" {
		name += "@" + link.parent
	}
	header := fmt.Sprintf("%d: %s: <%s> mtu 1500 qdisc noqueue state %s mode DEFAULT group default qlen 1000", link.index, name, flags, state)
	details := `\    link/ether 02:42:ac:11:00:02 brd ff:ff:ff:ff:ff:ff promiscuity 0 minmtu 0 maxmtu 65535 `
	kind := `\    ` + link.kind + ` addrgenmode eui64 numtxqueues 1`
	if link.kind == "vlan" {
		kind = fmt.Sprintf(`\    vlan protocol 802.1Q id %d <REORDER_HDR> addrgenmode eui64 numtxqueues 1`, link.vlanID)
	}
	return header + details + kind + "\n"
}
