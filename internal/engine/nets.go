package engine

import (
	"sort"
	"strings"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/piwi3910/SchemTrace/internal/model"
)

// netNamespace seeds the deterministic IDs of nets nobody named.
var netNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("schemtrace/net"))

// Net is a set of pins that must end up electrically connected.
type Net struct {
	ID string
	// UserNetIDs lists every explicit netId that contributed to the net.
	UserNetIDs []string
	// PinIDs are in first-seen order across the connection lists.
	PinIDs []string
	// FromNetConnection is set when any netConnection names the net. Such
	// nets always get a label.
	FromNetConnection bool
	LabelWidth        float64
}

// GroupNets merges every direct and net connection into nets: the
// connected components of the pin graph. Connections sharing a netId join
// the same net. Output order follows the first pin of each net.
func GroupNets(p model.InputProblem) []Net {
	order := map[string]int{}
	var pins []string
	node := func(id string) int64 {
		if i, ok := order[id]; ok {
			return int64(i)
		}
		order[id] = len(pins)
		pins = append(pins, id)
		return int64(len(pins) - 1)
	}

	g := simple.NewUndirectedGraph()
	link := func(a, b int64) {
		if g.Node(a) == nil {
			g.AddNode(simple.Node(a))
		}
		if g.Node(b) == nil {
			g.AddNode(simple.Node(b))
		}
		if a != b {
			g.SetEdge(g.NewEdge(simple.Node(a), simple.Node(b)))
		}
	}

	byName := map[string]int64{}
	joinName := func(name string, n int64) {
		if name == "" {
			return
		}
		if first, ok := byName[name]; ok {
			link(first, n)
			return
		}
		byName[name] = n
	}

	for _, dc := range p.DirectConnections {
		a, b := node(dc.PinIDs[0]), node(dc.PinIDs[1])
		link(a, b)
		joinName(dc.NetID, a)
	}
	for _, nc := range p.NetConnections {
		if len(nc.PinIDs) == 0 {
			continue
		}
		first := node(nc.PinIDs[0])
		link(first, first)
		for _, id := range nc.PinIDs[1:] {
			link(first, node(id))
		}
		joinName(nc.NetID, first)
	}

	components := topo.ConnectedComponents(g)
	groups := make([][]int, 0, len(components))
	for _, comp := range components {
		idx := nodeIndexes(comp)
		sort.Ints(idx)
		groups = append(groups, idx)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i][0] < groups[j][0] })

	nets := make([]Net, 0, len(groups))
	for _, grp := range groups {
		member := make(map[string]bool, len(grp))
		n := Net{}
		for _, i := range grp {
			n.PinIDs = append(n.PinIDs, pins[i])
			member[pins[i]] = true
		}
		describeNet(&n, p, member)
		nets = append(nets, n)
	}
	return nets
}

func nodeIndexes(nodes []graph.Node) []int {
	out := make([]int, len(nodes))
	for i, n := range nodes {
		out[i] = int(n.ID())
	}
	return out
}

// describeNet fills in the naming fields from the connections whose pins
// belong to the net.
func describeNet(n *Net, p model.InputProblem, member map[string]bool) {
	seen := map[string]bool{}
	addUserID := func(id string) {
		if id != "" && !seen[id] {
			seen[id] = true
			n.UserNetIDs = append(n.UserNetIDs, id)
		}
	}

	var fromNet, fromDirect string
	for _, nc := range p.NetConnections {
		if len(nc.PinIDs) == 0 || !member[nc.PinIDs[0]] {
			continue
		}
		n.FromNetConnection = true
		if fromNet == "" {
			fromNet = nc.NetID
		}
		if nc.NetLabelWidth > n.LabelWidth {
			n.LabelWidth = nc.NetLabelWidth
		}
		addUserID(nc.NetID)
	}
	for _, dc := range p.DirectConnections {
		if !member[dc.PinIDs[0]] {
			continue
		}
		if fromDirect == "" {
			fromDirect = dc.NetID
		}
		addUserID(dc.NetID)
	}

	switch {
	case fromNet != "":
		n.ID = fromNet
	case fromDirect != "":
		n.ID = fromDirect
	default:
		sorted := append([]string(nil), n.PinIDs...)
		sort.Strings(sorted)
		id := uuid.NewSHA1(netNamespace, []byte(strings.Join(sorted, "\x00")))
		n.ID = "net-" + id.String()[:8]
	}
}
