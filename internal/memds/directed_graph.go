package memds

import (
	"errors"
	"slices"

	"golang.org/x/exp/maps"
)

var (
	ErrSelfEdgeNotSupported = errors.New("self edge not supported")
	ErrSrcNodeNotExist      = errors.New("source node does not exist")
	ErrDestNodeNotExist     = errors.New("destination node does not exist")
)

type NodeId int64

type GraphNode[NodeData any] struct {
	Id   NodeId
	Data NodeData
}

// DirectedGraph is a directed graph whose nodes are identified by their data: two nodes cannot
// have the same data. It is not thread safe.
type DirectedGraph[NodeData comparable, EdgeData any] struct {
	nodes  map[NodeId]GraphNode[NodeData]
	byData map[NodeData]NodeId

	//source node -> destination nodes
	from map[NodeId]map[NodeId]EdgeData

	//destination node -> source nodes
	to map[NodeId]map[NodeId]EdgeData

	currId       NodeId
	availableIds []NodeId
}

func NewDirectedGraph[NodeData comparable, EdgeData any]() *DirectedGraph[NodeData, EdgeData] {
	return &DirectedGraph[NodeData, EdgeData]{
		nodes:  make(map[NodeId]GraphNode[NodeData]),
		byData: make(map[NodeData]NodeId),
		from:   make(map[NodeId]map[NodeId]EdgeData),
		to:     make(map[NodeId]map[NodeId]EdgeData),
		currId: -1,
	}
}

// EnsureNode returns the id of the node with the given data, the node is created if necessary.
// Node ids start at 0, the ids of removed nodes are reused.
func (g *DirectedGraph[NodeData, EdgeData]) EnsureNode(data NodeData) NodeId {
	if id, ok := g.byData[data]; ok {
		return id
	}

	var id NodeId
	if len(g.availableIds) == 0 {
		g.currId++
		id = g.currId
	} else {
		id = g.availableIds[0]
		//shift
		copy(g.availableIds, g.availableIds[1:])
		g.availableIds = g.availableIds[:len(g.availableIds)-1]
	}

	g.nodes[id] = GraphNode[NodeData]{Id: id, Data: data}
	g.byData[data] = id
	return id
}

// NodeData returns the data of the node with the given id if it exists in the graph.
func (g *DirectedGraph[NodeData, EdgeData]) NodeData(id NodeId) (_ NodeData, _ bool) {
	node, ok := g.nodes[id]
	if ok {
		return node.Data, true
	}
	return
}

// NodeWithData returns the id of the node holding data.
func (g *DirectedGraph[NodeData, EdgeData]) NodeWithData(data NodeData) (NodeId, bool) {
	id, ok := g.byData[data]
	return id, ok
}

// AncestorIds returns the ids of the nodes that can reach id through one or more edges, in breadth-first order.
func (g *DirectedGraph[NodeData, EdgeData]) AncestorIds(id NodeId) []NodeId {
	visited := map[NodeId]bool{id: true}
	queue := []NodeId{id}
	var ancestors []NodeId

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, src := range sortedKeys(g.to[current]) {
			if visited[src] {
				continue
			}
			visited[src] = true
			ancestors = append(ancestors, src)
			queue = append(queue, src)
		}
	}
	return ancestors
}

func sortedKeys[V any](m map[NodeId]V) []NodeId {
	if len(m) == 0 {
		return nil
	}
	keys := maps.Keys(m)
	slices.Sort(keys)
	return keys
}

// SetEdge adds an edge from one node to another, the nodes must exist.
// It panics if the target node is the same as the source node.
func (g *DirectedGraph[NodeData, EdgeData]) SetEdge(from, to NodeId, data EdgeData) {
	if from == to {
		panic(ErrSelfEdgeNotSupported)
	}
	if _, ok := g.nodes[from]; !ok {
		panic(ErrSrcNodeNotExist)
	}
	if _, ok := g.nodes[to]; !ok {
		panic(ErrDestNodeNotExist)
	}

	//add edge in mapping SOURCE -> DESTINATION
	if fromMap, ok := g.from[from]; ok {
		fromMap[to] = data
	} else {
		g.from[from] = map[NodeId]EdgeData{to: data}
	}

	//add edge in mapping DESTINATION -> SOURCE
	if toMap, ok := g.to[to]; ok {
		toMap[from] = data
	} else {
		g.to[to] = map[NodeId]EdgeData{from: data}
	}
}

// RemoveNode removes the node with the given id from the graph, as well as any edges attached
// to it. If the node is not in the graph it is a no-op.
func (g *DirectedGraph[NodeData, EdgeData]) RemoveNode(id NodeId) {
	node, ok := g.nodes[id]
	if !ok {
		return
	}
	delete(g.nodes, id)
	delete(g.byData, node.Data)

	for dest := range g.from[id] {
		delete(g.to[dest], id)
	}
	delete(g.from, id)

	for src := range g.to[id] {
		delete(g.from[src], id)
	}
	delete(g.to, id)

	g.availableIds = append(g.availableIds, id)
}
