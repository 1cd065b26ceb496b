package memds

import (
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/iterator"
)

var (
	_ graph.Directed = (*simpleDirectedGraphAdapter[int, int])(nil)
	_ graph.Node     = (*simpleNodeAdapter)(nil)
	_ graph.Edge     = (*simpleEdgeAdapter)(nil)
)

// simpleDirectedGraphAdapter exposes a DirectedGraph to gonum.
type simpleDirectedGraphAdapter[NodeData comparable, EdgeData any] struct {
	graph *DirectedGraph[NodeData, EdgeData]
}

func (g *simpleDirectedGraphAdapter[NodeData, EdgeData]) Edge(uid int64, vid int64) graph.Edge {
	if _, ok := g.graph.from[NodeId(uid)][NodeId(vid)]; !ok {
		return nil
	}
	return &simpleEdgeAdapter{from: NodeId(uid), to: NodeId(vid)}
}

func (g *simpleDirectedGraphAdapter[NodeData, EdgeData]) From(id int64) graph.Nodes {
	return nodesOf(g.graph.from[NodeId(id)])
}

func (g *simpleDirectedGraphAdapter[NodeData, EdgeData]) To(id int64) graph.Nodes {
	return nodesOf(g.graph.to[NodeId(id)])
}

func nodesOf[V any](ids map[NodeId]V) graph.Nodes {
	nodeMap := make(map[int64]graph.Node, len(ids))
	for id := range ids {
		nodeMap[int64(id)] = simpleNodeAdapter{id: id}
	}
	return iterator.NewNodes(nodeMap)
}

func (g *simpleDirectedGraphAdapter[NodeData, EdgeData]) HasEdgeBetween(xid int64, yid int64) bool {
	return g.HasEdgeFromTo(xid, yid) || g.HasEdgeFromTo(yid, xid)
}

func (g *simpleDirectedGraphAdapter[NodeData, EdgeData]) HasEdgeFromTo(uid int64, vid int64) bool {
	_, ok := g.graph.from[NodeId(uid)][NodeId(vid)]
	return ok
}

func (g *simpleDirectedGraphAdapter[NodeData, EdgeData]) Node(id int64) graph.Node {
	if _, ok := g.graph.nodes[NodeId(id)]; ok {
		return simpleNodeAdapter{id: NodeId(id)}
	}
	return nil
}

func (g *simpleDirectedGraphAdapter[NodeData, EdgeData]) Nodes() graph.Nodes {
	return nodesOf(g.graph.nodes)
}

type simpleNodeAdapter struct {
	id NodeId
}

func (s simpleNodeAdapter) ID() int64 {
	return int64(s.id)
}

type simpleEdgeAdapter struct {
	from, to NodeId
}

func (e *simpleEdgeAdapter) From() graph.Node {
	return simpleNodeAdapter{e.from}
}

func (e *simpleEdgeAdapter) To() graph.Node {
	return simpleNodeAdapter{e.to}
}

func (e *simpleEdgeAdapter) ReversedEdge() graph.Edge {
	return &simpleEdgeAdapter{from: e.to, to: e.from}
}
