package memds

import (
	"gonum.org/v1/gonum/graph/topo"
)

// Cycles returns the elementary cycles of the graph, each cycle lists the data of its nodes
// starting from the node with the lowest id.
func (g *DirectedGraph[NodeData, EdgeData]) Cycles() [][]NodeData {
	adapter := &simpleDirectedGraphAdapter[NodeData, EdgeData]{graph: g}

	var cycles [][]NodeData
	for _, cycle := range topo.DirectedCyclesIn(adapter) {
		//the first node is repeated at the end
		data := make([]NodeData, 0, len(cycle)-1)
		start := 0
		for i := 0; i < len(cycle)-1; i++ {
			if cycle[i].ID() < cycle[start].ID() {
				start = i
			}
		}
		for i := 0; i < len(cycle)-1; i++ {
			node := cycle[(start+i)%(len(cycle)-1)]
			data = append(data, g.nodes[NodeId(node.ID())].Data)
		}
		cycles = append(cycles, data)
	}
	return cycles
}
