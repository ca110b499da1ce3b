// Package graph models a fuzzy graph and its serialization format.
//
// A fuzzy graph assigns every node a membership degree in [0,1] and every
// edge a membership bounded by a t-norm of its endpoints:
//
//	edge.membership <= T(source.membership, target.membership)
//
// [Graph] enforces this when an edge is added: the requested degree is
// capped at the bound instead of being rejected. The bound is fixed at
// creation time, so changing the editor's t-norm later does not rewrite
// existing edges.
//
// # Identity
//
// Node ids come from an [IDSource], normally a [Counter] shared by both
// slots of an editor ("Node1", "Node2", ...). Edge ids are the source id
// followed by the target id (see [EdgeID]), so direction matters.
//
// # Wire Format
//
// [GraphData] is the JSON format exchanged with the analysis service and
// written to graph files:
//
//	{
//	  "nodes": [{"name": "Node1", "membershipFunction": 0.7}],
//	  "edges": [{"source": "Node1", "target": "Node2", "weight": 0.3}],
//	  "tnorm": "min"
//	}
//
// Use [Serialize] to build a request payload and [ReadGraph]/[WriteGraph]
// for files.
package graph
