// Package graph is the public surface of the dataflow graph core: a
// mutable graph of named tensors and operator nodes, plus the tensor
// registry tracking shapes, element datatypes and constant values.
//
// A graph is constructed directly or loaded from an ONNX file:
//
//	g, err := graph.Load("model.onnx")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, n := range g.Nodes() {
//	    fmt.Println(n.Name, n.OpType)
//	}
//
// Node order carries the topological sort: iterating Nodes visits every
// producer before its consumers on a valid graph. Structural edits go
// through Graph methods so the registry stays consistent; Validate checks
// both producer uniqueness and ordering.
//
// Element datatypes are finer-grained than the ONNX elem_type enum: a
// tensor can be annotated BIPOLAR, INT4, UINT2 and so on, and the
// annotations survive a save/load round trip.
package graph
