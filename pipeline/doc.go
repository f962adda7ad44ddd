// Package pipeline is the public surface of the transformation and
// lowering machinery: normalization to a fixed point, reference execution
// for verification, and the staged conversion of a graph into a netlist of
// streaming hardware blocks.
//
// Typical flow:
//
//	g, _ := graph.Load("model.onnx")
//	engine := pipeline.NewEngine()
//	if err := engine.RunToFixedPoint(ctx, g, pipeline.NormalizationPasses()...); err != nil {
//	    log.Fatal(err)
//	}
//	p := pipeline.NewLowering(pipeline.DefaultResources())
//	if err := p.Run(ctx, g, cpu.New()); err != nil {
//	    log.Fatal(err)
//	}
//	netlist, _ := pipeline.BuildNetlist(g)
//	fmt.Print(netlist.Render())
//
// Every lowering stage is verified: the lowered graph must produce the
// same outputs as the pre-lowering graph on a deterministic probe input
// set, within a small tolerance. A graph the pipeline cannot fully resolve
// to hardware blocks fails with ErrLoweringStalled naming the blocking
// node.
package pipeline
