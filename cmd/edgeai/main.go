// Command edgeai inspects, normalizes, verifies and lowers dataflow graph
// models stored as ONNX files.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/surajkarki66/edge-AI/backend/cpu"
	"github.com/surajkarki66/edge-AI/graph"
	"github.com/surajkarki66/edge-AI/pipeline"
)

const version = "v0.1.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "inspect":
		err = handleInspect(os.Args[2:])
	case "normalize":
		err = handleNormalize(os.Args[2:])
	case "verify":
		err = handleVerify(os.Args[2:])
	case "lower":
		err = handleLower(os.Args[2:])
	case "version":
		fmt.Printf("edgeai %s\n", version)
	default:
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "edgeai %s: %v\n", os.Args[1], err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("edgeai - dataflow graph compiler for streaming accelerators")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  edgeai inspect <model.onnx>                 Show graph structure")
	fmt.Println("  edgeai normalize <in.onnx> <out.onnx>       Normalize to fixed point")
	fmt.Println("  edgeai verify <model.onnx>                  Execute on probe inputs")
	fmt.Println("  edgeai lower <in.onnx> [-o netlist] [-c cfg.yaml]")
	fmt.Println("  edgeai version                              Show version")
}

func loadArg(fs *flag.FlagSet, args []string) (*graph.Graph, error) {
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	path := fs.Arg(0)
	if path == "" {
		return nil, fmt.Errorf("input model file is required")
	}
	return graph.Load(path)
}

func handleInspect(args []string) error {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	g, err := loadArg(fs, args)
	if err != nil {
		return err
	}

	fmt.Printf("graph %s: %d nodes\n", g.Name, g.NumNodes())
	fmt.Println("inputs:")
	for _, name := range g.Inputs() {
		printTensor(g, name)
	}
	fmt.Println("outputs:")
	for _, name := range g.Outputs() {
		printTensor(g, name)
	}
	fmt.Println("nodes:")
	for _, n := range g.Nodes() {
		fmt.Printf("  %-24s %-16s %v -> %v\n", n.Name, n.OpType, n.Inputs, n.Outputs)
	}
	if err := g.Validate(); err != nil {
		fmt.Printf("validation: %v\n", err)
	} else {
		fmt.Println("validation: ok")
	}
	return nil
}

func printTensor(g *graph.Graph, name string) {
	shape, _ := g.TensorShape(name)
	fmt.Printf("  %-24s shape=%v dtype=%s\n", name, shape, g.TensorDataType(name))
}

func handleNormalize(args []string) error {
	fs := flag.NewFlagSet("normalize", flag.ExitOnError)
	g, err := loadArg(fs, args)
	if err != nil {
		return err
	}
	out := fs.Arg(1)
	if out == "" {
		return fmt.Errorf("output model file is required")
	}

	engine := pipeline.NewEngine()
	passes := pipeline.NormalizationPassesWith(cpu.New())
	if err := engine.RunToFixedPoint(context.Background(), g, passes...); err != nil {
		return err
	}
	if err := graph.Save(g, out); err != nil {
		return err
	}
	fmt.Printf("normalized %d nodes -> %s\n", g.NumNodes(), out)
	return nil
}

func handleVerify(args []string) error {
	fs := flag.NewFlagSet("verify", flag.ExitOnError)
	seed := fs.Int64("seed", 0, "probe input seed")
	g, err := loadArg(fs, args)
	if err != nil {
		return err
	}

	probes, err := pipeline.ProbeInputs(g, *seed)
	if err != nil {
		return err
	}
	outputs, err := pipeline.Run(g, probes, cpu.New())
	if err != nil {
		return err
	}
	for _, name := range g.Outputs() {
		out := outputs[name]
		fmt.Printf("  %-24s shape=%v first=%v\n", name, out.Shape, out.Data[:min(4, len(out.Data))])
	}
	fmt.Println("verify: ok")
	return nil
}

func handleLower(args []string) error {
	fs := flag.NewFlagSet("lower", flag.ExitOnError)
	outPath := fs.String("o", "", "netlist output file (default stdout)")
	cfgPath := fs.String("c", "", "pipeline configuration YAML")
	g, err := loadArg(fs, args)
	if err != nil {
		return err
	}

	p := pipeline.NewLowering(pipeline.DefaultResources())
	if *cfgPath != "" {
		cfg, err := pipeline.LoadConfigFile(*cfgPath)
		if err != nil {
			return err
		}
		if p, err = cfg.Pipeline(); err != nil {
			return err
		}
	}

	backend := cpu.New()
	engine := pipeline.NewEngine()
	if err := engine.RunToFixedPoint(context.Background(), g, pipeline.NormalizationPassesWith(backend)...); err != nil {
		return err
	}
	if err := p.Run(context.Background(), g, backend); err != nil {
		return err
	}

	netlist, err := pipeline.BuildNetlist(g)
	if err != nil {
		return err
	}
	text := netlist.Render()
	if *outPath == "" {
		fmt.Print(text)
		return nil
	}
	if err := os.WriteFile(*outPath, []byte(text), 0o644); err != nil {
		return err
	}
	fmt.Printf("lowered %d blocks -> %s\n", len(netlist.Instances), *outPath)
	return nil
}
