package onnx

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/surajkarki66/edge-AI/internal/dtype"
	"github.com/surajkarki66/edge-AI/internal/graph"
)

// buildThresholdGraph builds in -> MatMul(w) -> MultiThreshold(t) -> out.
func buildThresholdGraph() *graph.Graph {
	g := graph.New("tfc")
	g.AddInput("in", graph.Shape{1, 4}, dtype.Bipolar)

	mm := graph.NewNode(graph.OpMatMul, "matmul0", []string{"in", "w"}, []string{"mm_out"})
	g.AddNode(mm)
	g.SetInitializer("w", &graph.Initializer{
		Shape: graph.Shape{4, 2},
		Data:  []float32{1, -1, 1, 1, -1, 1, -1, -1},
	})
	g.SetTensorDataType("w", dtype.Bipolar)

	th := graph.NewNode(graph.OpMultiThreshold, "thresh0", []string{"mm_out", "t"}, []string{"out"})
	th.Attrs.SetString("out_dtype", "BIPOLAR")
	th.Attrs.SetFloat("out_scale", 2)
	th.Attrs.SetFloat("out_bias", -1)
	g.AddNode(th)
	g.SetInitializer("t", &graph.Initializer{Shape: graph.Shape{2, 1}, Data: []float32{0, 0}})
	g.SetTensorDataType("t", dtype.Int(8))

	g.AddOutput("out")
	g.SetTensorShape("mm_out", graph.Shape{1, 2})
	g.SetTensorDataType("mm_out", dtype.Int(4))
	g.SetTensorShape("out", graph.Shape{1, 2})
	g.SetTensorDataType("out", dtype.Bipolar)
	g.Metadata = append(g.Metadata, graph.MetadataEntry{Key: "source", Value: "test"})
	return g
}

func TestMarshalParseRoundTrip(t *testing.T) {
	model := ToModelProto(buildThresholdGraph())

	parsed, err := Parse(Marshal(model))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if parsed.IRVersion != model.IRVersion {
		t.Errorf("IR version: want %d, got %d", model.IRVersion, parsed.IRVersion)
	}
	if parsed.ProducerName != producerName {
		t.Errorf("producer: want %q, got %q", producerName, parsed.ProducerName)
	}
	if parsed.Graph == nil {
		t.Fatal("graph is nil")
	}
	if len(parsed.Graph.Nodes) != len(model.Graph.Nodes) {
		t.Fatalf("node count: want %d, got %d", len(model.Graph.Nodes), len(parsed.Graph.Nodes))
	}
	for i := range model.Graph.Nodes {
		want, got := model.Graph.Nodes[i], parsed.Graph.Nodes[i]
		if got.OpType != want.OpType || got.Name != want.Name {
			t.Errorf("node %d: want %s/%s, got %s/%s", i, want.OpType, want.Name, got.OpType, got.Name)
		}
	}
	if len(parsed.Graph.Annotations) != len(model.Graph.Annotations) {
		t.Errorf("annotation count: want %d, got %d",
			len(model.Graph.Annotations), len(parsed.Graph.Annotations))
	}
}

func TestGraphRoundTripFidelity(t *testing.T) {
	g := buildThresholdGraph()

	reloaded, err := FromModelProto(ToModelProto(g))
	if err != nil {
		t.Fatalf("FromModelProto failed: %v", err)
	}

	// Node order and identity.
	if reloaded.NumNodes() != g.NumNodes() {
		t.Fatalf("node count: want %d, got %d", g.NumNodes(), reloaded.NumNodes())
	}
	for i, want := range g.Nodes() {
		got := reloaded.Nodes()[i]
		if got.Name != want.Name || got.OpType != want.OpType {
			t.Errorf("node %d: want %s/%s, got %s/%s", i, want.OpType, want.Name, got.OpType, got.Name)
		}
		if len(got.Inputs) != len(want.Inputs) || len(got.Outputs) != len(want.Outputs) {
			t.Errorf("node %d: port counts changed", i)
		}
	}

	// Registry fidelity.
	for _, name := range g.TensorNames() {
		wantShape, wantOK := g.TensorShape(name)
		gotShape, gotOK := reloaded.TensorShape(name)
		if wantOK != gotOK || (wantOK && !wantShape.Equal(gotShape)) {
			t.Errorf("tensor %q: shape want %v (%v), got %v (%v)", name, wantShape, wantOK, gotShape, gotOK)
		}
		if want, got := g.TensorDataType(name), reloaded.TensorDataType(name); want != got {
			t.Errorf("tensor %q: datatype want %s, got %s", name, want, got)
		}
	}

	// Attribute fidelity, including order.
	wantAttrs := g.Nodes()[1].Attrs
	gotAttrs := reloaded.Nodes()[1].Attrs
	if len(wantAttrs.Names()) != len(gotAttrs.Names()) {
		t.Fatalf("attribute count changed")
	}
	for i, name := range wantAttrs.Names() {
		if gotAttrs.Names()[i] != name {
			t.Errorf("attribute order: want %q at %d, got %q", name, i, gotAttrs.Names()[i])
		}
	}
	if s := gotAttrs.StringOr("out_dtype", ""); s != "BIPOLAR" {
		t.Errorf("out_dtype: want BIPOLAR, got %q", s)
	}
	if f := gotAttrs.FloatOr("out_scale", 0); f != 2 {
		t.Errorf("out_scale: want 2, got %v", f)
	}

	// Initializer payload.
	wantInit := g.Initializer("w")
	gotInit := reloaded.Initializer("w")
	if gotInit == nil {
		t.Fatal("initializer w lost")
	}
	for i := range wantInit.Data {
		if wantInit.Data[i] != gotInit.Data[i] {
			t.Fatalf("initializer w: data[%d] want %v, got %v", i, wantInit.Data[i], gotInit.Data[i])
		}
	}

	// Metadata.
	if len(reloaded.Metadata) != 1 || reloaded.Metadata[0].Value != "test" {
		t.Errorf("metadata lost: %v", reloaded.Metadata)
	}
}

func TestFileRoundTrip(t *testing.T) {
	g := buildThresholdGraph()
	path := filepath.Join(t.TempDir(), "model.onnx")

	if err := Save(g, path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("file not written: %v", err)
	}

	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if reloaded.NumNodes() != g.NumNodes() {
		t.Errorf("node count: want %d, got %d", g.NumNodes(), reloaded.NumNodes())
	}
	if got := reloaded.Inputs(); len(got) != 1 || got[0] != "in" {
		t.Errorf("inputs: want [in], got %v", got)
	}
	if got := reloaded.Outputs(); len(got) != 1 || got[0] != "out" {
		t.Errorf("outputs: want [out], got %v", got)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	if _, err := Parse([]byte{0xff, 0xff, 0xff, 0xff, 0xff}); err == nil {
		t.Error("expected error for truncated varint stream")
	}
}

func TestEmptyInputSlotSurvives(t *testing.T) {
	g := graph.New("optional")
	g.AddInput("in", graph.Shape{2}, dtype.Float32)
	n := graph.NewNode(graph.OpAbs, "abs0", []string{"in", ""}, []string{"out"})
	g.AddNode(n)
	g.AddOutput("out")

	reloaded, err := FromModelProto(ToModelProto(g))
	if err != nil {
		t.Fatalf("round trip failed: %v", err)
	}
	got := reloaded.Nodes()[0].Inputs
	if len(got) != 2 || got[1] != "" {
		t.Errorf("empty input slot lost: %v", got)
	}
}
