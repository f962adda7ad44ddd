package lower

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// BlockResource describes what one hardware block type can achieve: the
// widest stream interface it supports, the buffering depth of FIFOs feeding
// it, and its pipeline latency in cycles.
type BlockResource struct {
	MaxWidth  int `yaml:"max_width"`
	FIFODepth int `yaml:"fifo_depth"`
	Latency   int `yaml:"latency"`
}

// ResourceModel is the hardware resource model the lowering stages consult.
// It is queried, never mutated.
type ResourceModel struct {
	Blocks           map[string]BlockResource `yaml:"blocks"`
	DefaultMaxWidth  int                      `yaml:"default_max_width"`
	DefaultFIFODepth int                      `yaml:"default_fifo_depth"`
}

// DefaultResources returns a conservative generic device model.
func DefaultResources() ResourceModel {
	return ResourceModel{
		Blocks: map[string]BlockResource{
			"MVAU":         {MaxWidth: 64, FIFODepth: 32, Latency: 4},
			"Thresholding": {MaxWidth: 64, FIFODepth: 8, Latency: 1},
			"AddStreams":   {MaxWidth: 64, FIFODepth: 2, Latency: 1},
			"ChannelwiseOp": {
				MaxWidth: 64, FIFODepth: 2, Latency: 1,
			},
		},
		DefaultMaxWidth:  64,
		DefaultFIFODepth: 2,
	}
}

// For returns the resource entry for a block type, falling back to the
// model defaults for unlisted blocks.
func (m ResourceModel) For(blockType string) BlockResource {
	if r, ok := m.Blocks[blockType]; ok {
		if r.MaxWidth == 0 {
			r.MaxWidth = m.DefaultMaxWidth
		}
		if r.FIFODepth == 0 {
			r.FIFODepth = m.DefaultFIFODepth
		}
		return r
	}
	return BlockResource{MaxWidth: m.DefaultMaxWidth, FIFODepth: m.DefaultFIFODepth}
}

// LoadResources parses a YAML resource model. Omitted defaults are filled
// from DefaultResources.
func LoadResources(data []byte) (ResourceModel, error) {
	m := ResourceModel{}
	if err := yaml.Unmarshal(data, &m); err != nil {
		return ResourceModel{}, fmt.Errorf("parsing resource model: %w", err)
	}
	defaults := DefaultResources()
	if m.DefaultMaxWidth == 0 {
		m.DefaultMaxWidth = defaults.DefaultMaxWidth
	}
	if m.DefaultFIFODepth == 0 {
		m.DefaultFIFODepth = defaults.DefaultFIFODepth
	}
	return m, nil
}

// LoadResourcesFile reads a YAML resource model from disk.
func LoadResourcesFile(path string) (ResourceModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ResourceModel{}, fmt.Errorf("reading resource model: %w", err)
	}
	return LoadResources(data)
}
