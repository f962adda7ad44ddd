package lower

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/surajkarki66/edge-AI/internal/transform"
)

// Config is the declarative form of a pipeline: named stages in order plus
// the resource model and gate tolerance.
type Config struct {
	Stages    []string      `yaml:"stages"`
	Tolerance float64       `yaml:"tolerance"`
	ProbeSeed int64         `yaml:"probe_seed"`
	Resources ResourceModel `yaml:"resources"`
}

// LoadConfig parses a YAML pipeline configuration.
func LoadConfig(data []byte) (Config, error) {
	c := Config{}
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("parsing pipeline config: %w", err)
	}
	return c, nil
}

// LoadConfigFile reads a YAML pipeline configuration from disk.
func LoadConfigFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading pipeline config: %w", err)
	}
	return LoadConfig(data)
}

// Pipeline materializes the configuration. Empty fields fall back to the
// defaults of New.
func (c Config) Pipeline() (*Pipeline, error) {
	res := c.Resources
	if res.DefaultMaxWidth == 0 && res.DefaultFIFODepth == 0 && len(res.Blocks) == 0 {
		res = DefaultResources()
	} else {
		defaults := DefaultResources()
		if res.DefaultMaxWidth == 0 {
			res.DefaultMaxWidth = defaults.DefaultMaxWidth
		}
		if res.DefaultFIFODepth == 0 {
			res.DefaultFIFODepth = defaults.DefaultFIFODepth
		}
	}

	p := New(res)
	if c.Tolerance > 0 {
		p.Tolerance = c.Tolerance
	}
	p.ProbeSeed = c.ProbeSeed

	if len(c.Stages) > 0 {
		stages := make([]Stage, 0, len(c.Stages))
		for _, name := range c.Stages {
			stage, err := stageByName(name, res)
			if err != nil {
				return nil, err
			}
			stages = append(stages, stage)
		}
		p.Stages = stages
	}
	return p, nil
}

func stageByName(name string, res ResourceModel) (Stage, error) {
	var passes []transform.Transformation
	switch name {
	case "convert":
		passes = []transform.Transformation{ConvertToHWBlocks{}}
	case "folding":
		passes = []transform.Transformation{SetFolding{Resources: res}}
	case "width_converters":
		passes = []transform.Transformation{InsertStreamWidthConverters{}}
	case "fifos":
		passes = []transform.Transformation{InsertFIFOs{Resources: res}}
	default:
		return Stage{}, fmt.Errorf("unknown pipeline stage %q", name)
	}
	return Stage{Name: name, Passes: passes, Verify: true}, nil
}
