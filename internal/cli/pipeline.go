// Package cli implements the conveyor command line: loading pipeline
// definitions from YAML and driving a conveyor instance to completion.
package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/conveyor"
)

// Pipeline is the YAML document accepted by `conveyor run`.
type Pipeline struct {
	// Config holds the loose engine configuration (action_interval,
	// buffer_interval, queue_threshold).
	Config map[string]any `yaml:"config"`
	Steps  []Step         `yaml:"steps"`
}

// Step is one pipeline entry: a builder name plus its parameters.
type Step struct {
	Type   string         `yaml:"type"`
	Params map[string]any `yaml:",inline"`
}

type sayParams struct {
	Text string `mapstructure:"text"`
}

type sleepParams struct {
	Duration time.Duration `mapstructure:"duration"`
}

type logParams struct {
	Message string `mapstructure:"message"`
}

type valueParams struct {
	Value any `mapstructure:"value"`
}

type failParams struct {
	Message string `mapstructure:"message"`
}

// LoadPipeline reads and parses a pipeline file.
func LoadPipeline(path string) (*Pipeline, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pipeline: %w", err)
	}
	var p Pipeline
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("failed to parse pipeline: %w", err)
	}
	if len(p.Steps) == 0 {
		return nil, fmt.Errorf("pipeline %s defines no steps", path)
	}
	return &p, nil
}

// Actions compiles the pipeline steps into runnable actions. Step
// parameters are decoded with mapstructure so the YAML stays loose.
func (p *Pipeline) Actions(env *Env) ([]conveyor.Action, error) {
	actions := make([]conveyor.Action, 0, len(p.Steps))
	for i, s := range p.Steps {
		a, err := buildStep(s, env)
		if err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i, s.Type, err)
		}
		actions = append(actions, a)
	}
	return actions, nil
}

func buildStep(s Step, env *Env) (conveyor.Action, error) {
	switch s.Type {
	case "say":
		var p sayParams
		if err := decodeParams(s.Params, &p); err != nil {
			return nil, err
		}
		return conveyor.Say(env.Out, p.Text), nil
	case "sleep":
		var p sleepParams
		if err := decodeParams(s.Params, &p); err != nil {
			return nil, err
		}
		if p.Duration <= 0 {
			return nil, fmt.Errorf("sleep requires a positive duration")
		}
		return conveyor.Sleep(p.Duration), nil
	case "log":
		var p logParams
		if err := decodeParams(s.Params, &p); err != nil {
			return nil, err
		}
		return conveyor.Log(env.Logger, p.Message), nil
	case "value":
		var p valueParams
		if err := decodeParams(s.Params, &p); err != nil {
			return nil, err
		}
		return conveyor.Always(p.Value), nil
	case "fail":
		var p failParams
		if err := decodeParams(s.Params, &p); err != nil {
			return nil, err
		}
		return conveyor.Fail(fmt.Errorf("%s", p.Message)), nil
	case "":
		return nil, fmt.Errorf("step has no type")
	default:
		return nil, fmt.Errorf("unknown step type %q", s.Type)
	}
}

func decodeParams(params map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:     out,
		DecodeHook: mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(params); err != nil {
		return fmt.Errorf("invalid parameters: %w", err)
	}
	return nil
}
