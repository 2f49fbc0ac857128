package conveyor

import (
	"fmt"
	"reflect"
	"time"

	"github.com/mitchellh/mapstructure"
)

// Config is the decoded form of the loose configuration map accepted by
// FromConfig. Zero fields keep their defaults.
type Config struct {
	// ActionInterval is the execution tick period. Numbers are read as
	// milliseconds, strings as Go durations ("2ms", "1s").
	ActionInterval time.Duration `mapstructure:"action_interval"`
	// BufferInterval is the buffer-drain tick period.
	BufferInterval time.Duration `mapstructure:"buffer_interval"`
	// QueueThreshold is the active queue's soft capacity.
	QueueThreshold int `mapstructure:"queue_threshold"`
}

// Options expands the decoded config into functional options.
func (c Config) Options() []Option {
	opts := []Option{}
	if c.ActionInterval > 0 {
		opts = append(opts, WithActionInterval(c.ActionInterval))
	}
	if c.BufferInterval > 0 {
		opts = append(opts, WithBufferInterval(c.BufferInterval))
	}
	if c.QueueThreshold > 0 {
		opts = append(opts, WithQueueThreshold(c.QueueThreshold))
	}
	return opts
}

// FromConfig builds a conveyor from a loose configuration map. Recognized
// keys: action_interval, buffer_interval, queue_threshold. Explicit
// options are applied after the map and win on conflict.
func FromConfig(cfg map[string]any, opts ...Option) (*Conveyor, error) {
	decoded, err := DecodeConfig(cfg)
	if err != nil {
		return nil, err
	}
	return New(append(decoded.Options(), opts...)...), nil
}

// DecodeConfig decodes a loose configuration map into a Config.
// A nil map yields the zero Config (all defaults).
func DecodeConfig(cfg map[string]any) (Config, error) {
	var out Config
	if cfg == nil {
		return out, nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &out,
		ErrorUnused: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			numberToMillisHook,
		),
	})
	if err != nil {
		return Config{}, fmt.Errorf("failed to build config decoder: %w", err)
	}
	if err := dec.Decode(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return out, nil
}

// numberToMillisHook reads bare numbers as milliseconds when the target
// field is a duration.
func numberToMillisHook(from, to reflect.Type, data any) (any, error) {
	if to != reflect.TypeOf(time.Duration(0)) {
		return data, nil
	}
	switch n := data.(type) {
	case int:
		return time.Duration(n) * time.Millisecond, nil
	case int64:
		return time.Duration(n) * time.Millisecond, nil
	case float64:
		return time.Duration(n * float64(time.Millisecond)), nil
	}
	return data, nil
}
