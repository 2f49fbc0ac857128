package conveyor_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/conveyor"
)

func TestDecodeConfig(t *testing.T) {
	t.Run("durations from strings", func(t *testing.T) {
		cfg, err := conveyor.DecodeConfig(map[string]any{
			"action_interval": "5ms",
			"buffer_interval": "2ms",
			"queue_threshold": 3,
		})
		require.NoError(t, err)
		assert.Equal(t, 5*time.Millisecond, cfg.ActionInterval)
		assert.Equal(t, 2*time.Millisecond, cfg.BufferInterval)
		assert.Equal(t, 3, cfg.QueueThreshold)
	})

	t.Run("bare numbers are milliseconds", func(t *testing.T) {
		cfg, err := conveyor.DecodeConfig(map[string]any{
			"action_interval": 2,
			"buffer_interval": 1,
		})
		require.NoError(t, err)
		assert.Equal(t, 2*time.Millisecond, cfg.ActionInterval)
		assert.Equal(t, time.Millisecond, cfg.BufferInterval)
	})

	t.Run("unknown keys are rejected", func(t *testing.T) {
		_, err := conveyor.DecodeConfig(map[string]any{
			"action_intervall": "2ms",
		})
		require.Error(t, err)
	})

	t.Run("empty map keeps defaults", func(t *testing.T) {
		cfg, err := conveyor.DecodeConfig(map[string]any{})
		require.NoError(t, err)
		assert.Zero(t, cfg.ActionInterval)
		assert.Zero(t, cfg.QueueThreshold)
	})
}

func TestFromConfig(t *testing.T) {
	c, err := conveyor.FromConfig(map[string]any{
		"action_interval": "1ms",
		"buffer_interval": "1ms",
	})
	require.NoError(t, err)
	defer c.Close()

	assert.True(t, c.IsComplete())
}

func TestFromConfigInvalidMap(t *testing.T) {
	_, err := conveyor.FromConfig(map[string]any{
		"queue_threshold": "not a number",
	})
	require.Error(t, err)
}
