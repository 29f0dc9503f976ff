package main

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llxisdsh/spinx/internal/probe"
)

func execute(t *testing.T, args ...string) error {
	t.Helper()
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	return rootCmd.Execute()
}

func TestCounterCommand(t *testing.T) {
	require.NoError(t, execute(t, "counter", "--workers", "2", "--increments", "100"))
	assert.Equal(t, 2, viper.GetInt("counter.workers"))
	assert.Equal(t, 100, viper.GetInt("counter.increments"))
}

func TestOnceCommand_Env(t *testing.T) {
	t.Setenv("SPINX_ONCE_ROUNDS", "3")
	require.NoError(t, execute(t, "once", "--racers", "4"))

	cfg, err := probe.Load()
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Once.Rounds)
	assert.Equal(t, 4, cfg.Once.Racers)
}

func TestInvalidConfig(t *testing.T) {
	t.Cleanup(func() {
		cmd, _, err := rootCmd.Find([]string{"counter"})
		require.NoError(t, err)
		require.NoError(t, cmd.Flags().Set("workers", "2"))
	})
	err := execute(t, "counter", "--workers=-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "counter.workers")
}

func TestUnknownArgs(t *testing.T) {
	assert.Error(t, execute(t, "once", "extra"))
}

func TestSnake(t *testing.T) {
	assert.Equal(t, "write_interval", snake("write-interval"))
	assert.Equal(t, "readers", snake("readers"))
}
