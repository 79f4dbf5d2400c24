package config_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nitro/pvf/internal/config"
)

func TestDefaultsAreSane(t *testing.T) {
	d := config.Defaults()
	assert.Greater(t, d.WorkerCount, 0)
	assert.Greater(t, d.QueueMax, 0)
	assert.Greater(t, d.L1BudgetBytes, int64(0))
}

func TestLoadFallsBackToDefaultsWhenUnset(t *testing.T) {
	cfg := config.Load()
	d := config.Defaults()
	assert.Equal(t, d.WorkerCount, cfg.WorkerCount)
	assert.Equal(t, d.LeadMax, cfg.LeadMax)
}

func TestLoadHonorsEnvironmentOverride(t *testing.T) {
	os.Setenv("PVF_WORKER_COUNT", "9")
	defer os.Unsetenv("PVF_WORKER_COUNT")

	cfg := config.Load()
	assert.Equal(t, 9, cfg.WorkerCount)
}
