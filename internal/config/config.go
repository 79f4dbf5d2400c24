// Package config loads the pipeline's tunable parameters, following the
// env-var-plus-defaults viper pattern used in the example pack's config
// loader (gogotex's internal/config), adapted from a web service's
// connection strings to the rendering pipeline's worker counts and budgets.
package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config holds every tunable parameter named in the pipeline's external
// interface: worker counts, cache budgets, queue bounds, and scheduling
// depths.
type Config struct {
	WorkerCount       int
	EncodeWorkerCount int

	L1BudgetBytes int64
	L2BudgetBytes int64

	QueueMax int

	LeadMax    uint32
	BgRadius   uint32
	PlanBudget int

	CellPxW uint32
	CellPxH uint32

	IdleSweepPeriod time.Duration
	IdleSweepBurst  int
	IdleSettle      time.Duration
}

// Defaults returns the built-in tunable defaults, used both as the starting
// point for Load and directly by callers that don't need environment
// overrides (tests).
func Defaults() Config {
	return Config{
		WorkerCount:       4,
		EncodeWorkerCount: 2,
		L1BudgetBytes:     256 << 20,
		L2BudgetBytes:     64 << 20,
		QueueMax:          64,
		LeadMax:           6,
		BgRadius:          3,
		PlanBudget:        12,
		CellPxW:           9,
		CellPxH:           18,
		IdleSweepPeriod:   500 * time.Millisecond,
		IdleSweepBurst:    1,
		IdleSettle:        150 * time.Millisecond,
	}
}

// Load reads tunables from the environment (PVF_* variables), falling back
// to Defaults for anything unset.
func Load() Config {
	d := Defaults()

	v := viper.New()
	v.SetEnvPrefix("PVF")
	v.AutomaticEnv()

	v.SetDefault("WORKER_COUNT", d.WorkerCount)
	v.SetDefault("ENCODE_WORKER_COUNT", d.EncodeWorkerCount)
	v.SetDefault("L1_BUDGET_BYTES", d.L1BudgetBytes)
	v.SetDefault("L2_BUDGET_BYTES", d.L2BudgetBytes)
	v.SetDefault("QUEUE_MAX", d.QueueMax)
	v.SetDefault("LEAD_MAX", int(d.LeadMax))
	v.SetDefault("BG_RADIUS", int(d.BgRadius))
	v.SetDefault("PLAN_BUDGET", d.PlanBudget)
	v.SetDefault("CELL_PX_W", int(d.CellPxW))
	v.SetDefault("CELL_PX_H", int(d.CellPxH))
	v.SetDefault("IDLE_SWEEP_PERIOD_MS", d.IdleSweepPeriod.Milliseconds())
	v.SetDefault("IDLE_SWEEP_BURST", d.IdleSweepBurst)
	v.SetDefault("IDLE_SETTLE_MS", d.IdleSettle.Milliseconds())

	return Config{
		WorkerCount:       v.GetInt("WORKER_COUNT"),
		EncodeWorkerCount: v.GetInt("ENCODE_WORKER_COUNT"),
		L1BudgetBytes:     v.GetInt64("L1_BUDGET_BYTES"),
		L2BudgetBytes:     v.GetInt64("L2_BUDGET_BYTES"),
		QueueMax:          v.GetInt("QUEUE_MAX"),
		LeadMax:           uint32(v.GetInt("LEAD_MAX")),
		BgRadius:          uint32(v.GetInt("BG_RADIUS")),
		PlanBudget:        v.GetInt("PLAN_BUDGET"),
		CellPxW:           uint32(v.GetInt("CELL_PX_W")),
		CellPxH:           uint32(v.GetInt("CELL_PX_H")),
		IdleSweepPeriod:   time.Duration(v.GetInt64("IDLE_SWEEP_PERIOD_MS")) * time.Millisecond,
		IdleSweepBurst:    v.GetInt("IDLE_SWEEP_BURST"),
		IdleSettle:        time.Duration(v.GetInt64("IDLE_SETTLE_MS")) * time.Millisecond,
	}
}
