package nav_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nitro/pvf/internal/nav"
	"github.com/nitro/pvf/internal/pdfkey"
	"github.com/nitro/pvf/internal/task"
)

func newScheduler() *nav.Scheduler {
	s := nav.NewScheduler(4, 3)
	s.SetTarget(pdfkey.DocID("doc"), pdfkey.ToScaleMilli(1.0))
	return s
}

func TestPlanAlwaysEmitsCriticalAndGuard(t *testing.T) {
	s := newScheduler()
	plan := s.Plan(nav.Intent{Direction: nav.DirectionNone, Generation: 1}, 10, 100, 2)

	require.Len(t, plan, 2)
	assert.Equal(t, uint32(10), plan[0].Key.Page)
	assert.True(t, plan[0].Priority.Equal(task.Critical()))
	assert.Equal(t, uint32(9), plan[1].Key.Page)
	assert.True(t, plan[1].Priority.Equal(task.Guard()))
}

func TestPlanGuardFollowsOppositeOfDirection(t *testing.T) {
	s := newScheduler()

	fwd := s.Plan(nav.Intent{Direction: nav.DirectionForward, Streak: 1, Generation: 1}, 10, 100, 2)
	assert.Equal(t, uint32(9), fwd[1].Key.Page)

	back := s.Plan(nav.Intent{Direction: nav.DirectionBackward, Streak: 1, Generation: 1}, 10, 100, 2)
	assert.Equal(t, uint32(11), back[1].Key.Page)
}

func TestPlanDirectionalLeadGrowsWithStreakCappedAtLeadMax(t *testing.T) {
	s := newScheduler() // leadMax=4
	plan := s.Plan(nav.Intent{Direction: nav.DirectionForward, Streak: 10, Generation: 1}, 10, 100, 10)

	var leadPages []uint32
	for _, tk := range plan {
		if tk.Priority.Class == task.PriorityLead {
			leadPages = append(leadPages, tk.Key.Page)
		}
	}
	assert.Equal(t, []uint32{11, 12, 13, 14}, leadPages)
}

func TestPlanBackgroundFillsRemainingBudgetOutward(t *testing.T) {
	s := newScheduler()
	plan := s.Plan(nav.Intent{Direction: nav.DirectionNone, Generation: 1}, 50, 100, 5)

	require.Len(t, plan, 5)
	var bg []uint32
	for _, tk := range plan {
		if tk.Priority.Class == task.PriorityBackground {
			bg = append(bg, tk.Key.Page)
		}
	}
	assert.Equal(t, []uint32{51, 52, 48}, bg)
}

func TestPlanRespectsPageBoundaries(t *testing.T) {
	s := newScheduler()
	plan := s.Plan(nav.Intent{Direction: nav.DirectionBackward, Streak: 5, Generation: 1}, 0, 10, 20)

	for _, tk := range plan {
		assert.GreaterOrEqual(t, tk.Key.Page, uint32(0))
		assert.Less(t, tk.Key.Page, uint32(10))
	}
	// Moving backward from page 0, the guard is page 1 and no lead page is in
	// range, so the plan is critical + guard + background.
	assert.Equal(t, uint32(0), plan[0].Key.Page)
}

func TestPlanNeverSchedulesDuplicatePages(t *testing.T) {
	s := newScheduler()
	plan := s.Plan(nav.Intent{Direction: nav.DirectionForward, Streak: 3, Generation: 1}, 10, 100, 20)

	seen := make(map[uint32]bool)
	for _, tk := range plan {
		require.False(t, seen[tk.Key.Page], "page %d scheduled twice", tk.Key.Page)
		seen[tk.Key.Page] = true
	}
}

func TestPlanEmptyDocumentReturnsNil(t *testing.T) {
	s := newScheduler()
	plan := s.Plan(nav.Intent{}, 0, 0, 5)
	assert.Nil(t, plan)
}
