package nav

import (
	"github.com/nitro/pvf/internal/pdfkey"
	"github.com/nitro/pvf/internal/task"
)

// Scheduler turns a navigation Intent into a bounded plan of RenderTasks:
// the current page, a guard page against reversal, a directional lead that
// grows with streak length, and background fill within a radius.
type Scheduler struct {
	leadMax  uint32
	bgRadius uint32

	doc        pdfkey.DocID
	scaleMilli pdfkey.ScaleMilli
}

// NewScheduler returns a Scheduler configured with LEAD_MAX and BG_RADIUS.
func NewScheduler(leadMax, bgRadius uint32) *Scheduler {
	return &Scheduler{leadMax: leadMax, bgRadius: bgRadius}
}

// SetTarget points the scheduler at a document and scale; every task it
// builds from here on is keyed against them, until the next call (e.g. on
// document open or a zoom change).
func (s *Scheduler) SetTarget(doc pdfkey.DocID, scaleMilli pdfkey.ScaleMilli) {
	s.doc = doc
	s.scaleMilli = scaleMilli
}

func (s *Scheduler) key(page uint32) pdfkey.RenderedPageKey {
	return pdfkey.RenderedPageKey{Doc: s.doc, Page: page, ScaleMilli: s.scaleMilli}
}

func (s *Scheduler) mkTask(page uint32, p task.Priority, gen uint64) task.RenderTask {
	return task.RenderTask{Key: s.key(page), Priority: p, Generation: gen}
}

func clampU32(v, lo, hi uint32) uint32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Plan builds the prioritized task list for the current Intent, stopping
// once budget tasks have been produced. CriticalCurrent and (when in
// range) GuardReverse are always emitted regardless of budget, matching
// the invariant that a plan call always emits exactly one of each.
func (s *Scheduler) Plan(intent Intent, currentPage, totalPages uint32, budget int) []task.RenderTask {
	if totalPages == 0 {
		return nil
	}

	scheduled := make(map[uint32]bool)
	var tasks []task.RenderTask

	// 1. Always: the current page.
	tasks = append(tasks, s.mkTask(currentPage, task.Critical(), intent.Generation))
	scheduled[currentPage] = true

	// 2. Always (if in range): the guard page against reversal.
	guardPage, guardOK := s.guardPage(intent.Direction, currentPage, totalPages)
	if guardOK && !scheduled[guardPage] {
		tasks = append(tasks, s.mkTask(guardPage, task.Guard(), intent.Generation))
		scheduled[guardPage] = true
	}

	// 3. Directional lead: grows with streak, capped at LEAD_MAX.
	if intent.Direction != DirectionNone {
		lead := clampU32(intent.Streak, 1, s.leadMax)
		sign := int64(1)
		if intent.Direction == DirectionBackward {
			sign = -1
		}
		for d := uint32(1); d <= lead && len(tasks) < budget; d++ {
			page, ok := offsetPage(currentPage, sign*int64(d), totalPages)
			if !ok || scheduled[page] {
				continue
			}
			tasks = append(tasks, s.mkTask(page, task.Lead(d), intent.Generation))
			scheduled[page] = true
		}
	}

	// 4. Background: fill remaining budget outward from current, within
	// BG_RADIUS, nearest pages first.
	for d := uint32(1); d <= s.bgRadius && len(tasks) < budget; d++ {
		for _, sign := range [2]int64{1, -1} {
			if len(tasks) >= budget {
				break
			}
			page, ok := offsetPage(currentPage, sign*int64(d), totalPages)
			if !ok || scheduled[page] {
				continue
			}
			tasks = append(tasks, s.mkTask(page, task.Background(), intent.Generation))
			scheduled[page] = true
		}
	}

	return tasks
}

func (s *Scheduler) guardPage(dir Direction, currentPage, totalPages uint32) (uint32, bool) {
	switch dir {
	case DirectionForward:
		return offsetPage(currentPage, -1, totalPages)
	case DirectionBackward:
		return offsetPage(currentPage, 1, totalPages)
	default:
		return offsetPage(currentPage, -1, totalPages)
	}
}

func offsetPage(base uint32, delta int64, totalPages uint32) (uint32, bool) {
	p := int64(base) + delta
	if p < 0 || p >= int64(totalPages) {
		return 0, false
	}
	return uint32(p), true
}
