package task_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nitro/pvf/internal/task"
)

func TestPriorityStrictOrdering(t *testing.T) {
	assert.True(t, task.Critical().Outranks(task.Guard()))
	assert.True(t, task.Guard().Outranks(task.Lead(1)))
	assert.True(t, task.Lead(1).Outranks(task.Lead(2)))
	assert.True(t, task.Lead(5).Outranks(task.Background()))

	assert.False(t, task.Background().Outranks(task.Lead(5)))
	assert.False(t, task.Critical().Outranks(task.Critical()))
}

func TestPriorityEqual(t *testing.T) {
	assert.True(t, task.Lead(3).Equal(task.Lead(3)))
	assert.False(t, task.Lead(3).Equal(task.Lead(4)))
	assert.True(t, task.Critical().Equal(task.Critical()))
}
