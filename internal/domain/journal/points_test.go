package journal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateTotalPoints(t *testing.T) {
	total := CalculateTotalPoints(20, 2.0, 5, 0)
	assert.Equal(t, 45.0, total)

	total = CalculateTotalPoints(0, 2.0, 0, 0)
	assert.Equal(t, 0.0, total)

	// Отрицательные дополнительные баллы после корректировки.
	total = CalculateTotalPoints(10, 2.0, -5, 0)
	assert.Equal(t, 15.0, total)
}

func TestCalculateTotalPoints_StandardsCap(t *testing.T) {
	// Баллы за нормативы выше потолка считаются по потолку.
	total := CalculateTotalPoints(0, 2.0, 0, MaxPointsForStandards+10)
	assert.Equal(t, float64(MaxPointsForStandards), total)

	total = CalculateTotalPoints(0, 2.0, 0, MaxPointsForStandards)
	assert.Equal(t, float64(MaxPointsForStandards), total)
}

func TestWorkType_IsValid(t *testing.T) {
	assert.True(t, WorkTypeGTO.IsValid())
	assert.True(t, WorkTypeScience.IsValid())
	assert.False(t, WorkType("lottery").IsValid())
	assert.False(t, WorkType("").IsValid())
}
