package archive

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecide(t *testing.T) {
	assert.Equal(t, GrantCredit, Decide(50.5, 50, false))
	assert.Equal(t, CarryDebt, Decide(45, 50, false))
	assert.Equal(t, CarryDebt, Decide(0, 50, false))
}

func TestDecide_BoundaryIsExclusive(t *testing.T) {
	// Ровно порог - зачёта нет: граница строгая.
	assert.Equal(t, CarryDebt, Decide(50, 50, false))
}

func TestDecide_ForceModeAlwaysWins(t *testing.T) {
	assert.Equal(t, GrantCredit, Decide(0, 50, true))
	assert.Equal(t, GrantCredit, Decide(50, 50, true))
	assert.Equal(t, GrantCredit, Decide(100, 50, true))
}
