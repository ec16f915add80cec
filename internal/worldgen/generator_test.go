package worldgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/averykip/invadersync/internal/model"
)

func TestSeededRandomIsDeterministic(t *testing.T) {
	for _, n := range []int64{0, 1, 42, 999999, 123456789} {
		a := seededRandom(n)
		b := seededRandom(n)
		assert.Equal(t, a, b, "seed %d", n)
		assert.GreaterOrEqual(t, a, 0.0)
		assert.Less(t, a, 1.0)
	}
}

func TestSeededRandomVariesWithSeed(t *testing.T) {
	seen := make(map[float64]bool)
	for n := int64(0); n < 100; n++ {
		seen[seededRandom(n)] = true
	}
	// A handful of collisions would be fine; identical output would not
	assert.Greater(t, len(seen), 90)
}

func TestGenerateIsDeterministic(t *testing.T) {
	a := Generate(3, 424242)
	b := Generate(3, 424242)
	require.Equal(t, a, b)
}

func TestGenerateVariesWithSeed(t *testing.T) {
	a := Generate(3, 1111)
	b := Generate(3, 2222)
	assert.NotEqual(t, a.Hash, b.Hash)
}

func TestGenerateEnemyInvariants(t *testing.T) {
	for level := 1; level <= 20; level++ {
		snap := Generate(level, 555)
		require.NotEmpty(t, snap.Enemies, "level %d", level)
		assert.Equal(t, level, snap.Level)
		assert.Equal(t, int64(555), snap.Seed)
		assert.NotEmpty(t, snap.Hash)

		ids := make(map[string]bool)
		for _, e := range snap.Enemies {
			assert.False(t, ids[e.ID], "duplicate id %s", e.ID)
			ids[e.ID] = true
			assert.GreaterOrEqual(t, e.Health, 1)
			assert.Equal(t, e.Health, e.MaxHealth)
			assert.Equal(t, e.X, e.InitialX)
			assert.Equal(t, e.Y, e.InitialY)
			assert.Positive(t, e.SpeedX)
			assert.Positive(t, e.SpeedY)
			if e.Type == model.EnemyBattleship {
				assert.Equal(t, 60.0, e.Width)
				assert.Equal(t, 60.0, e.Height)
			} else {
				assert.Equal(t, 40.0, e.Width)
				assert.Equal(t, 40.0, e.Height)
			}
		}
	}
}

func TestGenerateEnemyIDFormat(t *testing.T) {
	snap := Generate(2, 777)
	assert.Equal(t, "2-0-777", snap.Enemies[0].ID)
	assert.Equal(t, "2-1-777", snap.Enemies[1].ID)
}

func TestGenerateHealthScalesWithLevel(t *testing.T) {
	low := Generate(1, 9090)
	high := Generate(13, 9090)

	maxLow, maxHigh := 0, 0
	for _, e := range low.Enemies {
		if e.Health > maxLow {
			maxLow = e.Health
		}
	}
	for _, e := range high.Enemies {
		if e.Health > maxHigh {
			maxHigh = e.Health
		}
	}
	assert.Greater(t, maxHigh, maxLow)
}

func TestStateHashDependsOnInputs(t *testing.T) {
	snap := Generate(4, 31337)

	same := StateHash(snap.Enemies, 4, 31337)
	assert.Equal(t, snap.Hash, same)

	assert.NotEqual(t, snap.Hash, StateHash(snap.Enemies, 5, 31337))
	assert.NotEqual(t, snap.Hash, StateHash(snap.Enemies, 4, 31338))
	assert.NotEqual(t, snap.Hash, StateHash(snap.Enemies[:len(snap.Enemies)-1], 4, 31337))
}

func TestStateHashEmptyEnemies(t *testing.T) {
	h := StateHash(nil, 1, 0)
	assert.NotEmpty(t, h)
	assert.Equal(t, h, StateHash([]model.Enemy{}, 1, 0))
}

func TestFormationPositionCounts(t *testing.T) {
	const rows, cols = 4, 9

	cases := map[string]int{
		"line":   rows * cols,
		"circle": rows * cols,
		"spiral": rows * cols,
		"heart":  rows * cols,
		"wave":   rows * cols,
		"arrow":  rows * cols,
	}
	for formation, want := range cases {
		got := formationPositions(formation, rows, cols)
		assert.Len(t, got, want, formation)
	}

	// v-formation narrows by one slot per row
	v := formationPositions("v-formation", rows, cols)
	assert.Len(t, v, cols+(cols-1)+(cols-2)+(cols-3))

	// diamond widens to the middle row then narrows
	d := formationPositions("diamond", rows, cols)
	assert.Len(t, d, 1+2+3+1)
}

func TestFormationRowTypes(t *testing.T) {
	slots := formationPositions("line", 3, 5)
	require.Len(t, slots, 15)
	assert.Equal(t, model.EnemyScout, slots[0].typ)
	assert.Equal(t, model.EnemyFighter, slots[5].typ)
	assert.Equal(t, model.EnemyCruiser, slots[10].typ)
}
