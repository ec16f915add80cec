// Package worldgen produces the procedurally generated enemy layout for a
// level. Every output is a pure function of (level, seed), so room members
// generating independently arrive at byte-identical worlds.
package worldgen

import (
	"math"
	"strconv"

	"github.com/averykip/invadersync/internal/model"
)

// Playfield constants shared with clients. Changing any of these breaks
// synchronization with clients generating locally from the same seed.
const (
	canvasWidth  = 1400
	enemyWidth   = 40.0
	enemyHeight  = 40.0
	formationCenterY = 150.0
	formationSpacing = 55.0

	baseRows = 3
	baseCols = 8
	maxRows  = 6
	maxCols  = 12
)

// MaxSeed bounds freshly drawn shared seeds to [0, MaxSeed)
const MaxSeed = 1000000

var formations = []string{
	"line", "v-formation", "diamond", "circle", "spiral",
	"wave", "cross", "star", "heart", "arrow",
}

var baseHealth = map[model.EnemyType]int{
	model.EnemyScout:      1,
	model.EnemyFighter:    2,
	model.EnemyCruiser:    3,
	model.EnemyDestroyer:  4,
	model.EnemyBattleship: 5,
	model.EnemyMothership: 8,
}

var speedX = map[model.EnemyType]float64{
	model.EnemyScout:      4,
	model.EnemyFighter:    3,
	model.EnemyCruiser:    2.5,
	model.EnemyDestroyer:  2,
	model.EnemyBattleship: 1.5,
	model.EnemyMothership: 1,
}

var speedY = map[model.EnemyType]float64{
	model.EnemyScout:      2,
	model.EnemyFighter:    1.5,
	model.EnemyCruiser:    1.2,
	model.EnemyDestroyer:  1,
	model.EnemyBattleship: 0.8,
	model.EnemyMothership: 0.5,
}

var perturbTypes = []model.EnemyType{
	model.EnemyScout, model.EnemyFighter, model.EnemyCruiser,
	model.EnemyDestroyer, model.EnemyBattleship,
}

// seededRandom returns a deterministic pseudo-random float in [0, 1) derived
// from the decimal representation of n. This reproduces the client-side
// generator bit for bit: a 32-bit string hash fed through frac(sin(h)*10000).
func seededRandom(n int64) float64 {
	str := strconv.FormatInt(n, 10)
	var h int32
	for i := 0; i < len(str); i++ {
		h = (h << 5) - h + int32(str[i])
	}
	x := math.Sin(float64(h)) * 10000
	return x - math.Floor(x)
}

// Generate produces the enemy sequence, used seed, and consistency hash for a
// level. The same (level, seed) always yields the same snapshot. Callers must
// validate level >= 1; there are no failure modes.
func Generate(level int, seed int64) *model.WorldSnapshot {
	formationIdx := int(seededRandom(seed+int64(level)) * float64(len(formations)))
	formation := formations[formationIdx]

	rows := baseRows + level/4
	if rows > maxRows {
		rows = maxRows
	}
	cols := baseCols + level/3
	if cols > maxCols {
		cols = maxCols
	}

	positions := formationPositions(formation, rows, cols)

	enemies := make([]model.Enemy, 0, len(positions))
	for i, pos := range positions {
		typ := pos.typ

		// Above level 5 a seeded roll can upgrade individual enemies
		if level > 5 && seededRandom(seed+int64(level)*100+int64(i)) < 0.3 {
			typeIdx := int(seededRandom(seed+int64(level)*1000+int64(i)) * 5)
			idx := level/5 + typeIdx
			if idx > 4 {
				idx = 4
			}
			typ = perturbTypes[idx]
		}

		health, ok := baseHealth[typ]
		if !ok {
			health = 2
		}
		health += (level - 1) / 3
		if health < 1 {
			health = 1
		}

		w, h := enemyWidth, enemyHeight
		if typ == model.EnemyBattleship {
			w, h = enemyWidth*1.5, enemyHeight*1.5
		}

		sx, ok := speedX[typ]
		if !ok {
			sx = 3
		}
		sy, ok := speedY[typ]
		if !ok {
			sy = 1.5
		}

		enemies = append(enemies, model.Enemy{
			ID:        strconv.Itoa(level) + "-" + strconv.Itoa(i) + "-" + strconv.FormatInt(seed, 10),
			X:         pos.x,
			Y:         pos.y,
			InitialX:  pos.x,
			InitialY:  pos.y,
			Width:     w,
			Height:    h,
			Type:      typ,
			Health:    health,
			MaxHealth: health,
			SpeedX:    sx,
			SpeedY:    sy,
		})
	}

	return &model.WorldSnapshot{
		Level:   level,
		Seed:    seed,
		Enemies: enemies,
		Hash:    StateHash(enemies, level, seed),
	}
}

// StateHash is a cheap consistency fingerprint over enemy count, level, seed
// and the first enemy position. It is deliberately NOT a digest of the full
// enemy sequence, so matching hashes do not prove full world-state equality;
// a divergence in later enemies goes undetected. Kept weak for protocol
// compatibility with clients computing the same fingerprint.
func StateHash(enemies []model.Enemy, level int, seed int64) string {
	digest := "{\"enemyCount\":" + strconv.Itoa(len(enemies)) +
		",\"level\":" + strconv.Itoa(level) +
		",\"seed\":" + strconv.FormatInt(seed, 10) +
		",\"firstEnemyPos\":" + firstEnemyPos(enemies) + "}"

	var h int32
	for i := 0; i < len(digest); i++ {
		h = (h << 5) - h + int32(digest[i])
	}
	return strconv.FormatInt(int64(h), 36)
}

func firstEnemyPos(enemies []model.Enemy) string {
	if len(enemies) == 0 {
		return "null"
	}
	return "{\"x\":" + formatCoord(enemies[0].X) + ",\"y\":" + formatCoord(enemies[0].Y) + "}"
}

// formatCoord renders a coordinate the way JSON.stringify renders a JS number:
// the shortest decimal form that round-trips
func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
