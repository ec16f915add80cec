package model

// EnemyType identifies an enemy class with fixed base stats
type EnemyType string

const (
	EnemyScout      EnemyType = "scout"
	EnemyFighter    EnemyType = "fighter"
	EnemyCruiser    EnemyType = "cruiser"
	EnemyDestroyer  EnemyType = "destroyer"
	EnemyBattleship EnemyType = "battleship"
	EnemyMothership EnemyType = "mothership"
)

// Enemy is one generated enemy descriptor. Every field is a pure function of
// (level, seed, index) so all room members compute identical descriptors.
type Enemy struct {
	ID        string    `json:"id"`
	X         float64   `json:"x"`
	Y         float64   `json:"y"`
	InitialX  float64   `json:"initialX"`
	InitialY  float64   `json:"initialY"`
	Width     float64   `json:"width"`
	Height    float64   `json:"height"`
	Type      EnemyType `json:"type"`
	Health    int       `json:"health"`
	MaxHealth int       `json:"maxHealth"`
	SpeedX    float64   `json:"speedX"`
	SpeedY    float64   `json:"speedY"`
}

// WorldSnapshot is the enemy layout plus consistency hash for a room's current
// level. Immutable once produced; superseded wholesale on level advance.
type WorldSnapshot struct {
	Level   int     `json:"level"`
	Seed    int64   `json:"sharedSeed"`
	Enemies []Enemy `json:"enemies"`
	Hash    string  `json:"gameStateHash"`
}
