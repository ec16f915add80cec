package worldgen

import (
	"math"

	"github.com/averykip/invadersync/internal/model"
)

type formationSlot struct {
	x, y float64
	typ  model.EnemyType
}

// formationPositions lays out rows*cols slots for the named formation. The
// wave, cross, star and arrow formations share the plain grid layout; they
// exist as distinct names so the formation roll stays stable for clients.
func formationPositions(formation string, rows, cols int) []formationSlot {
	centerX := float64(canvasWidth) / 2
	centerY := formationCenterY
	spacing := formationSpacing

	var slots []formationSlot

	switch formation {
	case "line":
		for r := 0; r < rows; r++ {
			for c := 0; c < cols; c++ {
				typ := model.EnemyFighter
				if r == 0 {
					typ = model.EnemyScout
				} else if r == rows-1 {
					typ = model.EnemyCruiser
				}
				slots = append(slots, formationSlot{
					x:   centerX - float64(cols)*spacing/2 + float64(c)*spacing,
					y:   centerY + float64(r)*spacing,
					typ: typ,
				})
			}
		}

	case "v-formation":
		for r := 0; r < rows; r++ {
			rowCols := cols - r
			if rowCols < 1 {
				rowCols = 1
			}
			for c := 0; c < rowCols; c++ {
				typ := model.EnemyFighter
				if r == 0 {
					typ = model.EnemyScout
				}
				slots = append(slots, formationSlot{
					x:   centerX - float64(rowCols)*spacing/2 + float64(c)*spacing,
					y:   centerY + float64(r)*spacing,
					typ: typ,
				})
			}
		}

	case "diamond":
		midRow := rows / 2
		for r := 0; r < rows; r++ {
			rowWidth := rows - r
			if r <= midRow {
				rowWidth = r + 1
			}
			for c := 0; c < rowWidth; c++ {
				typ := model.EnemyFighter
				if r == 0 || r == rows-1 {
					typ = model.EnemyScout
				}
				slots = append(slots, formationSlot{
					x:   centerX - float64(rowWidth)*spacing/2 + float64(c)*spacing,
					y:   centerY + float64(r)*spacing,
					typ: typ,
				})
			}
		}

	case "circle":
		radius := float64(min(cols, rows)) * spacing / 2
		total := rows * cols
		for i := 0; i < total; i++ {
			angle := float64(i) / float64(total) * math.Pi * 2
			typ := model.EnemyFighter
			if i%3 == 0 {
				typ = model.EnemyScout
			}
			slots = append(slots, formationSlot{
				x:   centerX + math.Cos(angle)*radius,
				y:   centerY + math.Sin(angle)*radius,
				typ: typ,
			})
		}

	case "spiral":
		radius := 15.0
		angle := 0.0
		for i := 0; i < rows*cols; i++ {
			typ := model.EnemyFighter
			if i%4 == 0 {
				typ = model.EnemyCruiser
			}
			slots = append(slots, formationSlot{
				x:   centerX + math.Cos(angle)*radius,
				y:   centerY + math.Sin(angle)*radius,
				typ: typ,
			})
			angle += 0.4
			radius += 2.5
		}

	case "heart":
		total := rows * cols
		for i := 0; i < total; i++ {
			t := float64(i) / float64(total) * math.Pi * 2
			sin := math.Sin(t)
			hx := 16 * sin * sin * sin
			hy := -(13*math.Cos(t) - 5*math.Cos(2*t) - 2*math.Cos(3*t) - math.Cos(4*t))
			slots = append(slots, formationSlot{
				x:   centerX + hx*2.5,
				y:   centerY + hy*2.5,
				typ: model.EnemyFighter,
			})
		}

	default:
		for r := 0; r < rows; r++ {
			for c := 0; c < cols; c++ {
				slots = append(slots, formationSlot{
					x:   centerX - float64(cols)*spacing/2 + float64(c)*spacing,
					y:   centerY + float64(r)*spacing,
					typ: model.EnemyFighter,
				})
			}
		}
	}

	return slots
}
