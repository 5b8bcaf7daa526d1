package pmm

import (
	"math"
	"sort"
)

// nearestDonors fills pool with the observed row positions ordered by distance
// between their predicted value and target. Equal distances order by row
// position, so donor pools are deterministic for a given prediction vector.
func nearestDonors(pool []int, pred []float64, target float64) {
	for i := range pool {
		pool[i] = i
	}
	sort.SliceStable(pool, func(a, b int) bool {
		da := math.Abs(pred[pool[a]] - target)
		db := math.Abs(pred[pool[b]] - target)
		if da != db {
			return da < db
		}
		return pool[a] < pool[b]
	})
}
