package tour

import (
	"context"
	"errors"
	"fmt"
	"log"
)

// improvementEpsilon is the minimum gain a 2-opt reversal must achieve to
// be accepted. Strict improvement keeps duplicate-location stops (zero
// distance edges) from cycling forever.
const improvementEpsilon = 1e-10

// ErrBadMatrix is returned when the distance matrix is not square, too
// small, or contains a negative entry.
var ErrBadMatrix = errors.New("tour: invalid distance matrix")

// Result carries an optimized stop ordering. Order holds positions into
// the distance matrix: always starting at 0 (pickup) and ending at the last
// position (dropoff); neither endpoint is ever reordered.
type Result struct {
	Order      []int
	DistanceKm float64
	BaselineKm float64
	Passes     int
}

// Optimize orders the intermediate stops of a tour with nearest-neighbor
// construction followed by 2-opt local search. The matrix is a complete
// pairwise distance matrix over pickup (position 0), the stops, and dropoff
// (last position). The final distance is never worse than the
// nearest-neighbor baseline; global optimality is not guaranteed.
//
// The context is checked once per improvement pass, so a job timeout
// interrupts long runs at pass granularity.
func Optimize(ctx context.Context, matrix [][]float64) (*Result, error) {
	n := len(matrix)
	if n < 2 {
		return nil, fmt.Errorf("%w: need at least 2 positions, got %d", ErrBadMatrix, n)
	}
	for i, row := range matrix {
		if len(row) != n {
			return nil, fmt.Errorf("%w: row %d has %d entries, want %d", ErrBadMatrix, i, len(row), n)
		}
		for j, d := range row {
			if d < 0 {
				return nil, fmt.Errorf("%w: negative distance at (%d,%d)", ErrBadMatrix, i, j)
			}
		}
	}

	order := nearestNeighbor(matrix)
	baseline := tourDistance(matrix, order)

	// Zero or one intermediate stop leaves nothing to reorder.
	if n <= 3 {
		return &Result{Order: order, DistanceKm: baseline, BaselineKm: baseline}, nil
	}

	best := baseline
	passes := 0
	// Deterministic bound scaling with the stop count; in practice 2-opt on
	// small tours converges in a handful of passes.
	maxPasses := 2 * n * n
	for passes < maxPasses {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		passes++
		improved := false

		for i := 1; i < n-2; i++ {
			for j := i + 1; j < n-1; j++ {
				reverse(order, i, j)
				candidate := tourDistance(matrix, order)
				if candidate < best-improvementEpsilon {
					best = candidate
					improved = true
				} else {
					reverse(order, i, j)
				}
			}
		}

		if !improved {
			break
		}
	}

	if passes == maxPasses {
		log.Printf("[TOUR] 2-opt hit pass cap: positions=%d passes=%d", n, passes)
	}

	return &Result{Order: order, DistanceKm: best, BaselineKm: baseline, Passes: passes}, nil
}

// nearestNeighbor builds the initial order: starting at pickup, repeatedly
// move to the nearest unvisited stop (lowest index on ties), then append
// the fixed dropoff.
func nearestNeighbor(matrix [][]float64) []int {
	n := len(matrix)
	order := make([]int, 0, n)
	order = append(order, 0)

	unvisited := make(map[int]bool, n-2)
	for i := 1; i < n-1; i++ {
		unvisited[i] = true
	}

	current := 0
	for len(unvisited) > 0 {
		nearest := -1
		nearestDist := 0.0
		for i := 1; i < n-1; i++ {
			if !unvisited[i] {
				continue
			}
			d := matrix[current][i]
			if nearest < 0 || d < nearestDist {
				nearest = i
				nearestDist = d
			}
		}
		order = append(order, nearest)
		delete(unvisited, nearest)
		current = nearest
	}

	return append(order, n-1)
}

// tourDistance sums the leg distances along the order. Computed in full
// rather than incrementally so asymmetric (directed) matrices stay correct
// under segment reversal.
func tourDistance(matrix [][]float64, order []int) float64 {
	total := 0.0
	for i := 0; i+1 < len(order); i++ {
		total += matrix[order[i]][order[i+1]]
	}
	return total
}

func reverse(order []int, i, j int) {
	for ; i < j; i, j = i+1, j-1 {
		order[i], order[j] = order[j], order[i]
	}
}
