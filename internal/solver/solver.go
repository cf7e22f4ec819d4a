package solver

import (
	"container/heap"
	"errors"
	"fmt"
	"math"

	"cab-route-estimator/internal/graph"
	"cab-route-estimator/internal/models"
)

// Sentinel errors for the failure taxonomy of the solver core.
var (
	// ErrInvalidReference is returned when source or target is absent from
	// the graph. Checked before the search starts.
	ErrInvalidReference = errors.New("solver: node not in graph")

	// ErrNoPath is returned when the frontier empties without reaching the
	// target. A normal outcome on disconnected graphs, not an internal fault.
	ErrNoPath = errors.New("solver: no path to target")

	// ErrReconstruction is returned when the predecessor chain is broken or
	// the reconstructed path disagrees with the reported distance.
	ErrReconstruction = errors.New("solver: path reconstruction failed")
)

// distanceTolerance is the relative tolerance when re-summed edge
// weights are checked against the solver's reported distance.
const distanceTolerance = 1e-6

// SearchState is a read-only view of solver internals handed to observers
// at a checkpoint. Observers must not retain or mutate the maps; collectors
// copy what they need.
type SearchState struct {
	Visited   map[int64]bool
	Frontier  []models.FrontierEntry
	Distances map[int64]float64
	Previous  map[int64]int64
}

// Observer is an optional side-channel over the search. It is invoked at
// well-defined checkpoints and never alters which node is chosen or how
// relaxation proceeds; the solver is correct with no observer attached.
type Observer interface {
	NodePopped(node int64, distanceKm, priority float64, state SearchState)
	EdgeRelaxed(from, to int64, newDistanceKm float64)
}

// Options configures a single solver invocation.
type Options struct {
	// FullTree computes the complete shortest-path tree instead of stopping
	// once the target is popped. Stopping at the target is the default and
	// the documented termination choice; the full tree costs more node
	// expansions and produces a longer step trace.
	FullTree bool

	// Observer receives node-pop and relaxation checkpoints when set.
	Observer Observer
}

// Result carries the outcome of one solver run. On ErrNoPath the Distances
// and Previous maps still hold the partial tree collected, for diagnostics.
type Result struct {
	Path       []int64
	DistanceKm float64
	Expansions int
	Distances  map[int64]float64
	Previous   map[int64]int64
}

// heapItem is one frontier entry. distance is the accumulated cost, which
// differs from priority under A*.
type heapItem struct {
	priority float64
	node     int64
	distance float64
}

// frontier is a min-heap over (priority, node id). The id tie-break keeps
// expansion order deterministic, so step traces are reproducible.
type frontier []heapItem

func (f frontier) Len() int { return len(f) }

func (f frontier) Less(i, j int) bool {
	if f[i].priority != f[j].priority {
		return f[i].priority < f[j].priority
	}
	return f[i].node < f[j].node
}

func (f frontier) Swap(i, j int) { f[i], f[j] = f[j], f[i] }

func (f *frontier) Push(x any) { *f = append(*f, x.(heapItem)) }

func (f *frontier) Pop() any {
	old := *f
	n := len(old)
	item := old[n-1]
	*f = old[:n-1]
	return item
}

// snapshot returns the frontier as an ordered list of (priority, node)
// pairs, cheapest first.
func (f frontier) snapshot() []models.FrontierEntry {
	entries := make([]models.FrontierEntry, len(f))
	for i, item := range f {
		entries[i] = models.FrontierEntry{Priority: item.priority, NodeID: item.node}
	}
	for i := 1; i < len(entries); i++ {
		for j := i; j > 0; j-- {
			a, b := entries[j-1], entries[j]
			if a.Priority < b.Priority || (a.Priority == b.Priority && a.NodeID <= b.NodeID) {
				break
			}
			entries[j-1], entries[j] = b, a
		}
	}
	return entries
}

// run executes the shared Dijkstra/A* mechanics. heuristic returns the
// admissible estimate from a node to the target; Dijkstra passes a zero
// heuristic. Uses lazy decrease-key: stale duplicates are pushed and
// skipped on pop.
func run(g *graph.Graph, source, target int64, heuristic func(int64) float64, opts Options) (*Result, error) {
	if g == nil {
		return nil, fmt.Errorf("%w: graph is nil", ErrInvalidReference)
	}
	if !g.HasNode(source) {
		return nil, fmt.Errorf("%w: source %d", ErrInvalidReference, source)
	}
	if !g.HasNode(target) {
		return nil, fmt.Errorf("%w: target %d", ErrInvalidReference, target)
	}

	dist := map[int64]float64{source: 0}
	prev := make(map[int64]int64)
	visited := make(map[int64]bool)

	pq := make(frontier, 0, g.NodeCount())
	heap.Push(&pq, heapItem{priority: heuristic(source), node: source, distance: 0})

	expansions := 0
	for pq.Len() > 0 {
		item := heap.Pop(&pq).(heapItem)
		if visited[item.node] {
			continue
		}
		visited[item.node] = true
		expansions++

		if opts.Observer != nil {
			opts.Observer.NodePopped(item.node, dist[item.node], item.priority, SearchState{
				Visited:   visited,
				Frontier:  pq.snapshot(),
				Distances: dist,
				Previous:  prev,
			})
		}

		if item.node == target && !opts.FullTree {
			break
		}

		for _, nb := range g.Neighbors(item.node) {
			next := dist[item.node] + nb.DistanceKm
			if cur, ok := dist[nb.NodeID]; !ok || next < cur {
				dist[nb.NodeID] = next
				prev[nb.NodeID] = item.node
				heap.Push(&pq, heapItem{
					priority: next + heuristic(nb.NodeID),
					node:     nb.NodeID,
					distance: next,
				})
				if opts.Observer != nil {
					opts.Observer.EdgeRelaxed(item.node, nb.NodeID, next)
				}
			}
		}
	}

	result := &Result{
		Expansions: expansions,
		Distances:  dist,
		Previous:   prev,
	}

	if !visited[target] {
		return result, fmt.Errorf("%w: %d -> %d after %d expansions", ErrNoPath, source, target, expansions)
	}

	path, total, err := reconstructPath(g, source, target, dist, prev)
	if err != nil {
		return result, err
	}
	result.Path = path
	result.DistanceKm = total
	return result, nil
}

// reconstructPath walks the predecessor map backward from target to source,
// reverses the chain, and re-sums edge weights against the solver's
// reported distance.
func reconstructPath(g *graph.Graph, source, target int64, dist map[int64]float64, prev map[int64]int64) ([]int64, float64, error) {
	path := []int64{target}
	for cur := target; cur != source; {
		p, ok := prev[cur]
		if !ok {
			return nil, 0, fmt.Errorf("%w: node %d has no predecessor", ErrReconstruction, cur)
		}
		cur = p
		path = append(path, cur)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}

	total := 0.0
	for i := 0; i+1 < len(path); i++ {
		w, ok := g.EdgeWeight(path[i], path[i+1])
		if !ok {
			return nil, 0, fmt.Errorf("%w: no edge %d -> %d on reconstructed path", ErrReconstruction, path[i], path[i+1])
		}
		total += w
	}

	reported := dist[target]
	if diff := math.Abs(total - reported); diff > distanceTolerance*math.Max(1, math.Abs(reported)) {
		return nil, 0, fmt.Errorf("%w: path sum %.9f disagrees with reported distance %.9f", ErrReconstruction, total, reported)
	}
	return path, total, nil
}
