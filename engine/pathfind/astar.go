package pathfind

import (
	"container/heap"
	"math"
)

// Point represents a 2D integer tile coordinate
type Point struct{ Col, Row int }

// dirs is the fixed neighbor expansion order: north first, then clockwise.
// Search results must not depend on iteration randomness, so the order is
// pinned here and mirrored by every other grid scan in the engine.
var dirs = [8][2]int{
	{0, -1}, {1, -1}, {1, 0}, {1, 1},
	{0, 1}, {-1, 1}, {-1, 0}, {-1, -1},
}

// FindPath finds a path from start to goal using A* over 8-connected cells.
// The returned path excludes the start cell; its first element is the first
// step to take, and consecutive elements are always adjacent. Returns nil
// when the goal is unreachable or not walkable.
func FindPath(g Grid, start, goal Point) []Point {
	if !g.Walkable(goal.Col, goal.Row) {
		return nil
	}
	if start == goal {
		return []Point{}
	}

	open := &nodeHeap{}
	heap.Init(open)
	heap.Push(open, &node{p: start, g: 0, f: heuristic(start, goal)})

	came := make(map[Point]Point)
	gScore := make(map[Point]float64)
	gScore[start] = 0

	for open.Len() > 0 {
		cur := heap.Pop(open).(*node)
		if cur.p == goal {
			return reconstructPath(came, start, goal)
		}

		for _, d := range dirs {
			nc, nr := cur.p.Col+d[0], cur.p.Row+d[1]
			if !g.Walkable(nc, nr) {
				continue
			}
			// Prevent diagonal cutting through blocked corners
			if d[0] != 0 && d[1] != 0 {
				if !g.Walkable(cur.p.Col+d[0], cur.p.Row) || !g.Walkable(cur.p.Col, cur.p.Row+d[1]) {
					continue
				}
			}
			np := Point{nc, nr}
			moveCost := g.Cost(nc, nr)
			if d[0] != 0 && d[1] != 0 {
				moveCost *= math.Sqrt2
			}
			tentG := gScore[cur.p] + moveCost
			if old, ok := gScore[np]; ok && tentG >= old {
				continue
			}
			gScore[np] = tentG
			came[np] = cur.p
			heap.Push(open, &node{p: np, g: tentG, f: tentG + heuristic(np, goal)})
		}
	}
	return nil // no path
}

func heuristic(a, b Point) float64 {
	dc := math.Abs(float64(a.Col - b.Col))
	dr := math.Abs(float64(a.Row - b.Row))
	return dc + dr + (math.Sqrt2-2)*math.Min(dc, dr)
}

func reconstructPath(came map[Point]Point, start, goal Point) []Point {
	path := []Point{goal}
	cur := goal
	for {
		prev, ok := came[cur]
		if !ok {
			break
		}
		if prev == start {
			break
		}
		path = append(path, prev)
		cur = prev
	}
	// Reverse
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// --- Priority queue ---

type node struct {
	p    Point
	g, f float64
}

type nodeHeap []*node

func (h nodeHeap) Len() int           { return len(h) }
func (h nodeHeap) Less(i, j int) bool { return h[i].f < h[j].f }
func (h nodeHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *nodeHeap) Push(x interface{}) { *h = append(*h, x.(*node)) }
func (h *nodeHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
