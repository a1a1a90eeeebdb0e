// game/board.go
package game

// The board has 16 fixed positions. 0-7 form the inner ring, 8 is the
// center, 9-15 form the outer ring. The outer ring is spoked to inner
// positions 0-6; inner 7 has no outer spoke. The adjacency and win-line
// tables below are the normative contract for move legality and win
// detection.

const (
	// BoardSize is the number of positions on the board.
	BoardSize = 16

	// PiecesPerSeat is how many pieces each side places before the
	// movement phase begins.
	PiecesPerSeat = 3

	centerPos     = 8
	innerRingSize = 8
	outerRingLow  = 9
	outerRingSize = 7
)

// Slot is the occupancy of one board position.
type Slot int

const (
	Empty Slot = 0
	Seat1 Slot = 1
	Seat2 Slot = 2
)

// adjacency maps each position to the positions reachable in one move.
var adjacency = buildAdjacency()

// winLines is the full list of 3-position lines. A seat wins by occupying
// all three positions of any line.
var winLines = buildWinLines()

func buildAdjacency() [BoardSize][]int {
	var adj [BoardSize][]int
	add := func(a, b int) {
		adj[a] = append(adj[a], b)
		adj[b] = append(adj[b], a)
	}

	// Inner ring edges.
	for i := 0; i < innerRingSize; i++ {
		add(i, (i+1)%innerRingSize)
	}
	// Center spokes to every inner position.
	for i := 0; i < innerRingSize; i++ {
		add(centerPos, i)
	}
	// Outer ring edges.
	for j := 0; j < outerRingSize; j++ {
		add(outerRingLow+j, outerRingLow+(j+1)%outerRingSize)
	}
	// Inner-to-outer spokes.
	for i := 0; i < outerRingSize; i++ {
		add(i, i+outerRingLow)
	}

	return adj
}

func buildWinLines() [][3]int {
	var lines [][3]int

	// Three consecutive positions along the inner ring.
	for i := 0; i < innerRingSize; i++ {
		lines = append(lines, [3]int{i, (i + 1) % innerRingSize, (i + 2) % innerRingSize})
	}
	// Diagonals through the center.
	for i := 0; i < 4; i++ {
		lines = append(lines, [3]int{i, centerPos, i + 4})
	}
	// Center-inner-outer spokes.
	for i := 0; i < outerRingSize; i++ {
		lines = append(lines, [3]int{centerPos, i, i + outerRingLow})
	}
	// Three consecutive positions along the outer ring.
	for j := 0; j < outerRingSize; j++ {
		lines = append(lines, [3]int{
			outerRingLow + j,
			outerRingLow + (j+1)%outerRingSize,
			outerRingLow + (j+2)%outerRingSize,
		})
	}

	return lines
}

// Adjacent reports whether two positions share an edge.
func Adjacent(from, to int) bool {
	if from < 0 || from >= BoardSize {
		return false
	}
	for _, n := range adjacency[from] {
		if n == to {
			return true
		}
	}
	return false
}

// Neighbors returns the positions adjacent to pos.
func Neighbors(pos int) []int {
	if pos < 0 || pos >= BoardSize {
		return nil
	}
	out := make([]int, len(adjacency[pos]))
	copy(out, adjacency[pos])
	return out
}

// WinLines returns a copy of the win-line table.
func WinLines() [][3]int {
	out := make([][3]int, len(winLines))
	copy(out, winLines)
	return out
}
