// Package ntuple evaluates boards with N-tuple patterns that share one weight table
// across all symmetric variants of the board.
package ntuple

import (
	"github.com/sw965/crow2048/board"
	"github.com/sw965/crow2048/weight"
)

// Pattern is a set of board positions read as base-16 digits, first position lowest.
type Pattern [4]int

// DefaultPatterns are the four 2x2 quadrants.
var DefaultPatterns = []Pattern{
	{0, 1, 4, 5},
	{2, 3, 6, 7},
	{8, 9, 12, 13},
	{10, 11, 14, 15},
}

// Index computes the feature index of b for p.
// The computation stops as soon as the running index reaches size,
// so a result >= size means the feature has no weight.
func Index(b *board.Board, p Pattern, size int) int {
	index := 0
	multiplier := 1
	for _, pos := range p {
		if pos >= 0 && pos < board.Cells {
			r := min(b.At(pos), board.MaxRank)
			index += int(r) * multiplier
			multiplier *= 16
		}
		if index >= size {
			break
		}
	}
	return index
}

// Isomorphisms returns the 8 symmetric variants of b: the identity, three clockwise
// rotations, and each of those mirrored horizontally.
func Isomorphisms(b board.Board) [8]board.Board {
	var vs [8]board.Board
	v := b
	for i := 0; i < 4; i++ {
		vs[i] = v
		vs[i+4] = v.ReflectHorizontal()
		v = v.RotateClockwise()
	}
	return vs
}

// Variant is a board transform applied before a weight update, with the share of the
// TD error it receives.
type Variant struct {
	Transform func(board.Board) board.Board
	Scale     float32
}

// UpdateVariants are the transforms that receive a weight update. Only the horizontal
// mirror and the transpose are updated besides the identity, at 1/8 of the error each.
var UpdateVariants = []Variant{
	{Transform: func(b board.Board) board.Board { return b }, Scale: 1.0},
	{Transform: board.Board.ReflectHorizontal, Scale: 0.125},
	{Transform: board.Board.Transpose, Scale: 0.125},
}

// Network binds pattern i to table i.
type Network struct {
	Patterns []Pattern
	Tables   weight.Tables
}

func NewNetwork(tables weight.Tables) *Network {
	return &Network{
		Patterns: DefaultPatterns,
		Tables:   tables,
	}
}

// Len is the number of pattern/table pairs in use.
func (n *Network) Len() int {
	return min(len(n.Patterns), len(n.Tables))
}

func (n *Network) IsEmpty() bool {
	return n == nil || len(n.Tables) == 0
}

func (n *Network) weightAt(i int, b *board.Board) float32 {
	table := n.Tables[i]
	idx := Index(b, n.Patterns[i], len(table))
	if idx >= len(table) {
		return 0
	}
	return table[idx]
}

// Evaluate sums the weights of every pattern over every isomorphism of b.
func (n *Network) Evaluate(b board.Board) float32 {
	if n.IsEmpty() {
		return 0
	}

	vs := Isomorphisms(b)
	var value float32
	for i := 0; i < n.Len(); i++ {
		if len(n.Tables[i]) == 0 {
			continue
		}
		for j := range vs {
			value += n.weightAt(i, &vs[j])
		}
	}
	return value
}

// Feature is one table entry touched by an update.
type Feature struct {
	Table int
	Index int
	Scale float32
}

// UpdateFeatures lists the table entries an update of b touches, in update order.
// Entries whose index falls outside their table are left out.
func (n *Network) UpdateFeatures(b board.Board) []Feature {
	if n.IsEmpty() {
		return nil
	}

	fs := make([]Feature, 0, n.Len()*len(UpdateVariants))
	for i := 0; i < n.Len(); i++ {
		size := len(n.Tables[i])
		if size == 0 {
			continue
		}
		for _, variant := range UpdateVariants {
			v := variant.Transform(b)
			idx := Index(&v, n.Patterns[i], size)
			if idx >= size {
				continue
			}
			fs = append(fs, Feature{Table: i, Index: idx, Scale: variant.Scale})
		}
	}
	return fs
}
