package board

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// Rank is the exponent of a tile. 0 means an empty cell and k means the tile 2^k.
//
// Rankはタイルの指数を表します。0は空きマス、kは2^kのタイルです。
type Rank uint8

const (
	Empty Rank = 0
	// 8192
	WinRank Rank = 13
	// 4096
	NearWinRank Rank = 12
	MaxRank     Rank = 15
)

// Value returns the displayed tile value. An empty cell is 0.
func (r Rank) Value() int {
	return (1 << r) & -2
}

const (
	Rows  = 4
	Cols  = 4
	Cells = Rows * Cols
)

// Reward is the merge score gained by an action, or Illegal.
//
// Rewardは行動によって得られた合体スコアです。非合法手の場合はIllegalになります。
type Reward int

const Illegal Reward = -1

// Direction is a slide direction. The values are the opcodes of the slider.
type Direction int

const (
	Up Direction = iota
	Right
	Down
	Left
)

// Directions is the fixed scan order used for move enumeration and tie-breaking.
var Directions = [4]Direction{Up, Right, Down, Left}

func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Right:
		return "right"
	case Down:
		return "down"
	case Left:
		return "left"
	}
	return "?"
}

// Board is the 4x4 grid of ranks.
//
// index (1-d form):
//
//	(0)  (1)  (2)  (3)
//	(4)  (5)  (6)  (7)
//	(8)  (9) (10) (11)
//	(12) (13) (14) (15)
//
// Boardは4x4のランクの盤面を表します。値型なので、代入すればコピーになります。
type Board [Rows][Cols]Rank

// At returns the rank of the 1-d index i.
func (b *Board) At(i int) Rank {
	return b[i/Cols][i%Cols]
}

// Set writes the rank of the 1-d index i.
func (b *Board) Set(i int, r Rank) {
	b[i/Cols][i%Cols] = r
}

// Place puts a tile of rank r at pos.
// It returns 0 if the placement is valid, or Illegal if the cell is occupied,
// pos is out of range, or r is neither 1 nor 2.
//
// Placeはposにランクrのタイルを置きます。
func (b *Board) Place(pos int, r Rank) Reward {
	if pos < 0 || pos >= Cells || b.At(pos) != Empty {
		return Illegal
	}
	if r != 1 && r != 2 {
		return Illegal
	}
	b.Set(pos, r)
	return 0
}

// Slide applies the slide d and returns the merge score.
// If the board does not change, Illegal is returned and the board is left as it was.
//
// Slideは方向dにスライドし、合体スコアを返します。盤面が変化しない場合はIllegalを返し、盤面はそのままです。
func (b *Board) Slide(d Direction) Reward {
	switch d & 0b11 {
	case Up:
		return b.SlideUp()
	case Right:
		return b.SlideRight()
	case Down:
		return b.SlideDown()
	case Left:
		return b.SlideLeft()
	}
	return Illegal
}

func (b *Board) SlideLeft() Reward {
	prev := *b
	var score Reward
	for r := range b {
		row := &b[r]
		top := 0
		var hold Rank
		for c := 0; c < Cols; c++ {
			tile := row[c]
			if tile == Empty {
				continue
			}
			row[c] = Empty
			if hold == Empty {
				hold = tile
				continue
			}
			if tile == hold {
				tile++
				row[top] = tile
				top++
				score += 1 << tile
				hold = Empty
			} else {
				row[top] = hold
				top++
				hold = tile
			}
		}
		if hold != Empty {
			row[top] = hold
		}
	}
	if *b == prev {
		return Illegal
	}
	return score
}

func (b *Board) SlideRight() Reward {
	*b = b.ReflectHorizontal()
	score := b.SlideLeft()
	*b = b.ReflectHorizontal()
	return score
}

func (b *Board) SlideUp() Reward {
	*b = b.RotateClockwise()
	score := b.SlideRight()
	*b = b.RotateCounterclockwise()
	return score
}

func (b *Board) SlideDown() Reward {
	*b = b.RotateClockwise()
	score := b.SlideLeft()
	*b = b.RotateCounterclockwise()
	return score
}

// ReflectHorizontal mirrors the board left to right.
func (b Board) ReflectHorizontal() Board {
	for r := range b {
		b[r][0], b[r][3] = b[r][3], b[r][0]
		b[r][1], b[r][2] = b[r][2], b[r][1]
	}
	return b
}

// ReflectVertical mirrors the board top to bottom.
func (b Board) ReflectVertical() Board {
	for c := 0; c < Cols; c++ {
		b[0][c], b[3][c] = b[3][c], b[0][c]
		b[1][c], b[2][c] = b[2][c], b[1][c]
	}
	return b
}

// Transpose swaps rows and columns along the main diagonal.
func (b Board) Transpose() Board {
	for r := 0; r < Rows; r++ {
		for c := r + 1; c < Cols; c++ {
			b[r][c], b[c][r] = b[c][r], b[r][c]
		}
	}
	return b
}

// RotateClockwise is Transpose followed by ReflectHorizontal.
func (b Board) RotateClockwise() Board {
	return b.Transpose().ReflectHorizontal()
}

// RotateCounterclockwise is Transpose followed by ReflectVertical.
func (b Board) RotateCounterclockwise() Board {
	return b.Transpose().ReflectVertical()
}

// Reverse rotates the board by a half turn.
func (b Board) Reverse() Board {
	return b.ReflectHorizontal().ReflectVertical()
}

// Rotate rotates the board clockwise n quarter turns. Negative n rotates counterclockwise.
func (b Board) Rotate(n int) Board {
	switch ((n % 4) + 4) % 4 {
	case 1:
		return b.RotateClockwise()
	case 2:
		return b.Reverse()
	case 3:
		return b.RotateCounterclockwise()
	}
	return b
}

// CountRank returns the number of cells equal to r.
//
// CountRankはランクrのマスの数を返します。
func (b *Board) CountRank(r Rank) int {
	n := 0
	for _, row := range b {
		for _, v := range row {
			if v == r {
				n++
			}
		}
	}
	return n
}

// MaxRank returns the largest rank on the board.
func (b *Board) MaxRank() Rank {
	var m Rank
	for _, row := range b {
		for _, v := range row {
			if v > m {
				m = v
			}
		}
	}
	return m
}

func (b *Board) EmptyCount() int {
	return b.CountRank(Empty)
}

// HasTwoWinRanks reports whether at least two 8192 tiles are on the board.
// This is the victory condition of the game.
//
// HasTwoWinRanksは8192のタイルが2枚以上あるかを判定します。これがゲームの勝利条件です。
func (b *Board) HasTwoWinRanks() bool {
	return b.CountRank(WinRank) >= 2
}

// DangerLevel rates how close the board is to the victory condition.
// The result is one of 0.0, 0.4, 0.7 and 1.0.
//
// DangerLevelは勝利条件への近さを返します。0.0は安全、1.0は極めて危険です。
func (b *Board) DangerLevel() float32 {
	win := b.CountRank(WinRank)
	near := b.CountRank(NearWinRank)
	switch {
	case win >= 1 && near >= 2:
		return 1.0
	case win >= 1 && near >= 1:
		return 0.7
	case near >= 3:
		return 0.4
	}
	return 0.0
}

// LegalSlides returns the directions that change the board, in the order of Directions.
func (b Board) LegalSlides() []Direction {
	ds := make([]Direction, 0, len(Directions))
	for _, d := range Directions {
		after := b
		if after.Slide(d) != Illegal {
			ds = append(ds, d)
		}
	}
	return ds
}

func (b Board) String() string {
	var sb strings.Builder
	sb.WriteString("+------------------------+\n")
	for _, row := range b {
		sb.WriteString("|")
		for _, v := range row {
			fmt.Fprintf(&sb, "%6d", v.Value())
		}
		sb.WriteString("|\n")
	}
	sb.WriteString("+------------------------+\n")
	return sb.String()
}

// ParseBoard reads 16 tile values (0, 2, 4, ...) in row-major order.
// Any non-digit characters, including the frame printed by String, are skipped.
func ParseBoard(s string) (Board, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsDigit(r)
	})
	if len(fields) != Cells {
		return Board{}, fmt.Errorf("タイル数が%dではありません: %d", Cells, len(fields))
	}

	var b Board
	for i, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return Board{}, err
		}
		if v == 0 {
			continue
		}
		r := math.Log2(float64(v))
		if r != math.Trunc(r) || r > float64(MaxRank) {
			return Board{}, fmt.Errorf("不正なタイル値です: %d", v)
		}
		b.Set(i, Rank(r))
	}
	return b, nil
}
