package board

import (
	"fmt"
)

type ActionKind int

const (
	NoAction ActionKind = iota
	Slide
	Place
)

func (k ActionKind) String() string {
	switch k {
	case Slide:
		return "slide"
	case Place:
		return "place"
	}
	return "none"
}

// Action is either a slide in some direction or a placement of a tile.
// The zero value is NoAction, which is never legal.
//
// Actionはスライドかタイルの配置のどちらかを表します。ゼロ値はNoActionで、常に非合法です。
type Action struct {
	Kind      ActionKind
	Direction Direction
	Position  int
	Rank      Rank
}

func NewSlide(d Direction) Action {
	return Action{Kind: Slide, Direction: d}
}

func NewPlace(pos int, r Rank) Action {
	return Action{Kind: Place, Position: pos, Rank: r}
}

// Apply applies the action to b and returns its reward, or Illegal.
func (a Action) Apply(b *Board) Reward {
	switch a.Kind {
	case Slide:
		return b.Slide(a.Direction)
	case Place:
		return b.Place(a.Position, a.Rank)
	}
	return Illegal
}

func (a Action) String() string {
	switch a.Kind {
	case Slide:
		return fmt.Sprintf("#%s", a.Direction)
	case Place:
		return fmt.Sprintf("%d@%d", a.Rank.Value(), a.Position)
	}
	return "null"
}
