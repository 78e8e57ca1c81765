package board

import (
	"errors"
	"fmt"
	"github.com/sw965/crow2048/game"
)

var ErrIllegalAction = errors.New("非合法手エラー")

// Role is the seat that acts on a State.
type Role int

const (
	Placer Role = iota
	Slider
)

func (r Role) String() string {
	if r == Slider {
		return "slider"
	}
	return "placer"
}

// TurnOf returns who acts at the given step of an episode.
// The placer puts the first two tiles, then the slider and the placer alternate.
//
// TurnOfはエピソードのstep手目の手番を返します。最初の2手は配置役で、その後はスライド役と配置役が交互に行動します。
func TurnOf(step int) Role {
	if step < 2 || step%2 == 1 {
		return Placer
	}
	return Slider
}

// State is a board paired with the number of actions applied so far.
type State struct {
	Board Board
	Steps int
	Score int
}

func (s State) Turn() Role {
	return TurnOf(s.Steps)
}

// LegalActions returns every legal action of the role to move.
// For the placer these are all empty cells with rank 1 and 2.
func LegalActions(s State) []Action {
	if s.Turn() == Slider {
		ds := s.Board.LegalSlides()
		as := make([]Action, len(ds))
		for i, d := range ds {
			as[i] = NewSlide(d)
		}
		return as
	}

	as := make([]Action, 0, Cells*2)
	for pos := 0; pos < Cells; pos++ {
		if s.Board.At(pos) != Empty {
			continue
		}
		as = append(as, NewPlace(pos, 1), NewPlace(pos, 2))
	}
	return as
}

func Move(s State, a Action) (State, error) {
	want := Place
	if s.Turn() == Slider {
		want = Slide
	}
	if a.Kind != want {
		return State{}, fmt.Errorf("%w: %sの手番に%sは出来ません", ErrIllegalAction, s.Turn(), a.Kind)
	}

	next := s
	reward := a.Apply(&next.Board)
	if reward == Illegal {
		return State{}, fmt.Errorf("%w: %s", ErrIllegalAction, a)
	}
	next.Steps++
	next.Score += int(reward)
	return next, nil
}

// IsEnd reports whether the episode is over: the two-8192 victory,
// or no legal action for the role to move.
func IsEnd(s State) (bool, error) {
	if s.Board.HasTwoWinRanks() {
		return true, nil
	}
	if s.Turn() == Slider {
		return len(s.Board.LegalSlides()) == 0, nil
	}
	return s.Board.EmptyCount() == 0, nil
}

func NewLogic() game.Logic[State, Action, Role] {
	return game.Logic[State, Action, Role]{
		LegalMovesFunc: LegalActions,
		MoveFunc:       Move,
		EqualFunc: func(s1, s2 State) bool {
			return s1 == s2
		},
		CurrentAgentFunc: func(s State) Role {
			return s.Turn()
		},
	}
}

func NewEngine() game.Engine[State, Action, Role] {
	return game.Engine[State, Action, Role]{
		Logic:     NewLogic(),
		IsEndFunc: IsEnd,
		Agents:    []Role{Placer, Slider},
	}
}
